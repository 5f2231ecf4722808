package classifier

// ClassifyOutcome extracts, normalizes and decides the outcome of a ruling text
func ClassifyOutcome(text string) Decision {
	return DefaultCatalog().Classify(text)
}

// Classify runs the full outcome pipeline with this catalog
func (c *Catalog) Classify(text string) Decision {
	return Decide(Normalize(c.Extract(text)))
}
