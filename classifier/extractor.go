package classifier

import "unicode/utf8"

// Candidate is a pattern that matched a document and the normalized position
// of its rightmost match
type Candidate struct {
	Pattern  string
	Keyword  string
	Position float64
}

// CandidateMap holds the matched patterns of one document in catalog order
type CandidateMap []Candidate

// Position returns the stored position for a pattern source
func (m CandidateMap) Position(pattern string) (float64, bool) {
	for _, c := range m {
		if c.Pattern == pattern {
			return c.Position, true
		}
	}
	return 0, false
}

// Extract scans text for every catalog pattern. Positions are the rune offset
// of the rightmost match start divided by the rune length of the text, so
// they fall in [0, 1). Empty text yields an empty map.
func (c *Catalog) Extract(text string) CandidateMap {
	total := utf8.RuneCountInString(text)
	if total == 0 {
		return CandidateMap{}
	}

	candidates := CandidateMap{}
	for _, p := range c.patterns {
		matches := p.re.FindAllStringIndex(text, -1)
		if len(matches) == 0 {
			continue
		}
		last := matches[len(matches)-1][0]
		offset := utf8.RuneCountInString(text[:last])
		candidates = append(candidates, Candidate{
			Pattern:  p.Source,
			Keyword:  p.Keyword,
			Position: float64(offset) / float64(total),
		})
	}
	return candidates
}

// Extract runs the default catalog over text
func Extract(text string) CandidateMap {
	return defaultCatalog.Extract(text)
}
