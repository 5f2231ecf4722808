package classifier

import (
	"regexp"
	"strings"
)

// OpeningBases are the spellings of "declarar" that open an operative holding
var OpeningBases = []string{
	"declarar", "declararon", "declare", "DECLARARON", "DECLARAR",
	"Declararon", "Declare", "declarando", "Declarar",
}

// OutcomeKeywords are the procedural terms that may follow an opening phrase
var OutcomeKeywords = []string{
	"PROCEDENTE", "IMPROCEDENTE", "INFUNDADO", "FUNDADO",
	"FUNDADA", "INFUNDADA", "ADMISIBLE", "INADMISIBLE",
}

// Separators are appended to every opening base to build its variants
var Separators = []string{"", ":", ": ", ":  ", ":\n", ":\t", " ", "\n", "\t"}

// separatorClass matches one or more whitespace runes, including the
// Unicode spaces PDF extraction tends to leave behind and the ASCII
// file, group, record and unit separators.
const separatorClass = `[\s\v\p{Z}\x{85}\x{1c}-\x{1f}]+`

// Pattern is a compiled catalog entry
type Pattern struct {
	Source  string
	Keyword string
	re      *regexp.Regexp
}

// Catalog is an ordered, deduplicated set of outcome patterns
type Catalog struct {
	forms    []string
	patterns []Pattern
}

// NewCatalog builds the catalog for the given opening bases and keywords.
// Order follows bases, then separators, then keywords; duplicates keep their
// first position.
func NewCatalog(bases, keywords []string) *Catalog {
	forms := OpeningForms(bases, Separators)

	c := &Catalog{forms: forms}
	seen := make(map[string]struct{})
	for _, form := range forms {
		opening := regexp.QuoteMeta(strings.TrimSpace(form))
		for _, kw := range keywords {
			src := opening + separatorClass + regexp.QuoteMeta(strings.TrimSpace(kw))
			if _, ok := seen[src]; ok {
				continue
			}
			seen[src] = struct{}{}
			c.patterns = append(c.patterns, Pattern{
				Source:  src,
				Keyword: kw,
				re:      regexp.MustCompile(src),
			})
		}
	}
	return c
}

// OpeningForms cross joins every base with every separator, dropping repeats
func OpeningForms(bases, separators []string) []string {
	var forms []string
	seen := make(map[string]struct{})
	for _, base := range bases {
		for _, sep := range separators {
			form := base + sep
			if _, ok := seen[form]; ok {
				continue
			}
			seen[form] = struct{}{}
			forms = append(forms, form)
		}
	}
	return forms
}

// Forms returns the opening variants the catalog was built from
func (c *Catalog) Forms() []string {
	out := make([]string, len(c.forms))
	copy(out, c.forms)
	return out
}

// Patterns returns the catalog entries in catalog order
func (c *Catalog) Patterns() []Pattern {
	out := make([]Pattern, len(c.patterns))
	copy(out, c.patterns)
	return out
}

// Len returns the number of distinct patterns
func (c *Catalog) Len() int {
	return len(c.patterns)
}

var defaultCatalog = NewCatalog(OpeningBases, OutcomeKeywords)

// DefaultCatalog returns the catalog built from the fixed ruling vocabulary
func DefaultCatalog() *Catalog {
	return defaultCatalog
}
