package classifier

import (
	"errors"
	"regexp"
	"strings"

	"casillero-backend/models"
)

// Header line positions on the first page
const (
	ObjectionLine  = 2
	SubjectLine    = 4
	MinHeaderLines = SubjectLine + 1
)

// DefaultNeighbors is how many indexed subjects are consulted per document
const DefaultNeighbors = 10

var (
	ErrHeaderTooShort = errors.New("first page header too short")
	ErrEmptySubject   = errors.New("subject line is empty")
)

var (
	objectionMarker = regexp.MustCompile(`(?i)\bqueja\b`)
	subjectSuffixes = []string{"y otros", "y otro"}
)

// Header is the part of a ruling's first page used for subject matter
type Header struct {
	Subject   string `json:"subject"`
	Objection bool   `json:"objection"`
}

// ParseHeader reads the subject and the queja marker from the first page
// lines. pages holds one line slice per extracted page.
func ParseHeader(pages [][]string) (Header, error) {
	if len(pages) == 0 || len(pages[0]) < MinHeaderLines {
		return Header{}, ErrHeaderTooShort
	}
	lines := pages[0]

	subject := NormalizeSubject(lines[SubjectLine])
	if subject == "" {
		return Header{}, ErrEmptySubject
	}

	return Header{
		Subject:   subject,
		Objection: objectionMarker.MatchString(lines[ObjectionLine]),
	}, nil
}

// NormalizeSubject lower-cases a subject line and strips the trailing
// "y otros" / "y otro" party boilerplate
func NormalizeSubject(line string) string {
	s := strings.TrimSpace(strings.ToLower(line))
	for _, suffix := range subjectSuffixes {
		if strings.HasSuffix(s, suffix) {
			s = strings.TrimSpace(strings.TrimSuffix(s, suffix))
			break
		}
	}
	return s
}

// NearestAcceptedLabel returns the label of the closest neighbor that is not
// itself a queja. Neighbors must be ordered nearest first. When every
// neighbor is a queja, or there are none, the queja label is returned.
func NearestAcceptedLabel(neighbors []models.Neighbor) string {
	for _, n := range neighbors {
		if n.Label != models.MateriaObjection && n.Label != "" {
			return n.Label
		}
	}
	return models.MateriaObjection
}

// MateriaLabel applies the queja override on top of the neighbor label
func MateriaLabel(h Header, neighbors []models.Neighbor) string {
	if h.Objection {
		return models.MateriaObjection
	}
	return NearestAcceptedLabel(neighbors)
}
