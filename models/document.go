package models

import "time"

// OutcomeLabel represents the procedural outcome of a ruling
type OutcomeLabel string

// Stored values match the labels already present in the document store
const (
	OutcomeUpheld       OutcomeLabel = "fundado"
	OutcomeRejected     OutcomeLabel = "infundado"
	OutcomeProcedente   OutcomeLabel = "procedente"
	OutcomeImprocedente OutcomeLabel = "improcedente"
	OutcomeAdmissible   OutcomeLabel = "admisible"
	OutcomeInadmissible OutcomeLabel = "inadmisible"
	OutcomeUnknown      OutcomeLabel = "desconocido"
)

// MateriaObjection is the subject-matter label for procedural complaints (queja)
const MateriaObjection = "queja"

// DecidableOutcomes is the closed set of labels the outcome classifier can produce
var DecidableOutcomes = []OutcomeLabel{
	OutcomeUpheld,
	OutcomeRejected,
	OutcomeProcedente,
	OutcomeImprocedente,
	OutcomeUnknown,
}

// MateriaEligibleOutcomes are the outcomes a document must carry before it is
// considered for subject-matter classification
var MateriaEligibleOutcomes = []OutcomeLabel{OutcomeUpheld, OutcomeRejected}

// IsDecidable reports whether the label belongs to DecidableOutcomes
func (l OutcomeLabel) IsDecidable() bool {
	for _, d := range DecidableOutcomes {
		if l == d {
			return true
		}
	}
	return false
}

// Document represents a ruling row as read by the classification passes
type Document struct {
	ID         string        `json:"id"`
	StorageKey string        `json:"storage_key"`
	Body       string        `json:"body,omitempty"`
	Outcome    *OutcomeLabel `json:"outcome,omitempty"`
	Materia    *string       `json:"materia,omitempty"`
}

// StoredObject represents an object listed from the object store
type StoredObject struct {
	Key       string    `json:"key"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}
