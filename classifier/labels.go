package classifier

import "casillero-backend/models"

type keywordLabel struct {
	keyword string
	label   models.OutcomeLabel
}

// labelDictionary is walked in order. For each entry every candidate is
// visited in catalog order and the last hit overwrites the label's score, so
// FUNDADO beats FUNDADA when both matched.
// ADMISIBLE and INADMISIBLE have no entry and never become labels.
var labelDictionary = []keywordLabel{
	{"FUNDADA", models.OutcomeUpheld},
	{"FUNDADO", models.OutcomeUpheld},
	{"INFUNDADA", models.OutcomeRejected},
	{"INFUNDADO", models.OutcomeRejected},
	{"PROCEDENTE", models.OutcomeProcedente},
	{"IMPROCEDENTE", models.OutcomeImprocedente},
}

// LabelCandidates maps outcome labels to their position score
type LabelCandidates map[models.OutcomeLabel]float64

// Normalize collapses matched patterns onto the outcome vocabulary
func Normalize(candidates CandidateMap) LabelCandidates {
	out := make(LabelCandidates)
	for _, entry := range labelDictionary {
		for _, c := range candidates {
			if c.Keyword != entry.keyword {
				continue
			}
			out[entry.label] = c.Position
		}
	}
	return out
}

// labelRank orders labels by first appearance in the dictionary
func labelRank(label models.OutcomeLabel) int {
	for i, entry := range labelDictionary {
		if entry.label == label {
			return i
		}
	}
	return len(labelDictionary)
}
