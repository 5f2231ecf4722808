package classifier

import (
	"sort"

	"casillero-backend/models"
)

const (
	// SingleCandidateThreshold is the position a lone label must exceed
	SingleCandidateThreshold = 0.6
	// MarginThreshold is the lead the best label needs over the runner-up
	MarginThreshold = 0.20
)

// Stage names reported with each decision
const (
	StageSingleCandidate = "single_candidate"
	StageMargin          = "margin"
	StageFallback        = "fallback"
)

// Decision is the outcome picked for a document and the stage that picked it
type Decision struct {
	Label      models.OutcomeLabel `json:"label"`
	Stage      string              `json:"stage"`
	Candidates LabelCandidates     `json:"candidates,omitempty"`
}

// stage either decides a label or defers to the next one
type stage struct {
	name   string
	decide func(LabelCandidates) (models.OutcomeLabel, bool)
}

var cascade = []stage{
	{StageSingleCandidate, singleCandidate},
	{StageMargin, decisiveMargin},
	{StageFallback, fallback},
}

// Decide runs the cascade in order and returns the first decision
func Decide(candidates LabelCandidates) Decision {
	for _, s := range cascade {
		if label, ok := s.decide(candidates); ok {
			return Decision{Label: label, Stage: s.name, Candidates: candidates}
		}
	}
	// fallback always decides
	return Decision{Label: models.OutcomeUnknown, Stage: StageFallback, Candidates: candidates}
}

func singleCandidate(c LabelCandidates) (models.OutcomeLabel, bool) {
	if len(c) != 1 {
		return "", false
	}
	for label, pos := range c {
		if pos > SingleCandidateThreshold {
			return label, true
		}
	}
	return "", false
}

func decisiveMargin(c LabelCandidates) (models.OutcomeLabel, bool) {
	if len(c) < 2 {
		return "", false
	}
	ranked := rank(c)
	best, runnerUp := ranked[len(ranked)-1], ranked[len(ranked)-2]
	if c[best]-c[runnerUp] > MarginThreshold {
		return best, true
	}
	return "", false
}

func fallback(LabelCandidates) (models.OutcomeLabel, bool) {
	return models.OutcomeUnknown, true
}

// rank sorts labels by ascending position; equal positions keep dictionary order
func rank(c LabelCandidates) []models.OutcomeLabel {
	labels := make([]models.OutcomeLabel, 0, len(c))
	for label := range c {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if c[labels[i]] != c[labels[j]] {
			return c[labels[i]] < c[labels[j]]
		}
		return labelRank(labels[i]) < labelRank(labels[j])
	})
	return labels
}
