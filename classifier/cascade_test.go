package classifier

import (
	"strings"
	"testing"

	"casillero-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_Dictionary(t *testing.T) {
	got := Normalize(CandidateMap{
		{Pattern: "a", Keyword: "FUNDADA", Position: 0.2},
		{Pattern: "b", Keyword: "INFUNDADO", Position: 0.4},
		{Pattern: "c", Keyword: "PROCEDENTE", Position: 0.5},
		{Pattern: "d", Keyword: "IMPROCEDENTE", Position: 0.6},
	})
	assert.Equal(t, LabelCandidates{
		models.OutcomeUpheld:       0.2,
		models.OutcomeRejected:     0.4,
		models.OutcomeProcedente:   0.5,
		models.OutcomeImprocedente: 0.6,
	}, got)
}

func TestNormalize_LaterDictionaryEntryWins(t *testing.T) {
	// FUNDADO is after FUNDADA in the dictionary, so its score is kept
	got := Normalize(CandidateMap{
		{Pattern: "b", Keyword: "FUNDADO", Position: 0.1},
		{Pattern: "a", Keyword: "FUNDADA", Position: 0.9},
	})
	assert.Equal(t, LabelCandidates{models.OutcomeUpheld: 0.1}, got)
}

func TestNormalize_LastCandidateWinsWithinEntry(t *testing.T) {
	got := Normalize(CandidateMap{
		{Pattern: "declarar", Keyword: "FUNDADO", Position: 0.9},
		{Pattern: "declarar:", Keyword: "FUNDADO", Position: 0.3},
	})
	assert.Equal(t, LabelCandidates{models.OutcomeUpheld: 0.3}, got)
}

func TestNormalize_AdmissibleIsDropped(t *testing.T) {
	got := Normalize(CandidateMap{
		{Pattern: "a", Keyword: "ADMISIBLE", Position: 0.9},
		{Pattern: "b", Keyword: "INADMISIBLE", Position: 0.8},
	})
	assert.Empty(t, got)
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name       string
		candidates LabelCandidates
		want       models.OutcomeLabel
		stage      string
	}{
		{
			name:       "single above threshold",
			candidates: LabelCandidates{models.OutcomeUpheld: 0.82},
			want:       models.OutcomeUpheld,
			stage:      StageSingleCandidate,
		},
		{
			name:       "single below threshold",
			candidates: LabelCandidates{models.OutcomeUpheld: 0.5},
			want:       models.OutcomeUnknown,
			stage:      StageFallback,
		},
		{
			name:       "single at threshold",
			candidates: LabelCandidates{models.OutcomeRejected: 0.6},
			want:       models.OutcomeUnknown,
			stage:      StageFallback,
		},
		{
			name:       "decisive margin",
			candidates: LabelCandidates{models.OutcomeUpheld: 0.9, models.OutcomeRejected: 0.5},
			want:       models.OutcomeUpheld,
			stage:      StageMargin,
		},
		{
			name:       "narrow margin",
			candidates: LabelCandidates{models.OutcomeUpheld: 0.55, models.OutcomeRejected: 0.50},
			want:       models.OutcomeUnknown,
			stage:      StageFallback,
		},
		{
			name: "margin uses top two only",
			candidates: LabelCandidates{
				models.OutcomeUpheld:       0.1,
				models.OutcomeImprocedente: 0.5,
				models.OutcomeRejected:     0.95,
			},
			want:  models.OutcomeRejected,
			stage: StageMargin,
		},
		{
			name: "runner-up too close",
			candidates: LabelCandidates{
				models.OutcomeUpheld:       0.1,
				models.OutcomeImprocedente: 0.85,
				models.OutcomeRejected:     0.95,
			},
			want:  models.OutcomeUnknown,
			stage: StageFallback,
		},
		{
			name: "tied leaders",
			candidates: LabelCandidates{
				models.OutcomeUpheld:   0.9,
				models.OutcomeRejected: 0.9,
			},
			want:  models.OutcomeUnknown,
			stage: StageFallback,
		},
		{
			name:       "no candidates",
			candidates: LabelCandidates{},
			want:       models.OutcomeUnknown,
			stage:      StageFallback,
		},
		{
			name:       "nil candidates",
			candidates: nil,
			want:       models.OutcomeUnknown,
			stage:      StageFallback,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.candidates)
			assert.Equal(t, tt.want, got.Label)
			assert.Equal(t, tt.stage, got.Stage)
		})
	}
}

func TestDecide_Deterministic(t *testing.T) {
	c := LabelCandidates{
		models.OutcomeUpheld:       0.3,
		models.OutcomeRejected:     0.3,
		models.OutcomeProcedente:   0.75,
		models.OutcomeImprocedente: 0.1,
	}
	first := Decide(c)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first.Label, Decide(c).Label)
	}
	assert.Equal(t, models.OutcomeProcedente, first.Label)
}

func TestRank_TiesFollowDictionaryOrder(t *testing.T) {
	got := rank(LabelCandidates{
		models.OutcomeImprocedente: 0.5,
		models.OutcomeUpheld:       0.5,
		models.OutcomeRejected:     0.2,
	})
	assert.Equal(t, []models.OutcomeLabel{
		models.OutcomeRejected,
		models.OutcomeUpheld,
		models.OutcomeImprocedente,
	}, got)
}

func TestClassifyOutcome(t *testing.T) {
	filler := strings.Repeat("considerando que la parte demandante ", 20)

	tests := []struct {
		name string
		text string
		want models.OutcomeLabel
	}{
		{"holding at the end", filler + "por tanto: DECLARARON FUNDADA la demanda", models.OutcomeUpheld},
		{"holding at the start", "Declare INFUNDADO el recurso " + filler, models.OutcomeUnknown},
		{"improcedente at the end", filler + "declarar IMPROCEDENTE", models.OutcomeImprocedente},
		{"admisible only", filler + "DECLARAR ADMISIBLE", models.OutcomeUnknown},
		{"empty", "", models.OutcomeUnknown},
		{
			"final holding beats early mention",
			"declarar PROCEDENTE el pedido cautelar " + filler + filler + "DECLARARON INFUNDADO el recurso",
			models.OutcomeRejected,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyOutcome(tt.text)
			assert.Equal(t, tt.want, got.Label)
			require.True(t, got.Label.IsDecidable())
		})
	}
}
