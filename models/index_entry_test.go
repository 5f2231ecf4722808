package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntryIDRoundTrip(t *testing.T) {
	id := EntryID("4815162342")
	assert.Equal(t, "id_4815162342_materia", id)

	doc, ok := DocumentIDFromEntry(id)
	assert.True(t, ok)
	assert.Equal(t, "4815162342", doc)
}

func TestDocumentIDFromEntry_Rejects(t *testing.T) {
	for _, id := range []string{"", "id__materia", "id_12a_materia", "id_12_otro", "xid_12_materia"} {
		_, ok := DocumentIDFromEntry(id)
		assert.False(t, ok, id)
	}
}

func TestOutcomeLabel_IsDecidable(t *testing.T) {
	assert.True(t, OutcomeUnknown.IsDecidable())
	assert.True(t, OutcomeImprocedente.IsDecidable())
	assert.False(t, OutcomeAdmissible.IsDecidable())
	assert.False(t, OutcomeLabel("otro").IsDecidable())
}
