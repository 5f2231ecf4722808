package repository

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListingColumnsMatchInsert(t *testing.T) {
	// ndetalle plus the copied columns make up the 34 inserted values
	assert.Len(t, listingColumns, 33)

	seen := make(map[string]bool)
	for _, col := range listingColumns {
		assert.False(t, seen[col], "duplicate column %s", col)
		seen[col] = true
	}
}

func TestMigrations(t *testing.T) {
	migrations := Migrations()
	require.NotEmpty(t, migrations)

	names := make(map[string]bool)
	for _, m := range migrations {
		assert.False(t, names[m.Name], "duplicate migration %s", m.Name)
		names[m.Name] = true
		assert.Contains(t, m.SQL, "IF NOT EXISTS", m.Name)
	}

	table := migrations[0].SQL
	assert.True(t, strings.HasPrefix(table, "CREATE TABLE IF NOT EXISTS sentencias_y_autos"))
	assert.Contains(t, table, "ndetalle TEXT PRIMARY KEY")
	assert.Contains(t, table, "fecha_real TEXT\n)")
}
