package models

import (
	"fmt"
	"regexp"
)

// IndexRoleMateria is the role stored on every subject-matter index entry
const IndexRoleMateria = "materia"

// Metadata keys stored alongside each index entry
const (
	MetaRole  = "role"
	MetaLabel = "label"
)

var entryIDPattern = regexp.MustCompile(`^id_(\d+)_materia$`)

// IndexEntry represents one document's subject embedding in the vector index
type IndexEntry struct {
	ID       string    `json:"id"`
	Document string    `json:"document"`
	Vector   []float32 `json:"-"`
	Role     string    `json:"role"`
	Label    string    `json:"label"`
}

// Metadata returns the entry metadata in its stored form
func (e IndexEntry) Metadata() map[string]string {
	return map[string]string{
		MetaRole:  e.Role,
		MetaLabel: e.Label,
	}
}

// Neighbor represents one result of a nearest-neighbor query
type Neighbor struct {
	ID       string  `json:"id"`
	Label    string  `json:"label"`
	Role     string  `json:"role"`
	Distance float64 `json:"distance"`
}

// EntryID builds the index entry id for a document id
func EntryID(documentID string) string {
	return fmt.Sprintf("id_%s_materia", documentID)
}

// DocumentIDFromEntry parses an entry id back into its document id.
// Ids not following the id_<digits>_materia scheme are rejected.
func DocumentIDFromEntry(entryID string) (string, bool) {
	m := entryIDPattern.FindStringSubmatch(entryID)
	if m == nil {
		return "", false
	}
	return m[1], true
}
