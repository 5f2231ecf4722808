package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"casillero-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const snapshotJSON = `{
  "ids": ["id_1_materia", "id_2_materia", "id_3_materia"],
  "documents": ["nulidad de despido", "queja", "reposicion"],
  "embeddings": [[1, 0, 0], [0, 1, 0], [0, 0, 1]],
  "metadatos": [
    {"role": "materia", "label": "nulidad de despido"},
    {"role": "materia", "label": "queja"},
    {"label": "reposicion"}
  ]
}`

func TestSnapshot_Validate(t *testing.T) {
	tests := []struct {
		name string
		snap Snapshot
	}{
		{"embeddings", Snapshot{IDs: []string{"a"}, Metadatos: []map[string]interface{}{{}}}},
		{"metadata", Snapshot{IDs: []string{"a"}, Embeddings: [][]float32{{1}}}},
		{"documents", Snapshot{IDs: []string{"a"}, Embeddings: [][]float32{{1}}, Metadatos: []map[string]interface{}{{}}, Documents: []string{"x", "y"}}},
		{"empty vector", Snapshot{IDs: []string{"a"}, Embeddings: [][]float32{{}}, Metadatos: []map[string]interface{}{{}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.snap.Validate())
		})
	}
}

func TestSeedService_Import(t *testing.T) {
	ctx := context.Background()
	idx := newChromem(t)
	recorder := newFakeRecorder()
	svc := NewSeedService(WithIndex(idx), WithBatchSize(2), WithRunRecorder(recorder))

	run, err := svc.Import(ctx, strings.NewReader(snapshotJSON))
	require.NoError(t, err)
	assert.Equal(t, models.PassSeed, run.Pass)
	assert.Equal(t, 3, run.Counters.Total)
	assert.Equal(t, 3, run.Counters.Processed)

	entries, err := idx.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "id_3_materia", entries[2].ID)
	assert.Equal(t, "reposicion", entries[2].Label)
	assert.Equal(t, models.IndexRoleMateria, entries[2].Role)

	run, err = svc.Import(ctx, strings.NewReader(snapshotJSON))
	require.NoError(t, err)
	assert.Equal(t, 0, run.Counters.Processed)
	assert.Equal(t, 3, run.Counters.Skipped)

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Len(t, recorder.created, 2)
}

func TestSeedService_ImportKey(t *testing.T) {
	st := newFakeStorage()
	st.put("ini-chromadb.json", []byte(snapshotJSON), time.Now())
	idx := newChromem(t)

	run, err := NewSeedService(WithIndex(idx), WithStorage(st)).ImportKey(context.Background(), "ini-chromadb.json")
	require.NoError(t, err)
	assert.Equal(t, 3, run.Counters.Processed)

	_, err = NewSeedService(WithIndex(idx), WithStorage(st)).ImportKey(context.Background(), "missing.json")
	assert.ErrorIs(t, err, ErrObjectStoreUnavailable)
}

func TestSeedService_ImportFailure(t *testing.T) {
	idx := &failingIndex{Index: newChromem(t), err: errors.New("index down")}

	run, err := NewSeedService(WithIndex(idx)).Import(context.Background(), strings.NewReader(snapshotJSON))
	require.ErrorIs(t, err, ErrIndexUnavailable)
	assert.Equal(t, models.RunStatusFailed, run.Status)
}

func TestSeedService_ExportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newChromem(t)
	st := newFakeStorage()
	svc := NewSeedService(WithIndex(src), WithStorage(st))

	_, err := svc.Import(ctx, strings.NewReader(snapshotJSON))
	require.NoError(t, err)

	n, err := svc.Export(ctx, "snapshots/materias.json")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(st.objects["snapshots/materias.json"], &snap))
	require.NoError(t, snap.Validate())
	assert.Equal(t, []string{"id_1_materia", "id_2_materia", "id_3_materia"}, snap.IDs)

	dst := newChromem(t)
	run, err := NewSeedService(WithIndex(dst)).Import(ctx, bytes.NewReader(st.objects["snapshots/materias.json"]))
	require.NoError(t, err)
	assert.Equal(t, 3, run.Counters.Processed)

	want, err := src.Entries(ctx)
	require.NoError(t, err)
	got, err := dst.Entries(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
