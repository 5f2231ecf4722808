package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"casillero-backend/embeddings"
	"casillero-backend/storage"
	"casillero-backend/vectorindex"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 15*time.Second, cfg.Classifier.DownloadTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.Classifier.WriteInterval)
	assert.Equal(t, 40, cfg.Classifier.ProgressEvery)
	assert.Equal(t, 10, cfg.Classifier.Neighbors)
	assert.Equal(t, 1, cfg.Classifier.HeaderPages)
	assert.Equal(t, DefaultPermittedBodies, cfg.Classifier.PermittedBodies)
	assert.Equal(t, 10*time.Second, cfg.Database.StatementTimeout)
	assert.Equal(t, "descargas_pdf/", cfg.Storage.PDFPrefix)
	assert.Equal(t, 4000, cfg.Seed.BatchSize)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeFile(t, `
embedding:
  provider: fastembed
index:
  backend: chromem
  path: /var/lib/casillero/index
classifier:
  neighbors: 5
  write_interval: 250ms
  permitted_bodies:
    - PRIMERA SALA
`)
	t.Setenv("CLASSIFIER_NEIGHBORS", "7")
	t.Setenv("INDEX_COMPRESS", "true")
	t.Setenv("LOCAL_STORAGE_PATH", "/srv/pdfs")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Classifier.Neighbors)
	assert.Equal(t, 250*time.Millisecond, cfg.Classifier.WriteInterval)
	assert.Equal(t, []string{"PRIMERA SALA"}, cfg.Classifier.PermittedBodies)
	assert.Equal(t, embeddings.DefaultFastEmbedDimension, cfg.Embedding.Dimension)
	assert.Equal(t, vectorindex.DefaultCollection, cfg.Index.Collection)
	assert.True(t, cfg.Index.Compress)
	assert.Equal(t, "/srv/pdfs", cfg.Storage.LocalPath)
}

func TestLoad_PermittedBodiesFromEnv(t *testing.T) {
	t.Setenv("CLASSIFIER_PERMITTED_BODIES", "SALA A; SALA B ;")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"SALA A", "SALA B"}, cfg.Classifier.PermittedBodies)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("STORAGE_TYPE", "s3")
	t.Setenv("AWS_S3_BUCKET", "")
	t.Setenv("INDEX_BACKEND", "faiss")

	_, err := Load("")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "s3_bucket")
	assert.Contains(t, err.Error(), "faiss")
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		name    string
		wantKey string
	}{
		{"DATABASE_URL", "database.url"},
		{"GEMINI_API_KEY", "gemini.api_key"},
		{"AWS_SECRET_ACCESS_KEY", "aws.secret_access_key"},
		{"PORT", "server.port"},
		{"PATH", ""},
		{"HOME", ""},
		{"GOPATH", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, _ := envKey(tt.name, "x")
			assert.Equal(t, tt.wantKey, key)
		})
	}
}

func TestSettingsConversion(t *testing.T) {
	cfg := &Config{}
	cfg.AWS.S3Bucket = "casillero"
	cfg.Storage.Type = "s3"
	cfg.Gemini.APIKey = "key"
	cfg.ApplyDefaults()

	st := cfg.StorageSettings()
	assert.Equal(t, storage.StorageTypeS3, st.Type)
	assert.Equal(t, "casillero", st.S3Bucket)

	emb := cfg.EmbeddingSettings()
	assert.Equal(t, embeddings.ProviderGemini, emb.Provider)
	assert.Equal(t, "key", emb.APIKey)

	idx := cfg.IndexSettings()
	assert.Equal(t, vectorindex.BackendPgvector, idx.Backend)
	assert.Equal(t, vectorindex.DefaultTable, idx.Collection)
	assert.Equal(t, embeddings.DefaultGeminiDimension, idx.Dimension)
}
