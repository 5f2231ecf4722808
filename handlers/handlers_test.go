package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"casillero-backend/classifier"
	"casillero-backend/models"
	"casillero-backend/repository"
	"casillero-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type fakeRuns struct {
	runs map[models.Pass]*models.Run
	err  error
}

func (f *fakeRuns) GetByID(_ context.Context, id uuid.UUID) (*models.Run, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, r := range f.runs {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, repository.ErrRunNotFound
}

func (f *fakeRuns) Latest(_ context.Context, pass models.Pass) (*models.Run, error) {
	if f.err != nil {
		return nil, f.err
	}
	if r, ok := f.runs[pass]; ok {
		return r, nil
	}
	return nil, repository.ErrRunNotFound
}

type fakeCounter map[string]int64

func (f fakeCounter) CountByOutcome(context.Context) (map[string]int64, error) { return f, nil }

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func serve(t *testing.T, r *gin.Engine, path string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func statusRouter(h *StatusHandler) *gin.Engine {
	r := gin.New()
	r.GET("/health", h.Health)
	r.GET("/api/runs/last", h.GetLastRun)
	r.GET("/api/runs/:id", h.GetRun)
	r.GET("/api/documents/outcomes", h.GetOutcomeCounts)
	return r
}

func TestHealth(t *testing.T) {
	w, _ := serve(t, statusRouter(NewStatusHandler(fakePinger{}, &fakeRuns{}, fakeCounter{})), "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok"`)

	w, _ = serve(t, statusRouter(NewStatusHandler(fakePinger{err: errors.New("down")}, &fakeRuns{}, fakeCounter{})), "/health")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGetLastRun(t *testing.T) {
	now := time.Now()
	run := &models.Run{
		ID:        uuid.New(),
		Pass:      models.PassOutcome,
		Status:    models.RunStatusCompleted,
		Counters:  models.RunCounters{Total: 3, Processed: 3, Labels: map[string]int{"fundado": 3}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	runs := &fakeRuns{runs: map[models.Pass]*models.Run{models.PassOutcome: run}}
	r := statusRouter(NewStatusHandler(fakePinger{}, runs, fakeCounter{}))

	w, env := serve(t, r, "/api/runs/last?pass=outcome")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)

	var got models.Run
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, 3, got.Counters.Labels["fundado"])

	w, env = serve(t, r, "/api/runs/last?pass=materia")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	w, env = serve(t, r, "/api/runs/last?pass=bogus")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_PASS", env.Error.Code)
}

func TestGetRun(t *testing.T) {
	run := &models.Run{ID: uuid.New(), Pass: models.PassRoute, Status: models.RunStatusFailed}
	r := statusRouter(NewStatusHandler(fakePinger{}, &fakeRuns{runs: map[models.Pass]*models.Run{models.PassRoute: run}}, fakeCounter{}))

	w, env := serve(t, r, "/api/runs/"+run.ID.String())
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)

	w, env = serve(t, r, "/api/runs/not-a-uuid")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ID", env.Error.Code)

	w, _ = serve(t, r, "/api/runs/"+uuid.NewString())
	assert.Equal(t, http.StatusNotFound, w.Code)

	failing := statusRouter(NewStatusHandler(fakePinger{}, &fakeRuns{err: errors.New("boom")}, fakeCounter{}))
	w, env = serve(t, failing, "/api/runs/"+run.ID.String())
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "RETRIEVAL_FAILED", env.Error.Code)
}

func TestGetOutcomeCounts(t *testing.T) {
	r := statusRouter(NewStatusHandler(fakePinger{}, &fakeRuns{}, fakeCounter{"fundado": 2, "": 5}))

	w, env := serve(t, r, "/api/documents/outcomes")
	require.Equal(t, http.StatusOK, w.Code)

	var counts map[string]int64
	require.NoError(t, json.Unmarshal(env.Data, &counts))
	assert.Equal(t, int64(2), counts["fundado"])
	assert.Equal(t, int64(5), counts[""])
}

type fakeOutcome struct {
	decision classifier.Decision
	err      error
}

func (f fakeOutcome) ClassifyByID(context.Context, string) (classifier.Decision, error) {
	return f.decision, f.err
}

type fakeMateria struct {
	result *service.MateriaResult
	err    error
}

func (f fakeMateria) ClassifyByID(context.Context, string) (*service.MateriaResult, error) {
	return f.result, f.err
}

func classificationRouter(h *ClassificationHandler) *gin.Engine {
	r := gin.New()
	r.GET("/api/documents/:id/outcome", h.ClassifyOutcome)
	r.GET("/api/documents/:id/materia", h.ClassifyMateria)
	return r
}

func TestClassifyOutcome(t *testing.T) {
	h := NewClassificationHandler(fakeOutcome{decision: classifier.Decision{Label: "fundado", Stage: classifier.StageSingleCandidate}}, nil)

	w, env := serve(t, classificationRouter(h), "/api/documents/101/outcome")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.Contains(t, string(env.Data), `"fundado"`)
}

func TestClassifyMateria(t *testing.T) {
	result := &service.MateriaResult{DocumentID: "7", Label: "civil"}
	h := NewClassificationHandler(fakeOutcome{}, fakeMateria{result: result})

	w, env := serve(t, classificationRouter(h), "/api/documents/7/materia")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"civil"`)

	w, env = serve(t, classificationRouter(NewClassificationHandler(fakeOutcome{}, nil)), "/api/documents/7/materia")
	assert.Equal(t, http.StatusNotImplemented, w.Code)
	assert.Equal(t, "NOT_CONFIGURED", env.Error.Code)
}

func TestClassificationErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"missing document", fmt.Errorf("failed to get document: %w", repository.ErrDocumentNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"no pdf", service.ErrNoStoragePointer, http.StatusConflict, "NO_PDF"},
		{"short header", fmt.Errorf("header: %w", classifier.ErrHeaderTooShort), http.StatusUnprocessableEntity, "UNREADABLE_HEADER"},
		{"other", errors.New("boom"), http.StatusInternalServerError, "CLASSIFICATION_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewClassificationHandler(fakeOutcome{err: tt.err}, fakeMateria{err: tt.err})
			for _, path := range []string{"/api/documents/1/outcome", "/api/documents/1/materia"} {
				w, env := serve(t, classificationRouter(h), path)
				assert.Equal(t, tt.status, w.Code, path)
				assert.Equal(t, tt.code, env.Error.Code, path)
				assert.False(t, env.Success)
			}
		})
	}
}
