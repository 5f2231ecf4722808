package handlers

import (
	"context"
	"errors"
	"net/http"

	"casillero-backend/models"
	"casillero-backend/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Pinger checks that the document store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// RunSource reads the history of batch runs
type RunSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Run, error)
	Latest(ctx context.Context, pass models.Pass) (*models.Run, error)
}

// OutcomeCounter counts documents per outcome label
type OutcomeCounter interface {
	CountByOutcome(ctx context.Context) (map[string]int64, error)
}

// StatusHandler handles HTTP requests about the engine's state
type StatusHandler struct {
	db       Pinger
	runs     RunSource
	outcomes OutcomeCounter
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(db Pinger, runs RunSource, outcomes OutcomeCounter) *StatusHandler {
	return &StatusHandler{
		db:       db,
		runs:     runs,
		outcomes: outcomes,
	}
}

// Health handles GET /health
func (h *StatusHandler) Health(c *gin.Context) {
	if err := h.db.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unavailable",
			"message": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

var knownPasses = map[models.Pass]bool{
	models.PassIngest:  true,
	models.PassRoute:   true,
	models.PassOutcome: true,
	models.PassMateria: true,
	models.PassSeed:    true,
}

// GetLastRun handles GET /api/runs/last?pass=
func (h *StatusHandler) GetLastRun(c *gin.Context) {
	pass := models.Pass(c.Query("pass"))
	if pass != "" && !knownPasses[pass] {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_PASS",
				"message": "Unknown pass: " + string(pass),
			},
		})
		return
	}

	run, err := h.runs.Latest(c.Request.Context(), pass)
	h.respondRun(c, run, err)
}

// GetRun handles GET /api/runs/:id
func (h *StatusHandler) GetRun(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid run ID format",
			},
		})
		return
	}

	run, err := h.runs.GetByID(c.Request.Context(), id)
	h.respondRun(c, run, err)
}

func (h *StatusHandler) respondRun(c *gin.Context, run *models.Run, err error) {
	if errors.Is(err, repository.ErrRunNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Run not found",
			},
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "RETRIEVAL_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    run,
	})
}

// GetOutcomeCounts handles GET /api/documents/outcomes
func (h *StatusHandler) GetOutcomeCounts(c *gin.Context) {
	counts, err := h.outcomes.CountByOutcome(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "RETRIEVAL_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    counts,
	})
}
