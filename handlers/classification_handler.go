package handlers

import (
	"context"
	"errors"
	"net/http"

	"casillero-backend/classifier"
	"casillero-backend/repository"
	"casillero-backend/service"

	"github.com/gin-gonic/gin"
)

// OutcomeClassifier classifies one stored document's outcome without writing
type OutcomeClassifier interface {
	ClassifyByID(ctx context.Context, id string) (classifier.Decision, error)
}

// MateriaClassifier classifies one stored document's subject without writing
type MateriaClassifier interface {
	ClassifyByID(ctx context.Context, id string) (*service.MateriaResult, error)
}

// ClassificationHandler runs the classifiers on demand for a single document
type ClassificationHandler struct {
	outcome OutcomeClassifier
	materia MateriaClassifier
}

// NewClassificationHandler creates a new classification handler
func NewClassificationHandler(outcome OutcomeClassifier, materia MateriaClassifier) *ClassificationHandler {
	return &ClassificationHandler{
		outcome: outcome,
		materia: materia,
	}
}

// ClassifyOutcome handles GET /api/documents/:id/outcome
func (h *ClassificationHandler) ClassifyOutcome(c *gin.Context) {
	decision, err := h.outcome.ClassifyByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondClassificationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    decision,
	})
}

// ClassifyMateria handles GET /api/documents/:id/materia
func (h *ClassificationHandler) ClassifyMateria(c *gin.Context) {
	if h.materia == nil {
		c.JSON(http.StatusNotImplemented, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_CONFIGURED",
				"message": "Subject-matter classification is not configured",
			},
		})
		return
	}

	result, err := h.materia.ClassifyByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondClassificationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

func respondClassificationError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "CLASSIFICATION_FAILED"
	switch {
	case errors.Is(err, repository.ErrDocumentNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, service.ErrNoStoragePointer):
		status, code = http.StatusConflict, "NO_PDF"
	case errors.Is(err, classifier.ErrHeaderTooShort), errors.Is(err, classifier.ErrEmptySubject):
		status, code = http.StatusUnprocessableEntity, "UNREADABLE_HEADER"
	}

	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": err.Error(),
		},
	})
}
