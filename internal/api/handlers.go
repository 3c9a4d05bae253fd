package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/leakwatch/internal/lookup"
	"github.com/nao1215/leakwatch/internal/model"
)

// StatusMessage is the body of the liveness endpoint.
const StatusMessage = "Breach monitor running"

// Error messages returned to clients.
const (
	msgNoParameters  = "No search parameters provided"
	msgInternalError = "internal server error"
	msgNotFound      = "not found"
)

// Searcher answers lookups.
type Searcher interface {
	Search(ctx context.Context, l model.Lookup) ([]model.Finding, error)
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is the body of the liveness endpoint.
type StatusResponse struct {
	Status string `json:"status"`
}

// Handler holds HTTP request handlers.
type Handler struct {
	searcher Searcher
	logger   *slog.Logger
}

// NewHandler creates a new handler instance.
func NewHandler(searcher Searcher, logger *slog.Logger) *Handler {
	return &Handler{
		searcher: searcher,
		logger:   logger,
	}
}

// Status reports that the service is up.
func (h *Handler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, StatusResponse{Status: StatusMessage})
}

// Search handles GET /search.
func (h *Handler) Search(c *gin.Context) {
	req := model.Lookup{
		Email:      c.Query("email"),
		Phone:      c.Query("phone"),
		CreditCard: c.Query("credit_card"),
	}

	findings, err := h.searcher.Search(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, lookup.ErrNoCriteria) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgNoParameters})
			return
		}
		_ = c.Error(err)
		h.logger.Error("search failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: msgInternalError})
		return
	}

	c.JSON(http.StatusOK, findings)
}

// NotFound answers unknown routes with a JSON body.
func (h *Handler) NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: msgNotFound})
}
