package documents

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"meddoc-backend/internal/shared/server/respond"
	"meddoc-backend/internal/shared/telemetry"
)

// Handler serves the read and admin side of the documents API. Uploading and
// processing are owned by the pipeline handler.
type Handler struct {
	Repo Repo
}

// NewHandler constructs a Handler.
func NewHandler(repo Repo) *Handler {
	return &Handler{Repo: repo}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/documents", h.listDocuments)
	rg.GET("/documents/:id", h.getDocument)
	rg.GET("/documents/:id/logs", h.listLogs)
	rg.DELETE("/documents/:id", h.deleteDocument)
}

func (h *Handler) listDocuments(c *gin.Context) {
	status := StatusCompleted
	if raw := c.Query("status"); raw != "" {
		parsed, ok := ParseStatus(raw)
		if !ok {
			respond.Error(c, http.StatusBadRequest, "validation_error", "unknown status", []map[string]string{
				{"field": "status", "issue": "must be one of pending, processing, completed, failed, needs_review"},
			})
			return
		}
		status = parsed
	}

	docs, err := h.Repo.ListByStatus(c.Request.Context(), status)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list documents", nil)
		return
	}

	resp := make([]DocumentDTO, 0, len(docs))
	for _, doc := range docs {
		resp = append(resp, NewDocumentDTO(doc))
	}
	respond.JSON(c, http.StatusOK, gin.H{"documents": resp})
}

func (h *Handler) getDocument(c *gin.Context) {
	documentID := c.Param("id")
	if documentID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "document id is required", nil)
		return
	}

	doc, err := h.Repo.GetByID(c.Request.Context(), documentID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch document", nil)
		}
		return
	}
	respond.JSON(c, http.StatusOK, NewDocumentDTO(doc))
}

func (h *Handler) listLogs(c *gin.Context) {
	documentID := c.Param("id")

	if _, err := h.Repo.GetByID(c.Request.Context(), documentID); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch document", nil)
		}
		return
	}

	logs, err := h.Repo.ListLogs(c.Request.Context(), documentID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list processing logs", nil)
		return
	}

	resp := make([]LogDTO, 0, len(logs))
	for _, entry := range logs {
		resp = append(resp, NewLogDTO(entry))
	}
	respond.JSON(c, http.StatusOK, gin.H{"logs": resp})
}

func (h *Handler) deleteDocument(c *gin.Context) {
	documentID := c.Param("id")

	if err := h.Repo.Delete(c.Request.Context(), documentID); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete document", nil)
		}
		return
	}

	telemetry.Info("documents.deleted", map[string]any{
		"document_id": documentID,
		"request_id":  c.GetString("requestId"),
	})
	c.Status(http.StatusNoContent)
}
