package pipeline

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"meddoc-backend/internal/documents"
	"meddoc-backend/internal/shared/server/respond"
	"meddoc-backend/internal/shared/telemetry"
	"meddoc-backend/internal/shared/util"
)

const maxUploadBytes = 20 << 20

// Handler serves the write side of the documents API: upload, reprocess and
// batch runs. Processing is synchronous; the response carries the outcome.
type Handler struct {
	Proc *Processor
	Repo documents.Repo
}

// NewHandler constructs a Handler.
func NewHandler(proc *Processor, repo documents.Repo) *Handler {
	return &Handler{Proc: proc, Repo: repo}
}

// RegisterRoutes attaches processing routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents", h.uploadDocument)
	rg.POST("/documents/:id/process", h.reprocessDocument)
	rg.POST("/process-batch", h.processBatch)
}

func (h *Handler) uploadDocument(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	defer file.Close()

	sanitized, err := util.SanitizeFileName(header.Filename)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid file name", nil)
		return
	}
	if !SupportedExtension(sanitized) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unsupported file type", []map[string]string{
			{"field": "file", "issue": "supported formats: .jpg, .jpeg, .png, .tiff, .pdf"},
		})
		return
	}

	doc, err := h.Proc.Ingest(c.Request.Context(), sanitized, file)
	if err != nil {
		telemetry.Error("pipeline.upload.ingest", map[string]any{
			"filename":   sanitized,
			"error":      err.Error(),
			"request_id": c.GetString("requestId"),
		})
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to store document", nil)
		return
	}

	res := h.Proc.Process(c.Request.Context(), doc.ID, "")
	stored, err := h.Repo.GetByID(c.Request.Context(), doc.ID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch document", nil)
		return
	}

	respond.JSON(c, http.StatusCreated, gin.H{
		"document": documents.NewDocumentDTO(stored),
		"result":   res,
	})
}

func (h *Handler) reprocessDocument(c *gin.Context) {
	documentID := c.Param("id")

	if _, err := h.Repo.GetByID(c.Request.Context(), documentID); err != nil {
		switch {
		case errors.Is(err, documents.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch document", nil)
		}
		return
	}

	res := h.Proc.Process(c.Request.Context(), documentID, "")
	stored, err := h.Repo.GetByID(c.Request.Context(), documentID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch document", nil)
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{
		"document": documents.NewDocumentDTO(stored),
		"result":   res,
	})
}

type batchRequest struct {
	Directory string `json:"directory" form:"directory"`
}

func (h *Handler) processBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBind(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	req.Directory = strings.TrimSpace(req.Directory)
	if req.Directory == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "directory is required", nil)
		return
	}

	out, err := h.Proc.ProcessBatch(c.Request.Context(), req.Directory)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "directory is not readable", []map[string]string{
			{"field": "directory", "issue": err.Error()},
		})
		return
	}
	respond.JSON(c, http.StatusOK, out)
}
