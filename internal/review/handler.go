package review

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"meddoc-backend/internal/documents"
	"meddoc-backend/internal/patients"
	"meddoc-backend/internal/pipeline"
	"meddoc-backend/internal/shared/server/respond"
)

// Handler serves the human review queue: listing flagged documents, showing
// one document's low-confidence fields and accepting corrections.
type Handler struct {
	Repo documents.Repo
	Proc *pipeline.Processor
}

// NewHandler constructs a Handler.
func NewHandler(repo documents.Repo, proc *pipeline.Processor) *Handler {
	return &Handler{Repo: repo, Proc: proc}
}

// RegisterRoutes attaches review routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/review", h.listQueue)
	rg.GET("/review/:id", h.getReviewItem)
	rg.POST("/review/:id", h.submitCorrections)
}

func (h *Handler) listQueue(c *gin.Context) {
	docs, err := h.Repo.ListNeedingReview(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list review queue", nil)
		return
	}

	resp := make([]documents.DocumentDTO, 0, len(docs))
	for _, doc := range docs {
		resp = append(resp, documents.NewDocumentDTO(doc))
	}
	respond.JSON(c, http.StatusOK, gin.H{"documents": resp})
}

func (h *Handler) getReviewItem(c *gin.Context) {
	doc, err := h.Repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, documents.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch document", nil)
		}
		return
	}

	lowConfidence := []string{}
	if doc.FieldSet != nil {
		for name := range doc.FieldSet.LowConfidenceFields() {
			lowConfidence = append(lowConfidence, name)
		}
	}
	respond.JSON(c, http.StatusOK, gin.H{
		"document":            documents.NewDocumentDTO(doc),
		"lowConfidenceFields": lowConfidence,
	})
}

type correctionRequest struct {
	Name        string `json:"name" form:"name"`
	DateOfBirth string `json:"dateOfBirth" form:"date_of_birth"`
	InsuranceID string `json:"insuranceId" form:"insurance_id"`
	Address     string `json:"address" form:"address"`
	Phone       string `json:"phone" form:"phone"`
	Email       string `json:"email" form:"email"`
}

func (req correctionRequest) validate() []map[string]string {
	var issues []map[string]string
	if strings.TrimSpace(req.Name) == "" {
		issues = append(issues, map[string]string{"field": "name", "issue": "required"})
	}
	if strings.TrimSpace(req.DateOfBirth) == "" {
		issues = append(issues, map[string]string{"field": "date_of_birth", "issue": "required"})
	}
	if strings.TrimSpace(req.InsuranceID) == "" {
		issues = append(issues, map[string]string{"field": "insurance_id", "issue": "required"})
	}
	return issues
}

func (h *Handler) submitCorrections(c *gin.Context) {
	documentID := c.Param("id")

	var req correctionRequest
	if err := c.ShouldBind(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if issues := req.validate(); len(issues) > 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "missing required fields", issues)
		return
	}

	fs := patients.Reviewed(
		strings.TrimSpace(req.Name),
		strings.TrimSpace(req.DateOfBirth),
		strings.TrimSpace(req.InsuranceID),
		strings.TrimSpace(req.Address),
		strings.TrimSpace(req.Phone),
		strings.TrimSpace(req.Email),
	)

	doc, err := h.Proc.ReviewUpdate(c.Request.Context(), documentID, fs)
	if err != nil {
		switch {
		case errors.Is(err, documents.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to apply corrections", nil)
		}
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"document": documents.NewDocumentDTO(doc)})
}
