package review

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"meddoc-backend/internal/documents"
	"meddoc-backend/internal/extraction"
	"meddoc-backend/internal/patients"
	"meddoc-backend/internal/pipeline"
)

func setupReviewRouter(t *testing.T) (*gin.Engine, *documents.MemoryRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := documents.NewMemoryRepo()
	proc := pipeline.NewProcessor(repo, nil, nil, extraction.New())
	router := gin.New()
	NewHandler(repo, proc).RegisterRoutes(router.Group("/api/v1"))
	return router, repo
}

func seedFlaggedDocument(t *testing.T, repo *documents.MemoryRepo, id string) {
	t.Helper()
	ctx := context.Background()
	err := repo.Create(ctx, documents.Document{
		ID:               id,
		Filename:         id + ".pdf",
		MimeType:         "application/pdf",
		ProcessingStatus: documents.StatusProcessing,
	})
	if err != nil {
		t.Fatalf("create document: %v", err)
	}

	fs := patients.FieldSet{
		Name:        patients.ExtractedField{Value: "Jane Doe", Confidence: 0.8},
		InsuranceID: patients.ExtractedField{Value: "ABC-123", Confidence: 0.6},
	}
	if err := repo.FinishProcessing(ctx, id, documents.Outcome(fs), "Jane Doe ABC-123", fs); err != nil {
		t.Fatalf("finish processing: %v", err)
	}
}

func TestListQueueIncludesFlaggedDocuments(t *testing.T) {
	router, repo := setupReviewRouter(t)
	seedFlaggedDocument(t, repo, "doc-1")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/review", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var body struct {
		Documents []documents.DocumentDTO `json:"documents"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Documents) != 1 || body.Documents[0].ID != "doc-1" {
		t.Fatalf("documents = %+v", body.Documents)
	}
	if !body.Documents[0].NeedsReview {
		t.Fatal("expected needsReview true")
	}
}

func TestGetReviewItemListsLowConfidenceFields(t *testing.T) {
	router, repo := setupReviewRouter(t)
	seedFlaggedDocument(t, repo, "doc-1")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/review/doc-1", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var body struct {
		LowConfidenceFields []string `json:"lowConfidenceFields"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	seen := make(map[string]bool, len(body.LowConfidenceFields))
	for _, name := range body.LowConfidenceFields {
		seen[name] = true
	}
	if !seen[patients.FieldInsuranceID] {
		t.Fatalf("expected insurance_id flagged, got %v", body.LowConfidenceFields)
	}
	if seen[patients.FieldName] {
		t.Fatalf("name should not be flagged, got %v", body.LowConfidenceFields)
	}
}

func TestSubmitCorrectionsRequiresFields(t *testing.T) {
	router, repo := setupReviewRouter(t)
	seedFlaggedDocument(t, repo, "doc-1")

	payload := `{"name":"Jane Doe","insuranceId":"ABC-123"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/review/doc-1", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "date_of_birth") {
		t.Fatalf("expected date_of_birth issue, got %s", resp.Body.String())
	}
}

func TestSubmitCorrectionsCompletesDocument(t *testing.T) {
	router, repo := setupReviewRouter(t)
	seedFlaggedDocument(t, repo, "doc-1")

	payload := `{"name":"Jane Doe","dateOfBirth":"01/15/1988","insuranceId":"ABC-123","phone":"(555) 123-4567"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/review/doc-1", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var body struct {
		Document documents.DocumentDTO `json:"document"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Document.ProcessingStatus != string(documents.StatusCompleted) {
		t.Fatalf("status = %s, want completed", body.Document.ProcessingStatus)
	}
	if body.Document.NeedsReview {
		t.Fatal("expected needsReview false after corrections")
	}
	if body.Document.ConfidenceScore != 1.0 {
		t.Fatalf("confidence = %f, want 1.0", body.Document.ConfidenceScore)
	}

	queued, err := repo.ListNeedingReview(context.Background())
	if err != nil {
		t.Fatalf("list needing review: %v", err)
	}
	if len(queued) != 0 {
		t.Fatalf("queue length = %d, want 0", len(queued))
	}
}

func TestSubmitCorrectionsAcceptsFormEncoding(t *testing.T) {
	router, repo := setupReviewRouter(t)
	seedFlaggedDocument(t, repo, "doc-1")

	form := "name=Jane+Doe&date_of_birth=01%2F15%2F1988&insurance_id=ABC-123"
	req := httptest.NewRequest(http.MethodPost, "/api/v1/review/doc-1", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestSubmitCorrectionsUnknownDocument(t *testing.T) {
	router, _ := setupReviewRouter(t)

	payload := `{"name":"Jane Doe","dateOfBirth":"01/15/1988","insuranceId":"ABC-123"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/review/missing", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
}
