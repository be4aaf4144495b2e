package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"meddoc-backend/internal/documents"
	"meddoc-backend/internal/extraction"
	"meddoc-backend/internal/patients"
)

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte)}
}

func (s *memStore) Save(ctx context.Context, fileName string, r io.Reader) (string, int64, string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[fileName] = data
	return fileName, int64(len(data)), "application/octet-stream", nil
}

func (s *memStore) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[storageKey]
	if !ok {
		return nil, fmt.Errorf("no object %q", storageKey)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

type fakeOCR struct {
	fn func(fileName string, data []byte) (string, error)
}

func (f *fakeOCR) Extract(ctx context.Context, data []byte, mimeType string, fileName string) (string, error) {
	return f.fn(fileName, data)
}

func newTestProcessor(t *testing.T, ocrFn func(fileName string, data []byte) (string, error)) (*Processor, *documents.MemoryRepo) {
	t.Helper()
	repo := documents.NewMemoryRepo()
	if ocrFn == nil {
		ocrFn = func(fileName string, data []byte) (string, error) {
			return string(data), nil
		}
	}
	p := NewProcessor(repo, newMemStore(), &fakeOCR{fn: ocrFn}, extraction.New())
	return p, repo
}

func ingest(t *testing.T, p *Processor, fileName, payload string) documents.Document {
	t.Helper()
	doc, err := p.Ingest(context.Background(), fileName, strings.NewReader(payload))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	return doc
}

func TestProcessEmptyTextFails(t *testing.T) {
	p, repo := newTestProcessor(t, func(string, []byte) (string, error) {
		return "   ", nil
	})
	doc := ingest(t, p, "blank.pdf", "payload")

	res := p.Process(context.Background(), doc.ID, "")
	if res.Success {
		t.Fatal("expected failure for empty text")
	}
	if len(res.Errors) != 1 || res.Errors[0] != MsgNoTextExtracted {
		t.Fatalf("errors = %v", res.Errors)
	}

	stored, err := repo.GetByID(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.ProcessingStatus != documents.StatusFailed {
		t.Fatalf("status = %s, want failed", stored.ProcessingStatus)
	}
	if len(stored.ProcessingErrors) == 0 || stored.ProcessingErrors[0] != MsgNoTextExtracted {
		t.Fatalf("processing errors = %v", stored.ProcessingErrors)
	}
}

func TestProcessNamePhoneEmailOnly(t *testing.T) {
	p, repo := newTestProcessor(t, nil)
	text := "Jane Smith\nCall 555-123-4567\nreach me at jane.smith@example.com"
	doc := ingest(t, p, "note.pdf", text)

	res := p.Process(context.Background(), doc.ID, "")
	if !res.Success {
		t.Fatalf("Process failed: %v", res.Errors)
	}
	fs := res.ExtractedData
	if fs == nil {
		t.Fatal("expected extracted data")
	}
	if fs.Phone.Value != "(555) 123-4567" || fs.Phone.Confidence != 0.7 {
		t.Fatalf("phone = %+v", fs.Phone)
	}
	if fs.Email.Value != "jane.smith@example.com" || fs.Email.Confidence != 0.9 {
		t.Fatalf("email = %+v", fs.Email)
	}
	if fs.Name.Value != "Jane Smith" || fs.Name.Confidence != 0.8 {
		t.Fatalf("name = %+v", fs.Name)
	}
	if fs.InsuranceID.Value != "" || fs.InsuranceID.Confidence != 0 {
		t.Fatalf("insurance = %+v", fs.InsuranceID)
	}
	if fs.DateOfBirth.Value != "" || fs.DateOfBirth.Confidence != 0 {
		t.Fatalf("date of birth = %+v", fs.DateOfBirth)
	}

	want := (0.8 + 0.7 + 0.9) / 3
	if diff := res.ConfidenceScore - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("confidence = %f, want %f", res.ConfidenceScore, want)
	}

	stored, err := repo.GetByID(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.ProcessingStatus != documents.StatusNeedsReview {
		t.Fatalf("status = %s, want needs_review", stored.ProcessingStatus)
	}
}

func TestProcessRawTextSkipsOCR(t *testing.T) {
	p, repo := newTestProcessor(t, func(string, []byte) (string, error) {
		return "", fmt.Errorf("ocr must not run")
	})
	doc := ingest(t, p, "scan.png", "binary")

	res := p.Process(context.Background(), doc.ID, "insurance # ABC-123\ncontact bob@clinic.org")
	if !res.Success {
		t.Fatalf("Process failed: %v", res.Errors)
	}
	stored, _ := repo.GetByID(context.Background(), doc.ID)
	if stored.ExtractedText != "insurance # ABC-123\ncontact bob@clinic.org" {
		t.Fatalf("extracted text = %q", stored.ExtractedText)
	}
}

func TestProcessPanicBecomesFailedRun(t *testing.T) {
	p, repo := newTestProcessor(t, func(string, []byte) (string, error) {
		panic("ocr exploded")
	})
	doc := ingest(t, p, "bad.pdf", "payload")

	res := p.Process(context.Background(), doc.ID, "")
	if res.Success {
		t.Fatal("expected failure after panic")
	}
	if len(res.Errors) == 0 || !strings.Contains(res.Errors[0], "ocr exploded") {
		t.Fatalf("errors = %v", res.Errors)
	}

	stored, _ := repo.GetByID(context.Background(), doc.ID)
	if stored.ProcessingStatus != documents.StatusFailed {
		t.Fatalf("status = %s, want failed", stored.ProcessingStatus)
	}
}

func TestProcessUnknownDocument(t *testing.T) {
	p, _ := newTestProcessor(t, nil)
	res := p.Process(context.Background(), "missing-id", "some text")
	if res.Success {
		t.Fatal("expected failure for unknown document")
	}
	if len(res.Errors) == 0 {
		t.Fatal("expected a load error")
	}
}

func TestProcessWritesAuditLog(t *testing.T) {
	p, repo := newTestProcessor(t, nil)
	doc := ingest(t, p, "form.pdf", "Patient Name: Jane Doe\nDOB: 01/15/1988")

	if res := p.Process(context.Background(), doc.ID, ""); !res.Success {
		t.Fatalf("Process failed: %v", res.Errors)
	}

	logs, err := repo.ListLogs(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("ListLogs: %v", err)
	}
	if len(logs) == 0 {
		t.Fatal("expected at least one log entry")
	}
	last := logs[len(logs)-1]
	if last.Status != string(documents.StatusNeedsReview) && last.Status != string(documents.StatusCompleted) {
		t.Fatalf("log status = %s", last.Status)
	}
	if last.Confidence <= 0 {
		t.Fatalf("log confidence = %f", last.Confidence)
	}
}

func TestReviewUpdateForcesCompleted(t *testing.T) {
	p, repo := newTestProcessor(t, nil)
	doc := ingest(t, p, "note.pdf", "Jane Smith\nCall 555-123-4567\njane@x.org")

	if res := p.Process(context.Background(), doc.ID, ""); !res.Success {
		t.Fatalf("Process failed: %v", res.Errors)
	}
	queued, err := repo.ListNeedingReview(context.Background())
	if err != nil {
		t.Fatalf("ListNeedingReview: %v", err)
	}
	if len(queued) != 1 {
		t.Fatalf("queue length = %d, want 1", len(queued))
	}

	fs := patients.Reviewed("Jane Smith", "01/15/1988", "ABC-123", "", "(555) 123-4567", "jane@x.org")
	updated, err := p.ReviewUpdate(context.Background(), doc.ID, fs)
	if err != nil {
		t.Fatalf("ReviewUpdate: %v", err)
	}
	if updated.ProcessingStatus != documents.StatusCompleted {
		t.Fatalf("status = %s, want completed", updated.ProcessingStatus)
	}
	if updated.FieldSet == nil || len(updated.FieldSet.LowConfidenceFields()) != 0 {
		t.Fatalf("field set = %+v", updated.FieldSet)
	}

	queued, err = repo.ListNeedingReview(context.Background())
	if err != nil {
		t.Fatalf("ListNeedingReview: %v", err)
	}
	if len(queued) != 0 {
		t.Fatalf("queue length after review = %d, want 0", len(queued))
	}
}

func TestReviewUpdateUnknownDocument(t *testing.T) {
	p, _ := newTestProcessor(t, nil)
	fs := patients.Reviewed("A", "B", "C", "", "", "")
	if _, err := p.ReviewUpdate(context.Background(), "missing-id", fs); err == nil {
		t.Fatal("expected error for unknown document")
	}
}
