package pipeline

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"meddoc-backend/internal/documents"
	"meddoc-backend/internal/extraction"
	"meddoc-backend/internal/ocr"
	"meddoc-backend/internal/patients"
	"meddoc-backend/internal/shared/metrics"
	"meddoc-backend/internal/shared/storage/object"
	"meddoc-backend/internal/shared/telemetry"
)

// Processor runs uploaded documents through OCR, field extraction and
// confidence scoring, persisting every intermediate state. All collaborators
// are injected; Processor holds no package-level state.
type Processor struct {
	repo      documents.Repo
	store     object.ObjectStore
	text      ocr.TextExtractor
	extractor *extraction.Extractor
}

// NewProcessor constructs a Processor.
func NewProcessor(repo documents.Repo, store object.ObjectStore, text ocr.TextExtractor, extractor *extraction.Extractor) *Processor {
	return &Processor{
		repo:      repo,
		store:     store,
		text:      text,
		extractor: extractor,
	}
}

// Ingest stores the payload and creates the pending document record. It does
// not start processing; callers chain Process themselves.
func (p *Processor) Ingest(ctx context.Context, fileName string, r io.Reader) (documents.Document, error) {
	key, size, mimeType, err := p.store.Save(ctx, fileName, r)
	if err != nil {
		return documents.Document{}, fmt.Errorf("store payload: %w", err)
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(fileName))); byExt != "" {
			mimeType = byExt
		}
	}

	doc := documents.Document{
		ID:               uuid.NewString(),
		Filename:         fileName,
		FilePath:         key,
		FileSize:         size,
		MimeType:         mimeType,
		ProcessingStatus: documents.StatusPending,
	}
	if err := p.repo.Create(ctx, doc); err != nil {
		return documents.Document{}, fmt.Errorf("create document: %w", err)
	}
	return doc, nil
}

// Process runs the full pipeline for a stored document. When rawText is
// non-empty the OCR stage is skipped and rawText is used verbatim.
//
// Process never panics: any stage panic is converted into a failed run with
// the panic recorded as a processing error. The returned Result reports the
// outcome either way.
func (p *Processor) Process(ctx context.Context, documentID string, rawText string) (res Result) {
	start := time.Now()
	res = Result{DocumentID: documentID}

	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("processing panic: %v", r)
			telemetry.Error("pipeline.panic", map[string]any{
				"document_id": documentID,
				"panic":       fmt.Sprintf("%v", r),
			})
			res = p.fail(ctx, documentID, start, msg)
		}
		res.ProcessingTime = time.Since(start).Seconds()
		metrics.ObserveProcessingDurationMs(float64(time.Since(start).Milliseconds()))
	}()

	doc, err := p.repo.GetByID(ctx, documentID)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("load document: %v", err))
		return res
	}

	if err := p.repo.UpdateStatus(ctx, documentID, documents.StatusProcessing, "", nil); err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("mark processing: %v", err))
		return res
	}

	text := rawText
	if strings.TrimSpace(text) == "" {
		text, err = p.extractText(ctx, doc)
		if err != nil && err != ocr.ErrNoText {
			return p.fail(ctx, documentID, start, fmt.Sprintf("text extraction: %v", err))
		}
	}
	if strings.TrimSpace(text) == "" {
		return p.fail(ctx, documentID, start, MsgNoTextExtracted)
	}

	fs := p.extractor.Extract(text)
	confidence := fs.OverallConfidence()
	outcome := documents.Outcome(fs)

	if err := p.repo.FinishProcessing(ctx, documentID, outcome, text, fs); err != nil {
		return p.fail(ctx, documentID, start, fmt.Sprintf("persist results: %v", err))
	}

	elapsed := time.Since(start).Seconds()
	p.appendLog(ctx, documents.ProcessingLog{
		DocumentID:     documentID,
		Status:         string(outcome),
		Message:        fmt.Sprintf("extracted %d fields", countPopulated(fs)),
		ProcessingTime: elapsed,
		Confidence:     confidence,
	})

	metrics.IncDocumentProcessed()
	if outcome == documents.StatusNeedsReview {
		metrics.IncDocumentFlagged()
	}
	telemetry.Info("pipeline.process.completed", map[string]any{
		"document_id": documentID,
		"status":      string(outcome),
		"confidence":  confidence,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	res.Success = true
	res.ExtractedData = &fs
	res.ConfidenceScore = confidence
	return res
}

// ReviewUpdate applies operator corrections: all six fields at maximum
// confidence and the document forced to completed, in one atomic write.
func (p *Processor) ReviewUpdate(ctx context.Context, documentID string, fs patients.FieldSet) (documents.Document, error) {
	if err := p.repo.ApplyReview(ctx, documentID, fs); err != nil {
		return documents.Document{}, err
	}
	p.appendLog(ctx, documents.ProcessingLog{
		DocumentID: documentID,
		Status:     string(documents.StatusCompleted),
		Message:    "manual review corrections applied",
		Confidence: fs.OverallConfidence(),
	})
	metrics.IncReviewCompleted()
	telemetry.Info("pipeline.review.completed", map[string]any{
		"document_id": documentID,
	})
	return p.repo.GetByID(ctx, documentID)
}

func (p *Processor) extractText(ctx context.Context, doc documents.Document) (string, error) {
	rc, err := p.store.Open(ctx, doc.FilePath)
	if err != nil {
		return "", fmt.Errorf("open payload: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("read payload: %w", err)
	}
	return p.text.Extract(ctx, data, doc.MimeType, doc.Filename)
}

func (p *Processor) fail(ctx context.Context, documentID string, start time.Time, msg string) Result {
	if err := p.repo.UpdateStatus(ctx, documentID, documents.StatusFailed, "", []string{msg}); err != nil {
		telemetry.Error("pipeline.fail.update_status", map[string]any{
			"document_id": documentID,
			"error":       err.Error(),
		})
	}
	p.appendLog(ctx, documents.ProcessingLog{
		DocumentID:     documentID,
		Status:         string(documents.StatusFailed),
		Message:        msg,
		ProcessingTime: time.Since(start).Seconds(),
	})
	metrics.IncDocumentFailed()
	telemetry.Error("pipeline.process.failed", map[string]any{
		"document_id": documentID,
		"error":       msg,
	})
	return Result{
		DocumentID: documentID,
		Errors:     []string{msg},
	}
}

func (p *Processor) appendLog(ctx context.Context, entry documents.ProcessingLog) {
	if err := p.repo.AppendLog(ctx, entry); err != nil {
		telemetry.Error("pipeline.append_log", map[string]any{
			"document_id": entry.DocumentID,
			"error":       err.Error(),
		})
	}
}

func countPopulated(fs patients.FieldSet) int {
	var n int
	for _, f := range fs.Fields() {
		if f.Value != "" {
			n++
		}
	}
	return n
}
