package documents

import (
	"context"

	"meddoc-backend/internal/patients"
)

// Repo defines persistence operations for documents.
//
// FinishProcessing and ApplyReview write the status and the field set as one
// atomic unit so a reader never observes a completed status paired with a
// stale field set.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, documentID string) (Document, error)
	ListByStatus(ctx context.Context, status Status) ([]Document, error)
	ListNeedingReview(ctx context.Context) ([]Document, error)
	UpdateStatus(ctx context.Context, documentID string, status Status, extractedText string, procErrors []string) error
	FinishProcessing(ctx context.Context, documentID string, status Status, extractedText string, fs patients.FieldSet) error
	ApplyReview(ctx context.Context, documentID string, fs patients.FieldSet) error
	AppendLog(ctx context.Context, entry ProcessingLog) error
	ListLogs(ctx context.Context, documentID string) ([]ProcessingLog, error)
	Delete(ctx context.Context, documentID string) error
}
