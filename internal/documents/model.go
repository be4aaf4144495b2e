package documents

import (
	"time"

	"meddoc-backend/internal/patients"
)

// Document represents an uploaded or batch-discovered intake form.
type Document struct {
	ID               string
	Filename         string
	FilePath         string
	FileSize         int64
	MimeType         string
	ProcessingStatus Status
	ExtractedText    string
	ProcessingErrors []string
	FieldSet         *patients.FieldSet
	UploadDate       time.Time
	UpdatedAt        time.Time
}

// NeedsReview reports review-eligibility: either the stored status says so,
// or the field set has at least one low-confidence field. The two signals
// must agree after the pipeline has run; the union keeps the derivation
// independent of the stored status.
func (d Document) NeedsReview() bool {
	if d.ProcessingStatus == StatusNeedsReview {
		return true
	}
	return d.FieldSet != nil && d.FieldSet.NeedsReview()
}

// IsProcessed reports whether processing reached a reviewable end state.
func (d Document) IsProcessed() bool {
	return d.ProcessingStatus == StatusCompleted || d.ProcessingStatus == StatusNeedsReview
}

// ProcessingLog is one audit entry of a document's processing history.
type ProcessingLog struct {
	ID             int64
	DocumentID     string
	Status         string
	Message        string
	ProcessingTime float64
	Confidence     float64
	CreatedAt      time.Time
}
