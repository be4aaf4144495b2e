package documents

import "meddoc-backend/internal/patients"

// Status is the document lifecycle stage. The strings are stored in the
// database and exposed over the API; do not change them.
type Status string

const (
	StatusPending     Status = "pending"
	StatusProcessing  Status = "processing"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
	StatusNeedsReview Status = "needs_review"
)

// ParseStatus validates a status string from the wire or the database.
func ParseStatus(raw string) (Status, bool) {
	switch Status(raw) {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed, StatusNeedsReview:
		return Status(raw), true
	default:
		return "", false
	}
}

// CanTransition reports whether the lifecycle permits moving from one status
// to another. Nothing ever returns to pending. completed, failed and
// needs_review are soft-terminal: a reprocess run moves them back to
// processing, and the review correction flow forces completed.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusProcessing
	case StatusProcessing:
		return to == StatusCompleted || to == StatusNeedsReview || to == StatusFailed
	case StatusNeedsReview, StatusCompleted:
		return to == StatusCompleted || to == StatusProcessing
	case StatusFailed:
		return to == StatusProcessing
	default:
		return false
	}
}

// Outcome decides the terminal status after a successful field extraction:
// any field below the review threshold flags the whole document.
func Outcome(fs patients.FieldSet) Status {
	if fs.NeedsReview() {
		return StatusNeedsReview
	}
	return StatusCompleted
}
