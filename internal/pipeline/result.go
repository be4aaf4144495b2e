package pipeline

import "meddoc-backend/internal/patients"

// Result is the outcome of one processing run. It is returned to the caller
// even when the run fails; Errors carries the failure reasons in that case.
type Result struct {
	DocumentID      string             `json:"documentId"`
	Success         bool               `json:"success"`
	ExtractedData   *patients.FieldSet `json:"extractedData,omitempty"`
	Errors          []string           `json:"errors,omitempty"`
	ProcessingTime  float64            `json:"processingTime"`
	ConfidenceScore float64            `json:"confidenceScore"`
}

// BatchResult summarizes a directory run. One file's failure never stops the
// rest; Failed counts both ingest errors and failed processing runs.
type BatchResult struct {
	Directory   string   `json:"directory"`
	Total       int      `json:"total"`
	Succeeded   int      `json:"succeeded"`
	Failed      int      `json:"failed"`
	NeedsReview int      `json:"needsReview"`
	Results     []Result `json:"results"`
}
