package documents

import (
	"time"

	"meddoc-backend/internal/patients"
)

// FieldDTO is the wire shape of one extracted field.
type FieldDTO struct {
	Value           string  `json:"value"`
	Confidence      float64 `json:"confidence"`
	ConfidenceLevel string  `json:"confidenceLevel"`
	NeedsReview     bool    `json:"needsReview"`
	RawText         string  `json:"rawText,omitempty"`
}

// DocumentDTO is the wire shape of a document, with review-eligibility and
// the overall confidence derived server-side.
type DocumentDTO struct {
	ID               string              `json:"id"`
	Filename         string              `json:"filename"`
	FileSize         int64               `json:"fileSize"`
	MimeType         string              `json:"mimeType"`
	ProcessingStatus string              `json:"processingStatus"`
	ExtractedText    string              `json:"extractedText,omitempty"`
	ProcessingErrors []string            `json:"processingErrors"`
	NeedsReview      bool                `json:"needsReview"`
	ConfidenceScore  float64             `json:"confidenceScore"`
	Fields           map[string]FieldDTO `json:"fields,omitempty"`
	UploadDate       time.Time           `json:"uploadDate"`
	UpdatedAt        time.Time           `json:"updatedAt"`
}

// LogDTO is the wire shape of one processing log entry.
type LogDTO struct {
	ID             int64     `json:"id"`
	Status         string    `json:"status"`
	Message        string    `json:"message"`
	ProcessingTime float64   `json:"processingTime"`
	Confidence     float64   `json:"confidence"`
	CreatedAt      time.Time `json:"createdAt"`
}

// NewDocumentDTO converts a domain document for the API.
func NewDocumentDTO(doc Document) DocumentDTO {
	out := DocumentDTO{
		ID:               doc.ID,
		Filename:         doc.Filename,
		FileSize:         doc.FileSize,
		MimeType:         doc.MimeType,
		ProcessingStatus: string(doc.ProcessingStatus),
		ExtractedText:    doc.ExtractedText,
		ProcessingErrors: doc.ProcessingErrors,
		NeedsReview:      doc.NeedsReview(),
		UploadDate:       doc.UploadDate,
		UpdatedAt:        doc.UpdatedAt,
	}
	if out.ProcessingErrors == nil {
		out.ProcessingErrors = []string{}
	}
	if doc.FieldSet != nil {
		out.ConfidenceScore = doc.FieldSet.OverallConfidence()
		out.Fields = newFieldMap(*doc.FieldSet)
	}
	return out
}

// NewLogDTO converts one processing log entry for the API.
func NewLogDTO(entry ProcessingLog) LogDTO {
	return LogDTO{
		ID:             entry.ID,
		Status:         entry.Status,
		Message:        entry.Message,
		ProcessingTime: entry.ProcessingTime,
		Confidence:     entry.Confidence,
		CreatedAt:      entry.CreatedAt,
	}
}

func newFieldMap(fs patients.FieldSet) map[string]FieldDTO {
	out := make(map[string]FieldDTO, 6)
	for name, f := range fs.Fields() {
		out[name] = FieldDTO{
			Value:           f.Value,
			Confidence:      f.Confidence,
			ConfidenceLevel: string(f.ConfidenceLevel()),
			NeedsReview:     f.NeedsReview(),
			RawText:         f.RawText,
		}
	}
	return out
}
