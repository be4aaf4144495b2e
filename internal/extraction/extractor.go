package extraction

import (
	"fmt"
	"regexp"
	"strings"

	"meddoc-backend/internal/patients"
	"meddoc-backend/internal/shared/telemetry"
)

// Per-field confidence constants. These are fixed by contract: the heuristics
// do not surface genuine per-token certainty, so each category carries the
// score its rule historically earned.
const (
	NameConfidence      = 0.8
	DOBConfidence       = 0.7
	InsuranceConfidence = 0.6
	PhoneConfidence     = 0.7
	EmailConfidence     = 0.9
)

var (
	insurancePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)insurance\s*[#:]?\s*([A-Z0-9-]+)`),
		regexp.MustCompile(`(?i)policy\s*[#:]?\s*([A-Z0-9-]+)`),
		regexp.MustCompile(`(?i)member\s*id\s*[#:]?\s*([A-Z0-9-]+)`),
	}
	phonePattern = regexp.MustCompile(`\(?(\d{3})\)?[-.\s]?(\d{3})[-.\s]?(\d{4})`)
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
)

// Extractor applies per-field heuristics to raw OCR text.
type Extractor struct{}

// New constructs an Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract pulls the six patient fields out of raw text. Each field is
// attempted independently; one field finding nothing never blocks another.
// An unexpected panic anywhere yields an empty field set rather than a
// partial one.
func (e *Extractor) Extract(text string) (fs patients.FieldSet) {
	defer func() {
		if rec := recover(); rec != nil {
			telemetry.Error("extraction.panic", map[string]any{"error": fmt.Sprint(rec)})
			fs = patients.FieldSet{}
		}
	}()

	if span, ok := findPerson(text); ok {
		fs.Name = patients.ExtractedField{
			Value:      strings.TrimSpace(span),
			Confidence: NameConfidence,
			RawText:    span,
		}
	}

	if span, ok := findDate(text); ok {
		fs.DateOfBirth = patients.ExtractedField{
			Value:      cleanDate(span),
			Confidence: DOBConfidence,
			RawText:    span,
		}
	}

	if id, ok := extractInsuranceID(text); ok {
		fs.InsuranceID = patients.ExtractedField{
			Value:      id,
			Confidence: InsuranceConfidence,
			RawText:    id,
		}
	}

	if phone, ok := extractPhone(text); ok {
		fs.Phone = patients.ExtractedField{
			Value:      phone,
			Confidence: PhoneConfidence,
			RawText:    phone,
		}
	}

	if email, ok := extractEmail(text); ok {
		fs.Email = patients.ExtractedField{
			Value:      email,
			Confidence: EmailConfidence,
			RawText:    email,
		}
	}

	return fs
}

// extractInsuranceID tries the insurance, policy, and member-id patterns in
// order; the first pattern that matches wins.
func extractInsuranceID(text string) (string, bool) {
	for _, p := range insurancePatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// extractPhone finds a North-American 10-digit number and normalizes it to
// "(AAA) BBB-CCCC".
func extractPhone(text string) (string, bool) {
	m := phonePattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return fmt.Sprintf("(%s) %s-%s", m[1], m[2], m[3]), true
}

func extractEmail(text string) (string, bool) {
	m := emailPattern.FindString(text)
	if m == "" {
		return "", false
	}
	return m, true
}
