package extraction

import (
	"regexp"
	"strings"
)

// Lightweight entity recognition over OCR text. Intake forms almost always
// label their fields, so labeled-line patterns run first; bare shape
// patterns are the fallback for free-form text. First match wins.

var (
	personLabeled = regexp.MustCompile(`(?im)^\s*(?:patient\s+name|patient|full\s+name|name)\s*[:#-]\s*([A-Za-z][A-Za-z'.-]*(?:\s+[A-Za-z][A-Za-z'.-]*){1,3})\s*$`)
	personShape   = regexp.MustCompile(`\b([A-Z][a-z'-]+(?:\s+[A-Z]\.?)?\s+[A-Z][a-z'-]+)\b`)

	dateLabeled = regexp.MustCompile(`(?i)(?:date\s+of\s+birth|birth\s*date|dob|born)\s*[:#-]?\s*([A-Za-z0-9][A-Za-z0-9,./\s-]*\d)`)
	dateShape   = regexp.MustCompile(`\b(\d{1,2}[/-]\d{1,2}[/-]\d{2,4}|\d{4}[/-]\d{1,2}[/-]\d{1,2}|(?i:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+\d{1,2},?\s+\d{4})\b`)

	nonDateChars = regexp.MustCompile(`[^0-9/-]`)
)

// findPerson locates the first person-name span in the text.
func findPerson(text string) (string, bool) {
	if m := personLabeled.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	if m := personShape.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	return "", false
}

// findDate locates the first date span in the text.
func findDate(text string) (string, bool) {
	if m := dateLabeled.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	if m := dateShape.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	return "", false
}

// cleanDate strips everything that is not a digit, hyphen, or slash.
func cleanDate(raw string) string {
	return nonDateChars.ReplaceAllString(raw, "")
}
