package ocr

import (
	"context"
	"errors"
)

// ErrNoText indicates the provider ran but produced no usable text.
// Callers treat this and an empty string identically.
var ErrNoText = errors.New("no text extracted")

// TextExtractor is the external text-extraction collaborator. Implementations
// own their own timeouts; the pipeline imposes none.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, mimeType string, fileName string) (string, error)
}
