package pipeline

import "errors"

// MsgNoTextExtracted is the exact processing error recorded when a document
// yields no text. Operators filter on this string; keep it stable.
const MsgNoTextExtracted = "No text extracted from document"

// ErrNoTextExtracted wraps MsgNoTextExtracted as a sentinel.
var ErrNoTextExtracted = errors.New(MsgNoTextExtracted)
