package patients

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

// Repo defines persistence operations for extracted patient fields.
type Repo interface {
	Upsert(ctx context.Context, documentID string, fs FieldSet) error
	GetByDocumentID(ctx context.Context, documentID string) (FieldSet, error)
}
