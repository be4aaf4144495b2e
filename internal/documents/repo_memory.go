package documents

import (
	"context"
	"sort"
	"sync"
	"time"

	"meddoc-backend/internal/patients"
)

// MemoryRepo is an in-memory implementation of Repo for dev and tests.
// Status and field-set writes happen under one lock, matching the atomicity
// the Postgres implementation gets from a transaction.
type MemoryRepo struct {
	mu     sync.RWMutex
	docs   map[string]Document
	fields map[string]patients.FieldSet
	logs   map[string][]ProcessingLog
	nextID int64
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		docs:   make(map[string]Document),
		fields: make(map[string]patients.FieldSet),
		logs:   make(map[string][]ProcessingLog),
	}
}

// Create stores a new document.
func (r *MemoryRepo) Create(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if doc.ProcessingStatus == "" {
		doc.ProcessingStatus = StatusPending
	}
	if doc.UploadDate.IsZero() {
		doc.UploadDate = time.Now().UTC()
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = doc.UploadDate
	}
	r.docs[doc.ID] = doc
	return nil
}

// GetByID returns a document with its field set attached, if present.
func (r *MemoryRepo) GetByID(ctx context.Context, documentID string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[documentID]
	if !ok {
		return Document{}, ErrNotFound
	}
	if fs, ok := r.fields[documentID]; ok {
		fsCopy := fs
		doc.FieldSet = &fsCopy
	}
	return doc, nil
}

// ListByStatus lists documents with the given status, newest upload first.
func (r *MemoryRepo) ListByStatus(ctx context.Context, status Status) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Document
	for _, doc := range r.docs {
		if doc.ProcessingStatus == status {
			out = append(out, doc)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// ListNeedingReview lists documents eligible for human review: status says
// needs_review, or the field set has any field below the review threshold.
func (r *MemoryRepo) ListNeedingReview(ctx context.Context) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Document
	for id, doc := range r.docs {
		if fs, ok := r.fields[id]; ok {
			fsCopy := fs
			doc.FieldSet = &fsCopy
		}
		if doc.NeedsReview() {
			out = append(out, doc)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// UpdateStatus sets the status and appends errors; errors are never cleared.
func (r *MemoryRepo) UpdateStatus(ctx context.Context, documentID string, status Status, extractedText string, procErrors []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updateStatusLocked(documentID, status, extractedText, procErrors)
}

// FinishProcessing writes the terminal status and the field set as one unit.
func (r *MemoryRepo) FinishProcessing(ctx context.Context, documentID string, status Status, extractedText string, fs patients.FieldSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.updateStatusLocked(documentID, status, extractedText, nil); err != nil {
		return err
	}
	r.fields[documentID] = fs
	return nil
}

// ApplyReview overwrites the field set and forces the document to completed.
func (r *MemoryRepo) ApplyReview(ctx context.Context, documentID string, fs patients.FieldSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.updateStatusLocked(documentID, StatusCompleted, "", nil); err != nil {
		return err
	}
	r.fields[documentID] = fs
	return nil
}

func (r *MemoryRepo) updateStatusLocked(documentID string, status Status, extractedText string, procErrors []string) error {
	doc, ok := r.docs[documentID]
	if !ok {
		return ErrNotFound
	}
	doc.ProcessingStatus = status
	if extractedText != "" {
		doc.ExtractedText = extractedText
	}
	doc.ProcessingErrors = append(doc.ProcessingErrors, procErrors...)
	doc.UpdatedAt = time.Now().UTC()
	r.docs[documentID] = doc
	return nil
}

// AppendLog records one processing-history entry.
func (r *MemoryRepo) AppendLog(ctx context.Context, entry ProcessingLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	entry.ID = r.nextID
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	r.logs[entry.DocumentID] = append(r.logs[entry.DocumentID], entry)
	return nil
}

// ListLogs returns a document's processing history, most recent first.
func (r *MemoryRepo) ListLogs(ctx context.Context, documentID string) ([]ProcessingLog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := r.logs[documentID]
	out := make([]ProcessingLog, len(entries))
	copy(out, entries)
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Delete removes a document along with its field set and logs.
func (r *MemoryRepo) Delete(ctx context.Context, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[documentID]; !ok {
		return ErrNotFound
	}
	delete(r.docs, documentID)
	delete(r.fields, documentID)
	delete(r.logs, documentID)
	return nil
}

// Upsert stores/overwrites the field set for a document. MemoryRepo doubles
// as the patients repo so dev-mode reads and writes share one store.
func (r *MemoryRepo) Upsert(ctx context.Context, documentID string, fs patients.FieldSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fields[documentID] = fs
	return nil
}

// GetByDocumentID returns the stored field set for a document.
func (r *MemoryRepo) GetByDocumentID(ctx context.Context, documentID string) (patients.FieldSet, error) {
	if err := ctx.Err(); err != nil {
		return patients.FieldSet{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	fs, ok := r.fields[documentID]
	if !ok {
		return patients.FieldSet{}, patients.ErrNotFound
	}
	return fs, nil
}

func sortNewestFirst(docs []Document) {
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].UploadDate.After(docs[j].UploadDate)
	})
}

var (
	_ Repo          = (*MemoryRepo)(nil)
	_ patients.Repo = (*MemoryRepo)(nil)
)
