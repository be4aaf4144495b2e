package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"meddoc-backend/internal/patients"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const docColumns = `id, filename, file_path, file_size, mime_type, processing_status, extracted_text, processing_errors, upload_date, updated_at`

// Create inserts a new document record.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (
    id,
    filename,
    file_path,
    file_size,
    mime_type,
    processing_status,
    extracted_text,
    processing_errors,
    upload_date
) VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9)`

	status := doc.ProcessingStatus
	if status == "" {
		status = StatusPending
	}
	if doc.UploadDate.IsZero() {
		doc.UploadDate = time.Now().UTC()
	}
	errsJSON, err := marshalErrors(doc.ProcessingErrors)
	if err != nil {
		return err
	}

	_, err = r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.Filename,
		doc.FilePath,
		doc.FileSize,
		doc.MimeType,
		string(status),
		doc.ExtractedText,
		errsJSON,
		doc.UploadDate,
	)
	return err
}

// GetByID fetches a document along with its field set, if one exists.
func (r *PGRepo) GetByID(ctx context.Context, documentID string) (Document, error) {
	const query = `
SELECT d.id, d.filename, d.file_path, d.file_size, d.mime_type, d.processing_status,
       d.extracted_text, d.processing_errors, d.upload_date, d.updated_at,
       p.name, p.name_confidence,
       p.date_of_birth, p.dob_confidence,
       p.insurance_id, p.insurance_confidence,
       p.address, p.address_confidence,
       p.phone, p.phone_confidence,
       p.email, p.email_confidence
FROM documents d
LEFT JOIN patients p ON p.document_id = d.id
WHERE d.id = $1`

	var doc Document
	var extractedText sql.NullString
	var rawErrors []byte
	var name, dob, insurance, addr, phone, email sql.NullString
	var nameC, dobC, insuranceC, addrC, phoneC, emailC sql.NullFloat64

	err := r.DB.QueryRowContext(ctx, query, documentID).Scan(
		&doc.ID,
		&doc.Filename,
		&doc.FilePath,
		&doc.FileSize,
		&doc.MimeType,
		&doc.ProcessingStatus,
		&extractedText,
		&rawErrors,
		&doc.UploadDate,
		&doc.UpdatedAt,
		&name, &nameC,
		&dob, &dobC,
		&insurance, &insuranceC,
		&addr, &addrC,
		&phone, &phoneC,
		&email, &emailC,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	doc.ExtractedText = extractedText.String
	if doc.ProcessingErrors, err = unmarshalErrors(rawErrors); err != nil {
		return Document{}, err
	}

	// A patients row exists iff any confidence column scanned non-NULL.
	if nameC.Valid || dobC.Valid || insuranceC.Valid || addrC.Valid || phoneC.Valid || emailC.Valid {
		doc.FieldSet = &patients.FieldSet{
			Name:        patients.ExtractedField{Value: name.String, Confidence: nameC.Float64},
			DateOfBirth: patients.ExtractedField{Value: dob.String, Confidence: dobC.Float64},
			InsuranceID: patients.ExtractedField{Value: insurance.String, Confidence: insuranceC.Float64},
			Address:     patients.ExtractedField{Value: addr.String, Confidence: addrC.Float64},
			Phone:       patients.ExtractedField{Value: phone.String, Confidence: phoneC.Float64},
			Email:       patients.ExtractedField{Value: email.String, Confidence: emailC.Float64},
		}
	}
	return doc, nil
}

// ListByStatus lists documents with the given status, newest upload first.
func (r *PGRepo) ListByStatus(ctx context.Context, status Status) ([]Document, error) {
	query := fmt.Sprintf(`
SELECT %s
FROM documents
WHERE processing_status = $1
ORDER BY upload_date DESC`, docColumns)

	rows, err := r.DB.QueryContext(ctx, query, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDocuments(rows)
}

// ListNeedingReview lists documents whose status is needs_review or whose
// field set has any field below the review threshold.
func (r *PGRepo) ListNeedingReview(ctx context.Context) ([]Document, error) {
	query := fmt.Sprintf(`
SELECT %s
FROM documents d
LEFT JOIN patients p ON p.document_id = d.id
WHERE d.processing_status = 'needs_review'
   OR p.name_confidence < $1
   OR p.dob_confidence < $1
   OR p.insurance_confidence < $1
   OR p.address_confidence < $1
   OR p.phone_confidence < $1
   OR p.email_confidence < $1
ORDER BY d.upload_date DESC`, prefixColumns("d"))

	rows, err := r.DB.QueryContext(ctx, query, patients.ReviewThreshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDocuments(rows)
}

// UpdateStatus sets the processing status, records extracted text when
// present, and appends any new errors. Errors are history and are never
// cleared.
func (r *PGRepo) UpdateStatus(ctx context.Context, documentID string, status Status, extractedText string, procErrors []string) error {
	const query = `
UPDATE documents
SET processing_status = $2,
    extracted_text = COALESCE(NULLIF($3, ''), extracted_text),
    processing_errors = processing_errors || $4::jsonb,
    updated_at = now()
WHERE id = $1`

	errsJSON, err := marshalErrors(procErrors)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, query, documentID, string(status), extractedText, errsJSON)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// FinishProcessing writes the terminal status and the extracted field set in
// a single transaction.
func (r *PGRepo) FinishProcessing(ctx context.Context, documentID string, status Status, extractedText string, fs patients.FieldSet) error {
	return r.statusAndFieldsTx(ctx, documentID, status, extractedText, fs)
}

// ApplyReview overwrites the field set with the operator's corrections and
// forces the document to completed, atomically.
func (r *PGRepo) ApplyReview(ctx context.Context, documentID string, fs patients.FieldSet) error {
	return r.statusAndFieldsTx(ctx, documentID, StatusCompleted, "", fs)
}

func (r *PGRepo) statusAndFieldsTx(ctx context.Context, documentID string, status Status, extractedText string, fs patients.FieldSet) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const query = `
UPDATE documents
SET processing_status = $2,
    extracted_text = COALESCE(NULLIF($3, ''), extracted_text),
    updated_at = now()
WHERE id = $1`
	res, err := tx.ExecContext(ctx, query, documentID, string(status), extractedText)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}

	if err := patients.UpsertTx(ctx, tx, documentID, fs); err != nil {
		return err
	}
	return tx.Commit()
}

// AppendLog records one processing-history entry.
func (r *PGRepo) AppendLog(ctx context.Context, entry ProcessingLog) error {
	const query = `
INSERT INTO processing_logs (document_id, status, message, processing_time, confidence)
VALUES ($1, $2, $3, $4, $5)`
	_, err := r.DB.ExecContext(ctx, query, entry.DocumentID, entry.Status, entry.Message, entry.ProcessingTime, entry.Confidence)
	return err
}

// ListLogs returns a document's processing history, most recent first.
func (r *PGRepo) ListLogs(ctx context.Context, documentID string) ([]ProcessingLog, error) {
	const query = `
SELECT id, document_id, status, message, processing_time, confidence, created_at
FROM processing_logs
WHERE document_id = $1
ORDER BY created_at DESC`

	rows, err := r.DB.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ProcessingLog
	for rows.Next() {
		var entry ProcessingLog
		var message sql.NullString
		if err := rows.Scan(&entry.ID, &entry.DocumentID, &entry.Status, &message, &entry.ProcessingTime, &entry.Confidence, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.Message = message.String
		out = append(out, entry)
	}
	return out, rows.Err()
}

// Delete removes a document; patients and logs cascade.
func (r *PGRepo) Delete(ctx context.Context, documentID string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, documentID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanDocuments(rows *sql.Rows) ([]Document, error) {
	var out []Document
	for rows.Next() {
		var doc Document
		var extractedText sql.NullString
		var rawErrors []byte
		if err := rows.Scan(
			&doc.ID,
			&doc.Filename,
			&doc.FilePath,
			&doc.FileSize,
			&doc.MimeType,
			&doc.ProcessingStatus,
			&extractedText,
			&rawErrors,
			&doc.UploadDate,
			&doc.UpdatedAt,
		); err != nil {
			return nil, err
		}
		doc.ExtractedText = extractedText.String
		var err error
		if doc.ProcessingErrors, err = unmarshalErrors(rawErrors); err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func prefixColumns(alias string) string {
	return fmt.Sprintf(`%[1]s.id, %[1]s.filename, %[1]s.file_path, %[1]s.file_size, %[1]s.mime_type, %[1]s.processing_status, %[1]s.extracted_text, %[1]s.processing_errors, %[1]s.upload_date, %[1]s.updated_at`, alias)
}

func marshalErrors(procErrors []string) ([]byte, error) {
	if procErrors == nil {
		procErrors = []string{}
	}
	return json.Marshal(procErrors)
}

func unmarshalErrors(raw []byte) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

var _ Repo = (*PGRepo)(nil)
