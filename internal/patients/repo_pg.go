package patients

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const upsertQuery = `
INSERT INTO patients (
    document_id,
    name, name_confidence,
    date_of_birth, dob_confidence,
    insurance_id, insurance_confidence,
    address, address_confidence,
    phone, phone_confidence,
    email, email_confidence,
    updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now())
ON CONFLICT (document_id) DO UPDATE SET
    name = EXCLUDED.name, name_confidence = EXCLUDED.name_confidence,
    date_of_birth = EXCLUDED.date_of_birth, dob_confidence = EXCLUDED.dob_confidence,
    insurance_id = EXCLUDED.insurance_id, insurance_confidence = EXCLUDED.insurance_confidence,
    address = EXCLUDED.address, address_confidence = EXCLUDED.address_confidence,
    phone = EXCLUDED.phone, phone_confidence = EXCLUDED.phone_confidence,
    email = EXCLUDED.email, email_confidence = EXCLUDED.email_confidence,
    updated_at = now()`

// Upsert writes the field set for a document, overwriting any previous set.
func (r *PGRepo) Upsert(ctx context.Context, documentID string, fs FieldSet) error {
	_, err := r.DB.ExecContext(ctx, upsertQuery, upsertArgs(documentID, fs)...)
	return err
}

// UpsertTx is Upsert running inside a caller-owned transaction.
func UpsertTx(ctx context.Context, tx *sql.Tx, documentID string, fs FieldSet) error {
	_, err := tx.ExecContext(ctx, upsertQuery, upsertArgs(documentID, fs)...)
	return err
}

func upsertArgs(documentID string, fs FieldSet) []any {
	return []any{
		documentID,
		nullable(fs.Name.Value), fs.Name.Confidence,
		nullable(fs.DateOfBirth.Value), fs.DateOfBirth.Confidence,
		nullable(fs.InsuranceID.Value), fs.InsuranceID.Confidence,
		nullable(fs.Address.Value), fs.Address.Confidence,
		nullable(fs.Phone.Value), fs.Phone.Confidence,
		nullable(fs.Email.Value), fs.Email.Confidence,
	}
}

// GetByDocumentID fetches the field set for a document.
func (r *PGRepo) GetByDocumentID(ctx context.Context, documentID string) (FieldSet, error) {
	const query = `
SELECT name, name_confidence,
       date_of_birth, dob_confidence,
       insurance_id, insurance_confidence,
       address, address_confidence,
       phone, phone_confidence,
       email, email_confidence
FROM patients
WHERE document_id = $1`

	var fs FieldSet
	var name, dob, insurance, addr, phone, email sql.NullString
	err := r.DB.QueryRowContext(ctx, query, documentID).Scan(
		&name, &fs.Name.Confidence,
		&dob, &fs.DateOfBirth.Confidence,
		&insurance, &fs.InsuranceID.Confidence,
		&addr, &fs.Address.Confidence,
		&phone, &fs.Phone.Confidence,
		&email, &fs.Email.Confidence,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return FieldSet{}, ErrNotFound
		}
		return FieldSet{}, err
	}
	fs.Name.Value = name.String
	fs.DateOfBirth.Value = dob.String
	fs.InsuranceID.Value = insurance.String
	fs.Address.Value = addr.String
	fs.Phone.Value = phone.String
	fs.Email.Value = email.String
	return fs, nil
}

func nullable(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

var _ Repo = (*PGRepo)(nil)
