package patients

// ExtractedField is a single extracted value with its confidence score.
// A zero ExtractedField ("", 0.0) represents "nothing extracted"; value and
// confidence are independent, so a present value with zero confidence is
// also representable.
type ExtractedField struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	RawText    string  `json:"rawText,omitempty"`
}

// ConfidenceLevel returns the qualitative level for the field's score.
func (f ExtractedField) ConfidenceLevel() Level {
	return Classify(f.Confidence)
}

// NeedsReview reports whether the field requires human verification.
func (f ExtractedField) NeedsReview() bool {
	return NeedsReview(f.Confidence)
}

// Field names, also used as map keys and form field names.
const (
	FieldName        = "name"
	FieldDateOfBirth = "date_of_birth"
	FieldInsuranceID = "insurance_id"
	FieldAddress     = "address"
	FieldPhone       = "phone"
	FieldEmail       = "email"
)

// FieldSet holds the six patient attributes tracked per document.
type FieldSet struct {
	Name        ExtractedField `json:"name"`
	DateOfBirth ExtractedField `json:"dateOfBirth"`
	InsuranceID ExtractedField `json:"insuranceId"`
	Address     ExtractedField `json:"address"`
	Phone       ExtractedField `json:"phone"`
	Email       ExtractedField `json:"email"`
}

// Fields returns the slots keyed by field name.
func (fs FieldSet) Fields() map[string]ExtractedField {
	return map[string]ExtractedField{
		FieldName:        fs.Name,
		FieldDateOfBirth: fs.DateOfBirth,
		FieldInsuranceID: fs.InsuranceID,
		FieldAddress:     fs.Address,
		FieldPhone:       fs.Phone,
		FieldEmail:       fs.Email,
	}
}

// LowConfidenceFields returns the subset of fields below the review threshold.
func (fs FieldSet) LowConfidenceFields() map[string]ExtractedField {
	out := make(map[string]ExtractedField)
	for name, f := range fs.Fields() {
		if f.NeedsReview() {
			out[name] = f
		}
	}
	return out
}

// NeedsReview reports whether any field is below the review threshold.
func (fs FieldSet) NeedsReview() bool {
	for _, f := range fs.Fields() {
		if f.NeedsReview() {
			return true
		}
	}
	return false
}

// OverallConfidence averages the strictly-positive field confidences.
// Fields with zero confidence are excluded rather than dragging the mean
// down; with no positive field the result is 0.
func (fs FieldSet) OverallConfidence() float64 {
	var sum float64
	var n int
	for _, f := range fs.Fields() {
		if f.Confidence > 0 {
			sum += f.Confidence
			n++
		}
	}
	if n == 0 {
		return 0.0
	}
	return sum / float64(n)
}

// Reviewed builds a field set from operator-supplied values, every field at
// maximum confidence. The review correction is authoritative.
func Reviewed(name, dateOfBirth, insuranceID, address, phone, email string) FieldSet {
	corrected := func(v string) ExtractedField {
		return ExtractedField{Value: v, Confidence: 1.0}
	}
	return FieldSet{
		Name:        corrected(name),
		DateOfBirth: corrected(dateOfBirth),
		InsuranceID: corrected(insuranceID),
		Address:     corrected(address),
		Phone:       corrected(phone),
		Email:       corrected(email),
	}
}
