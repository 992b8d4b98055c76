package scoring

import (
	"context"
	"errors"
)

// DiagnosisLabel is the oracle's verdict on a submitted diagnosis.
type DiagnosisLabel string

const (
	LabelPrimary      DiagnosisLabel = "PRIMARY"
	LabelDifferential DiagnosisLabel = "DIFFERENTIAL"
	LabelIncorrect    DiagnosisLabel = "INCORRECT"
)

// InterventionLabel is the oracle's verdict on a proposed intervention.
type InterventionLabel string

const (
	LabelAppropriate   InterventionLabel = "APPROPRIATE"
	LabelPartial       InterventionLabel = "PARTIAL"
	LabelInappropriate InterventionLabel = "INAPPROPRIATE"
)

// ErrClassificationUnavailable means the oracle failed or returned
// output outside its fixed label set. It never escapes the scoring
// rules: every caller falls back to the deterministic matcher.
var ErrClassificationUnavailable = errors.New("classification unavailable")

// Oracle is the external natural-language classifier. Implementations
// must return exactly one of the fixed labels or an error; anything
// else is treated as ErrClassificationUnavailable by the rules.
type Oracle interface {
	ClassifyDiagnosis(ctx context.Context, submitted, primary string, differentials []string) (DiagnosisLabel, error)
	ClassifyIntervention(ctx context.Context, intervention, diagnosis string) (InterventionLabel, error)
}

func validDiagnosisLabel(label DiagnosisLabel) bool {
	switch label {
	case LabelPrimary, LabelDifferential, LabelIncorrect:
		return true
	}
	return false
}

func validInterventionLabel(label InterventionLabel) bool {
	switch label {
	case LabelAppropriate, LabelPartial, LabelInappropriate:
		return true
	}
	return false
}
