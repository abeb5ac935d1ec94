package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound         = errors.New("resource not found")
	ErrSessionNotFound  = fmt.Errorf("%w: session", ErrNotFound)
	ErrVariableNotFound = fmt.Errorf("%w: variable", ErrNotFound)
	ErrAxisNotFound     = fmt.Errorf("%w: ordination axis", ErrNotFound)

	// Input validation errors
	ErrValidation        = errors.New("input validation failed")
	ErrNotSquare         = fmt.Errorf("%w: matrix is not square", ErrValidation)
	ErrNotSymmetric      = fmt.Errorf("%w: matrix is not symmetric", ErrValidation)
	ErrNegativeDistance  = fmt.Errorf("%w: negative distance", ErrValidation)
	ErrNonZeroDiagonal   = fmt.Errorf("%w: non-zero diagonal", ErrValidation)
	ErrDuplicateSampleID = fmt.Errorf("%w: duplicate sample ID", ErrValidation)
	ErrLabelMismatch     = fmt.Errorf("%w: row and column labels differ", ErrValidation)
	ErrNoCommonSamples   = fmt.Errorf("%w: no samples shared by matrix and metadata", ErrValidation)

	// Statistical test errors
	ErrInsufficientData = errors.New("insufficient data for analysis")
	ErrTooFewGroups     = fmt.Errorf("%w: need at least 2 groups", ErrInsufficientData)
	ErrTooFewSamples    = fmt.Errorf("%w: too few paired samples", ErrInsufficientData)

	// Determinism errors
	ErrSeedRequired = errors.New("seed required for permutation test")
)

// Error constructors with context
func NewValidationError(check string, detail string) error {
	return fmt.Errorf("%w: %s: %s", ErrValidation, check, detail)
}

func NewInsufficientDataError(test string, detail string) error {
	return fmt.Errorf("%w: %s: %s", ErrInsufficientData, test, detail)
}

func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsInsufficientDataError(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}

// Warning represents a non-fatal numerical condition surfaced to the user.
// Warnings never halt a pipeline step.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Code, w.Message)
}

// Warning codes
const (
	WarnNegativeEigenvalues = "NEGATIVE_EIGENVALUES"
	WarnDroppedSamples      = "DROPPED_SAMPLES"
	WarnBlankValues         = "BLANK_VALUES"
)

// NewWarning creates a numerical warning
func NewWarning(code, format string, args ...interface{}) Warning {
	return Warning{Code: code, Message: fmt.Sprintf(format, args...)}
}
