package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an engine error so handlers can map it to a response.
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation: bad input detected before any mutation; nothing written.
	KindValidation
	// KindNotFound: unknown loan, payment or entity identifier.
	KindNotFound
	// KindStorage: a persistence failure; multi-row operations roll back.
	KindStorage
)

// Domain errors
var (
	ErrLoanNotFound      = errors.New("loan not found")
	ErrPaymentNotFound   = errors.New("payment not found")
	ErrEntityNotFound    = errors.New("legal entity not found")
	ErrManualSchedule    = errors.New("manual loans have no generated schedule")
	ErrMissingRate       = errors.New("interest rate is required for this schedule type")
	ErrMissingTerm       = errors.New("term is required for this schedule type")
	ErrInvalidPrincipal  = errors.New("principal must be positive")
	ErrInvalidTerm       = errors.New("term must be at least one month")
	ErrInvalidPaymentDay = errors.New("payment day must be between 1 and 31")
)

// EngineError carries a kind, a stable code and an optional cause.
type EngineError struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *EngineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// Error codes
const (
	CodeLoanNotFound    = "LOAN_NOT_FOUND"
	CodePaymentNotFound = "PAYMENT_NOT_FOUND"
	CodeEntityNotFound  = "ENTITY_NOT_FOUND"
	CodeInvalidTerms    = "INVALID_LOAN_TERMS"
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeStorageError    = "STORAGE_ERROR"
)

// NewEngineError creates an error with an explicit kind.
func NewEngineError(kind Kind, code, message string, err error) *EngineError {
	return &EngineError{
		Kind:    kind,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// KindOf extracts the kind from err, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var e *EngineError
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Wrap common errors with engine context

func WrapValidation(message string, err error) *EngineError {
	return NewEngineError(KindValidation, CodeInvalidTerms, message, err)
}

func WrapInvalidRequest(message string, err error) *EngineError {
	return NewEngineError(KindValidation, CodeInvalidRequest, message, err)
}

func WrapLoanNotFound(loanID string) *EngineError {
	return NewEngineError(
		KindNotFound,
		CodeLoanNotFound,
		fmt.Sprintf("loan %s not found", loanID),
		ErrLoanNotFound,
	)
}

func WrapPaymentNotFound(paymentID string) *EngineError {
	return NewEngineError(
		KindNotFound,
		CodePaymentNotFound,
		fmt.Sprintf("payment %s not found", paymentID),
		ErrPaymentNotFound,
	)
}

func WrapEntityNotFound(entityID string) *EngineError {
	return NewEngineError(
		KindNotFound,
		CodeEntityNotFound,
		fmt.Sprintf("legal entity %s not found", entityID),
		ErrEntityNotFound,
	)
}

func WrapStorageError(err error) *EngineError {
	return NewEngineError(
		KindStorage,
		CodeStorageError,
		"storage operation failed",
		err,
	)
}
