package usecase

import (
	"errors"
	"fmt"
)

const (
	CodeMissingRequiredField = "MISSING_REQUIRED_FIELD"
	CodeInvalidEmail         = "INVALID_EMAIL"
	CodeChallengeFailed      = "CHALLENGE_FAILED"
	CodeDuplicateContact     = "DUPLICATE_CONTACT"

	CodeAlreadySubmitted   = "ALREADY_SUBMITTED"
	CodeInvalidTransition  = "INVALID_TRANSITION"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeStaleView          = "STALE_VIEW"

	CodeStoreWriteFailed = "STORE_WRITE_FAILED"
	CodeStoreReadFailed  = "STORE_READ_FAILED"
	CodeDataIntegrity    = "DATA_INTEGRITY"
)

// ValidationError is a user-correctable problem with the submitted form.
type ValidationError struct {
	Code    string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

type TechnicalError struct {
	Code    string
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *TechnicalError) Unwrap() error {
	return e.Err
}

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}

// ErrorCode extracts the code of any error produced by this package, or "" otherwise.
func ErrorCode(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Code
	}
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	var te *TechnicalError
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}
