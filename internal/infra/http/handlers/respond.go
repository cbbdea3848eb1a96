package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/xavierca1/leadgate/internal/usecase"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeErrorResponse(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}

// statusFor maps a use-case error onto an HTTP status.
func statusFor(err error) int {
	switch usecase.ErrorCode(err) {
	case usecase.CodeMissingRequiredField, usecase.CodeInvalidEmail,
		usecase.CodeChallengeFailed, usecase.CodeDuplicateContact:
		return http.StatusUnprocessableEntity
	case usecase.CodeAlreadySubmitted, usecase.CodeInvalidTransition, usecase.CodeStaleView:
		return http.StatusConflict
	case usecase.CodeInvalidCredentials:
		return http.StatusUnauthorized
	case usecase.CodeUnauthorized:
		return http.StatusForbidden
	case usecase.CodeStoreWriteFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// viewError turns err into the inline error of a page. Technical details stay in the logs.
func viewError(err error) *usecase.ViewError {
	var ve *usecase.ValidationError
	if errors.As(err, &ve) {
		return &usecase.ViewError{Code: ve.Code, Field: ve.Field, Message: ve.Message}
	}
	var de *usecase.DomainError
	if errors.As(err, &de) {
		return &usecase.ViewError{Code: de.Code, Message: de.Message}
	}
	var te *usecase.TechnicalError
	if errors.As(err, &te) {
		return &usecase.ViewError{Code: te.Code, Message: te.Message}
	}
	return &usecase.ViewError{Code: "INTERNAL_ERROR", Message: "something went wrong"}
}
