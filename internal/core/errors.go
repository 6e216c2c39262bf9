// AngelaMos | 2026
// errors.go

package core

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")
	ErrRateLimited  = errors.New("rate limited")
)

// Stable machine codes returned in the "code" field of every error body.
const (
	CodeInternal           = "DM_REG_000"
	CodeEmailAlreadyUsed   = "DM_REG_001"
	CodeInvalidCredentials = "DM_REG_002"
	CodeCodeExpired        = "DM_REG_003"
	CodeInvalidCode        = "DM_REG_004"
	CodeAlreadyActive      = "DM_REG_005"
	CodeValidation         = "DM_REG_006"
	CodeRateLimited        = "DM_REG_007"
)

const (
	KindInternal           = "INTERNAL_ERROR"
	KindEmailAlreadyUsed   = "EMAIL_ALREADY_USED"
	KindInvalidCredentials = "INVALID_CREDENTIALS"
	KindCodeExpired        = "CODE_EXPIRED"
	KindInvalidCode        = "INVALID_CODE"
	KindAlreadyActive      = "ALREADY_ACTIVE"
	KindValidation         = "VALIDATION_ERROR"
	KindRateLimited        = "RATE_LIMITED"
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
	Kind       string
	Code       string
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(
	err error,
	message string,
	statusCode int,
	kind, code string,
) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		StatusCode: statusCode,
		Kind:       kind,
		Code:       code,
	}
}

func EmailAlreadyUsedError() *AppError {
	return NewAppError(
		ErrDuplicateKey,
		"Email already registered.",
		http.StatusConflict,
		KindEmailAlreadyUsed,
		CodeEmailAlreadyUsed,
	)
}

func InvalidCredentialsError() *AppError {
	return NewAppError(
		ErrUnauthorized,
		"Invalid email or password.",
		http.StatusUnauthorized,
		KindInvalidCredentials,
		CodeInvalidCredentials,
	)
}

func CodeExpiredError() *AppError {
	return NewAppError(
		ErrInvalidInput,
		"Activation code expired.",
		http.StatusBadRequest,
		KindCodeExpired,
		CodeCodeExpired,
	)
}

func InvalidCodeError() *AppError {
	return NewAppError(
		ErrInvalidInput,
		"Invalid activation code.",
		http.StatusBadRequest,
		KindInvalidCode,
		CodeInvalidCode,
	)
}

func AlreadyActiveError() *AppError {
	return NewAppError(
		ErrConflict,
		"Account already active.",
		http.StatusConflict,
		KindAlreadyActive,
		CodeAlreadyActive,
	)
}

func ValidationError(message string) *AppError {
	return NewAppError(
		ErrInvalidInput,
		message,
		http.StatusBadRequest,
		KindValidation,
		CodeValidation,
	)
}

func RateLimitedError(message string) *AppError {
	return NewAppError(
		ErrRateLimited,
		message,
		http.StatusTooManyRequests,
		KindRateLimited,
		CodeRateLimited,
	)
}

func InternalError(err error) *AppError {
	return NewAppError(
		err,
		"Internal server error.",
		http.StatusInternalServerError,
		KindInternal,
		CodeInternal,
	)
}
