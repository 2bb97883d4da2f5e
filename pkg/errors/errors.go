package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios. Messages are shown to the chat-bot user.
var (
	ErrNotFound        = New("NOT_FOUND", http.StatusNotFound, "recurso não encontrado")
	ErrUnauthorized    = New("UNAUTHORIZED", http.StatusUnauthorized, "não autorizado")
	ErrForbidden       = New("FORBIDDEN", http.StatusForbidden, "acesso negado")
	ErrConflict        = New("CONFLICT", http.StatusConflict, "conflito")
	ErrValidation      = New("VALIDATION_ERROR", http.StatusBadRequest, "dados inválidos")
	ErrTooManyRequests = New("TOO_MANY_REQUESTS", http.StatusTooManyRequests, "muitas requisições, tente novamente em instantes")
	ErrInternal        = New("INTERNAL_ERROR", http.StatusInternalServerError, "erro interno do servidor")
	ErrUnavailable     = New("SERVICE_UNAVAILABLE", http.StatusServiceUnavailable, "serviço indisponível")

	// ErrPortal reports a business failure while driving the SED portal.
	ErrPortal = New("PORTAL_FAILURE", http.StatusNotFound, "falha ao operar o portal SED")
	// ErrLessonPlan reports that the lesson plan could not be turned into lessons.
	ErrLessonPlan = New("LESSON_PLAN_FAILURE", http.StatusNotFound, "falha ao interpretar o cronograma")
	// ErrAccountBusy is returned while another portal operation holds the account.
	ErrAccountBusy = New("ACCOUNT_BUSY", http.StatusConflict, "Já existe uma operação em andamento para este login.")

	ErrCacheMiss = errors.New("cache miss")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
