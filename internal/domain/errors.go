package domain

import "errors"

const (
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeUnauthenticated = "UNAUTHENTICATED"
	ErrCodeExpired         = "EXPIRED"
	ErrCodeHandlerFailure  = "HANDLER_FAILURE"
)

var (
	ErrNotFound        = errors.New("NOT_FOUND")
	ErrUnauthenticated = errors.New("UNAUTHENTICATED")
	ErrPassConflict    = errors.New("PASS_CONFLICT")
	ErrUnknownAction   = errors.New("UNKNOWN_ACTION")
	ErrStoreClosed     = errors.New("STORE_CLOSED")
)

// Error tags a failure with a taxonomy code while keeping its cause.
type Error struct {
	Code  string
	Cause error
}

func NewError(code string, cause error) error {
	return Error{Code: code, Cause: cause}
}

func (e Error) Error() string {
	return e.Cause.Error()
}

func (e Error) Unwrap() error {
	return e.Cause
}

// CodeOf returns the taxonomy code carried by err, or ErrCodeHandlerFailure.
func CodeOf(err error) string {
	var de Error
	if errors.As(err, &de) {
		return de.Code
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return ErrCodeNotFound
	case errors.Is(err, ErrUnauthenticated):
		return ErrCodeUnauthenticated
	}
	return ErrCodeHandlerFailure
}
