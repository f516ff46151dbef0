package submission

import (
	"errors"
	"fmt"
)

// FailureKind вид ошибки удалённого вызова
type FailureKind int

const (
	// FailureNetwork транспортная ошибка, вызов можно повторить
	FailureNetwork FailureKind = iota + 1
	// FailureValidation ошибка данных или бизнес-правил, повтор бессмыслен
	FailureValidation
)

func (k FailureKind) String() string {
	switch k {
	case FailureNetwork:
		return "network"
	case FailureValidation:
		return "validation"
	default:
		return "unknown"
	}
}

var (
	ErrSeriesCreation = errors.New("create recurring series")
	ErrNotAttempted   = errors.New("reservation was not attempted")
)

// MutationError ошибка, возвращаемая MutationClient
type MutationError struct {
	Kind    FailureKind
	Field   string
	Message string
	Err     error
}

func (e *MutationError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Field != "" {
		return fmt.Sprintf("%s error on %s: %s", e.Kind, e.Field, msg)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, msg)
}

func (e *MutationError) Unwrap() error {
	return e.Err
}

// NetworkError оборачивает транспортную ошибку
func NetworkError(err error) *MutationError {
	return &MutationError{Kind: FailureNetwork, Err: err}
}

// ValidationError создаёт ошибку по полю
func ValidationError(field, message string) *MutationError {
	return &MutationError{Kind: FailureValidation, Field: field, Message: message}
}

// KindOf определяет вид ошибки. Неизвестные ошибки считаются окончательными.
func KindOf(err error) FailureKind {
	var merr *MutationError
	if errors.As(err, &merr) {
		return merr.Kind
	}
	return FailureValidation
}
