package models

import (
	"errors"
	"fmt"
)

// Виды ошибок бизнес-операций. Обработчики сопоставляют их с HTTP-статусами через KindOf.
var (
	ErrValidation             = errors.New("validation error")
	ErrQuotaExceeded          = errors.New("priority selection quota exceeded")
	ErrSelectionRequired      = errors.New("at least one priority product must be selected")
	ErrEmptyResponse          = errors.New("tender response contains no priced items")
	ErrTenderNotOpen          = errors.New("tender is not open")
	ErrTenderAlreadyClosed    = errors.New("tender is already closed")
	ErrReconciliationMismatch = errors.New("order total does not match order lines")
	ErrPersistence            = errors.New("persistence failure")

	ErrNotFound      = errors.New("not found")
	ErrForbidden     = errors.New("forbidden")
	ErrStaleResponse = errors.New("tender response was modified concurrently")
)

// Kind - стабильное имя вида ошибки, отдаётся клиенту в поле kind.
type Kind string

const (
	KindValidation             Kind = "ValidationError"
	KindQuotaExceeded          Kind = "QuotaExceeded"
	KindSelectionRequired      Kind = "SelectionRequired"
	KindEmptyResponse          Kind = "EmptyResponse"
	KindTenderNotOpen          Kind = "TenderNotOpen"
	KindTenderAlreadyClosed    Kind = "TenderAlreadyClosed"
	KindReconciliationMismatch Kind = "ReconciliationMismatch"
	KindPersistence            Kind = "PersistenceFailure"
	KindNotFound               Kind = "NotFound"
	KindForbidden              Kind = "Forbidden"
	KindStaleResponse          Kind = "StaleResponse"
	KindInternal               Kind = "Internal"

	// KindUnauthenticated - запрос без удостоверения пользователя; выставляется HTTP-слоем.
	KindUnauthenticated Kind = "Unauthenticated"
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrValidation, KindValidation},
	{ErrQuotaExceeded, KindQuotaExceeded},
	{ErrSelectionRequired, KindSelectionRequired},
	{ErrEmptyResponse, KindEmptyResponse},
	{ErrTenderNotOpen, KindTenderNotOpen},
	{ErrTenderAlreadyClosed, KindTenderAlreadyClosed},
	{ErrReconciliationMismatch, KindReconciliationMismatch},
	{ErrStaleResponse, KindStaleResponse},
	{ErrNotFound, KindNotFound},
	{ErrForbidden, KindForbidden},
	{ErrPersistence, KindPersistence},
}

// KindOf возвращает вид ошибки. Неизвестные ошибки считаются внутренними.
func KindOf(err error) Kind {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

// ValidationError описывает некорректное поле предложения, тендера или отклика.
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError создаёт ошибку валидации для поля.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// PersistenceError оборачивает ошибку хранилища вместе с названием операции.
type PersistenceError struct {
	Op  string
	Err error
}

// NewPersistenceError создаёт ошибку хранилища. nil остаётся nil.
func NewPersistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }
