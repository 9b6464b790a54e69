// Package apperrors определяет закрытое множество видов ошибок,
// которые слои хранилища и сервисов возвращают фасаду команд.
// Вызывающая сторона ветвится по виду и показывает текст как есть.
package apperrors

import (
	"errors"
	"fmt"
)

type Kind int

const (
	Validation Kind = iota + 1
	Conflict
	NotFound
	Auth
	Internal
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Conflict:
		return "conflict"
	case NotFound:
		return "not_found"
	case Auth:
		return "auth"
	case Internal:
		return "internal"
	}
	return "unknown"
}

// Error несет вид ошибки и готовое для показа сообщение.
// Err хранит техническую причину для логов, сообщение ее не раскрывает.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf возвращает вид ошибки; для неклассифицированных ошибок — Internal.
func KindOf(err error) Kind {
	if err == nil {
		return 0
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// IsKind проверяет, что ошибка принадлежит указанному виду.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
