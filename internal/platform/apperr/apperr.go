// Package apperr define errores de dominio con un tipo que la capa HTTP
// traduce a status (400/404/409).
package apperr

import "errors"

type Kind uint8

const (
	KindInvalid Kind = iota + 1
	KindNotFound
	KindConflict
)

type Error struct {
	Kind    Kind
	Message string
	// Field es opcional: campo del request que originó el error.
	Field string
}

func (e *Error) Error() string { return e.Message }

func Invalid(msg, field string) *Error {
	return &Error{Kind: KindInvalid, Message: msg, Field: field}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

// As extrae el *Error de una cadena de errores.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
