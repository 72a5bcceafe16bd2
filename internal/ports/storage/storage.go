// Package storage define el contrato común que cumplen los adaptadores de
// persistencia (memory, postgres, mongodb).
package storage

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("storage: not found")
	// ErrDuplicate: violación de unicidad. Ver DuplicateError para el campo.
	ErrDuplicate = errors.New("storage: duplicate")
	// ErrReference: la fila referenciada (FK) no existe.
	ErrReference = errors.New("storage: missing reference")
)

// DuplicateError indica qué campo único colisionó (email, microchip, id).
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string { return "storage: duplicate " + e.Field }

func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

// DuplicateField devuelve el campo de un error de unicidad, o "" si err no lo es.
func DuplicateField(err error) string {
	var d *DuplicateError
	if errors.As(err, &d) {
		return d.Field
	}
	return ""
}

// Transactor ejecuta fn dentro de una transacción. Los repos del mismo
// adaptador toman la transacción del ctx que recibe fn. Si ctx ya trae una
// transacción, fn corre dentro de ella.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// NopTransactor ejecuta fn sin transacción.
type NopTransactor struct{}

func (NopTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
