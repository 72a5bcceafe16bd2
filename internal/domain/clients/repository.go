package clients

import (
	"context"

	"vet-clinic/internal/platform/pagination"
	"vet-clinic/internal/platform/stats"
)

// Repository es el contrato de persistencia de clientes.
// Errores: storage.ErrNotFound, *storage.DuplicateError (email, id).
type Repository interface {
	// Create inserta c. Si c.ID es 0 el id lo asigna el storage.
	Create(ctx context.Context, c Client) (Client, error)
	Update(ctx context.Context, c Client) error
	// Delete borra el cliente y, en cascada, sus pacientes.
	Delete(ctx context.Context, id int64) (bool, error)

	GetByID(ctx context.Context, id int64) (Client, error)
	GetByEmail(ctx context.Context, email string) (Client, error)

	// List ordena por fecha de registro desc.
	List(ctx context.Context) ([]Client, error)
	// Search busca en nombre, email y teléfono; ordena por nombre.
	Search(ctx context.Context, term string) ([]Client, error)
	Page(ctx context.Context, p pagination.Request) ([]Client, int, error)

	Count(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context) ([]stats.Group, error)
}
