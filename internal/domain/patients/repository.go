package patients

import (
	"context"
	"time"

	"vet-clinic/internal/platform/pagination"
	"vet-clinic/internal/platform/stats"
)

// Repository es el contrato de persistencia de pacientes.
// Errores: storage.ErrNotFound, *storage.DuplicateError (microchip),
// storage.ErrReference (ownerId inexistente).
type Repository interface {
	Create(ctx context.Context, p Patient) (Patient, error)
	Update(ctx context.Context, p Patient) error
	// Delete borra el paciente y, en cascada, visitas, vacunas y citas.
	Delete(ctx context.Context, id int64) (bool, error)

	GetByID(ctx context.Context, id int64) (Patient, error)
	GetByMicrochip(ctx context.Context, microchip string) (Patient, error)

	List(ctx context.Context) ([]Patient, error)
	// ListByOwner ordena por nombre.
	ListByOwner(ctx context.Context, ownerID int64) ([]Patient, error)
	Search(ctx context.Context, term string) ([]Patient, error)
	Page(ctx context.Context, p pagination.Request) ([]Patient, int, error)

	Count(ctx context.Context) (int, error)
	CountBySpecies(ctx context.Context) ([]stats.Group, error)
	CountByStatus(ctx context.Context) ([]stats.Group, error)

	// SetLastVisit pisa lastVisit sin condiciones.
	SetLastVisit(ctx context.Context, id int64, at time.Time) error
	// AdvanceLastVisit solo escribe si lastVisit es nulo o anterior a at.
	// Devuelve si hubo cambio.
	AdvanceLastVisit(ctx context.Context, id int64, at time.Time) (bool, error)
}
