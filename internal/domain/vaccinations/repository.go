package vaccinations

import (
	"context"
	"time"

	"vet-clinic/internal/platform/pagination"
)

type Repository interface {
	Create(ctx context.Context, v Vaccination) (Vaccination, error)
	Update(ctx context.Context, v Vaccination) error
	Delete(ctx context.Context, id int64) (bool, error)

	GetByID(ctx context.Context, id int64) (Vaccination, error)
	List(ctx context.Context) ([]Vaccination, error)
	ListByPatient(ctx context.Context, patientID int64) ([]Vaccination, error)
	// Search busca en vacuna, veterinario y lote.
	Search(ctx context.Context, term string) ([]Vaccination, error)
	Page(ctx context.Context, p pagination.Request) ([]Vaccination, int, error)
	Count(ctx context.Context) (int, error)

	// DueBetween: from <= nextDue < to, orden nextDue asc, con datos de
	// paciente y dueño.
	DueBetween(ctx context.Context, from, to time.Time) ([]Reminder, error)
	// DueBefore: nextDue < before, orden nextDue asc.
	DueBefore(ctx context.Context, before time.Time) ([]Reminder, error)
}
