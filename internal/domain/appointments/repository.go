package appointments

import (
	"context"
	"time"

	"vet-clinic/internal/platform/pagination"
	"vet-clinic/internal/platform/stats"
)

// Repository: todas las lecturas vienen con PatientName/Species/OwnerName
// y ordenadas por fecha y hora desc.
type Repository interface {
	Create(ctx context.Context, a Appointment) (Appointment, error)
	Update(ctx context.Context, a Appointment) error
	Delete(ctx context.Context, id int64) (bool, error)

	GetByID(ctx context.Context, id int64) (Appointment, error)
	List(ctx context.Context) ([]Appointment, error)
	ListByPatient(ctx context.Context, patientID int64) ([]Appointment, error)
	// ListByDate filtra por día calendario (UTC).
	ListByDate(ctx context.Context, day time.Time) ([]Appointment, error)
	ListByStatus(ctx context.Context, status Status) ([]Appointment, error)
	// Search busca en veterinario, tipo y notas.
	Search(ctx context.Context, term string) ([]Appointment, error)
	Page(ctx context.Context, p pagination.Request) ([]Appointment, int, error)

	Count(ctx context.Context) (int, error)
	CountOnDate(ctx context.Context, day time.Time) (int, error)
	CountByType(ctx context.Context) ([]stats.Group, error)
	CountByStatus(ctx context.Context) ([]stats.Group, error)
}
