package visits

import (
	"context"

	"vet-clinic/internal/platform/pagination"
)

type Repository interface {
	Create(ctx context.Context, v Visit) (Visit, error)
	Update(ctx context.Context, v Visit) error
	Delete(ctx context.Context, id int64) (bool, error)

	GetByID(ctx context.Context, id int64) (Visit, error)
	List(ctx context.Context) ([]Visit, error)
	// ListByPatient ordena por fecha desc.
	ListByPatient(ctx context.Context, patientID int64) ([]Visit, error)
	// Search busca en diagnóstico, tratamiento y veterinario.
	Search(ctx context.Context, term string) ([]Visit, error)
	Page(ctx context.Context, p pagination.Request) ([]Visit, int, error)

	Count(ctx context.Context) (int, error)
	// StatsByType devuelve Count y TotalRevenue por tipo.
	StatsByType(ctx context.Context) ([]TypeStat, error)
}
