package users

import (
	"context"

	"vet-clinic/internal/platform/pagination"
	"vet-clinic/internal/platform/stats"
)

type Repository interface {
	Create(ctx context.Context, u User) (User, error)
	Update(ctx context.Context, u User) error
	Delete(ctx context.Context, id int64) (bool, error)

	GetByID(ctx context.Context, id int64) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)

	List(ctx context.Context) ([]User, error)
	// Search busca por nombre.
	Search(ctx context.Context, term string) ([]User, error)
	Page(ctx context.Context, p pagination.Request) ([]User, int, error)

	Count(ctx context.Context) (int, error)
	// CountByRole agrupa por id de rol (Key = id en texto).
	CountByRole(ctx context.Context) ([]stats.Group, error)
	CountByStatus(ctx context.Context) ([]stats.Group, error)
}
