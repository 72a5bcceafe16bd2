package memory

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"vet-clinic/internal/domain/users"
	"vet-clinic/internal/platform/pagination"
	"vet-clinic/internal/platform/stats"
	"vet-clinic/internal/ports/storage"
)

type userRepo struct {
	db *DB
}

func NewUserRepo(db *DB) users.Repository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, u users.User) (users.User, error) {
	unlock := r.db.write(ctx)
	defer unlock()

	if r.emailTaken(u.Email, 0) {
		return users.User{}, &storage.DuplicateError{Field: "email"}
	}
	u.ID = r.db.nextID("users")
	r.db.users[u.ID] = u
	return u, nil
}

func (r *userRepo) Update(ctx context.Context, u users.User) error {
	unlock := r.db.write(ctx)
	defer unlock()

	if _, ok := r.db.users[u.ID]; !ok {
		return storage.ErrNotFound
	}
	if r.emailTaken(u.Email, u.ID) {
		return &storage.DuplicateError{Field: "email"}
	}
	r.db.users[u.ID] = u
	return nil
}

func (r *userRepo) Delete(ctx context.Context, id int64) (bool, error) {
	unlock := r.db.write(ctx)
	defer unlock()

	if _, ok := r.db.users[id]; !ok {
		return false, nil
	}
	delete(r.db.users, id)
	return true, nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (users.User, error) {
	unlock := r.db.read(ctx)
	defer unlock()

	u, ok := r.db.users[id]
	if !ok {
		return users.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (users.User, error) {
	unlock := r.db.read(ctx)
	defer unlock()

	for _, u := range r.db.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return users.User{}, storage.ErrNotFound
}

func (r *userRepo) List(ctx context.Context) ([]users.User, error) {
	unlock := r.db.read(ctx)
	defer unlock()

	return r.sorted(), nil
}

func (r *userRepo) Search(ctx context.Context, term string) ([]users.User, error) {
	unlock := r.db.read(ctx)
	defer unlock()

	out := values(r.db.users, func(u users.User) bool { return containsFold(u.Nombre, term) })
	sort.Slice(out, func(i, j int) bool { return nameLess(out[i].Nombre, out[j].Nombre, out[i].ID, out[j].ID) })
	return out, nil
}

func (r *userRepo) Page(ctx context.Context, p pagination.Request) ([]users.User, int, error) {
	unlock := r.db.read(ctx)
	defer unlock()

	all := r.sorted()
	return pageOf(all, p), len(all), nil
}

func (r *userRepo) Count(ctx context.Context) (int, error) {
	unlock := r.db.read(ctx)
	defer unlock()

	return len(r.db.users), nil
}

func (r *userRepo) CountByRole(ctx context.Context) ([]stats.Group, error) {
	unlock := r.db.read(ctx)
	defer unlock()

	m := map[string]int{}
	for _, u := range r.db.users {
		m[strconv.Itoa(int(u.Role))]++
	}
	return stats.FromMap(m), nil
}

func (r *userRepo) CountByStatus(ctx context.Context) ([]stats.Group, error) {
	unlock := r.db.read(ctx)
	defer unlock()

	m := map[string]int{}
	for _, u := range r.db.users {
		m[string(u.Status)]++
	}
	return stats.FromMap(m), nil
}

func (r *userRepo) sorted() []users.User {
	out := values(r.db.users, nil)
	newestFirst(out,
		func(u users.User) time.Time { return u.CreatedAt },
		func(u users.User) int64 { return u.ID },
	)
	return out
}

func (r *userRepo) emailTaken(email string, exceptID int64) bool {
	for _, u := range r.db.users {
		if u.ID != exceptID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}
