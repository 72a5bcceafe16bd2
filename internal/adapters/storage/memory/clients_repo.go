package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"vet-clinic/internal/domain/clients"
	"vet-clinic/internal/platform/pagination"
	"vet-clinic/internal/platform/stats"
	"vet-clinic/internal/ports/storage"
)

type clientRepo struct {
	db *DB
}

func NewClientRepo(db *DB) clients.Repository {
	return &clientRepo{db: db}
}

func (r *clientRepo) Create(ctx context.Context, c clients.Client) (clients.Client, error) {
	unlock := r.db.write(ctx)
	defer unlock()

	if r.emailTaken(c.Email, 0) {
		return clients.Client{}, &storage.DuplicateError{Field: "email"}
	}
	if c.ID == 0 {
		c.ID = r.db.nextID("clients")
	} else {
		if _, exists := r.db.clients[c.ID]; exists {
			return clients.Client{}, &storage.DuplicateError{Field: "id"}
		}
		r.db.bump("clients", c.ID)
	}

	r.db.clients[c.ID] = c
	return c, nil
}

func (r *clientRepo) Update(ctx context.Context, c clients.Client) error {
	unlock := r.db.write(ctx)
	defer unlock()

	if _, ok := r.db.clients[c.ID]; !ok {
		return storage.ErrNotFound
	}
	if r.emailTaken(c.Email, c.ID) {
		return &storage.DuplicateError{Field: "email"}
	}
	r.db.clients[c.ID] = c
	return nil
}

func (r *clientRepo) Delete(ctx context.Context, id int64) (bool, error) {
	unlock := r.db.write(ctx)
	defer unlock()

	if _, ok := r.db.clients[id]; !ok {
		return false, nil
	}
	for pid, p := range r.db.patients {
		if p.OwnerID == id {
			r.db.deletePatient(pid)
		}
	}
	delete(r.db.clients, id)
	return true, nil
}

func (r *clientRepo) GetByID(ctx context.Context, id int64) (clients.Client, error) {
	unlock := r.db.read(ctx)
	defer unlock()

	c, ok := r.db.clients[id]
	if !ok {
		return clients.Client{}, storage.ErrNotFound
	}
	return c, nil
}

func (r *clientRepo) GetByEmail(ctx context.Context, email string) (clients.Client, error) {
	unlock := r.db.read(ctx)
	defer unlock()

	for _, c := range r.db.clients {
		if strings.EqualFold(c.Email, email) {
			return c, nil
		}
	}
	return clients.Client{}, storage.ErrNotFound
}

func (r *clientRepo) List(ctx context.Context) ([]clients.Client, error) {
	unlock := r.db.read(ctx)
	defer unlock()

	return r.sorted(), nil
}

func (r *clientRepo) Search(ctx context.Context, term string) ([]clients.Client, error) {
	unlock := r.db.read(ctx)
	defer unlock()

	out := values(r.db.clients, func(c clients.Client) bool {
		return containsFold(c.Name, term) || containsFold(c.Email, term) || containsFold(c.Phone, term)
	})
	sort.Slice(out, func(i, j int) bool { return nameLess(out[i].Name, out[j].Name, out[i].ID, out[j].ID) })
	return out, nil
}

func (r *clientRepo) Page(ctx context.Context, p pagination.Request) ([]clients.Client, int, error) {
	unlock := r.db.read(ctx)
	defer unlock()

	all := r.sorted()
	return pageOf(all, p), len(all), nil
}

func (r *clientRepo) Count(ctx context.Context) (int, error) {
	unlock := r.db.read(ctx)
	defer unlock()

	return len(r.db.clients), nil
}

func (r *clientRepo) CountByStatus(ctx context.Context) ([]stats.Group, error) {
	unlock := r.db.read(ctx)
	defer unlock()

	m := map[string]int{}
	for _, c := range r.db.clients {
		m[string(c.Status)]++
	}
	return stats.FromMap(m), nil
}

func (r *clientRepo) sorted() []clients.Client {
	out := values(r.db.clients, nil)
	newestFirst(out,
		func(c clients.Client) time.Time { return c.RegistrationDate },
		func(c clients.Client) int64 { return c.ID },
	)
	return out
}

func (r *clientRepo) emailTaken(email string, exceptID int64) bool {
	for _, c := range r.db.clients {
		if c.ID != exceptID && strings.EqualFold(c.Email, email) {
			return true
		}
	}
	return false
}
