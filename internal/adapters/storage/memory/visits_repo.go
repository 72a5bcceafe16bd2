package memory

import (
	"context"
	"time"

	"vet-clinic/internal/domain/visits"
	"vet-clinic/internal/platform/pagination"
	"vet-clinic/internal/ports/storage"
)

type visitRepo struct {
	db *DB
}

func NewVisitRepo(db *DB) visits.Repository {
	return &visitRepo{db: db}
}

func (r *visitRepo) Create(ctx context.Context, v visits.Visit) (visits.Visit, error) {
	unlock := r.db.write(ctx)
	defer unlock()

	if _, ok := r.db.patients[v.PatientID]; !ok {
		return visits.Visit{}, storage.ErrReference
	}
	v.ID = r.db.nextID("visits")
	r.db.visits[v.ID] = v
	return v, nil
}

func (r *visitRepo) Update(ctx context.Context, v visits.Visit) error {
	unlock := r.db.write(ctx)
	defer unlock()

	if _, ok := r.db.visits[v.ID]; !ok {
		return storage.ErrNotFound
	}
	if _, ok := r.db.patients[v.PatientID]; !ok {
		return storage.ErrReference
	}
	r.db.visits[v.ID] = v
	return nil
}

func (r *visitRepo) Delete(ctx context.Context, id int64) (bool, error) {
	unlock := r.db.write(ctx)
	defer unlock()

	if _, ok := r.db.visits[id]; !ok {
		return false, nil
	}
	delete(r.db.visits, id)
	return true, nil
}

func (r *visitRepo) GetByID(ctx context.Context, id int64) (visits.Visit, error) {
	unlock := r.db.read(ctx)
	defer unlock()

	v, ok := r.db.visits[id]
	if !ok {
		return visits.Visit{}, storage.ErrNotFound
	}
	return v, nil
}

func (r *visitRepo) List(ctx context.Context) ([]visits.Visit, error) {
	unlock := r.db.read(ctx)
	defer unlock()

	return r.filter(nil), nil
}

func (r *visitRepo) ListByPatient(ctx context.Context, patientID int64) ([]visits.Visit, error) {
	unlock := r.db.read(ctx)
	defer unlock()

	return r.filter(func(v visits.Visit) bool { return v.PatientID == patientID }), nil
}

func (r *visitRepo) Search(ctx context.Context, term string) ([]visits.Visit, error) {
	unlock := r.db.read(ctx)
	defer unlock()

	return r.filter(func(v visits.Visit) bool {
		return containsFold(v.Diagnosis, term) || containsFold(v.Treatment, term) || containsFold(v.Veterinarian, term)
	}), nil
}

func (r *visitRepo) Page(ctx context.Context, p pagination.Request) ([]visits.Visit, int, error) {
	unlock := r.db.read(ctx)
	defer unlock()

	all := r.filter(nil)
	return pageOf(all, p), len(all), nil
}

func (r *visitRepo) Count(ctx context.Context) (int, error) {
	unlock := r.db.read(ctx)
	defer unlock()

	return len(r.db.visits), nil
}

func (r *visitRepo) StatsByType(ctx context.Context) ([]visits.TypeStat, error) {
	unlock := r.db.read(ctx)
	defer unlock()

	byType := map[visits.Type]*visits.TypeStat{}
	for _, v := range r.db.visits {
		s, ok := byType[v.Type]
		if !ok {
			s = &visits.TypeStat{Type: v.Type}
			byType[v.Type] = s
		}
		s.Count++
		s.TotalRevenue += v.Cost
	}

	out := make([]visits.TypeStat, 0, len(byType))
	for _, s := range byType {
		out = append(out, *s)
	}
	return out, nil
}

// filter devuelve por fecha desc.
func (r *visitRepo) filter(keep func(visits.Visit) bool) []visits.Visit {
	out := values(r.db.visits, keep)
	newestFirst(out,
		func(v visits.Visit) time.Time { return v.Date },
		func(v visits.Visit) int64 { return v.ID },
	)
	return out
}
