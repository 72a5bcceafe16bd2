package memory

import (
	"context"
	"sort"
	"time"

	"vet-clinic/internal/domain/patients"
	"vet-clinic/internal/platform/pagination"
	"vet-clinic/internal/platform/stats"
	"vet-clinic/internal/ports/storage"
)

type patientRepo struct {
	db *DB
}

func NewPatientRepo(db *DB) patients.Repository {
	return &patientRepo{db: db}
}

func (r *patientRepo) Create(ctx context.Context, p patients.Patient) (patients.Patient, error) {
	unlock := r.db.write(ctx)
	defer unlock()

	if _, ok := r.db.clients[p.OwnerID]; !ok {
		return patients.Patient{}, storage.ErrReference
	}
	if r.microchipTaken(p.Microchip, 0) {
		return patients.Patient{}, &storage.DuplicateError{Field: "microchip"}
	}

	p.ID = r.db.nextID("patients")
	r.db.patients[p.ID] = p
	return p, nil
}

func (r *patientRepo) Update(ctx context.Context, p patients.Patient) error {
	unlock := r.db.write(ctx)
	defer unlock()

	if _, ok := r.db.patients[p.ID]; !ok {
		return storage.ErrNotFound
	}
	if _, ok := r.db.clients[p.OwnerID]; !ok {
		return storage.ErrReference
	}
	if r.microchipTaken(p.Microchip, p.ID) {
		return &storage.DuplicateError{Field: "microchip"}
	}
	r.db.patients[p.ID] = p
	return nil
}

func (r *patientRepo) Delete(ctx context.Context, id int64) (bool, error) {
	unlock := r.db.write(ctx)
	defer unlock()

	if _, ok := r.db.patients[id]; !ok {
		return false, nil
	}
	r.db.deletePatient(id)
	return true, nil
}

func (r *patientRepo) GetByID(ctx context.Context, id int64) (patients.Patient, error) {
	unlock := r.db.read(ctx)
	defer unlock()

	p, ok := r.db.patients[id]
	if !ok {
		return patients.Patient{}, storage.ErrNotFound
	}
	return p, nil
}

func (r *patientRepo) GetByMicrochip(ctx context.Context, microchip string) (patients.Patient, error) {
	unlock := r.db.read(ctx)
	defer unlock()

	if microchip == "" {
		return patients.Patient{}, storage.ErrNotFound
	}
	for _, p := range r.db.patients {
		if p.Microchip == microchip {
			return p, nil
		}
	}
	return patients.Patient{}, storage.ErrNotFound
}

func (r *patientRepo) List(ctx context.Context) ([]patients.Patient, error) {
	unlock := r.db.read(ctx)
	defer unlock()

	return r.sorted(), nil
}

func (r *patientRepo) ListByOwner(ctx context.Context, ownerID int64) ([]patients.Patient, error) {
	unlock := r.db.read(ctx)
	defer unlock()

	out := values(r.db.patients, func(p patients.Patient) bool { return p.OwnerID == ownerID })
	byName(out)
	return out, nil
}

func (r *patientRepo) Search(ctx context.Context, term string) ([]patients.Patient, error) {
	unlock := r.db.read(ctx)
	defer unlock()

	out := values(r.db.patients, func(p patients.Patient) bool { return containsFold(p.Name, term) })
	byName(out)
	return out, nil
}

func (r *patientRepo) Page(ctx context.Context, p pagination.Request) ([]patients.Patient, int, error) {
	unlock := r.db.read(ctx)
	defer unlock()

	all := r.sorted()
	return pageOf(all, p), len(all), nil
}

func (r *patientRepo) Count(ctx context.Context) (int, error) {
	unlock := r.db.read(ctx)
	defer unlock()

	return len(r.db.patients), nil
}

func (r *patientRepo) CountBySpecies(ctx context.Context) ([]stats.Group, error) {
	return r.countBy(ctx, func(p patients.Patient) string { return p.Species })
}

func (r *patientRepo) CountByStatus(ctx context.Context) ([]stats.Group, error) {
	return r.countBy(ctx, func(p patients.Patient) string { return string(p.Status) })
}

func (r *patientRepo) SetLastVisit(ctx context.Context, id int64, at time.Time) error {
	unlock := r.db.write(ctx)
	defer unlock()

	p, ok := r.db.patients[id]
	if !ok {
		return storage.ErrNotFound
	}
	p.LastVisit = &at
	p.UpdatedAt = time.Now().UTC()
	r.db.patients[id] = p
	return nil
}

func (r *patientRepo) AdvanceLastVisit(ctx context.Context, id int64, at time.Time) (bool, error) {
	unlock := r.db.write(ctx)
	defer unlock()

	p, ok := r.db.patients[id]
	if !ok {
		return false, storage.ErrNotFound
	}
	if p.LastVisit != nil && !p.LastVisit.Before(at) {
		return false, nil
	}
	p.LastVisit = &at
	p.UpdatedAt = time.Now().UTC()
	r.db.patients[id] = p
	return true, nil
}

func (r *patientRepo) countBy(ctx context.Context, key func(patients.Patient) string) ([]stats.Group, error) {
	unlock := r.db.read(ctx)
	defer unlock()

	m := map[string]int{}
	for _, p := range r.db.patients {
		m[key(p)]++
	}
	return stats.FromMap(m), nil
}

func (r *patientRepo) sorted() []patients.Patient {
	out := values(r.db.patients, nil)
	newestFirst(out,
		func(p patients.Patient) time.Time { return p.CreatedAt },
		func(p patients.Patient) int64 { return p.ID },
	)
	return out
}

func (r *patientRepo) microchipTaken(chip string, exceptID int64) bool {
	if chip == "" {
		return false
	}
	for _, p := range r.db.patients {
		if p.ID != exceptID && p.Microchip == chip {
			return true
		}
	}
	return false
}

func byName(items []patients.Patient) {
	sort.Slice(items, func(i, j int) bool {
		return nameLess(items[i].Name, items[j].Name, items[i].ID, items[j].ID)
	})
}
