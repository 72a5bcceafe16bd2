package memory

import (
	"context"
	"sort"
	"time"

	"vet-clinic/internal/domain/vaccinations"
	"vet-clinic/internal/platform/pagination"
	"vet-clinic/internal/ports/storage"
)

type vaccinationRepo struct {
	db *DB
}

func NewVaccinationRepo(db *DB) vaccinations.Repository {
	return &vaccinationRepo{db: db}
}

func (r *vaccinationRepo) Create(ctx context.Context, v vaccinations.Vaccination) (vaccinations.Vaccination, error) {
	unlock := r.db.write(ctx)
	defer unlock()

	if _, ok := r.db.patients[v.PatientID]; !ok {
		return vaccinations.Vaccination{}, storage.ErrReference
	}
	v.ID = r.db.nextID("vaccinations")
	r.db.vaccinations[v.ID] = v
	return v, nil
}

func (r *vaccinationRepo) Update(ctx context.Context, v vaccinations.Vaccination) error {
	unlock := r.db.write(ctx)
	defer unlock()

	if _, ok := r.db.vaccinations[v.ID]; !ok {
		return storage.ErrNotFound
	}
	if _, ok := r.db.patients[v.PatientID]; !ok {
		return storage.ErrReference
	}
	r.db.vaccinations[v.ID] = v
	return nil
}

func (r *vaccinationRepo) Delete(ctx context.Context, id int64) (bool, error) {
	unlock := r.db.write(ctx)
	defer unlock()

	if _, ok := r.db.vaccinations[id]; !ok {
		return false, nil
	}
	delete(r.db.vaccinations, id)
	return true, nil
}

func (r *vaccinationRepo) GetByID(ctx context.Context, id int64) (vaccinations.Vaccination, error) {
	unlock := r.db.read(ctx)
	defer unlock()

	v, ok := r.db.vaccinations[id]
	if !ok {
		return vaccinations.Vaccination{}, storage.ErrNotFound
	}
	return v, nil
}

func (r *vaccinationRepo) List(ctx context.Context) ([]vaccinations.Vaccination, error) {
	unlock := r.db.read(ctx)
	defer unlock()

	return r.filter(nil), nil
}

func (r *vaccinationRepo) ListByPatient(ctx context.Context, patientID int64) ([]vaccinations.Vaccination, error) {
	unlock := r.db.read(ctx)
	defer unlock()

	return r.filter(func(v vaccinations.Vaccination) bool { return v.PatientID == patientID }), nil
}

func (r *vaccinationRepo) Search(ctx context.Context, term string) ([]vaccinations.Vaccination, error) {
	unlock := r.db.read(ctx)
	defer unlock()

	return r.filter(func(v vaccinations.Vaccination) bool {
		return containsFold(v.Vaccine, term) || containsFold(v.Veterinarian, term) || containsFold(v.BatchNumber, term)
	}), nil
}

func (r *vaccinationRepo) Page(ctx context.Context, p pagination.Request) ([]vaccinations.Vaccination, int, error) {
	unlock := r.db.read(ctx)
	defer unlock()

	all := r.filter(nil)
	return pageOf(all, p), len(all), nil
}

func (r *vaccinationRepo) Count(ctx context.Context) (int, error) {
	unlock := r.db.read(ctx)
	defer unlock()

	return len(r.db.vaccinations), nil
}

func (r *vaccinationRepo) DueBetween(ctx context.Context, from, to time.Time) ([]vaccinations.Reminder, error) {
	return r.reminders(ctx, func(v vaccinations.Vaccination) bool {
		return !v.NextDue.Before(from) && v.NextDue.Before(to)
	})
}

func (r *vaccinationRepo) DueBefore(ctx context.Context, before time.Time) ([]vaccinations.Reminder, error) {
	return r.reminders(ctx, func(v vaccinations.Vaccination) bool {
		return v.NextDue.Before(before)
	})
}

// reminders une con paciente y dueño, orden nextDue asc.
func (r *vaccinationRepo) reminders(ctx context.Context, keep func(vaccinations.Vaccination) bool) ([]vaccinations.Reminder, error) {
	unlock := r.db.read(ctx)
	defer unlock()

	out := []vaccinations.Reminder{}
	for _, v := range r.db.vaccinations {
		if !keep(v) {
			continue
		}
		rem := vaccinations.Reminder{Vaccination: v}
		if p, ok := r.db.patients[v.PatientID]; ok {
			rem.PatientName = p.Name
			rem.Species = p.Species
			if c, ok := r.db.clients[p.OwnerID]; ok {
				rem.OwnerName = c.Name
				rem.OwnerPhone = c.Phone
			}
		}
		out = append(out, rem)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].NextDue.Equal(out[j].NextDue) {
			return out[i].NextDue.Before(out[j].NextDue)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *vaccinationRepo) filter(keep func(vaccinations.Vaccination) bool) []vaccinations.Vaccination {
	out := values(r.db.vaccinations, keep)
	newestFirst(out,
		func(v vaccinations.Vaccination) time.Time { return v.Date },
		func(v vaccinations.Vaccination) int64 { return v.ID },
	)
	return out
}
