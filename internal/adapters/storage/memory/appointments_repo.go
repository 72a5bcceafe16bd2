package memory

import (
	"context"
	"sort"
	"time"

	"vet-clinic/internal/domain/appointments"
	"vet-clinic/internal/platform/dates"
	"vet-clinic/internal/platform/pagination"
	"vet-clinic/internal/platform/stats"
	"vet-clinic/internal/ports/storage"
)

type appointmentRepo struct {
	db *DB
}

func NewAppointmentRepo(db *DB) appointments.Repository {
	return &appointmentRepo{db: db}
}

func (r *appointmentRepo) Create(ctx context.Context, a appointments.Appointment) (appointments.Appointment, error) {
	unlock := r.db.write(ctx)
	defer unlock()

	if _, ok := r.db.patients[a.PatientID]; !ok {
		return appointments.Appointment{}, storage.ErrReference
	}
	a.ID = r.db.nextID("appointments")
	r.db.appointments[a.ID] = stripJoined(a)
	return r.join(a), nil
}

func (r *appointmentRepo) Update(ctx context.Context, a appointments.Appointment) error {
	unlock := r.db.write(ctx)
	defer unlock()

	if _, ok := r.db.appointments[a.ID]; !ok {
		return storage.ErrNotFound
	}
	if _, ok := r.db.patients[a.PatientID]; !ok {
		return storage.ErrReference
	}
	r.db.appointments[a.ID] = stripJoined(a)
	return nil
}

func (r *appointmentRepo) Delete(ctx context.Context, id int64) (bool, error) {
	unlock := r.db.write(ctx)
	defer unlock()

	if _, ok := r.db.appointments[id]; !ok {
		return false, nil
	}
	delete(r.db.appointments, id)
	return true, nil
}

func (r *appointmentRepo) GetByID(ctx context.Context, id int64) (appointments.Appointment, error) {
	unlock := r.db.read(ctx)
	defer unlock()

	a, ok := r.db.appointments[id]
	if !ok {
		return appointments.Appointment{}, storage.ErrNotFound
	}
	return r.join(a), nil
}

func (r *appointmentRepo) List(ctx context.Context) ([]appointments.Appointment, error) {
	unlock := r.db.read(ctx)
	defer unlock()

	return r.filter(nil), nil
}

func (r *appointmentRepo) ListByPatient(ctx context.Context, patientID int64) ([]appointments.Appointment, error) {
	unlock := r.db.read(ctx)
	defer unlock()

	return r.filter(func(a appointments.Appointment) bool { return a.PatientID == patientID }), nil
}

func (r *appointmentRepo) ListByDate(ctx context.Context, day time.Time) ([]appointments.Appointment, error) {
	unlock := r.db.read(ctx)
	defer unlock()

	d := dates.Day(day)
	return r.filter(func(a appointments.Appointment) bool { return dates.Day(a.Date).Equal(d) }), nil
}

func (r *appointmentRepo) ListByStatus(ctx context.Context, status appointments.Status) ([]appointments.Appointment, error) {
	unlock := r.db.read(ctx)
	defer unlock()

	return r.filter(func(a appointments.Appointment) bool { return a.Status == status }), nil
}

func (r *appointmentRepo) Search(ctx context.Context, term string) ([]appointments.Appointment, error) {
	unlock := r.db.read(ctx)
	defer unlock()

	return r.filter(func(a appointments.Appointment) bool {
		return containsFold(a.Veterinarian, term) || containsFold(string(a.Type), term) || containsFold(a.Notes, term)
	}), nil
}

func (r *appointmentRepo) Page(ctx context.Context, p pagination.Request) ([]appointments.Appointment, int, error) {
	unlock := r.db.read(ctx)
	defer unlock()

	all := r.filter(nil)
	return pageOf(all, p), len(all), nil
}

func (r *appointmentRepo) Count(ctx context.Context) (int, error) {
	unlock := r.db.read(ctx)
	defer unlock()

	return len(r.db.appointments), nil
}

func (r *appointmentRepo) CountOnDate(ctx context.Context, day time.Time) (int, error) {
	unlock := r.db.read(ctx)
	defer unlock()

	d := dates.Day(day)
	n := 0
	for _, a := range r.db.appointments {
		if dates.Day(a.Date).Equal(d) {
			n++
		}
	}
	return n, nil
}

func (r *appointmentRepo) CountByType(ctx context.Context) ([]stats.Group, error) {
	return r.countBy(ctx, func(a appointments.Appointment) string { return string(a.Type) })
}

func (r *appointmentRepo) CountByStatus(ctx context.Context) ([]stats.Group, error) {
	return r.countBy(ctx, func(a appointments.Appointment) string { return string(a.Status) })
}

func (r *appointmentRepo) countBy(ctx context.Context, key func(appointments.Appointment) string) ([]stats.Group, error) {
	unlock := r.db.read(ctx)
	defer unlock()

	m := map[string]int{}
	for _, a := range r.db.appointments {
		m[key(a)]++
	}
	return stats.FromMap(m), nil
}

// filter devuelve con join y orden fecha desc, hora desc, id desc.
func (r *appointmentRepo) filter(keep func(appointments.Appointment) bool) []appointments.Appointment {
	out := values(r.db.appointments, keep)
	for i := range out {
		out[i] = r.join(out[i])
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		if a.Time != b.Time {
			return a.Time > b.Time
		}
		return a.ID > b.ID
	})
	return out
}

func (r *appointmentRepo) join(a appointments.Appointment) appointments.Appointment {
	p, ok := r.db.patients[a.PatientID]
	if !ok {
		return a
	}
	a.PatientName = p.Name
	a.Species = p.Species
	if c, ok := r.db.clients[p.OwnerID]; ok {
		a.OwnerName = c.Name
	}
	return a
}

func stripJoined(a appointments.Appointment) appointments.Appointment {
	a.PatientName, a.Species, a.OwnerName = "", "", ""
	return a
}
