package postgres

import (
	"context"
	"database/sql"
	"time"

	"vet-clinic/internal/domain/appointments"
	"vet-clinic/internal/platform/pagination"
	"vet-clinic/internal/platform/stats"
)

type AppointmentsRepo struct {
	db *sql.DB
}

func NewAppointmentsRepo(db *sql.DB) *AppointmentsRepo {
	return &AppointmentsRepo{db: db}
}

// Todas las lecturas llevan el join con paciente y dueño.
const appointmentSelect = `
	SELECT
		a.id, a.patient_id, a.date, a.time, a.type, a.veterinarian, a.status, a.notes,
		a.created_at, a.updated_at,
		COALESCE(p.name, ''), COALESCE(p.species, ''), COALESCE(c.name, '')
	FROM appointments a
	LEFT JOIN patients p ON p.id = a.patient_id
	LEFT JOIN clients c ON c.id = p.owner_id`

const appointmentOrder = ` ORDER BY a.date DESC, a.time DESC, a.id DESC`

func scanAppointment(row interface{ Scan(...any) error }) (appointments.Appointment, error) {
	var a appointments.Appointment
	err := row.Scan(
		&a.ID, &a.PatientID, &a.Date, &a.Time, &a.Type, &a.Veterinarian, &a.Status, &a.Notes,
		&a.CreatedAt, &a.UpdatedAt,
		&a.PatientName, &a.Species, &a.OwnerName,
	)
	a.Date = a.Date.UTC()
	return a, err
}

func (r *AppointmentsRepo) Create(ctx context.Context, a appointments.Appointment) (appointments.Appointment, error) {
	var id int64
	err := conn(ctx, r.db).QueryRowContext(ctx, `
		INSERT INTO appointments (patient_id, date, time, type, veterinarian, status, notes, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id
	`, a.PatientID, a.Date, a.Time, a.Type, a.Veterinarian, a.Status, a.Notes, a.CreatedAt, a.UpdatedAt).Scan(&id)
	if err != nil {
		return appointments.Appointment{}, translate(err)
	}
	return r.GetByID(ctx, id)
}

func (r *AppointmentsRepo) Update(ctx context.Context, a appointments.Appointment) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `
		UPDATE appointments
		SET
			patient_id = $2,
			date = $3,
			time = $4,
			type = $5,
			veterinarian = $6,
			status = $7,
			notes = $8,
			updated_at = $9
		WHERE id = $1
	`, a.ID, a.PatientID, a.Date, a.Time, a.Type, a.Veterinarian, a.Status, a.Notes, a.UpdatedAt)
	if err != nil {
		return translate(err)
	}
	if ok, err := affected(res); err != nil || !ok {
		return notFoundUnless(err)
	}
	return nil
}

func (r *AppointmentsRepo) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return false, translate(err)
	}
	return affected(res)
}

func (r *AppointmentsRepo) GetByID(ctx context.Context, id int64) (appointments.Appointment, error) {
	a, err := scanAppointment(conn(ctx, r.db).QueryRowContext(ctx, appointmentSelect+` WHERE a.id = $1`, id))
	return a, translate(err)
}

func (r *AppointmentsRepo) List(ctx context.Context) ([]appointments.Appointment, error) {
	return r.query(ctx, appointmentSelect+appointmentOrder)
}

func (r *AppointmentsRepo) ListByPatient(ctx context.Context, patientID int64) ([]appointments.Appointment, error) {
	return r.query(ctx, appointmentSelect+` WHERE a.patient_id = $1`+appointmentOrder, patientID)
}

func (r *AppointmentsRepo) ListByDate(ctx context.Context, day time.Time) ([]appointments.Appointment, error) {
	return r.query(ctx, appointmentSelect+` WHERE a.date = $1::date`+appointmentOrder, day.Format("2006-01-02"))
}

func (r *AppointmentsRepo) ListByStatus(ctx context.Context, status appointments.Status) ([]appointments.Appointment, error) {
	return r.query(ctx, appointmentSelect+` WHERE a.status = $1`+appointmentOrder, status)
}

func (r *AppointmentsRepo) Search(ctx context.Context, term string) ([]appointments.Appointment, error) {
	return r.query(ctx, appointmentSelect+`
		WHERE a.veterinarian ILIKE $1 OR a.type ILIKE $1 OR a.notes ILIKE $1`+appointmentOrder, like(term))
}

func (r *AppointmentsRepo) Page(ctx context.Context, p pagination.Request) ([]appointments.Appointment, int, error) {
	total, err := r.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	items, err := r.query(ctx, appointmentSelect+appointmentOrder+` LIMIT $1 OFFSET $2`, p.Limit, p.Offset())
	return items, total, err
}

func (r *AppointmentsRepo) Count(ctx context.Context) (int, error) {
	return count(ctx, conn(ctx, r.db), `SELECT COUNT(*) FROM appointments`)
}

func (r *AppointmentsRepo) CountOnDate(ctx context.Context, day time.Time) (int, error) {
	return count(ctx, conn(ctx, r.db), `SELECT COUNT(*) FROM appointments WHERE date = $1::date`, day.Format("2006-01-02"))
}

func (r *AppointmentsRepo) CountByType(ctx context.Context) ([]stats.Group, error) {
	return groups(ctx, conn(ctx, r.db), `SELECT type, COUNT(*) FROM appointments GROUP BY type`)
}

func (r *AppointmentsRepo) CountByStatus(ctx context.Context) ([]stats.Group, error) {
	return groups(ctx, conn(ctx, r.db), `SELECT status, COUNT(*) FROM appointments GROUP BY status`)
}

func (r *AppointmentsRepo) query(ctx context.Context, sqlText string, args ...any) ([]appointments.Appointment, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]appointments.Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
