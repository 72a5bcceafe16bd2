package postgres

import (
	"context"
	"database/sql"
	"time"

	"vet-clinic/internal/domain/vaccinations"
	"vet-clinic/internal/platform/pagination"
)

type VaccinationsRepo struct {
	db *sql.DB
}

func NewVaccinationsRepo(db *sql.DB) *VaccinationsRepo {
	return &VaccinationsRepo{db: db}
}

const vaccinationCols = `v.id, v.patient_id, v.date, v.vaccine, v.next_due, v.veterinarian, v.batch_number, v.notes, v.created_at, v.updated_at`

func scanVaccination(row interface{ Scan(...any) error }, extra ...any) (vaccinations.Vaccination, error) {
	var v vaccinations.Vaccination
	dest := append([]any{&v.ID, &v.PatientID, &v.Date, &v.Vaccine, &v.NextDue, &v.Veterinarian, &v.BatchNumber, &v.Notes, &v.CreatedAt, &v.UpdatedAt}, extra...)
	err := row.Scan(dest...)
	v.Date = v.Date.UTC()
	v.NextDue = v.NextDue.UTC()
	return v, err
}

func (r *VaccinationsRepo) Create(ctx context.Context, v vaccinations.Vaccination) (vaccinations.Vaccination, error) {
	err := conn(ctx, r.db).QueryRowContext(ctx, `
		INSERT INTO vaccinations (patient_id, date, vaccine, next_due, veterinarian, batch_number, notes, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id
	`, v.PatientID, v.Date, v.Vaccine, v.NextDue, v.Veterinarian, v.BatchNumber, v.Notes, v.CreatedAt, v.UpdatedAt).Scan(&v.ID)
	return v, translate(err)
}

func (r *VaccinationsRepo) Update(ctx context.Context, v vaccinations.Vaccination) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `
		UPDATE vaccinations
		SET
			patient_id = $2,
			date = $3,
			vaccine = $4,
			next_due = $5,
			veterinarian = $6,
			batch_number = $7,
			notes = $8,
			updated_at = $9
		WHERE id = $1
	`, v.ID, v.PatientID, v.Date, v.Vaccine, v.NextDue, v.Veterinarian, v.BatchNumber, v.Notes, v.UpdatedAt)
	if err != nil {
		return translate(err)
	}
	if ok, err := affected(res); err != nil || !ok {
		return notFoundUnless(err)
	}
	return nil
}

func (r *VaccinationsRepo) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM vaccinations WHERE id = $1`, id)
	if err != nil {
		return false, translate(err)
	}
	return affected(res)
}

func (r *VaccinationsRepo) GetByID(ctx context.Context, id int64) (vaccinations.Vaccination, error) {
	v, err := scanVaccination(conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+vaccinationCols+` FROM vaccinations v WHERE v.id = $1`, id))
	return v, translate(err)
}

func (r *VaccinationsRepo) List(ctx context.Context) ([]vaccinations.Vaccination, error) {
	return r.query(ctx, `SELECT `+vaccinationCols+` FROM vaccinations v ORDER BY v.date DESC, v.id DESC`)
}

func (r *VaccinationsRepo) ListByPatient(ctx context.Context, patientID int64) ([]vaccinations.Vaccination, error) {
	return r.query(ctx, `SELECT `+vaccinationCols+` FROM vaccinations v WHERE v.patient_id = $1 ORDER BY v.date DESC, v.id DESC`, patientID)
}

func (r *VaccinationsRepo) Search(ctx context.Context, term string) ([]vaccinations.Vaccination, error) {
	return r.query(ctx, `
		SELECT `+vaccinationCols+`
		FROM vaccinations v
		WHERE v.vaccine ILIKE $1 OR v.veterinarian ILIKE $1 OR v.batch_number ILIKE $1
		ORDER BY v.date DESC, v.id DESC
	`, like(term))
}

func (r *VaccinationsRepo) Page(ctx context.Context, p pagination.Request) ([]vaccinations.Vaccination, int, error) {
	total, err := r.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	items, err := r.query(ctx, `
		SELECT `+vaccinationCols+` FROM vaccinations v ORDER BY v.date DESC, v.id DESC LIMIT $1 OFFSET $2
	`, p.Limit, p.Offset())
	return items, total, err
}

func (r *VaccinationsRepo) Count(ctx context.Context) (int, error) {
	return count(ctx, conn(ctx, r.db), `SELECT COUNT(*) FROM vaccinations`)
}

func (r *VaccinationsRepo) DueBetween(ctx context.Context, from, to time.Time) ([]vaccinations.Reminder, error) {
	return r.reminders(ctx, `v.next_due >= $1 AND v.next_due < $2`, from, to)
}

func (r *VaccinationsRepo) DueBefore(ctx context.Context, before time.Time) ([]vaccinations.Reminder, error) {
	return r.reminders(ctx, `v.next_due < $1`, before)
}

func (r *VaccinationsRepo) reminders(ctx context.Context, where string, args ...any) ([]vaccinations.Reminder, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, `
		SELECT `+vaccinationCols+`, p.name, p.species, c.name, c.phone
		FROM vaccinations v
		JOIN patients p ON p.id = v.patient_id
		JOIN clients c ON c.id = p.owner_id
		WHERE `+where+`
		ORDER BY v.next_due ASC, v.id ASC
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]vaccinations.Reminder, 0)
	for rows.Next() {
		var rem vaccinations.Reminder
		v, err := scanVaccination(rows, &rem.PatientName, &rem.Species, &rem.OwnerName, &rem.OwnerPhone)
		if err != nil {
			return nil, err
		}
		rem.Vaccination = v
		out = append(out, rem)
	}
	return out, rows.Err()
}

func (r *VaccinationsRepo) query(ctx context.Context, sqlText string, args ...any) ([]vaccinations.Vaccination, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]vaccinations.Vaccination, 0)
	for rows.Next() {
		v, err := scanVaccination(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
