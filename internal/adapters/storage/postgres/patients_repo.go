package postgres

import (
	"context"
	"database/sql"
	"time"

	"vet-clinic/internal/domain/patients"
	"vet-clinic/internal/platform/pagination"
	"vet-clinic/internal/platform/stats"
	"vet-clinic/internal/ports/storage"
)

type PatientsRepo struct {
	db *sql.DB
}

func NewPatientsRepo(db *sql.DB) *PatientsRepo {
	return &PatientsRepo{db: db}
}

const patientCols = `
	id, name, species, breed, age, weight, gender, birth_date, owner_id,
	last_visit, next_visit, microchip, color, allergies, status,
	created_at, updated_at`

func scanPatient(row interface{ Scan(...any) error }) (patients.Patient, error) {
	var (
		p                 patients.Patient
		birth, last, next sql.NullTime
		microchip         sql.NullString
	)
	if err := row.Scan(
		&p.ID, &p.Name, &p.Species, &p.Breed, &p.Age, &p.Weight, &p.Gender, &birth, &p.OwnerID,
		&last, &next, &microchip, &p.Color, &p.Allergies, &p.Status,
		&p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return patients.Patient{}, err
	}
	p.BirthDate = timePtr(birth)
	p.LastVisit = timePtr(last)
	p.NextVisit = timePtr(next)
	p.Microchip = microchip.String
	return p, nil
}

func (r *PatientsRepo) Create(ctx context.Context, p patients.Patient) (patients.Patient, error) {
	err := conn(ctx, r.db).QueryRowContext(ctx, `
		INSERT INTO patients (
			name, species, breed, age, weight, gender, birth_date, owner_id,
			last_visit, next_visit, microchip, color, allergies, status,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		RETURNING id
	`,
		p.Name, p.Species, p.Breed, p.Age, p.Weight, p.Gender, nullTime(p.BirthDate), p.OwnerID,
		nullTime(p.LastVisit), nullTime(p.NextVisit), nullString(p.Microchip), p.Color, p.Allergies, p.Status,
		p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
	return p, translate(err)
}

func (r *PatientsRepo) Update(ctx context.Context, p patients.Patient) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `
		UPDATE patients
		SET
			name = $2,
			species = $3,
			breed = $4,
			age = $5,
			weight = $6,
			gender = $7,
			birth_date = $8,
			owner_id = $9,
			last_visit = $10,
			next_visit = $11,
			microchip = $12,
			color = $13,
			allergies = $14,
			status = $15,
			updated_at = $16
		WHERE id = $1
	`,
		p.ID, p.Name, p.Species, p.Breed, p.Age, p.Weight, p.Gender, nullTime(p.BirthDate), p.OwnerID,
		nullTime(p.LastVisit), nullTime(p.NextVisit), nullString(p.Microchip), p.Color, p.Allergies, p.Status,
		p.UpdatedAt,
	)
	if err != nil {
		return translate(err)
	}
	if ok, err := affected(res); err != nil || !ok {
		return notFoundUnless(err)
	}
	return nil
}

func (r *PatientsRepo) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return false, translate(err)
	}
	return affected(res)
}

func (r *PatientsRepo) GetByID(ctx context.Context, id int64) (patients.Patient, error) {
	p, err := scanPatient(conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
	return p, translate(err)
}

func (r *PatientsRepo) GetByMicrochip(ctx context.Context, microchip string) (patients.Patient, error) {
	if microchip == "" {
		return patients.Patient{}, storage.ErrNotFound
	}
	p, err := scanPatient(conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+patientCols+` FROM patients WHERE microchip = $1`, microchip))
	return p, translate(err)
}

func (r *PatientsRepo) List(ctx context.Context) ([]patients.Patient, error) {
	return r.query(ctx, `SELECT `+patientCols+` FROM patients ORDER BY created_at DESC, id DESC`)
}

func (r *PatientsRepo) ListByOwner(ctx context.Context, ownerID int64) ([]patients.Patient, error) {
	return r.query(ctx, `SELECT `+patientCols+` FROM patients WHERE owner_id = $1 ORDER BY lower(name), id`, ownerID)
}

func (r *PatientsRepo) Search(ctx context.Context, term string) ([]patients.Patient, error) {
	return r.query(ctx, `SELECT `+patientCols+` FROM patients WHERE name ILIKE $1 ORDER BY lower(name), id`, like(term))
}

func (r *PatientsRepo) Page(ctx context.Context, p pagination.Request) ([]patients.Patient, int, error) {
	total, err := r.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	items, err := r.query(ctx, `
		SELECT `+patientCols+`
		FROM patients
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`, p.Limit, p.Offset())
	return items, total, err
}

func (r *PatientsRepo) Count(ctx context.Context) (int, error) {
	return count(ctx, conn(ctx, r.db), `SELECT COUNT(*) FROM patients`)
}

func (r *PatientsRepo) CountBySpecies(ctx context.Context) ([]stats.Group, error) {
	return groups(ctx, conn(ctx, r.db), `SELECT species, COUNT(*) FROM patients GROUP BY species`)
}

func (r *PatientsRepo) CountByStatus(ctx context.Context) ([]stats.Group, error) {
	return groups(ctx, conn(ctx, r.db), `SELECT status, COUNT(*) FROM patients GROUP BY status`)
}

func (r *PatientsRepo) SetLastVisit(ctx context.Context, id int64, at time.Time) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `
		UPDATE patients SET last_visit = $2, updated_at = now() WHERE id = $1
	`, id, at)
	if err != nil {
		return translate(err)
	}
	if ok, err := affected(res); err != nil || !ok {
		return notFoundUnless(err)
	}
	return nil
}

func (r *PatientsRepo) AdvanceLastVisit(ctx context.Context, id int64, at time.Time) (bool, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx, `
		UPDATE patients
		SET last_visit = $2, updated_at = now()
		WHERE id = $1 AND (last_visit IS NULL OR last_visit < $2)
	`, id, at)
	if err != nil {
		return false, translate(err)
	}
	ok, err := affected(res)
	if err != nil || ok {
		return ok, err
	}
	// sin filas: o no existe o ya tenía una fecha posterior
	if _, err := r.GetByID(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

func (r *PatientsRepo) query(ctx context.Context, sqlText string, args ...any) ([]patients.Patient, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]patients.Patient, 0)
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
