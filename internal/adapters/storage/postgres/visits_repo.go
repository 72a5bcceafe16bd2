package postgres

import (
	"context"
	"database/sql"

	"vet-clinic/internal/domain/visits"
	"vet-clinic/internal/platform/pagination"
)

type VisitsRepo struct {
	db *sql.DB
}

func NewVisitsRepo(db *sql.DB) *VisitsRepo {
	return &VisitsRepo{db: db}
}

const visitCols = `id, patient_id, date, type, veterinarian, diagnosis, treatment, notes, cost, created_at, updated_at`

func scanVisit(row interface{ Scan(...any) error }) (visits.Visit, error) {
	var v visits.Visit
	err := row.Scan(&v.ID, &v.PatientID, &v.Date, &v.Type, &v.Veterinarian, &v.Diagnosis, &v.Treatment, &v.Notes, &v.Cost, &v.CreatedAt, &v.UpdatedAt)
	v.Date = v.Date.UTC()
	return v, err
}

func (r *VisitsRepo) Create(ctx context.Context, v visits.Visit) (visits.Visit, error) {
	err := conn(ctx, r.db).QueryRowContext(ctx, `
		INSERT INTO visits (patient_id, date, type, veterinarian, diagnosis, treatment, notes, cost, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id
	`, v.PatientID, v.Date, v.Type, v.Veterinarian, v.Diagnosis, v.Treatment, v.Notes, v.Cost, v.CreatedAt, v.UpdatedAt).Scan(&v.ID)
	return v, translate(err)
}

func (r *VisitsRepo) Update(ctx context.Context, v visits.Visit) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `
		UPDATE visits
		SET
			patient_id = $2,
			date = $3,
			type = $4,
			veterinarian = $5,
			diagnosis = $6,
			treatment = $7,
			notes = $8,
			cost = $9,
			updated_at = $10
		WHERE id = $1
	`, v.ID, v.PatientID, v.Date, v.Type, v.Veterinarian, v.Diagnosis, v.Treatment, v.Notes, v.Cost, v.UpdatedAt)
	if err != nil {
		return translate(err)
	}
	if ok, err := affected(res); err != nil || !ok {
		return notFoundUnless(err)
	}
	return nil
}

func (r *VisitsRepo) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM visits WHERE id = $1`, id)
	if err != nil {
		return false, translate(err)
	}
	return affected(res)
}

func (r *VisitsRepo) GetByID(ctx context.Context, id int64) (visits.Visit, error) {
	v, err := scanVisit(conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+visitCols+` FROM visits WHERE id = $1`, id))
	return v, translate(err)
}

func (r *VisitsRepo) List(ctx context.Context) ([]visits.Visit, error) {
	return r.query(ctx, `SELECT `+visitCols+` FROM visits ORDER BY date DESC, id DESC`)
}

func (r *VisitsRepo) ListByPatient(ctx context.Context, patientID int64) ([]visits.Visit, error) {
	return r.query(ctx, `SELECT `+visitCols+` FROM visits WHERE patient_id = $1 ORDER BY date DESC, id DESC`, patientID)
}

func (r *VisitsRepo) Search(ctx context.Context, term string) ([]visits.Visit, error) {
	return r.query(ctx, `
		SELECT `+visitCols+`
		FROM visits
		WHERE diagnosis ILIKE $1 OR treatment ILIKE $1 OR veterinarian ILIKE $1
		ORDER BY date DESC, id DESC
	`, like(term))
}

func (r *VisitsRepo) Page(ctx context.Context, p pagination.Request) ([]visits.Visit, int, error) {
	total, err := r.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	items, err := r.query(ctx, `
		SELECT `+visitCols+` FROM visits ORDER BY date DESC, id DESC LIMIT $1 OFFSET $2
	`, p.Limit, p.Offset())
	return items, total, err
}

func (r *VisitsRepo) Count(ctx context.Context) (int, error) {
	return count(ctx, conn(ctx, r.db), `SELECT COUNT(*) FROM visits`)
}

func (r *VisitsRepo) StatsByType(ctx context.Context) ([]visits.TypeStat, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, `
		SELECT type, COUNT(*), COALESCE(SUM(cost), 0)
		FROM visits
		GROUP BY type
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]visits.TypeStat, 0)
	for rows.Next() {
		var s visits.TypeStat
		if err := rows.Scan(&s.Type, &s.Count, &s.TotalRevenue); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *VisitsRepo) query(ctx context.Context, sqlText string, args ...any) ([]visits.Visit, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]visits.Visit, 0)
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
