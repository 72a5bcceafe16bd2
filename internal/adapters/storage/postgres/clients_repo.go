package postgres

import (
	"context"
	"database/sql"

	"vet-clinic/internal/domain/clients"
	"vet-clinic/internal/platform/pagination"
	"vet-clinic/internal/platform/stats"
)

type ClientsRepo struct {
	db *sql.DB
}

func NewClientsRepo(db *sql.DB) *ClientsRepo {
	return &ClientsRepo{db: db}
}

const clientCols = `id, name, email, phone, address, city, status, registration_date`

func scanClient(row interface{ Scan(...any) error }) (clients.Client, error) {
	var c clients.Client
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.City, &c.Status, &c.RegistrationDate)
	return c, err
}

func (r *ClientsRepo) Create(ctx context.Context, c clients.Client) (clients.Client, error) {
	q := conn(ctx, r.db)

	if c.ID == 0 {
		err := q.QueryRowContext(ctx, `
			INSERT INTO clients (name, email, phone, address, city, status, registration_date)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
			RETURNING id
		`, c.Name, c.Email, c.Phone, c.Address, c.City, c.Status, c.RegistrationDate).Scan(&c.ID)
		return c, translate(err)
	}

	if _, err := q.ExecContext(ctx, `
		INSERT INTO clients (id, name, email, phone, address, city, status, registration_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, c.ID, c.Name, c.Email, c.Phone, c.Address, c.City, c.Status, c.RegistrationDate); err != nil {
		return clients.Client{}, translate(err)
	}

	// con id explícito la secuencia no avanza sola
	_, err := q.ExecContext(ctx, `
		SELECT setval(pg_get_serial_sequence('clients', 'id'), GREATEST((SELECT MAX(id) FROM clients), 1))
	`)
	return c, translate(err)
}

func (r *ClientsRepo) Update(ctx context.Context, c clients.Client) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `
		UPDATE clients
		SET
			name = $2,
			email = $3,
			phone = $4,
			address = $5,
			city = $6,
			status = $7
		WHERE id = $1
	`, c.ID, c.Name, c.Email, c.Phone, c.Address, c.City, c.Status)
	if err != nil {
		return translate(err)
	}
	if ok, err := affected(res); err != nil || !ok {
		return notFoundUnless(err)
	}
	return nil
}

func (r *ClientsRepo) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return false, translate(err)
	}
	return affected(res)
}

func (r *ClientsRepo) GetByID(ctx context.Context, id int64) (clients.Client, error) {
	c, err := scanClient(conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+clientCols+` FROM clients WHERE id = $1`, id))
	return c, translate(err)
}

func (r *ClientsRepo) GetByEmail(ctx context.Context, email string) (clients.Client, error) {
	c, err := scanClient(conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+clientCols+` FROM clients WHERE lower(email) = lower($1)`, email))
	return c, translate(err)
}

func (r *ClientsRepo) List(ctx context.Context) ([]clients.Client, error) {
	return r.query(ctx, `SELECT `+clientCols+` FROM clients ORDER BY registration_date DESC, id DESC`)
}

func (r *ClientsRepo) Search(ctx context.Context, term string) ([]clients.Client, error) {
	return r.query(ctx, `
		SELECT `+clientCols+`
		FROM clients
		WHERE name ILIKE $1 OR email ILIKE $1 OR phone ILIKE $1
		ORDER BY lower(name), id
	`, like(term))
}

func (r *ClientsRepo) Page(ctx context.Context, p pagination.Request) ([]clients.Client, int, error) {
	total, err := r.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	items, err := r.query(ctx, `
		SELECT `+clientCols+`
		FROM clients
		ORDER BY registration_date DESC, id DESC
		LIMIT $1 OFFSET $2
	`, p.Limit, p.Offset())
	return items, total, err
}

func (r *ClientsRepo) Count(ctx context.Context) (int, error) {
	return count(ctx, conn(ctx, r.db), `SELECT COUNT(*) FROM clients`)
}

func (r *ClientsRepo) CountByStatus(ctx context.Context) ([]stats.Group, error) {
	return groups(ctx, conn(ctx, r.db), `SELECT status, COUNT(*) FROM clients GROUP BY status`)
}

func (r *ClientsRepo) query(ctx context.Context, sqlText string, args ...any) ([]clients.Client, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]clients.Client, 0)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
