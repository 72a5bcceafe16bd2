package postgres

import (
	"context"
	"database/sql"

	"vet-clinic/internal/domain/users"
	"vet-clinic/internal/platform/pagination"
	"vet-clinic/internal/platform/stats"
)

type UsersRepo struct {
	db *sql.DB
}

func NewUsersRepo(db *sql.DB) *UsersRepo {
	return &UsersRepo{db: db}
}

const userCols = `id, nombre, email, telefono, password, rol_id, status, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (users.User, error) {
	var u users.User
	err := row.Scan(&u.ID, &u.Nombre, &u.Email, &u.Telefono, &u.PasswordHash, &u.Role, &u.Status, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *UsersRepo) Create(ctx context.Context, u users.User) (users.User, error) {
	err := conn(ctx, r.db).QueryRowContext(ctx, `
		INSERT INTO users (nombre, email, telefono, password, rol_id, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id
	`, u.Nombre, u.Email, u.Telefono, u.PasswordHash, int(u.Role), u.Status, u.CreatedAt, u.UpdatedAt).Scan(&u.ID)
	return u, translate(err)
}

func (r *UsersRepo) Update(ctx context.Context, u users.User) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `
		UPDATE users
		SET
			nombre = $2,
			email = $3,
			telefono = $4,
			password = $5,
			rol_id = $6,
			status = $7,
			updated_at = $8
		WHERE id = $1
	`, u.ID, u.Nombre, u.Email, u.Telefono, u.PasswordHash, int(u.Role), u.Status, u.UpdatedAt)
	if err != nil {
		return translate(err)
	}
	if ok, err := affected(res); err != nil || !ok {
		return notFoundUnless(err)
	}
	return nil
}

func (r *UsersRepo) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, translate(err)
	}
	return affected(res)
}

func (r *UsersRepo) GetByID(ctx context.Context, id int64) (users.User, error) {
	u, err := scanUser(conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
	return u, translate(err)
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (users.User, error) {
	u, err := scanUser(conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE lower(email) = lower($1)`, email))
	return u, translate(err)
}

func (r *UsersRepo) List(ctx context.Context) ([]users.User, error) {
	return r.query(ctx, `SELECT `+userCols+` FROM users ORDER BY created_at DESC, id DESC`)
}

func (r *UsersRepo) Search(ctx context.Context, term string) ([]users.User, error) {
	return r.query(ctx, `SELECT `+userCols+` FROM users WHERE nombre ILIKE $1 ORDER BY lower(nombre), id`, like(term))
}

func (r *UsersRepo) Page(ctx context.Context, p pagination.Request) ([]users.User, int, error) {
	total, err := r.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	items, err := r.query(ctx, `
		SELECT `+userCols+` FROM users ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2
	`, p.Limit, p.Offset())
	return items, total, err
}

func (r *UsersRepo) Count(ctx context.Context) (int, error) {
	return count(ctx, conn(ctx, r.db), `SELECT COUNT(*) FROM users`)
}

func (r *UsersRepo) CountByRole(ctx context.Context) ([]stats.Group, error) {
	return groups(ctx, conn(ctx, r.db), `SELECT rol_id::text, COUNT(*) FROM users GROUP BY rol_id`)
}

func (r *UsersRepo) CountByStatus(ctx context.Context) ([]stats.Group, error) {
	return groups(ctx, conn(ctx, r.db), `SELECT status, COUNT(*) FROM users GROUP BY status`)
}

func (r *UsersRepo) query(ctx context.Context, sqlText string, args ...any) ([]users.User, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]users.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
