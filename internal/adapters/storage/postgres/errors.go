package postgres

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"vet-clinic/internal/ports/storage"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// uniqueFields mapea el nombre del constraint al campo del request.
var uniqueFields = map[string]string{
	"clients_email_key":      "email",
	"clients_pkey":           "id",
	"patients_microchip_key": "microchip",
	"users_email_key":        "email",
}

// translate lleva errores del driver a los de storage.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeUniqueViolation:
		field, ok := uniqueFields[pgErr.ConstraintName]
		if !ok {
			field = pgErr.ConstraintName
		}
		return &storage.DuplicateError{Field: field}
	case codeForeignKeyViolation:
		return storage.ErrReference
	}
	return err
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
