package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"vet-clinic/internal/ports/storage"
)

func TestTranslate(t *testing.T) {
	other := errors.New("conexión rota")

	cases := []struct {
		name      string
		in        error
		wantIs    error
		wantField string
	}{
		{"nil", nil, nil, ""},
		{"no rows", sql.ErrNoRows, storage.ErrNotFound, ""},
		{"email duplicado", &pgconn.PgError{Code: "23505", ConstraintName: "clients_email_key"}, storage.ErrDuplicate, "email"},
		{"id duplicado", &pgconn.PgError{Code: "23505", ConstraintName: "clients_pkey"}, storage.ErrDuplicate, "id"},
		{"microchip envuelto", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "patients_microchip_key"}), storage.ErrDuplicate, "microchip"},
		{"fk", &pgconn.PgError{Code: "23503"}, storage.ErrReference, ""},
		{"otro", other, other, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := translate(tc.in)
			if tc.wantIs == nil {
				if got != nil {
					t.Fatalf("expected nil, got %v", got)
				}
				return
			}
			if !errors.Is(got, tc.wantIs) {
				t.Fatalf("expected %v, got %v", tc.wantIs, got)
			}
			if f := storage.DuplicateField(got); f != tc.wantField {
				t.Fatalf("expected field %q, got %q", tc.wantField, f)
			}
		})
	}
}
