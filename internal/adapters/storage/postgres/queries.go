package postgres

import (
	"context"
	"strings"

	"vet-clinic/internal/platform/stats"
	"vet-clinic/internal/ports/storage"
)

func like(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(term) + "%"
}

func count(ctx context.Context, q querier, sqlText string, args ...any) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, sqlText, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// groups espera filas (key, count).
func groups(ctx context.Context, q querier, sqlText string, args ...any) ([]stats.Group, error) {
	rows, err := q.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]stats.Group, 0)
	for rows.Next() {
		var g stats.Group
		if err := rows.Scan(&g.Key, &g.Count); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return stats.Sort(out), rows.Err()
}

func notFoundUnless(err error) error {
	if err != nil {
		return err
	}
	return storage.ErrNotFound
}
