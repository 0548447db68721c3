package postgres

import (
	"context"

	"github.com/baharkarakas/point-service/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

type historiesRepo struct{ pool *pgxpool.Pool }

func (r *historiesRepo) Append(ctx context.Context, e models.HistoryEntry) (models.HistoryEntry, error) {
	// id is fixed by the caller before the write phase; replaying the same
	// append after a partial failure must not double-insert.
	_, err := r.pool.Exec(ctx,
		`INSERT INTO point_histories(id, account_id, amount, kind, created_at)
		 VALUES($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO NOTHING`,
		e.ID, e.AccountID, e.Amount, e.Kind, e.CreatedAt,
	)
	if err != nil {
		return models.HistoryEntry{}, err
	}
	var out models.HistoryEntry
	err = r.pool.QueryRow(ctx,
		`SELECT id, account_id, amount, kind, created_at
		   FROM point_histories
		  WHERE id=$1`,
		e.ID,
	).Scan(&out.ID, &out.AccountID, &out.Amount, &out.Kind, &out.CreatedAt)
	return out, err
}

func (r *historiesRepo) ListByAccount(ctx context.Context, accountID int64) ([]models.HistoryEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, account_id, amount, kind, created_at
		   FROM point_histories
		  WHERE account_id=$1
		  ORDER BY seq ASC`,
		accountID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.HistoryEntry
	for rows.Next() {
		var e models.HistoryEntry
		if err := rows.Scan(&e.ID, &e.AccountID, &e.Amount, &e.Kind, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
