package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/baharkarakas/point-service/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type balancesRepo struct{ pool *pgxpool.Pool }

func (r *balancesRepo) Get(ctx context.Context, accountID int64) (models.Balance, bool, error) {
	var b models.Balance
	err := r.pool.QueryRow(ctx,
		`SELECT account_id, amount, updated_at
		   FROM balances
		  WHERE account_id=$1`,
		accountID,
	).Scan(&b.AccountID, &b.Amount, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Balance{}, false, nil
	}
	if err != nil {
		return models.Balance{}, false, err
	}
	return b, true, nil
}

func (r *balancesRepo) Put(ctx context.Context, accountID int64, amount int64, at time.Time) (models.Balance, error) {
	var b models.Balance
	err := r.pool.QueryRow(ctx,
		`INSERT INTO balances(account_id, amount, updated_at)
		 VALUES($1, $2, $3)
		 ON CONFLICT (account_id) DO UPDATE
		    SET amount = EXCLUDED.amount,
		        updated_at = EXCLUDED.updated_at
		 RETURNING account_id, amount, updated_at`,
		accountID, amount, at,
	).Scan(&b.AccountID, &b.Amount, &b.UpdatedAt)
	return b, err
}
