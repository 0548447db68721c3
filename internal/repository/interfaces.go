package repository

import (
	"context"
	"time"

	"github.com/baharkarakas/point-service/internal/models"
)

type Balances interface {
	// Get returns the committed balance for accountID; found=false means
	// the account has never been written.
	Get(ctx context.Context, accountID int64) (models.Balance, bool, error)
	Put(ctx context.Context, accountID int64, amount int64, at time.Time) (models.Balance, error)
}

type Histories interface {
	// Append commits one entry. Appending an entry whose ID already exists
	// must be a no-op returning the stored entry, so a retried commit is safe.
	Append(ctx context.Context, e models.HistoryEntry) (models.HistoryEntry, error)
	// ListByAccount returns the account's entries in insertion order.
	ListByAccount(ctx context.Context, accountID int64) ([]models.HistoryEntry, error)
}

type AuditLogs interface {
	Create(ctx context.Context, l models.AuditLog) error
}
