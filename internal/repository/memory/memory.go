package memory

import (
	"context"
	"sync"
	"time"

	"github.com/baharkarakas/point-service/internal/models"
	"github.com/baharkarakas/point-service/internal/repository"
)

// Store keeps balances, histories and audit logs in process memory. Used
// for dev mode and tests; the postgres implementations are the production
// path.
type Store struct {
	mu       sync.RWMutex
	balances map[int64]models.Balance
	history  map[int64][]models.HistoryEntry
	byID     map[string]models.HistoryEntry
	audits   []models.AuditLog
}

func NewStore() *Store {
	return &Store{
		balances: make(map[int64]models.Balance),
		history:  make(map[int64][]models.HistoryEntry),
		byID:     make(map[string]models.HistoryEntry),
	}
}

type balances struct{ s *Store }
type histories struct{ s *Store }
type auditLogs struct{ s *Store }

func (s *Store) Balances() repository.Balances   { return balances{s} }
func (s *Store) Histories() repository.Histories { return histories{s} }
func (s *Store) AuditLogs() repository.AuditLogs { return auditLogs{s} }

func (r balances) Get(_ context.Context, accountID int64) (models.Balance, bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	b, ok := r.s.balances[accountID]
	return b, ok, nil
}

func (r balances) Put(_ context.Context, accountID int64, amount int64, at time.Time) (models.Balance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b := models.Balance{AccountID: accountID, Amount: amount, UpdatedAt: at}
	r.s.balances[accountID] = b
	return b, nil
}

func (r histories) Append(_ context.Context, e models.HistoryEntry) (models.HistoryEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if prev, ok := r.s.byID[e.ID]; ok {
		return prev, nil
	}
	r.s.byID[e.ID] = e
	r.s.history[e.AccountID] = append(r.s.history[e.AccountID], e)
	return e, nil
}

func (r histories) ListByAccount(_ context.Context, accountID int64) ([]models.HistoryEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	entries := r.s.history[accountID]
	out := make([]models.HistoryEntry, len(entries))
	copy(out, entries)
	return out, nil
}

func (r auditLogs) Create(_ context.Context, l models.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.audits = append(r.s.audits, l)
	return nil
}
