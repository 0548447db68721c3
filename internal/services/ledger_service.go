package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/baharkarakas/point-service/internal/lock"
	"github.com/baharkarakas/point-service/internal/metrics"
	"github.com/baharkarakas/point-service/internal/models"
	repo "github.com/baharkarakas/point-service/internal/repository"
	"github.com/baharkarakas/point-service/internal/worker"
)

// LedgerService owns all writes to the balance and history stores. Mutations
// for one account run strictly one at a time behind the account locker;
// different accounts proceed in parallel.
type LedgerService struct {
	bal    repo.Balances
	hist   repo.Histories
	log    repo.AuditLogs
	wp     *worker.Pool
	locker *lock.AccountLocker

	// LockWait bounds how long a mutation waits for its account slot.
	// Zero means wait as long as the request context allows.
	LockWait time.Duration

	done    sync.Map // Idempotency-Key -> models.Balance (process-local)
	pending sync.Map // Idempotency-Key -> models.HistoryEntry awaiting append
}

func NewLedgerService(b repo.Balances, h repo.Histories, l repo.AuditLogs, wp *worker.Pool) *LedgerService {
	return &LedgerService{bal: b, hist: h, log: l, wp: wp, locker: lock.NewAccountLocker()}
}

// ----------------- Helpers -----------------

func (s *LedgerService) audit(accountID int64, action, details string) {
	if s.log == nil || s.wp == nil {
		return
	}
	id := fmt.Sprintf("%d", accountID)
	entry := models.AuditLog{
		EntityType: "account",
		EntityID:   &id,
		Action:     action,
		Details:    map[string]any{"message": details},
	}
	s.wp.Submit(func() { _ = s.log.Create(context.Background(), entry) })
}

func validateID(accountID int64) error {
	if accountID <= 0 {
		return models.ErrInvalidID
	}
	return nil
}

func validateAmount(amount int64) error {
	if amount <= 0 || amount > models.MaxPoint {
		return models.ErrInvalidAmount
	}
	return nil
}

func (s *LedgerService) acquire(ctx context.Context, accountID int64) (release func(), err error) {
	if s.LockWait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.LockWait)
		defer cancel()
	}
	start := time.Now()
	if err := s.locker.Acquire(ctx, accountID); err != nil {
		return nil, err
	}
	metrics.LockWaitSeconds.Observe(time.Since(start).Seconds())
	return func() { s.locker.Release(accountID) }, nil
}

// currentAmount reads the committed balance, defaulting an unseen account
// to zero. Must be called while holding the account slot.
func (s *LedgerService) currentAmount(ctx context.Context, accountID int64) (int64, error) {
	b, found, err := s.bal.Get(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("%w: read balance: %w", models.ErrStore, err)
	}
	if !found {
		return 0, nil
	}
	return b.Amount, nil
}

// commit writes the new balance, then appends the matching history entry.
// The entry id is fixed before the write phase, so a retried commit after a
// partial failure re-appends the same entry, which the store deduplicates.
func (s *LedgerService) commit(ctx context.Context, accountID, newAmount int64, entry models.HistoryEntry, idemKey string) (models.Balance, error) {
	b, err := s.bal.Put(ctx, accountID, newAmount, entry.CreatedAt)
	if err != nil {
		return models.Balance{}, fmt.Errorf("%w: write balance: %w", models.ErrStore, err)
	}
	if _, err := s.hist.Append(ctx, entry); err != nil {
		// Balance is applied but its history entry is not. Park the entry
		// so a retry with the same key only completes the missing append.
		if idemKey != "" {
			s.pending.Store(idemKey, entry)
		}
		return models.Balance{}, fmt.Errorf("%w: append history: %w", models.ErrStore, err)
	}
	if idemKey != "" {
		s.pending.Delete(idemKey)
		s.done.Store(idemKey, b)
	}
	return b, nil
}

// completePending finishes a mutation whose balance write committed but
// whose history append failed on an earlier attempt.
func (s *LedgerService) completePending(ctx context.Context, accountID int64, entry models.HistoryEntry, idemKey string) (models.Balance, error) {
	if _, err := s.hist.Append(ctx, entry); err != nil {
		return models.Balance{}, fmt.Errorf("%w: append history: %w", models.ErrStore, err)
	}
	b, found, err := s.bal.Get(ctx, accountID)
	if err != nil || !found {
		return models.Balance{}, fmt.Errorf("%w: read balance after append", models.ErrStore)
	}
	s.pending.Delete(idemKey)
	s.done.Store(idemKey, b)
	return b, nil
}

// ----------------- CHARGE -----------------

func (s *LedgerService) Charge(ctx context.Context, accountID, amount int64) (models.Balance, error) {
	return s.ChargeIdem(ctx, accountID, amount, "")
}

func (s *LedgerService) ChargeIdem(ctx context.Context, accountID, amount int64, idemKey string) (models.Balance, error) {
	if err := validateID(accountID); err != nil {
		metrics.OperationsFailed.WithLabelValues("charge").Inc()
		return models.Balance{}, err
	}
	if err := validateAmount(amount); err != nil {
		metrics.OperationsFailed.WithLabelValues("charge").Inc()
		return models.Balance{}, err
	}
	if idemKey != "" {
		if v, ok := s.done.Load(idemKey); ok {
			return v.(models.Balance), nil
		}
	}

	release, err := s.acquire(ctx, accountID)
	if err != nil {
		metrics.OperationsFailed.WithLabelValues("charge").Inc()
		return models.Balance{}, err
	}
	defer release()

	if idemKey != "" {
		if v, ok := s.pending.Load(idemKey); ok {
			return s.completePending(ctx, accountID, v.(models.HistoryEntry), idemKey)
		}
	}

	cur, err := s.currentAmount(ctx, accountID)
	if err != nil {
		metrics.OperationsFailed.WithLabelValues("charge").Inc()
		return models.Balance{}, err
	}
	newAmount := cur + amount
	if newAmount > models.MaxPoint {
		metrics.OperationsFailed.WithLabelValues("charge").Inc()
		s.audit(accountID, "charge_rejected", "balance would exceed maximum")
		return models.Balance{}, models.ErrExceedBalance
	}

	entry := models.HistoryEntry{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Amount:    amount,
		Kind:      models.KindCharge,
		CreatedAt: time.Now().UTC(),
	}
	b, err := s.commit(ctx, accountID, newAmount, entry, idemKey)
	if err != nil {
		metrics.OperationsFailed.WithLabelValues("charge").Inc()
		return models.Balance{}, err
	}
	metrics.OperationsTotal.WithLabelValues("charge").Inc()
	s.audit(accountID, "charge", "charge applied")
	return b, nil
}

// ----------------- USE -----------------

func (s *LedgerService) Use(ctx context.Context, accountID, amount int64) (models.Balance, error) {
	return s.UseIdem(ctx, accountID, amount, "")
}

func (s *LedgerService) UseIdem(ctx context.Context, accountID, amount int64, idemKey string) (models.Balance, error) {
	if err := validateID(accountID); err != nil {
		metrics.OperationsFailed.WithLabelValues("use").Inc()
		return models.Balance{}, err
	}
	if err := validateAmount(amount); err != nil {
		metrics.OperationsFailed.WithLabelValues("use").Inc()
		return models.Balance{}, err
	}
	if idemKey != "" {
		if v, ok := s.done.Load(idemKey); ok {
			return v.(models.Balance), nil
		}
	}

	release, err := s.acquire(ctx, accountID)
	if err != nil {
		metrics.OperationsFailed.WithLabelValues("use").Inc()
		return models.Balance{}, err
	}
	defer release()

	if idemKey != "" {
		if v, ok := s.pending.Load(idemKey); ok {
			return s.completePending(ctx, accountID, v.(models.HistoryEntry), idemKey)
		}
	}

	cur, err := s.currentAmount(ctx, accountID)
	if err != nil {
		metrics.OperationsFailed.WithLabelValues("use").Inc()
		return models.Balance{}, err
	}
	newAmount := cur - amount
	if newAmount < 0 {
		metrics.OperationsFailed.WithLabelValues("use").Inc()
		s.audit(accountID, "use_rejected", "insufficient balance")
		return models.Balance{}, models.ErrInsufficientBalance
	}

	entry := models.HistoryEntry{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Amount:    amount,
		Kind:      models.KindUse,
		CreatedAt: time.Now().UTC(),
	}
	b, err := s.commit(ctx, accountID, newAmount, entry, idemKey)
	if err != nil {
		metrics.OperationsFailed.WithLabelValues("use").Inc()
		return models.Balance{}, err
	}
	metrics.OperationsTotal.WithLabelValues("use").Inc()
	s.audit(accountID, "use", "use applied")
	return b, nil
}

// ----------------- Queries -----------------

// GetBalance returns the last committed balance. It does not take the
// account slot, so it never waits behind an in-flight mutation.
func (s *LedgerService) GetBalance(ctx context.Context, accountID int64) (models.Balance, error) {
	if err := validateID(accountID); err != nil {
		return models.Balance{}, err
	}
	b, found, err := s.bal.Get(ctx, accountID)
	if err != nil {
		return models.Balance{}, fmt.Errorf("%w: read balance: %w", models.ErrStore, err)
	}
	if !found {
		return models.Balance{}, models.ErrNotFound
	}
	return b, nil
}

// GetHistory returns the account's entries in insertion order. An account
// with no prior activity yields ErrNotFound.
func (s *LedgerService) GetHistory(ctx context.Context, accountID int64) ([]models.HistoryEntry, error) {
	if err := validateID(accountID); err != nil {
		return nil, err
	}
	entries, err := s.hist.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("%w: list history: %w", models.ErrStore, err)
	}
	if len(entries) == 0 {
		return nil, models.ErrNotFound
	}
	return entries, nil
}
