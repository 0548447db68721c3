package models

import "time"

type HistoryKind string

const (
	KindCharge HistoryKind = "charge"
	KindUse    HistoryKind = "use"
)

// HistoryEntry records one successful charge or use. Entries are immutable
// and ordered by insertion.
type HistoryEntry struct {
	ID        string      `json:"id"`
	AccountID int64       `json:"account_id"`
	Amount    int64       `json:"amount"`
	Kind      HistoryKind `json:"kind"`
	CreatedAt time.Time   `json:"created_at"`
}
