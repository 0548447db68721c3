package models

import "time"

// MaxPoint is the hard upper bound a balance may never exceed.
const MaxPoint int64 = 1_000_000

type Balance struct {
	AccountID int64     `json:"account_id"`
	Amount    int64     `json:"amount"`
	UpdatedAt time.Time `json:"updated_at"`
}
