package models

import "errors"

var (
	// ErrInvalidID account id must be > 0
	ErrInvalidID = errors.New("invalid account id")

	// ErrInvalidAmount amount must be in (0, MaxPoint]
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrExceedBalance charge would push the balance above MaxPoint
	ErrExceedBalance = errors.New("balance would exceed maximum")

	// ErrInsufficientBalance use would push the balance below zero
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrNotFound no record for the account
	ErrNotFound = errors.New("account not found")

	// ErrStore a store collaborator failed; the caller may retry the same
	// logical operation with its idempotency key
	ErrStore = errors.New("store operation failed")
)
