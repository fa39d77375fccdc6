package database

import "errors"

// Set of error variables for validating and applying transactions and blocks.
var (
	ErrInvalidTransaction  = errors.New("invalid transaction")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrInvalidAccountID    = errors.New("invalid account format")
	ErrLedgerInconsistency = errors.New("ledger inconsistency")
	ErrChainBroken         = errors.New("block does not extend the chain")
	ErrNotFound            = errors.New("block not found")
)
