package ledger

import "errors"

var (
	// ErrInstanceNotFound indicates the address is not an agreement instance.
	ErrInstanceNotFound = errors.New("ledger: instance not found")

	// ErrUnauthorized indicates the caller may not perform the operation.
	ErrUnauthorized = errors.New("ledger: unauthorized caller")

	// ErrInsufficientShares indicates a transfer exceeds the sender's balance.
	ErrInsufficientShares = errors.New("ledger: insufficient shares")

	// ErrInvalidAmount indicates a zero or otherwise unusable share amount.
	ErrInvalidAmount = errors.New("ledger: invalid amount")

	// ErrInvalidHolder indicates a zero holder address or a self transfer.
	ErrInvalidHolder = errors.New("ledger: invalid holder")

	// ErrInvalidFeeRate indicates a fee rate above Scale.
	ErrInvalidFeeRate = errors.New("ledger: fee rate exceeds scale")

	// ErrOverflow indicates an intermediate value left its fixed width.
	ErrOverflow = errors.New("ledger: arithmetic overflow")

	// ErrBalanceDeficit indicates the raw balance fell below the accounted
	// balance, meaning funds left the instance without passing the ledger.
	ErrBalanceDeficit = errors.New("ledger: raw balance below accounted balance")

	// ErrInvariantViolation indicates stored accounting is inconsistent.
	ErrInvariantViolation = errors.New("ledger: invariant violation")

	// ErrCorruptRecord indicates a stored record cannot be decoded.
	ErrCorruptRecord = errors.New("ledger: corrupt record")

	// ErrSupplyMismatch indicates holder balances do not sum to total supply.
	ErrSupplyMismatch = errors.New("ledger: holder balances do not match total supply")
)
