package bank

import "errors"

var (
	// ErrInvalidCurrency indicates a malformed currency ticker.
	ErrInvalidCurrency = errors.New("bank: invalid currency ticker")

	// ErrInvalidAmount indicates a zero amount where a positive one is required.
	ErrInvalidAmount = errors.New("bank: invalid amount")

	// ErrInsufficientFunds indicates the source balance is too small.
	ErrInsufficientFunds = errors.New("bank: insufficient funds")

	// ErrOverflow indicates a balance would exceed uint64.
	ErrOverflow = errors.New("bank: balance overflow")

	// ErrCorruptBalance indicates a stored balance cannot be decoded.
	ErrCorruptBalance = errors.New("bank: corrupt balance record")
)
