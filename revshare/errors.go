package revshare

import "errors"

var (
	// ErrImbalancedSplit indicates a group's beneficiary weights do not sum
	// to PPMTotal.
	ErrImbalancedSplit = errors.New("revshare: beneficiary weights do not sum to 1000000 ppm")

	// ErrInsufficientPayment indicates the payment is too small to distribute.
	ErrInsufficientPayment = errors.New("revshare: insufficient payment for distribution")

	// ErrNoEntries indicates there is nothing to distribute to.
	ErrNoEntries = errors.New("revshare: no entries")

	// ErrNoBeneficiaries indicates a collateral group without beneficiaries.
	ErrNoBeneficiaries = errors.New("revshare: group has no beneficiaries")

	// ErrZeroTotalWeight indicates all weights are zero.
	ErrZeroTotalWeight = errors.New("revshare: zero total weight")

	// ErrZeroAddress indicates a payout address of all zeros.
	ErrZeroAddress = errors.New("revshare: zero address")

	// ErrOverflow indicates weights sum past 64 bits.
	ErrOverflow = errors.New("revshare: weight overflow")

	// ErrInstancePayer indicates a payer that is an agreement instance,
	// whose raw balance may only leave through ledger claims.
	ErrInstancePayer = errors.New("revshare: instances cannot pay distributions")

	// ErrDistributionMismatch indicates payouts that do not add up to the
	// payment or deviate from the computed split.
	ErrDistributionMismatch = errors.New("revshare: distribution mismatch")
)
