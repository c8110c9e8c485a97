package ledger

import (
	"math/big"

	"github.com/bitfsorg/libshares-go/account"
	"github.com/bitfsorg/libshares-go/bank"
)

// ScaleUint64 is the fixed-point unit of the cumulative index and of fee
// rates: a fee rate of ScaleUint64 takes all income.
const ScaleUint64 uint64 = 1_000_000_000_000_000_000

// Scale is ScaleUint64 as a big integer.
var Scale = new(big.Int).SetUint64(ScaleUint64)

// maxIndexBits bounds the cumulative index to a 256-bit word.
const maxIndexBits = 256

// Buckets owned by the ledger.
const (
	BucketInstances  = "instances"  // instance -> Instance
	BucketShares     = "shares"     // instance || holder -> uint64
	BucketCurrencies = "currencies" // instance || currency -> CurrencyRecord
	BucketSettled    = "settled"    // instance || holder || currency -> settlement
	BucketProtocol   = "protocol"   // fixed keys below
)

var (
	keyFeeSchedule = []byte("fee_schedule")
	keyNonce       = []byte("nonce")
)

// Instance is one agreement instance.
type Instance struct {
	Address     account.Address
	Creator     account.Address
	TotalSupply uint64
	Nonce       uint64
}

// CurrencyRecord is the income accounting of one instance in one currency.
type CurrencyRecord struct {
	// CumulativeIndex is the net income per share ever credited, times Scale.
	CumulativeIndex *big.Int
	// AccountedBalance is the raw balance as of the last advance, minus
	// everything paid out since.
	AccountedBalance uint64
	// FeeRate is the protocol rate frozen at the last advance and applied
	// to income found by the next one.
	FeeRate uint64
	// AvailableFee is fee accrued and not yet swept.
	AvailableFee uint64
}

func (r *CurrencyRecord) clone() *CurrencyRecord {
	return &CurrencyRecord{
		CumulativeIndex:  new(big.Int).Set(r.CumulativeIndex),
		AccountedBalance: r.AccountedBalance,
		FeeRate:          r.FeeRate,
		AvailableFee:     r.AvailableFee,
	}
}

// settlement is a holder's position in one currency: the index it was last
// settled at, and income frozen by earlier settlements but not yet paid.
type settlement struct {
	Index *big.Int
	Owed  uint64
}

// FeeSchedule is the protocol fee configuration shared by all instances.
type FeeSchedule struct {
	Rate      uint64
	Collector account.Address
}

// Holding is one holder's share balance.
type Holding struct {
	Holder  account.Address
	Balance uint64
}

// Claim is an amount paid to a holder in one currency.
type Claim struct {
	Currency bank.Currency
	Amount   uint64
}

// EventKind names a ledger event.
type EventKind string

// Event kinds.
const (
	EventInstanceCreated EventKind = "instance_created"
	EventAdvanced        EventKind = "advanced"
	EventClaimed         EventKind = "claimed"
	EventFeeSwept        EventKind = "fee_swept"
	EventTransferred     EventKind = "transferred"
	EventFeeSchedule     EventKind = "fee_schedule"
)

// Event describes a committed state change. Fields not meaningful for a
// kind are left zero.
type Event struct {
	Kind     EventKind
	Instance account.Address
	From     account.Address
	To       account.Address
	Currency bank.Currency
	Amount   uint64
}
