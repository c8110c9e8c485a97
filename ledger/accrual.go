package ledger

import (
	"fmt"
	"math/big"
)

// accrual describes the income folded into a record by one advance.
type accrual struct {
	Income   uint64   // raw balance growth since the last advance
	Fee      uint64   // portion cut for the protocol
	Net      uint64   // Income - Fee
	Delta    *big.Int // cumulative index increase
	Orphaned bool     // Net > 0 but no shares exist to credit it to
}

// newRecord returns an empty record that will charge rate on its first
// income.
func newRecord(rate uint64) *CurrencyRecord {
	return &CurrencyRecord{CumulativeIndex: new(big.Int), FeeRate: rate}
}

// accrue folds the raw balance growth into a copy of rec. Income since the
// last advance is charged at the rate frozen in rec; the returned record
// then freezes currentRate for the next interval. rec is not modified.
func accrue(rec *CurrencyRecord, raw, supply, currentRate uint64) (*CurrencyRecord, accrual, error) {
	var acc accrual
	if raw < rec.AccountedBalance {
		return nil, acc, fmt.Errorf("%w: raw %d, accounted %d", ErrBalanceDeficit, raw, rec.AccountedBalance)
	}

	next := rec.clone()
	next.FeeRate = currentRate
	acc.Income = raw - rec.AccountedBalance
	acc.Delta = new(big.Int)
	if acc.Income == 0 {
		return next, acc, nil
	}

	fee, err := mulDiv(acc.Income, rec.FeeRate, ScaleUint64)
	if err != nil {
		return nil, acc, err
	}
	available := next.AvailableFee + fee
	if available < next.AvailableFee {
		return nil, acc, fmt.Errorf("%w: available fee", ErrOverflow)
	}
	acc.Fee = fee
	acc.Net = acc.Income - fee
	next.AvailableFee = available
	next.AccountedBalance = raw

	if supply == 0 {
		acc.Orphaned = acc.Net > 0
		return next, acc, nil
	}
	acc.Delta = indexDelta(acc.Net, supply)
	next.CumulativeIndex.Add(next.CumulativeIndex, acc.Delta)
	if next.CumulativeIndex.BitLen() > maxIndexBits {
		return nil, acc, fmt.Errorf("%w: cumulative index exceeds %d bits", ErrOverflow, maxIndexBits)
	}
	return next, acc, nil
}
