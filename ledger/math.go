package ledger

import (
	"fmt"
	"math/big"
	"math/bits"
)

// mulDiv returns floor(a*b/d) using a 128-bit intermediate product. The
// quotient must fit in 64 bits.
func mulDiv(a, b, d uint64) (uint64, error) {
	if d == 0 {
		return 0, fmt.Errorf("%w: division by zero", ErrInvariantViolation)
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= d {
		return 0, fmt.Errorf("%w: %d*%d/%d", ErrOverflow, a, b, d)
	}
	q, _ := bits.Div64(hi, lo, d)
	return q, nil
}

// indexDelta returns floor(net*Scale/supply).
func indexDelta(net, supply uint64) *big.Int {
	d := new(big.Int).SetUint64(net)
	d.Mul(d, Scale)
	return d.Quo(d, new(big.Int).SetUint64(supply))
}

// owedFor returns floor(balance*(index-settled)/Scale). A settled index
// ahead of the cumulative index means the records disagree.
func owedFor(balance uint64, index, settled *big.Int) (uint64, error) {
	diff := new(big.Int).Sub(index, settled)
	if diff.Sign() < 0 {
		return 0, fmt.Errorf("%w: settled index ahead of cumulative index", ErrInvariantViolation)
	}
	if balance == 0 || diff.Sign() == 0 {
		return 0, nil
	}
	diff.Mul(diff, new(big.Int).SetUint64(balance))
	diff.Quo(diff, Scale)
	if !diff.IsUint64() {
		return 0, fmt.Errorf("%w: owed amount exceeds 64 bits", ErrOverflow)
	}
	return diff.Uint64(), nil
}
