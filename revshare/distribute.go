package revshare

import (
	"fmt"
	"math/bits"

	"github.com/bitfsorg/libshares-go/account"
)

// mulDiv returns floor(a*b/d). The caller guarantees b <= d, so the
// quotient never exceeds a.
func mulDiv(a, b, d uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	q, _ := bits.Div64(hi, lo, d)
	return q
}

// allocate splits total across weights by floor division. The last
// nonzero weight gets the remainder, so the result always sums to total.
// sum must equal the sum of weights and be nonzero.
func allocate(total uint64, weights []uint64, sum uint64) []uint64 {
	out := make([]uint64, len(weights))
	last := -1
	for i, w := range weights {
		if w > 0 {
			last = i
		}
	}
	var given uint64
	for i, w := range weights {
		switch {
		case w == 0:
		case i == last:
			out[i] = total - given
		default:
			out[i] = mulDiv(total, w, sum)
			given += out[i]
		}
	}
	return out
}

func sumWeights(weights []uint64) (uint64, error) {
	var sum uint64
	for _, w := range weights {
		var carry uint64
		sum, carry = bits.Add64(sum, w, 0)
		if carry != 0 {
			return 0, ErrOverflow
		}
	}
	return sum, nil
}

// DistributeRevenue splits totalPayment across entries in proportion to
// their weights. The last entry with a nonzero weight gets the remainder
// to avoid integer division precision loss.
func DistributeRevenue(totalPayment uint64, entries []Entry) ([]Distribution, error) {
	if totalPayment == 0 {
		return nil, ErrInsufficientPayment
	}
	if len(entries) == 0 {
		return nil, ErrNoEntries
	}
	weights := make([]uint64, len(entries))
	for i, e := range entries {
		weights[i] = e.Weight
	}
	sum, err := sumWeights(weights)
	if err != nil {
		return nil, err
	}
	if sum == 0 {
		return nil, ErrZeroTotalWeight
	}

	amounts := allocate(totalPayment, weights, sum)
	distributions := make([]Distribution, len(entries))
	for i, e := range entries {
		distributions[i] = Distribution{Address: e.Address, Amount: amounts[i]}
	}
	return distributions, nil
}

// Split partitions payment across collateral groups by weight, then within
// each group across beneficiaries by ppm. Both levels hand the floor
// division remainder to the last nonzero weight. Groups are validated
// before anything is computed. Payouts to the same address are merged in
// order of first appearance; zero payouts are dropped.
func Split(payment uint64, groups []CollateralGroup) ([]Distribution, error) {
	if payment == 0 {
		return nil, ErrInsufficientPayment
	}
	if err := ValidateSplit(groups); err != nil {
		return nil, err
	}

	weights := make([]uint64, len(groups))
	for i, g := range groups {
		weights[i] = g.Weight
	}
	sum, err := sumWeights(weights)
	if err != nil {
		return nil, err
	}
	if sum == 0 {
		return nil, ErrZeroTotalWeight
	}

	var out []Distribution
	index := make(map[account.Address]int)
	for i, alloc := range allocate(payment, weights, sum) {
		if alloc == 0 {
			continue
		}
		bens := groups[i].Beneficiaries
		ppm := make([]uint64, len(bens))
		for j, b := range bens {
			ppm[j] = uint64(b.PPM)
		}
		for j, amt := range allocate(alloc, ppm, uint64(PPMTotal)) {
			if amt == 0 {
				continue
			}
			addr := bens[j].Address
			if k, ok := index[addr]; ok {
				out[k].Amount += amt
				continue
			}
			index[addr] = len(out)
			out = append(out, Distribution{Address: addr, Amount: amt})
		}
	}
	return out, nil
}

// total sums distribution amounts.
func total(ds []Distribution) (uint64, error) {
	var sum uint64
	for _, d := range ds {
		var carry uint64
		sum, carry = bits.Add64(sum, d.Amount, 0)
		if carry != 0 {
			return 0, fmt.Errorf("%w: payouts overflow", ErrDistributionMismatch)
		}
	}
	return sum, nil
}
