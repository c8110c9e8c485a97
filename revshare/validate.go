package revshare

import "fmt"

// ValidateSplit checks that every group has beneficiaries with nonzero
// addresses whose ppm weights sum to exactly PPMTotal. It runs before any
// amount is computed, so a bad request never moves funds.
func ValidateSplit(groups []CollateralGroup) error {
	if len(groups) == 0 {
		return ErrNoEntries
	}
	for i, g := range groups {
		if len(g.Beneficiaries) == 0 {
			return fmt.Errorf("%w: group %d", ErrNoBeneficiaries, i)
		}
		var sum uint64
		for j, b := range g.Beneficiaries {
			if b.Address.IsZero() {
				return fmt.Errorf("%w: group %d beneficiary %d", ErrZeroAddress, i, j)
			}
			sum += uint64(b.PPM)
		}
		if sum != uint64(PPMTotal) {
			return fmt.Errorf("%w: group %d sums to %d", ErrImbalancedSplit, i, sum)
		}
	}
	return nil
}

// ValidateDistribution checks that distributions are exactly the split of
// payment across groups.
func ValidateDistribution(distributions []Distribution, payment uint64, groups []CollateralGroup) error {
	expected, err := Split(payment, groups)
	if err != nil {
		return err
	}
	if len(distributions) != len(expected) {
		return fmt.Errorf("%w: %d payouts, expected %d", ErrDistributionMismatch, len(distributions), len(expected))
	}
	for i := range distributions {
		if distributions[i].Address != expected[i].Address {
			return fmt.Errorf("%w: entry %d: address mismatch", ErrDistributionMismatch, i)
		}
		if distributions[i].Amount != expected[i].Amount {
			return fmt.Errorf("%w: entry %d: amount %d != expected %d", ErrDistributionMismatch, i, distributions[i].Amount, expected[i].Amount)
		}
	}
	sum, err := total(distributions)
	if err != nil {
		return err
	}
	if sum != payment {
		return fmt.Errorf("%w: payouts sum to %d, payment %d", ErrDistributionMismatch, sum, payment)
	}
	return nil
}
