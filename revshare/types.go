package revshare

import "github.com/bitfsorg/libshares-go/account"

// PPMTotal is 100% in parts per million.
const PPMTotal uint32 = 1_000_000

// Entry is one weighted recipient of a flat split.
type Entry struct {
	Address account.Address
	Weight  uint64
}

// Beneficiary receives a ppm part of its collateral group's allocation.
type Beneficiary struct {
	Address account.Address
	PPM     uint32
}

// CollateralGroup is one contribution backing a payment. Its Weight is the
// contributed amount, and its allocation is shared among Beneficiaries.
type CollateralGroup struct {
	Contributor   account.Address
	Weight        uint64
	Beneficiaries []Beneficiary
}

// Distribution represents a single payout.
type Distribution struct {
	Address account.Address
	Amount  uint64
}
