// Package bank keeps the raw currency balances owned by every address.
//
// These balances are what the ledger calls the raw balance of an agreement
// instance: deposits land here without touching any ledger record, and the
// ledger notices them lazily on its next advance.
package bank

import (
	"encoding/binary"
	"fmt"
	"math/bits"
	"regexp"

	"github.com/bitfsorg/libshares-go/account"
	"github.com/bitfsorg/libshares-go/kvstore"
)

// BucketBalances holds owner || currency -> uint64 balance.
const BucketBalances = "balances"

// Currency is a ticker identifying one independent unit of value.
type Currency string

var tickerRe = regexp.MustCompile(`^[A-Z0-9][A-Z0-9._-]{2,15}$`)

// Validate checks the ticker format.
func (c Currency) Validate() error {
	if !tickerRe.MatchString(string(c)) {
		return fmt.Errorf("%w: %q", ErrInvalidCurrency, string(c))
	}
	return nil
}

// Holding is one currency balance of an owner.
type Holding struct {
	Currency Currency
	Amount   uint64
}

func balanceKey(owner account.Address, cur Currency) []byte {
	k := make([]byte, 0, account.AddressSize+len(cur))
	k = append(k, owner[:]...)
	return append(k, cur...)
}

// Balance returns the raw balance of owner in cur. Unknown owners hold zero.
func Balance(tx kvstore.Tx, owner account.Address, cur Currency) uint64 {
	v := tx.Get(BucketBalances, balanceKey(owner, cur))
	if len(v) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(v)
}

func setBalance(tx kvstore.Tx, owner account.Address, cur Currency, amount uint64) error {
	key := balanceKey(owner, cur)
	if amount == 0 {
		return tx.Delete(BucketBalances, key)
	}
	var v [8]byte
	binary.BigEndian.PutUint64(v[:], amount)
	return tx.Put(BucketBalances, key, v[:])
}

// Mint adds amount of cur to owner out of thin air. It models value
// entering the system from outside (a deposit, a payment).
func Mint(tx kvstore.Tx, owner account.Address, cur Currency, amount uint64) error {
	if err := cur.Validate(); err != nil {
		return err
	}
	if amount == 0 {
		return fmt.Errorf("%w: zero mint", ErrInvalidAmount)
	}
	sum, carry := bits.Add64(Balance(tx, owner, cur), amount, 0)
	if carry != 0 {
		return fmt.Errorf("%w: %s balance of %s", ErrOverflow, cur, owner)
	}
	return setBalance(tx, owner, cur, sum)
}

// Burn removes amount of cur from owner, e.g. when value leaves the system.
func Burn(tx kvstore.Tx, owner account.Address, cur Currency, amount uint64) error {
	if amount == 0 {
		return fmt.Errorf("%w: zero burn", ErrInvalidAmount)
	}
	have := Balance(tx, owner, cur)
	if have < amount {
		return fmt.Errorf("%w: %s has %d %s, need %d", ErrInsufficientFunds, owner, have, cur, amount)
	}
	return setBalance(tx, owner, cur, have-amount)
}

// Move transfers amount of cur from src to dst. It fails without writing
// anything if src holds less than amount.
func Move(tx kvstore.Tx, src, dst account.Address, cur Currency, amount uint64) error {
	if err := cur.Validate(); err != nil {
		return err
	}
	if amount == 0 {
		return fmt.Errorf("%w: zero move", ErrInvalidAmount)
	}
	have := Balance(tx, src, cur)
	if have < amount {
		return fmt.Errorf("%w: %s has %d %s, need %d", ErrInsufficientFunds, src, have, cur, amount)
	}
	if src == dst {
		return nil
	}
	sum, carry := bits.Add64(Balance(tx, dst, cur), amount, 0)
	if carry != 0 {
		return fmt.Errorf("%w: %s balance of %s", ErrOverflow, cur, dst)
	}
	if err := setBalance(tx, src, cur, have-amount); err != nil {
		return err
	}
	return setBalance(tx, dst, cur, sum)
}

// Holdings lists every nonzero balance of owner, ordered by currency.
func Holdings(tx kvstore.Tx, owner account.Address) ([]Holding, error) {
	var out []Holding
	err := tx.Scan(BucketBalances, owner[:], func(k, v []byte) error {
		if len(v) != 8 {
			return fmt.Errorf("%w: balance value of %d bytes", ErrCorruptBalance, len(v))
		}
		out = append(out, Holding{
			Currency: Currency(k[account.AddressSize:]),
			Amount:   binary.BigEndian.Uint64(v),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
