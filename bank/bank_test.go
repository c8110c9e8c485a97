package bank

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/libshares-go/account"
	"github.com/bitfsorg/libshares-go/kvstore"
)

func makeAddr(seed byte) account.Address {
	var a account.Address
	for i := range a {
		a[i] = seed
	}
	return a
}

func update(t *testing.T, s kvstore.Store, fn func(tx kvstore.Tx) error) error {
	t.Helper()
	return s.Update(fn)
}

func balance(t *testing.T, s kvstore.Store, owner account.Address, cur Currency) uint64 {
	t.Helper()
	var b uint64
	require.NoError(t, s.View(func(tx kvstore.Tx) error {
		b = Balance(tx, owner, cur)
		return nil
	}))
	return b
}

func TestCurrency_Validate(t *testing.T) {
	tests := []struct {
		cur   Currency
		valid bool
	}{
		{"BSV", true},
		{"USDC", true},
		{"WETH.E", true},
		{"usd", false},
		{"AB", false},
		{"", false},
		{"THIS-TICKER-IS-TOO-LONG", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.cur), func(t *testing.T) {
			err := tt.cur.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidCurrency)
			}
		})
	}
}

func TestMintAndMove(t *testing.T) {
	s := kvstore.NewMemStore()
	alice, bob := makeAddr(1), makeAddr(2)

	require.NoError(t, update(t, s, func(tx kvstore.Tx) error {
		return Mint(tx, alice, "USD", 100)
	}))
	require.NoError(t, update(t, s, func(tx kvstore.Tx) error {
		return Move(tx, alice, bob, "USD", 30)
	}))

	assert.Equal(t, uint64(70), balance(t, s, alice, "USD"))
	assert.Equal(t, uint64(30), balance(t, s, bob, "USD"))
}

func TestMove_InsufficientFunds(t *testing.T) {
	s := kvstore.NewMemStore()
	alice, bob := makeAddr(1), makeAddr(2)

	require.NoError(t, update(t, s, func(tx kvstore.Tx) error {
		return Mint(tx, alice, "USD", 10)
	}))
	err := update(t, s, func(tx kvstore.Tx) error {
		return Move(tx, alice, bob, "USD", 11)
	})
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, uint64(10), balance(t, s, alice, "USD"))
	assert.Equal(t, uint64(0), balance(t, s, bob, "USD"))
}

func TestMove_ZeroAmount(t *testing.T) {
	s := kvstore.NewMemStore()
	err := update(t, s, func(tx kvstore.Tx) error {
		return Move(tx, makeAddr(1), makeAddr(2), "USD", 0)
	})
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestMint_Overflow(t *testing.T) {
	s := kvstore.NewMemStore()
	alice := makeAddr(1)
	require.NoError(t, update(t, s, func(tx kvstore.Tx) error {
		return Mint(tx, alice, "USD", math.MaxUint64)
	}))
	err := update(t, s, func(tx kvstore.Tx) error {
		return Mint(tx, alice, "USD", 1)
	})
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestBurn(t *testing.T) {
	s := kvstore.NewMemStore()
	alice := makeAddr(1)
	require.NoError(t, update(t, s, func(tx kvstore.Tx) error {
		return Mint(tx, alice, "USD", 5)
	}))
	require.NoError(t, update(t, s, func(tx kvstore.Tx) error {
		return Burn(tx, alice, "USD", 5)
	}))
	assert.Equal(t, uint64(0), balance(t, s, alice, "USD"))

	err := update(t, s, func(tx kvstore.Tx) error {
		return Burn(tx, alice, "USD", 1)
	})
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestHoldings(t *testing.T) {
	s := kvstore.NewMemStore()
	alice, bob := makeAddr(1), makeAddr(2)
	require.NoError(t, update(t, s, func(tx kvstore.Tx) error {
		if err := Mint(tx, alice, "USD", 5); err != nil {
			return err
		}
		if err := Mint(tx, alice, "BSV", 7); err != nil {
			return err
		}
		return Mint(tx, bob, "EUR", 1)
	}))

	var got []Holding
	require.NoError(t, s.View(func(tx kvstore.Tx) error {
		var err error
		got, err = Holdings(tx, alice)
		return err
	}))
	assert.Equal(t, []Holding{{"BSV", 7}, {"USD", 5}}, got)
}
