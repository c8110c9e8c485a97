package relations

import (
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

var (
	factory          = makeAddr(0xF0)
	child            = makeAddr(0x01)
	parent           = makeAddr(0x02)
	grandParent      = makeAddr(0x03)
	grandGrandParent = makeAddr(0x04)
	stranger         = makeAddr(0x99)
)

// relate adds holder -> issuer with the holder as caller.
func relate(s kvstore.Store, r *Registry, holder, issuer account.Address) error {
	return s.Update(func(tx kvstore.Tx) error {
		return r.Relate(tx, holder, holder, issuer)
	})
}

// snapshot returns every stored edge key in both directions.
func snapshot(t *testing.T, s kvstore.Store) []string {
	t.Helper()
	var keys []string
	require.NoError(t, s.View(func(tx kvstore.Tx) error {
		for _, b := range []string{BucketEdges, BucketReverse} {
			err := tx.Scan(b, nil, func(k, _ []byte) error {
				keys = append(keys, b+":"+string(k))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}))
	return keys
}

func chain(t *testing.T) (kvstore.Store, *Registry) {
	t.Helper()
	s := kvstore.NewMemStore()
	r := NewRegistry(factory, nil)
	require.NoError(t, relate(s, r, child, parent))
	require.NoError(t, relate(s, r, parent, grandParent))
	require.NoError(t, relate(s, r, grandParent, grandGrandParent))
	return s, r
}

func TestRelate_ClosingChainFails(t *testing.T) {
	s, r := chain(t)
	before := snapshot(t, s)

	err := relate(s, r, grandGrandParent, child)
	assert.ErrorIs(t, err, ErrCircularDependency)
	assert.Equal(t, before, snapshot(t, s), "failed relate must not touch the graph")
}

func TestRelate_SucceedsAfterUnrelate(t *testing.T) {
	s, r := chain(t)

	require.NoError(t, s.Update(func(tx kvstore.Tx) error {
		return r.Unrelate(tx, parent, child, parent)
	}))
	require.NoError(t, relate(s, r, grandGrandParent, child))

	require.NoError(t, s.View(func(tx kvstore.Tx) error {
		assert.True(t, Related(tx, grandGrandParent, child))
		assert.False(t, Related(tx, child, parent))
		return nil
	}))
}

func TestRelate_EveryClosingEdgeFails(t *testing.T) {
	nodes := []account.Address{makeAddr(0x10), makeAddr(0x11), makeAddr(0x12), makeAddr(0x13), makeAddr(0x14), makeAddr(0x15)}
	for n := 2; n <= len(nodes); n++ {
		s := kvstore.NewMemStore()
		r := NewRegistry(factory, nil)
		for i := 0; i+1 < n; i++ {
			require.NoError(t, relate(s, r, nodes[i], nodes[i+1]))
		}
		before := snapshot(t, s)

		// Any edge from a later node back to an earlier one closes a cycle.
		for j := 1; j < n; j++ {
			for i := 0; i < j; i++ {
				err := relate(s, r, nodes[j], nodes[i])
				assert.ErrorIs(t, err, ErrCircularDependency, "path length %d: %d -> %d", n, j, i)
			}
		}
		assert.Equal(t, before, snapshot(t, s))
	}
}

func TestRelate_SelfEdge(t *testing.T) {
	s := kvstore.NewMemStore()
	r := NewRegistry(factory, nil)
	assert.ErrorIs(t, relate(s, r, child, child), ErrCircularDependency)
}

func TestRelate_Idempotent(t *testing.T) {
	s := kvstore.NewMemStore()
	r := NewRegistry(factory, nil)
	require.NoError(t, relate(s, r, child, parent))
	require.NoError(t, relate(s, r, child, parent))

	require.NoError(t, s.View(func(tx kvstore.Tx) error {
		holders, err := Holders(tx, parent)
		require.NoError(t, err)
		assert.Equal(t, []account.Address{child}, holders)
		return nil
	}))
}

func TestRelate_Diamond(t *testing.T) {
	// Two holders into one issuer and one holder into two issuers are fine.
	s := kvstore.NewMemStore()
	r := NewRegistry(factory, nil)
	a, b, c, d := makeAddr(0x21), makeAddr(0x22), makeAddr(0x23), makeAddr(0x24)

	require.NoError(t, relate(s, r, a, b))
	require.NoError(t, relate(s, r, a, c))
	require.NoError(t, relate(s, r, b, d))
	require.NoError(t, relate(s, r, c, d))
	assert.ErrorIs(t, relate(s, r, d, a), ErrCircularDependency)

	require.NoError(t, s.View(func(tx kvstore.Tx) error {
		anc, err := Ancestors(tx, a)
		require.NoError(t, err)
		assert.ElementsMatch(t, []account.Address{b, c, d}, anc)

		issuers, err := Issuers(tx, a)
		require.NoError(t, err)
		assert.Equal(t, []account.Address{b, c}, issuers)
		return nil
	}))
}

func TestRelate_Unauthorized(t *testing.T) {
	s := kvstore.NewMemStore()
	r := NewRegistry(factory, nil)

	err := s.Update(func(tx kvstore.Tx) error {
		return r.Relate(tx, stranger, child, parent)
	})
	assert.ErrorIs(t, err, ErrUnauthorized)

	// The issuer side may request the edge too.
	require.NoError(t, s.Update(func(tx kvstore.Tx) error {
		return r.Relate(tx, parent, child, parent)
	}))

	err = s.Update(func(tx kvstore.Tx) error {
		return r.Unrelate(tx, stranger, child, parent)
	})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRelate_ZeroAddress(t *testing.T) {
	s := kvstore.NewMemStore()
	r := NewRegistry(factory, nil)
	assert.ErrorIs(t, relate(s, r, child, account.ZeroAddress), ErrZeroAddress)
}

func TestRegisterInitialRelation(t *testing.T) {
	s, r := chain(t)
	fresh := makeAddr(0x30)

	err := s.Update(func(tx kvstore.Tx) error {
		return r.RegisterInitialRelation(tx, grandGrandParent, grandGrandParent, fresh)
	})
	assert.ErrorIs(t, err, ErrUnauthorized)

	// grandGrandParent receives the initial shares of a new instance.
	require.NoError(t, s.Update(func(tx kvstore.Tx) error {
		return r.RegisterInitialRelation(tx, factory, grandGrandParent, fresh)
	}))

	// An issuer that already holds claims is not fresh.
	err = s.Update(func(tx kvstore.Tx) error {
		return r.RegisterInitialRelation(tx, factory, makeAddr(0x31), child)
	})
	assert.ErrorIs(t, err, ErrNotFresh)

	require.NoError(t, s.View(func(tx kvstore.Tx) error {
		anc, err := Ancestors(tx, child)
		require.NoError(t, err)
		assert.Equal(t, []account.Address{parent, grandParent, grandGrandParent, fresh}, anc)
		return nil
	}))
}

func TestAncestors_CorruptCycleTerminates(t *testing.T) {
	s := kvstore.NewMemStore()
	a, b, c := makeAddr(0x41), makeAddr(0x42), makeAddr(0x43)

	// Write a cycle directly, bypassing the guard.
	require.NoError(t, s.Update(func(tx kvstore.Tx) error {
		for _, e := range [][2]account.Address{{a, b}, {b, c}, {c, a}} {
			if err := putEdge(tx, e[0], e[1]); err != nil {
				return err
			}
		}
		return nil
	}))

	require.NoError(t, s.View(func(tx kvstore.Tx) error {
		anc, err := Ancestors(tx, a)
		require.NoError(t, err)
		assert.Equal(t, []account.Address{b, c, a}, anc)
		return nil
	}))
}
