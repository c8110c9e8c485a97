// Package relations guards the composition graph of agreement instances.
//
// An edge holder -> issuer exists while the holder instance owns a nonzero
// balance of the issuer's shares. Income flows against the edges, from
// issuer to holder, so a cycle would let value circulate forever without
// reaching a plain address. The registry refuses any edge that would close
// a cycle.
package relations

import (
	"context"
	"fmt"

	"github.com/bitfsorg/libshares-go/account"
	"github.com/bitfsorg/libshares-go/kvstore"
	"github.com/bitfsorg/libshares-go/logging"
)

// Buckets used by the registry.
const (
	BucketEdges   = "relations"     // holder || issuer
	BucketReverse = "relations_rev" // issuer || holder
)

var edgeFlag = []byte{1}

// Registry applies relation transitions inside a store transaction.
type Registry struct {
	factory account.Address
	log     logging.Logger
}

// NewRegistry returns a registry whose initial relations may only be
// seeded by factory.
func NewRegistry(factory account.Address, logger logging.Logger) *Registry {
	return &Registry{
		factory: factory,
		log:     logging.OrNop(logger).With(logging.String("component", "relations")),
	}
}

// Factory returns the identity allowed to seed initial relations.
func (r *Registry) Factory() account.Address {
	return r.factory
}

func pairKey(a, b account.Address) []byte {
	k := make([]byte, 0, 2*account.AddressSize)
	k = append(k, a[:]...)
	return append(k, b[:]...)
}

// Relate records that holder owns shares of issuer. caller must be holder
// or issuer. An existing edge is left as is. If issuer already reaches
// holder, directly or transitively, the call fails with
// ErrCircularDependency and writes nothing.
func (r *Registry) Relate(tx kvstore.Tx, caller, holder, issuer account.Address) error {
	if err := checkNodes(holder, issuer); err != nil {
		return err
	}
	if caller != holder && caller != issuer {
		return fmt.Errorf("%w: %s is not party to %s -> %s", ErrUnauthorized, caller, holder, issuer)
	}
	if Related(tx, holder, issuer) {
		return nil
	}

	cyclic, err := reaches(tx, issuer, holder)
	if err != nil {
		return err
	}
	if cyclic {
		r.log.Log(context.Background(), logging.LevelWarn, "relation rejected",
			logging.Stringer("holder", holder), logging.Stringer("issuer", issuer))
		return fmt.Errorf("%w: %s already reaches %s", ErrCircularDependency, issuer, holder)
	}

	if err := putEdge(tx, holder, issuer); err != nil {
		return err
	}
	r.log.Log(context.Background(), logging.LevelDebug, "relation added",
		logging.Stringer("holder", holder), logging.Stringer("issuer", issuer))
	return nil
}

// Unrelate removes the holder -> issuer edge. caller must be holder or
// issuer. A missing edge is not an error.
func (r *Registry) Unrelate(tx kvstore.Tx, caller, holder, issuer account.Address) error {
	if err := checkNodes(holder, issuer); err != nil {
		return err
	}
	if caller != holder && caller != issuer {
		return fmt.Errorf("%w: %s is not party to %s -> %s", ErrUnauthorized, caller, holder, issuer)
	}
	if !Related(tx, holder, issuer) {
		return nil
	}
	if err := tx.Delete(BucketEdges, pairKey(holder, issuer)); err != nil {
		return err
	}
	if err := tx.Delete(BucketReverse, pairKey(issuer, holder)); err != nil {
		return err
	}
	r.log.Log(context.Background(), logging.LevelDebug, "relation removed",
		logging.Stringer("holder", holder), logging.Stringer("issuer", issuer))
	return nil
}

// RegisterInitialRelation seeds child -> parent when the factory creates
// parent with its initial shares credited to child. Only the factory may
// call it and no ancestor walk is made: parent is brand new and has no
// outgoing edges, so it cannot reach child.
func (r *Registry) RegisterInitialRelation(tx kvstore.Tx, caller, child, parent account.Address) error {
	if err := checkNodes(child, parent); err != nil {
		return err
	}
	if caller != r.factory || r.factory.IsZero() {
		return fmt.Errorf("%w: %s is not the factory", ErrUnauthorized, caller)
	}
	if child == parent {
		return fmt.Errorf("%w: %s cannot hold itself", ErrCircularDependency, child)
	}
	issuers, err := Issuers(tx, parent)
	if err != nil {
		return err
	}
	if len(issuers) > 0 {
		return fmt.Errorf("%w: %s", ErrNotFresh, parent)
	}
	return putEdge(tx, child, parent)
}

func checkNodes(a, b account.Address) error {
	if a.IsZero() || b.IsZero() {
		return ErrZeroAddress
	}
	return nil
}

func putEdge(tx kvstore.Tx, holder, issuer account.Address) error {
	if err := tx.Put(BucketEdges, pairKey(holder, issuer), edgeFlag); err != nil {
		return err
	}
	return tx.Put(BucketReverse, pairKey(issuer, holder), edgeFlag)
}

// Related reports whether the holder -> issuer edge exists.
func Related(tx kvstore.Tx, holder, issuer account.Address) bool {
	return tx.Get(BucketEdges, pairKey(holder, issuer)) != nil
}

// Issuers lists the instances whose shares holder owns.
func Issuers(tx kvstore.Tx, holder account.Address) ([]account.Address, error) {
	return neighbours(tx, BucketEdges, holder)
}

// Holders lists the instances owning shares of issuer.
func Holders(tx kvstore.Tx, issuer account.Address) ([]account.Address, error) {
	return neighbours(tx, BucketReverse, issuer)
}

func neighbours(tx kvstore.Tx, bucket string, node account.Address) ([]account.Address, error) {
	var out []account.Address
	err := tx.Scan(bucket, node[:], func(k, _ []byte) error {
		if len(k) != 2*account.AddressSize {
			return fmt.Errorf("%w: key of %d bytes", ErrCorruptEdge, len(k))
		}
		var a account.Address
		copy(a[:], k[account.AddressSize:])
		out = append(out, a)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Ancestors returns every instance node reaches by following edges, in
// breadth-first order. node itself is not included unless the graph is
// already corrupted by a cycle through it.
func Ancestors(tx kvstore.Tx, node account.Address) ([]account.Address, error) {
	var out []account.Address
	_, err := walk(tx, node, func(a account.Address) bool {
		out = append(out, a)
		return false
	})
	return out, err
}

// reaches reports whether target is node itself or one of its ancestors.
func reaches(tx kvstore.Tx, node, target account.Address) (bool, error) {
	if node == target {
		return true, nil
	}
	return walk(tx, node, func(a account.Address) bool { return a == target })
}

// walk visits ancestors of start breadth-first, each at most once, until
// visit returns true. Depth is unbounded.
func walk(tx kvstore.Tx, start account.Address, visit func(account.Address) bool) (bool, error) {
	seen := make(map[account.Address]bool)
	queue := []account.Address{start}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		next, err := Issuers(tx, cur)
		if err != nil {
			return false, err
		}
		for _, n := range next {
			if seen[n] {
				continue
			}
			seen[n] = true
			if visit(n) {
				return true, nil
			}
			// start was expanded first; meeting it again means a corrupt cycle.
			if n != start {
				queue = append(queue, n)
			}
		}
	}
	return false, nil
}
