// Package ledger keeps the income accounting of agreement instances.
//
// Every instance owns a fixed supply of shares and one record per currency
// it has ever received. Income is never pushed to holders. Instead each
// record carries a cumulative index, the net income per share ever
// credited times Scale, and each holder remembers the index at which it
// was last settled. A holder is owed balance*(index-settled)/Scale, which
// makes claims O(1) regardless of the number of holders or deposits.
//
// Deposits are plain bank credits to the instance address. The ledger
// notices them on the next advance of the currency, which is why a
// currency may start receiving funds before anyone registers it.
package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/bitfsorg/libshares-go/account"
	"github.com/bitfsorg/libshares-go/bank"
	"github.com/bitfsorg/libshares-go/kvstore"
	"github.com/bitfsorg/libshares-go/logging"
	"github.com/bitfsorg/libshares-go/relations"
)

// Options configures a Ledger.
type Options struct {
	// Factory issues instances and seeds their initial relations.
	Factory account.Address

	// FeeRate and FeeCollector seed the fee schedule when the store has
	// none yet. An existing schedule is left untouched.
	FeeRate      uint64
	FeeCollector account.Address

	Logger logging.Logger
}

// Ledger runs accounting transactions against a store.
type Ledger struct {
	store     kvstore.Store
	relations *relations.Registry
	factory   account.Address
	log       logging.Logger

	mu   sync.RWMutex
	subs []func(Event)
}

// New opens a ledger on store.
func New(store kvstore.Store, opts Options) (*Ledger, error) {
	if store == nil {
		return nil, fmt.Errorf("ledger: nil store")
	}
	if opts.Factory.IsZero() {
		return nil, fmt.Errorf("ledger: factory address is required")
	}
	if opts.FeeRate > ScaleUint64 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFeeRate, opts.FeeRate)
	}
	log := logging.OrNop(opts.Logger)
	l := &Ledger{
		store:     store,
		relations: relations.NewRegistry(opts.Factory, log),
		factory:   opts.Factory,
		log:       log.With(logging.String("component", "ledger")),
	}

	err := store.Update(func(tx kvstore.Tx) error {
		if tx.Get(BucketProtocol, keyFeeSchedule) != nil {
			return nil
		}
		fs := FeeSchedule{Rate: opts.FeeRate, Collector: opts.FeeCollector}
		return tx.Put(BucketProtocol, keyFeeSchedule, encodeFeeSchedule(fs))
	})
	if err != nil {
		return nil, fmt.Errorf("ledger: seed fee schedule: %w", err)
	}
	return l, nil
}

// Factory returns the issuing identity.
func (l *Ledger) Factory() account.Address {
	return l.factory
}

// Relations returns the registry guarding instance composition.
func (l *Ledger) Relations() *relations.Registry {
	return l.relations
}

// Subscribe registers fn to receive every event after its transaction
// commits. fn runs synchronously on the committing goroutine.
func (l *Ledger) Subscribe(fn func(Event)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.subs = append(l.subs, fn)
}

func (l *Ledger) publish(events []Event) {
	if len(events) == 0 {
		return
	}
	l.mu.RLock()
	subs := l.subs
	l.mu.RUnlock()
	for _, ev := range events {
		for _, fn := range subs {
			fn(ev)
		}
	}
}

// Update runs fn in one read-write transaction. If fn fails, no state
// changes and no events are published.
func (l *Ledger) Update(ctx context.Context, fn func(*Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var events []Event
	err := l.store.Update(func(tx kvstore.Tx) error {
		t := &Txn{l: l, tx: tx, ctx: ctx}
		if err := fn(t); err != nil {
			return err
		}
		events = t.events
		return nil
	})
	if err != nil {
		l.log.Log(ctx, logging.LevelDebug, "transaction rolled back", logging.Err(err))
		return err
	}
	l.publish(events)
	return nil
}

// View runs fn in a read-only transaction. Mutating Txn methods fail with
// kvstore.ErrReadOnly once they try to write.
func (l *Ledger) View(ctx context.Context, fn func(*Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.store.View(func(tx kvstore.Tx) error {
		return fn(&Txn{l: l, tx: tx, ctx: ctx})
	})
}

// CreateInstance issues a new instance. See Txn.CreateInstance.
func (l *Ledger) CreateInstance(ctx context.Context, creator, holder account.Address, supply uint64) (*Instance, error) {
	var inst *Instance
	err := l.Update(ctx, func(t *Txn) error {
		var err error
		inst, err = t.CreateInstance(creator, holder, supply)
		return err
	})
	return inst, err
}

// Transfer moves shares. See Txn.Transfer.
func (l *Ledger) Transfer(ctx context.Context, inst, caller, from, to account.Address, amount uint64) error {
	return l.Update(ctx, func(t *Txn) error {
		return t.Transfer(inst, caller, from, to, amount)
	})
}

// Claim pays holder's income in cur.
func (l *Ledger) Claim(ctx context.Context, inst, holder account.Address, cur bank.Currency) (uint64, error) {
	var amt uint64
	err := l.Update(ctx, func(t *Txn) error {
		var err error
		amt, err = t.Claim(inst, holder, cur)
		return err
	})
	return amt, err
}

// ClaimAll pays holder's income in every tracked currency.
func (l *Ledger) ClaimAll(ctx context.Context, inst, holder account.Address) ([]Claim, error) {
	var out []Claim
	err := l.Update(ctx, func(t *Txn) error {
		var err error
		out, err = t.ClaimAll(inst, holder)
		return err
	})
	return out, err
}

// SweepFee pays the accrued fee of inst in cur to the collector.
func (l *Ledger) SweepFee(ctx context.Context, inst, caller account.Address, cur bank.Currency) (uint64, error) {
	var amt uint64
	err := l.Update(ctx, func(t *Txn) error {
		var err error
		amt, err = t.SweepFee(inst, caller, cur)
		return err
	})
	return amt, err
}

// SetFeeSchedule replaces the protocol fee configuration.
func (l *Ledger) SetFeeSchedule(ctx context.Context, caller account.Address, fs FeeSchedule) error {
	return l.Update(ctx, func(t *Txn) error {
		return t.SetFeeSchedule(caller, fs)
	})
}

// Propagate pushes income of inst in cur through nested instances.
func (l *Ledger) Propagate(ctx context.Context, inst account.Address, cur bank.Currency) error {
	return l.Update(ctx, func(t *Txn) error {
		return t.Propagate(inst, cur)
	})
}

// ClaimableAmount returns what holder could claim in cur right now and
// its pro-rata part of the pending fee.
func (l *Ledger) ClaimableAmount(ctx context.Context, inst, holder account.Address, cur bank.Currency) (claimable, feePortion uint64, err error) {
	err = l.View(ctx, func(t *Txn) error {
		var err error
		claimable, feePortion, err = t.Claimable(inst, holder, cur)
		return err
	})
	return claimable, feePortion, err
}

// AvailableFee returns the fee a sweep of inst in cur would pay now.
func (l *Ledger) AvailableFee(ctx context.Context, inst account.Address, cur bank.Currency) (uint64, error) {
	var amt uint64
	err := l.View(ctx, func(t *Txn) error {
		var err error
		amt, err = t.AvailableFee(inst, cur)
		return err
	})
	return amt, err
}

// BalanceOf returns holder's share balance in inst.
func (l *Ledger) BalanceOf(ctx context.Context, inst, holder account.Address) (uint64, error) {
	var bal uint64
	err := l.View(ctx, func(t *Txn) error {
		if _, err := t.Instance(inst); err != nil {
			return err
		}
		var err error
		bal, err = t.SharesOf(inst, holder)
		return err
	})
	return bal, err
}

// Instance loads an instance.
func (l *Ledger) Instance(ctx context.Context, addr account.Address) (*Instance, error) {
	var inst *Instance
	err := l.View(ctx, func(t *Txn) error {
		var err error
		inst, err = t.Instance(addr)
		return err
	})
	return inst, err
}

// Holders lists the share balances of inst.
func (l *Ledger) Holders(ctx context.Context, inst account.Address) ([]Holding, error) {
	var out []Holding
	err := l.View(ctx, func(t *Txn) error {
		if _, err := t.Instance(inst); err != nil {
			return err
		}
		var err error
		out, err = t.Holders(inst)
		return err
	})
	return out, err
}

// Currencies lists the currencies inst has a record for.
func (l *Ledger) Currencies(ctx context.Context, inst account.Address) ([]bank.Currency, error) {
	var out []bank.Currency
	err := l.View(ctx, func(t *Txn) error {
		var err error
		out, err = t.Currencies(inst)
		return err
	})
	return out, err
}

// FeeSchedule returns the protocol fee configuration.
func (l *Ledger) FeeSchedule(ctx context.Context) (FeeSchedule, error) {
	var fs FeeSchedule
	err := l.View(ctx, func(t *Txn) error {
		var err error
		fs, err = t.FeeSchedule()
		return err
	})
	return fs, err
}

// CheckSupply verifies the share conservation of inst.
func (l *Ledger) CheckSupply(ctx context.Context, inst account.Address) error {
	return l.View(ctx, func(t *Txn) error {
		return t.CheckSupply(inst)
	})
}
