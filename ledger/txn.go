package ledger

import (
	"context"
	"fmt"
	"math/big"
	"sort"

	"github.com/bitfsorg/libshares-go/account"
	"github.com/bitfsorg/libshares-go/bank"
	"github.com/bitfsorg/libshares-go/kvstore"
	"github.com/bitfsorg/libshares-go/logging"
)

// Txn applies ledger operations inside one store transaction. Events are
// buffered and published by Ledger.Update only after the commit succeeds.
type Txn struct {
	l      *Ledger
	tx     kvstore.Tx
	ctx    context.Context
	events []Event
}

// Tx exposes the underlying store transaction so that bank and relation
// calls made by the caller share the same atomic unit.
func (t *Txn) Tx() kvstore.Tx {
	return t.tx
}

func (t *Txn) emit(ev Event) {
	t.events = append(t.events, ev)
}

func (t *Txn) logf(level logging.Level, msg string, fields ...logging.Field) {
	t.l.log.Log(t.ctx, level, msg, fields...)
}

func join(parts ...[]byte) []byte {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	k := make([]byte, 0, n)
	for _, p := range parts {
		k = append(k, p...)
	}
	return k
}

// --- instances and shares ---

// Instance loads the agreement instance at addr.
func (t *Txn) Instance(addr account.Address) (*Instance, error) {
	data := t.tx.Get(BucketInstances, addr[:])
	if data == nil {
		return nil, fmt.Errorf("%w: %s", ErrInstanceNotFound, addr)
	}
	return decodeInstance(addr, data)
}

// IsInstance reports whether addr is an agreement instance.
func (t *Txn) IsInstance(addr account.Address) bool {
	return t.tx.Get(BucketInstances, addr[:]) != nil
}

// SharesOf returns holder's share balance in inst.
func (t *Txn) SharesOf(inst, holder account.Address) (uint64, error) {
	data := t.tx.Get(BucketShares, join(inst[:], holder[:]))
	if data == nil {
		return 0, nil
	}
	return decodeUint64(data)
}

func (t *Txn) setShares(inst, holder account.Address, amount uint64) error {
	key := join(inst[:], holder[:])
	if amount == 0 {
		return t.tx.Delete(BucketShares, key)
	}
	return t.tx.Put(BucketShares, key, encodeUint64(amount))
}

// Holders lists every nonzero share balance of inst, ordered by address.
func (t *Txn) Holders(inst account.Address) ([]Holding, error) {
	var out []Holding
	err := t.tx.Scan(BucketShares, inst[:], func(k, v []byte) error {
		if len(k) != 2*account.AddressSize {
			return fmt.Errorf("%w: share key of %d bytes", ErrCorruptRecord, len(k))
		}
		bal, err := decodeUint64(v)
		if err != nil {
			return err
		}
		var h account.Address
		copy(h[:], k[account.AddressSize:])
		out = append(out, Holding{Holder: h, Balance: bal})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CheckSupply verifies that the holder balances of inst sum to its total
// supply.
func (t *Txn) CheckSupply(inst account.Address) error {
	i, err := t.Instance(inst)
	if err != nil {
		return err
	}
	holders, err := t.Holders(inst)
	if err != nil {
		return err
	}
	var sum uint64
	for _, h := range holders {
		next := sum + h.Balance
		if next < sum {
			return fmt.Errorf("%w: balances overflow", ErrSupplyMismatch)
		}
		sum = next
	}
	if sum != i.TotalSupply {
		return fmt.Errorf("%w: sum %d, supply %d", ErrSupplyMismatch, sum, i.TotalSupply)
	}
	return nil
}

// --- protocol ---

// FeeSchedule returns the protocol fee configuration.
func (t *Txn) FeeSchedule() (FeeSchedule, error) {
	data := t.tx.Get(BucketProtocol, keyFeeSchedule)
	if data == nil {
		return FeeSchedule{}, nil
	}
	return decodeFeeSchedule(data)
}

// SetFeeSchedule replaces the fee configuration. Only the current
// collector may change it, or the factory while no collector is set. A
// new rate applies to income found after the next advance of each record.
func (t *Txn) SetFeeSchedule(caller account.Address, fs FeeSchedule) error {
	cur, err := t.FeeSchedule()
	if err != nil {
		return err
	}
	authority := cur.Collector
	if authority.IsZero() {
		authority = t.l.factory
	}
	if caller != authority {
		return fmt.Errorf("%w: %s may not change the fee schedule", ErrUnauthorized, caller)
	}
	if fs.Rate > ScaleUint64 {
		return fmt.Errorf("%w: %d", ErrInvalidFeeRate, fs.Rate)
	}
	if err := t.tx.Put(BucketProtocol, keyFeeSchedule, encodeFeeSchedule(fs)); err != nil {
		return err
	}
	t.emit(Event{Kind: EventFeeSchedule, From: caller, To: fs.Collector, Amount: fs.Rate})
	return nil
}

func (t *Txn) nextNonce() (uint64, error) {
	var n uint64
	if data := t.tx.Get(BucketProtocol, keyNonce); data != nil {
		v, err := decodeUint64(data)
		if err != nil {
			return 0, err
		}
		n = v
	}
	return n, t.tx.Put(BucketProtocol, keyNonce, encodeUint64(n+1))
}

// --- currency records ---

func (t *Txn) loadRecord(inst account.Address, cur bank.Currency) (*CurrencyRecord, bool, error) {
	data := t.tx.Get(BucketCurrencies, join(inst[:], []byte(cur)))
	if data == nil {
		return nil, false, nil
	}
	rec, err := decodeRecord(data)
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

func (t *Txn) saveRecord(inst account.Address, cur bank.Currency, rec *CurrencyRecord) error {
	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	return t.tx.Put(BucketCurrencies, join(inst[:], []byte(cur)), data)
}

// Record returns the stored accounting of inst in cur without advancing
// it. ok is false if the currency is not tracked yet.
func (t *Txn) Record(inst account.Address, cur bank.Currency) (rec *CurrencyRecord, ok bool, err error) {
	return t.loadRecord(inst, cur)
}

// Currencies lists the currencies inst has a record for, in key order.
func (t *Txn) Currencies(inst account.Address) ([]bank.Currency, error) {
	var out []bank.Currency
	err := t.tx.Scan(BucketCurrencies, inst[:], func(k, _ []byte) error {
		out = append(out, bank.Currency(k[account.AddressSize:]))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// trackedCurrencies is the union of recorded currencies and those inst
// holds a raw balance in, so that funds sent before a record exists are
// still settled before a transfer.
func (t *Txn) trackedCurrencies(inst account.Address) ([]bank.Currency, error) {
	recorded, err := t.Currencies(inst)
	if err != nil {
		return nil, err
	}
	held, err := bank.Holdings(t.tx, inst)
	if err != nil {
		return nil, err
	}
	set := make(map[bank.Currency]struct{}, len(recorded)+len(held))
	for _, c := range recorded {
		set[c] = struct{}{}
	}
	for _, h := range held {
		set[h.Currency] = struct{}{}
	}
	out := make([]bank.Currency, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (t *Txn) loadSettlement(inst, holder account.Address, cur bank.Currency) (*settlement, error) {
	data := t.tx.Get(BucketSettled, join(inst[:], holder[:], []byte(cur)))
	if data == nil {
		return &settlement{Index: new(big.Int)}, nil
	}
	return decodeSettlement(data)
}

func (t *Txn) saveSettlement(inst, holder account.Address, cur bank.Currency, st *settlement) error {
	data, err := encodeSettlement(st)
	if err != nil {
		return err
	}
	return t.tx.Put(BucketSettled, join(inst[:], holder[:], []byte(cur)), data)
}

// --- accounting ---

// Advance folds any raw balance growth of inst in cur into its record and
// returns the updated record. A currency seen for the first time treats
// its whole raw balance as new income. Nothing is stored while the raw
// balance is zero and no record exists.
func (t *Txn) Advance(inst account.Address, cur bank.Currency) (*CurrencyRecord, error) {
	i, err := t.Instance(inst)
	if err != nil {
		return nil, err
	}
	return t.advance(i, cur)
}

func (t *Txn) advance(inst *Instance, cur bank.Currency) (*CurrencyRecord, error) {
	if err := cur.Validate(); err != nil {
		return nil, err
	}
	fs, err := t.FeeSchedule()
	if err != nil {
		return nil, err
	}
	rec, exists, err := t.loadRecord(inst.Address, cur)
	if err != nil {
		return nil, err
	}
	raw := bank.Balance(t.tx, inst.Address, cur)
	if !exists {
		rec = newRecord(fs.Rate)
		if raw == 0 {
			return rec, nil
		}
	}

	next, acc, err := accrue(rec, raw, inst.TotalSupply, fs.Rate)
	if err != nil {
		return nil, fmt.Errorf("advance %s in %s: %w", cur, inst.Address, err)
	}
	if exists && acc.Income == 0 && next.FeeRate == rec.FeeRate {
		return next, nil
	}
	if err := t.saveRecord(inst.Address, cur, next); err != nil {
		return nil, err
	}
	if acc.Income == 0 {
		return next, nil
	}

	if acc.Orphaned {
		t.logf(logging.LevelWarn, "income left unattributed: instance has no shares",
			logging.Stringer("instance", inst.Address),
			logging.String("currency", string(cur)),
			logging.Uint64("amount", acc.Net))
	}
	t.logf(logging.LevelDebug, "income accrued",
		logging.Stringer("instance", inst.Address),
		logging.String("currency", string(cur)),
		logging.Uint64("income", acc.Income),
		logging.Uint64("fee", acc.Fee))
	t.emit(Event{Kind: EventAdvanced, Instance: inst.Address, Currency: cur, Amount: acc.Income})
	return next, nil
}

// Settle advances cur and freezes holder's entitlement at the current
// index. It returns the amount newly frozen, which stays owed to holder
// until the next Claim; nothing is paid.
func (t *Txn) Settle(inst, holder account.Address, cur bank.Currency) (uint64, error) {
	i, err := t.Instance(inst)
	if err != nil {
		return 0, err
	}
	owed, _, _, err := t.settle(i, holder, cur)
	return owed, err
}

func (t *Txn) settle(inst *Instance, holder account.Address, cur bank.Currency) (uint64, *CurrencyRecord, *settlement, error) {
	rec, err := t.advance(inst, cur)
	if err != nil {
		return 0, nil, nil, err
	}
	st, err := t.loadSettlement(inst.Address, holder, cur)
	if err != nil {
		return 0, nil, nil, err
	}
	if st.Index.Cmp(rec.CumulativeIndex) == 0 {
		return 0, rec, st, nil
	}
	bal, err := t.SharesOf(inst.Address, holder)
	if err != nil {
		return 0, nil, nil, err
	}
	owed, err := owedFor(bal, rec.CumulativeIndex, st.Index)
	if err != nil {
		return 0, nil, nil, err
	}
	if st.Owed+owed < st.Owed {
		return 0, nil, nil, fmt.Errorf("%w: owed to %s", ErrOverflow, holder)
	}
	st.Index = new(big.Int).Set(rec.CumulativeIndex)
	st.Owed += owed
	if err := t.saveSettlement(inst.Address, holder, cur, st); err != nil {
		return 0, nil, nil, err
	}
	return owed, rec, st, nil
}

// Claim settles holder in cur and pays everything owed from the
// instance's raw balance. Bookkeeping is written before the payment. A
// zero claim moves nothing and emits no event.
func (t *Txn) Claim(inst, holder account.Address, cur bank.Currency) (uint64, error) {
	i, err := t.Instance(inst)
	if err != nil {
		return 0, err
	}
	return t.claim(i, holder, cur)
}

func (t *Txn) claim(inst *Instance, holder account.Address, cur bank.Currency) (uint64, error) {
	_, rec, st, err := t.settle(inst, holder, cur)
	if err != nil || st.Owed == 0 {
		return 0, err
	}
	amt := st.Owed
	if amt > rec.AccountedBalance {
		return 0, fmt.Errorf("%w: %s owed %d, accounted %d", ErrInvariantViolation, holder, amt, rec.AccountedBalance)
	}
	rec.AccountedBalance -= amt
	st.Owed = 0
	if err := t.saveRecord(inst.Address, cur, rec); err != nil {
		return 0, err
	}
	if err := t.saveSettlement(inst.Address, holder, cur, st); err != nil {
		return 0, err
	}
	if err := bank.Move(t.tx, inst.Address, holder, cur, amt); err != nil {
		return 0, fmt.Errorf("pay claim: %w", err)
	}
	t.logf(logging.LevelInfo, "income claimed",
		logging.Stringer("instance", inst.Address),
		logging.Stringer("holder", holder),
		logging.String("currency", string(cur)),
		logging.Uint64("amount", amt))
	t.emit(Event{Kind: EventClaimed, Instance: inst.Address, To: holder, Currency: cur, Amount: amt})
	return amt, nil
}

// ClaimAll claims holder's income in every currency inst tracks. Only
// nonzero claims are returned.
func (t *Txn) ClaimAll(inst, holder account.Address) ([]Claim, error) {
	i, err := t.Instance(inst)
	if err != nil {
		return nil, err
	}
	curs, err := t.trackedCurrencies(inst)
	if err != nil {
		return nil, err
	}
	var out []Claim
	for _, cur := range curs {
		amt, err := t.claim(i, holder, cur)
		if err != nil {
			return nil, err
		}
		if amt > 0 {
			out = append(out, Claim{Currency: cur, Amount: amt})
		}
	}
	return out, nil
}

// BeforeBalanceChange settles from and to in every currency inst tracks.
// It must run before either share balance changes.
func (t *Txn) BeforeBalanceChange(inst, from, to account.Address) error {
	i, err := t.Instance(inst)
	if err != nil {
		return err
	}
	return t.beforeBalanceChange(i, from, to)
}

func (t *Txn) beforeBalanceChange(inst *Instance, from, to account.Address) error {
	curs, err := t.trackedCurrencies(inst.Address)
	if err != nil {
		return err
	}
	for _, cur := range curs {
		for _, h := range []account.Address{from, to} {
			if h.IsZero() {
				continue
			}
			if _, _, _, err := t.settle(inst, h, cur); err != nil {
				return err
			}
		}
	}
	return nil
}

// SweepFee pays the accrued fee of inst in cur to the fee collector.
func (t *Txn) SweepFee(inst, caller account.Address, cur bank.Currency) (uint64, error) {
	fs, err := t.FeeSchedule()
	if err != nil {
		return 0, err
	}
	if fs.Collector.IsZero() || caller != fs.Collector {
		return 0, fmt.Errorf("%w: %s is not the fee collector", ErrUnauthorized, caller)
	}
	i, err := t.Instance(inst)
	if err != nil {
		return 0, err
	}
	rec, err := t.advance(i, cur)
	if err != nil {
		return 0, err
	}
	amt := rec.AvailableFee
	if amt == 0 {
		return 0, nil
	}
	if amt > rec.AccountedBalance {
		return 0, fmt.Errorf("%w: fee %d, accounted %d", ErrInvariantViolation, amt, rec.AccountedBalance)
	}
	rec.AvailableFee = 0
	rec.AccountedBalance -= amt
	if err := t.saveRecord(inst, cur, rec); err != nil {
		return 0, err
	}
	if err := bank.Move(t.tx, inst, fs.Collector, cur, amt); err != nil {
		return 0, fmt.Errorf("pay fee: %w", err)
	}
	t.logf(logging.LevelInfo, "fee swept",
		logging.Stringer("instance", inst),
		logging.String("currency", string(cur)),
		logging.Uint64("amount", amt))
	t.emit(Event{Kind: EventFeeSwept, Instance: inst, To: fs.Collector, Currency: cur, Amount: amt})
	return amt, nil
}

// preview simulates an advance of inst in cur without writing.
func (t *Txn) preview(inst *Instance, cur bank.Currency) (*CurrencyRecord, accrual, error) {
	if err := cur.Validate(); err != nil {
		return nil, accrual{}, err
	}
	fs, err := t.FeeSchedule()
	if err != nil {
		return nil, accrual{}, err
	}
	rec, exists, err := t.loadRecord(inst.Address, cur)
	if err != nil {
		return nil, accrual{}, err
	}
	if !exists {
		rec = newRecord(fs.Rate)
	}
	return accrue(rec, bank.Balance(t.tx, inst.Address, cur), inst.TotalSupply, fs.Rate)
}

// Claimable returns what Claim would pay holder right now, and holder's
// pro-rata part of the fee the pending advance would cut. Nothing is
// written.
func (t *Txn) Claimable(inst, holder account.Address, cur bank.Currency) (claimable, feePortion uint64, err error) {
	i, err := t.Instance(inst)
	if err != nil {
		return 0, 0, err
	}
	rec, acc, err := t.preview(i, cur)
	if err != nil {
		return 0, 0, err
	}
	st, err := t.loadSettlement(inst, holder, cur)
	if err != nil {
		return 0, 0, err
	}
	bal, err := t.SharesOf(inst, holder)
	if err != nil {
		return 0, 0, err
	}
	pending, err := owedFor(bal, rec.CumulativeIndex, st.Index)
	if err != nil {
		return 0, 0, err
	}
	claimable = st.Owed + pending
	if claimable < pending {
		return 0, 0, fmt.Errorf("%w: claimable of %s", ErrOverflow, holder)
	}
	if acc.Fee > 0 && i.TotalSupply > 0 {
		feePortion, err = mulDiv(bal, acc.Fee, i.TotalSupply)
		if err != nil {
			return 0, 0, err
		}
	}
	return claimable, feePortion, nil
}

// AvailableFee returns the fee SweepFee would pay right now.
func (t *Txn) AvailableFee(inst account.Address, cur bank.Currency) (uint64, error) {
	i, err := t.Instance(inst)
	if err != nil {
		return 0, err
	}
	rec, _, err := t.preview(i, cur)
	if err != nil {
		return 0, err
	}
	return rec.AvailableFee, nil
}

// --- issuance and transfer ---

// CreateInstance issues a new agreement instance with supply shares
// credited to holder. The address is derived from the factory and a
// running nonce. When holder is itself an instance, the factory seeds the
// holder -> new instance relation. A zero supply is allowed; income sent
// to such an instance is never attributed to anyone.
func (t *Txn) CreateInstance(creator, holder account.Address, supply uint64) (*Instance, error) {
	if creator.IsZero() || holder.IsZero() {
		return nil, fmt.Errorf("%w: zero address", ErrInvalidHolder)
	}
	nonce, err := t.nextNonce()
	if err != nil {
		return nil, err
	}
	inst := &Instance{
		Address:     account.DeriveInstanceAddress(t.l.factory, nonce),
		Creator:     creator,
		TotalSupply: supply,
		Nonce:       nonce,
	}
	if t.IsInstance(inst.Address) {
		return nil, fmt.Errorf("%w: address %s already issued", ErrInvariantViolation, inst.Address)
	}
	if err := t.tx.Put(BucketInstances, inst.Address[:], encodeInstance(inst)); err != nil {
		return nil, err
	}
	if err := t.setShares(inst.Address, holder, supply); err != nil {
		return nil, err
	}
	if supply > 0 && t.IsInstance(holder) {
		if err := t.l.relations.RegisterInitialRelation(t.tx, t.l.factory, holder, inst.Address); err != nil {
			return nil, err
		}
	}
	t.logf(logging.LevelInfo, "instance created",
		logging.Stringer("instance", inst.Address),
		logging.Stringer("holder", holder),
		logging.Uint64("supply", supply))
	t.emit(Event{Kind: EventInstanceCreated, Instance: inst.Address, From: creator, To: holder, Amount: supply})
	return inst, nil
}

// mayActFor reports whether caller controls the shares held by owner:
// either caller is owner, or owner is an instance created by caller.
func (t *Txn) mayActFor(caller, owner account.Address) (bool, error) {
	if caller == owner {
		return true, nil
	}
	if !t.IsInstance(owner) {
		return false, nil
	}
	o, err := t.Instance(owner)
	if err != nil {
		return false, err
	}
	return o.Creator == caller, nil
}

// Transfer moves amount shares of inst from from to to. Both parties are
// settled in every tracked currency first. Relations are updated when an
// instance gains its first or loses its last share of inst; a relation
// that would close a cycle fails the whole transfer.
func (t *Txn) Transfer(inst, caller, from, to account.Address, amount uint64) error {
	if amount == 0 {
		return fmt.Errorf("%w: zero transfer", ErrInvalidAmount)
	}
	if to.IsZero() || from == to || to == inst {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidHolder, from, to)
	}
	ok, err := t.mayActFor(caller, from)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s may not move shares of %s", ErrUnauthorized, caller, from)
	}
	i, err := t.Instance(inst)
	if err != nil {
		return err
	}
	fromBal, err := t.SharesOf(inst, from)
	if err != nil {
		return err
	}
	if fromBal < amount {
		return fmt.Errorf("%w: %s holds %d, need %d", ErrInsufficientShares, from, fromBal, amount)
	}
	toBal, err := t.SharesOf(inst, to)
	if err != nil {
		return err
	}
	if toBal+amount < toBal {
		return fmt.Errorf("%w: share balance of %s", ErrOverflow, to)
	}

	if err := t.beforeBalanceChange(i, from, to); err != nil {
		return err
	}
	if err := t.setShares(inst, from, fromBal-amount); err != nil {
		return err
	}
	if err := t.setShares(inst, to, toBal+amount); err != nil {
		return err
	}

	if toBal == 0 && t.IsInstance(to) {
		if err := t.l.relations.Relate(t.tx, to, to, inst); err != nil {
			return err
		}
	}
	if fromBal == amount && t.IsInstance(from) {
		if err := t.l.relations.Unrelate(t.tx, from, from, inst); err != nil {
			return err
		}
	}

	t.logf(logging.LevelDebug, "shares transferred",
		logging.Stringer("instance", inst),
		logging.Stringer("from", from),
		logging.Stringer("to", to),
		logging.Uint64("amount", amount))
	t.emit(Event{Kind: EventTransferred, Instance: inst, From: from, To: to, Amount: amount})
	return nil
}

// --- propagation ---

// Propagate advances inst in cur and claims the income of every instance
// holding its shares, then repeats for those instances, so that value
// paid into a nested structure reaches its outermost instances. Plain
// holders are left to claim for themselves.
func (t *Txn) Propagate(inst account.Address, cur bank.Currency) error {
	return t.propagate(inst, cur, make(map[account.Address]bool))
}

// propagate recurses while claims are nonzero. path holds the instances
// on the current branch and stops the recursion should the stored graph
// ever contain a cycle.
func (t *Txn) propagate(addr account.Address, cur bank.Currency, path map[account.Address]bool) error {
	if path[addr] {
		t.logf(logging.LevelError, "relation cycle met during propagation", logging.Stringer("instance", addr))
		return nil
	}
	path[addr] = true
	defer delete(path, addr)

	i, err := t.Instance(addr)
	if err != nil {
		return err
	}
	if _, err := t.advance(i, cur); err != nil {
		return err
	}
	holders, err := t.Holders(addr)
	if err != nil {
		return err
	}
	for _, h := range holders {
		if !t.IsInstance(h.Holder) {
			continue
		}
		amt, err := t.claim(i, h.Holder, cur)
		if err != nil {
			return err
		}
		if amt == 0 {
			continue
		}
		if err := t.propagate(h.Holder, cur, path); err != nil {
			return err
		}
	}
	return nil
}
