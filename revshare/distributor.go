package revshare

import (
	"context"
	"fmt"

	"github.com/bitfsorg/libshares-go/account"
	"github.com/bitfsorg/libshares-go/bank"
	"github.com/bitfsorg/libshares-go/ledger"
	"github.com/bitfsorg/libshares-go/logging"
)

// Distributor pays split payments and pushes the income of beneficiaries
// that are agreement instances on to their own holders.
type Distributor struct {
	ledger *ledger.Ledger
	log    logging.Logger
}

// NewDistributor returns a distributor working on l.
func NewDistributor(l *ledger.Ledger, logger logging.Logger) *Distributor {
	return &Distributor{
		ledger: l,
		log:    logging.OrNop(logger).With(logging.String("component", "distributor")),
	}
}

// Distribute splits payment of cur from payer across groups and pays every
// beneficiary. Beneficiaries that are instances are then propagated so the
// payment reaches their holders. The whole distribution is one atomic
// transaction: an imbalanced split or a short payer balance moves nothing.
func (d *Distributor) Distribute(ctx context.Context, payer account.Address, cur bank.Currency, payment uint64, groups []CollateralGroup) ([]Distribution, error) {
	payouts, err := Split(payment, groups)
	if err != nil {
		return nil, err
	}
	err = d.ledger.Update(ctx, func(t *ledger.Txn) error {
		return d.pay(t, payer, cur, payouts)
	})
	if err != nil {
		d.log.Log(ctx, logging.LevelWarn, "distribution rejected",
			logging.Stringer("payer", payer),
			logging.String("currency", string(cur)),
			logging.Uint64("payment", payment),
			logging.Err(err))
		return nil, err
	}
	d.log.Log(ctx, logging.LevelInfo, "distribution paid",
		logging.Stringer("payer", payer),
		logging.String("currency", string(cur)),
		logging.Uint64("payment", payment),
		logging.Int("payouts", len(payouts)))
	return payouts, nil
}

// DistributeIn runs a distribution inside an existing ledger transaction.
func (d *Distributor) DistributeIn(t *ledger.Txn, payer account.Address, cur bank.Currency, payment uint64, groups []CollateralGroup) ([]Distribution, error) {
	payouts, err := Split(payment, groups)
	if err != nil {
		return nil, err
	}
	if err := d.pay(t, payer, cur, payouts); err != nil {
		return nil, err
	}
	return payouts, nil
}

// pay moves every payout first and propagates instances afterwards, so each
// instance is advanced once with its full credit.
func (d *Distributor) pay(t *ledger.Txn, payer account.Address, cur bank.Currency, payouts []Distribution) error {
	if t.IsInstance(payer) {
		return fmt.Errorf("%w: %s", ErrInstancePayer, payer)
	}
	var nested []account.Address
	for _, p := range payouts {
		if err := bank.Move(t.Tx(), payer, p.Address, cur, p.Amount); err != nil {
			return fmt.Errorf("pay %s: %w", p.Address, err)
		}
		if t.IsInstance(p.Address) {
			nested = append(nested, p.Address)
		}
	}
	for _, inst := range nested {
		if err := t.Propagate(inst, cur); err != nil {
			return fmt.Errorf("propagate %s: %w", inst, err)
		}
	}
	return nil
}
