package main

import (
	"context"
	"fmt"
	"io"

	"github.com/bitfsorg/libshares-go/engine"
	"github.com/bitfsorg/libshares-go/ledger"
)

func cmdDeposit(input io.Reader, output io.Writer, args []string) error {
	fl, dirFl := newFlagSet("deposit", `
Credit funds to an address. Funds sent to an instance become income of its
holders on the next claim, transfer or fee sweep.
`)
	var (
		toFl       = fl.String("to", "", "Recipient address.")
		currencyFl = fl.String("currency", "", "Currency ticker.")
		amountFl   = fl.Uint64("amount", 0, "Amount in the smallest unit.")
	)
	if err := fl.Parse(args); err != nil {
		return err
	}
	to, err := addressFlag("to", *toFl)
	if err != nil {
		return err
	}
	cur, err := currencyFlag(*currencyFl)
	if err != nil {
		return err
	}

	return withEngine(*dirFl, func(e *engine.Engine) error {
		return e.Deposit(context.Background(), to, cur, *amountFl)
	})
}

func cmdBalance(input io.Reader, output io.Writer, args []string) error {
	fl, dirFl := newFlagSet("balance", `
Print the raw balances of an address, one currency per line.
`)
	ownerFl := fl.String("owner", "", "Address.")
	if err := fl.Parse(args); err != nil {
		return err
	}
	owner, err := addressFlag("owner", *ownerFl)
	if err != nil {
		return err
	}

	return withEngine(*dirFl, func(e *engine.Engine) error {
		hs, err := e.Holdings(context.Background(), owner)
		if err != nil {
			return err
		}
		for _, h := range hs {
			fmt.Fprintf(output, "%s\t%d\n", h.Currency, h.Amount)
		}
		return nil
	})
}

func cmdClaim(input io.Reader, output io.Writer, args []string) error {
	fl, dirFl := newFlagSet("claim", `
Pay a holder its income from an instance. Without -currency every currency
the instance holds is claimed. Each nonzero payment is printed.
`)
	var (
		instFl     = fl.String("instance", "", "Instance address.")
		holderFl   = fl.String("holder", "", "Holder address.")
		currencyFl = fl.String("currency", "", "Currency ticker. Empty claims all.")
	)
	if err := fl.Parse(args); err != nil {
		return err
	}
	inst, err := addressFlag("instance", *instFl)
	if err != nil {
		return err
	}
	holder, err := addressFlag("holder", *holderFl)
	if err != nil {
		return err
	}

	return withEngine(*dirFl, func(e *engine.Engine) error {
		ctx := context.Background()
		var claims []ledger.Claim
		if *currencyFl == "" {
			if claims, err = e.Ledger.ClaimAll(ctx, inst, holder); err != nil {
				return err
			}
		} else {
			cur, err := currencyFlag(*currencyFl)
			if err != nil {
				return err
			}
			amt, err := e.Ledger.Claim(ctx, inst, holder, cur)
			if err != nil {
				return err
			}
			if amt > 0 {
				claims = append(claims, ledger.Claim{Currency: cur, Amount: amt})
			}
		}
		for _, c := range claims {
			fmt.Fprintf(output, "%s\t%d\n", c.Currency, c.Amount)
		}
		return nil
	})
}

func cmdClaimable(input io.Reader, output io.Writer, args []string) error {
	fl, dirFl := newFlagSet("claimable", `
Print what a holder could claim right now and its share of the pending
protocol fee. Nothing is changed.
`)
	var (
		instFl     = fl.String("instance", "", "Instance address.")
		holderFl   = fl.String("holder", "", "Holder address.")
		currencyFl = fl.String("currency", "", "Currency ticker.")
	)
	if err := fl.Parse(args); err != nil {
		return err
	}
	inst, err := addressFlag("instance", *instFl)
	if err != nil {
		return err
	}
	holder, err := addressFlag("holder", *holderFl)
	if err != nil {
		return err
	}
	cur, err := currencyFlag(*currencyFl)
	if err != nil {
		return err
	}

	return withEngine(*dirFl, func(e *engine.Engine) error {
		claimable, fee, err := e.Ledger.ClaimableAmount(context.Background(), inst, holder, cur)
		if err != nil {
			return err
		}
		fmt.Fprintf(output, "claimable\t%d\nfee\t%d\n", claimable, fee)
		return nil
	})
}

func cmdSweepFee(input io.Reader, output io.Writer, args []string) error {
	fl, dirFl := newFlagSet("sweep-fee", `
Pay the protocol fee accrued by an instance to the fee collector.
`)
	var (
		instFl     = fl.String("instance", "", "Instance address.")
		asFl       = fl.String("as", "", "Caller address. Must be the fee collector.")
		currencyFl = fl.String("currency", "", "Currency ticker.")
	)
	if err := fl.Parse(args); err != nil {
		return err
	}
	inst, err := addressFlag("instance", *instFl)
	if err != nil {
		return err
	}
	caller, err := addressFlag("as", *asFl)
	if err != nil {
		return err
	}
	cur, err := currencyFlag(*currencyFl)
	if err != nil {
		return err
	}

	return withEngine(*dirFl, func(e *engine.Engine) error {
		amt, err := e.Ledger.SweepFee(context.Background(), inst, caller, cur)
		if err != nil {
			return err
		}
		fmt.Fprintf(output, "%s\t%d\n", cur, amt)
		return nil
	})
}

func cmdSetFee(input io.Reader, output io.Writer, args []string) error {
	fl, dirFl := newFlagSet("set-fee", `
Replace the protocol fee schedule. Only the current fee collector may do
this, or the factory while there is no collector.
`)
	var (
		asFl        = fl.String("as", "", "Caller address.")
		rateFl      = fl.Uint64("rate", 0, "Fee rate scaled by 1e18.")
		collectorFl = fl.String("collector", "", "New fee collector. Empty clears it.")
	)
	if err := fl.Parse(args); err != nil {
		return err
	}
	caller, err := addressFlag("as", *asFl)
	if err != nil {
		return err
	}
	fs := ledger.FeeSchedule{Rate: *rateFl}
	if *collectorFl != "" {
		if fs.Collector, err = addressFlag("collector", *collectorFl); err != nil {
			return err
		}
	}

	return withEngine(*dirFl, func(e *engine.Engine) error {
		return e.Ledger.SetFeeSchedule(context.Background(), caller, fs)
	})
}
