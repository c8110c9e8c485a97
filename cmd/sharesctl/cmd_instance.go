package main

import (
	"context"
	"fmt"
	"io"

	"github.com/bitfsorg/libshares-go/engine"
)

func cmdCreate(input io.Reader, output io.Writer, args []string) error {
	fl, dirFl := newFlagSet("create", `
Issue a new agreement instance and credit its whole supply to a holder.
The new instance address is printed.
`)
	var (
		asFl     = fl.String("as", "", "Creator address.")
		holderFl = fl.String("holder", "", "Initial holder. Defaults to the creator.")
		supplyFl = fl.Uint64("supply", 0, "Total number of shares.")
	)
	if err := fl.Parse(args); err != nil {
		return err
	}
	creator, err := addressFlag("as", *asFl)
	if err != nil {
		return err
	}
	holder := creator
	if *holderFl != "" {
		if holder, err = addressFlag("holder", *holderFl); err != nil {
			return err
		}
	}

	return withEngine(*dirFl, func(e *engine.Engine) error {
		inst, err := e.Ledger.CreateInstance(context.Background(), creator, holder, *supplyFl)
		if err != nil {
			return err
		}
		fmt.Fprintln(output, e.FormatAddress(inst.Address))
		return nil
	})
}

func cmdTransfer(input io.Reader, output io.Writer, args []string) error {
	fl, dirFl := newFlagSet("transfer", `
Move shares of an instance. Both parties are settled in every currency the
instance holds before the balances change.
`)
	var (
		instFl   = fl.String("instance", "", "Instance whose shares move.")
		asFl     = fl.String("as", "", "Caller address. Must own the shares or have created the instance owning them.")
		fromFl   = fl.String("from", "", "Sender. Defaults to the caller.")
		toFl     = fl.String("to", "", "Recipient.")
		amountFl = fl.Uint64("amount", 0, "Number of shares.")
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
	from := caller
	if *fromFl != "" {
		if from, err = addressFlag("from", *fromFl); err != nil {
			return err
		}
	}
	to, err := addressFlag("to", *toFl)
	if err != nil {
		return err
	}

	return withEngine(*dirFl, func(e *engine.Engine) error {
		return e.Ledger.Transfer(context.Background(), inst, caller, from, to, *amountFl)
	})
}

func cmdHolders(input io.Reader, output io.Writer, args []string) error {
	fl, dirFl := newFlagSet("holders", `
Print the share balances of an instance, one holder per line.
`)
	instFl := fl.String("instance", "", "Instance address.")
	if err := fl.Parse(args); err != nil {
		return err
	}
	inst, err := addressFlag("instance", *instFl)
	if err != nil {
		return err
	}

	return withEngine(*dirFl, func(e *engine.Engine) error {
		hs, err := e.Ledger.Holders(context.Background(), inst)
		if err != nil {
			return err
		}
		for _, h := range hs {
			fmt.Fprintf(output, "%s\t%d\n", e.FormatAddress(h.Holder), h.Balance)
		}
		return nil
	})
}

func cmdRelations(input io.Reader, output io.Writer, args []string) error {
	fl, dirFl := newFlagSet("relations", `
Print the instances an instance holds shares of, the instances holding its
shares, and everything it reaches transitively.
`)
	instFl := fl.String("instance", "", "Instance address.")
	if err := fl.Parse(args); err != nil {
		return err
	}
	inst, err := addressFlag("instance", *instFl)
	if err != nil {
		return err
	}

	return withEngine(*dirFl, func(e *engine.Engine) error {
		rel, err := e.Relations(context.Background(), inst)
		if err != nil {
			return err
		}
		for _, a := range rel.Issuers {
			fmt.Fprintf(output, "issuer\t%s\n", e.FormatAddress(a))
		}
		for _, a := range rel.Holders {
			fmt.Fprintf(output, "holder\t%s\n", e.FormatAddress(a))
		}
		for _, a := range rel.Ancestors {
			fmt.Fprintf(output, "ancestor\t%s\n", e.FormatAddress(a))
		}
		return nil
	})
}
