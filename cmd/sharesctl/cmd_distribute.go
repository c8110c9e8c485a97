package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/bitfsorg/libshares-go/engine"
	"github.com/bitfsorg/libshares-go/revshare"
)

// groupJSON is the input format of a collateral group.
type groupJSON struct {
	Contributor   string `json:"contributor"`
	Weight        uint64 `json:"weight"`
	Beneficiaries []struct {
		Address string `json:"address"`
		PPM     uint32 `json:"ppm"`
	} `json:"beneficiaries"`
}

func cmdDistribute(input io.Reader, output io.Writer, args []string) error {
	fl, dirFl := newFlagSet("distribute", `
Split a payment across collateral groups read as JSON from standard input
and pay every beneficiary. Each group's beneficiary ppm weights must sum to
1000000. Instances among the beneficiaries pass their share on to their own
holders. Each payout is printed.

	[{"contributor": "...", "weight": 3,
	  "beneficiaries": [{"address": "...", "ppm": 1000000}]}]
`)
	var (
		payerFl    = fl.String("payer", "", "Address the payment is taken from.")
		currencyFl = fl.String("currency", "", "Currency ticker.")
		amountFl   = fl.Uint64("amount", 0, "Payment amount.")
	)
	if err := fl.Parse(args); err != nil {
		return err
	}
	payer, err := addressFlag("payer", *payerFl)
	if err != nil {
		return err
	}
	cur, err := currencyFlag(*currencyFl)
	if err != nil {
		return err
	}

	groups, err := readGroups(input)
	if err != nil {
		return err
	}

	return withEngine(*dirFl, func(e *engine.Engine) error {
		ds, err := e.Distribute(context.Background(), payer, cur, *amountFl, groups)
		if err != nil {
			return err
		}
		for _, d := range ds {
			fmt.Fprintf(output, "%s\t%d\n", e.FormatAddress(d.Address), d.Amount)
		}
		return nil
	})
}

func readGroups(input io.Reader) ([]revshare.CollateralGroup, error) {
	var raw []groupJSON
	if err := json.NewDecoder(input).Decode(&raw); err != nil {
		return nil, fmt.Errorf("cannot decode groups: %w", err)
	}
	groups := make([]revshare.CollateralGroup, len(raw))
	for i, g := range raw {
		groups[i].Weight = g.Weight
		if g.Contributor != "" {
			c, err := addressFlag("contributor", g.Contributor)
			if err != nil {
				return nil, fmt.Errorf("group %d: %w", i, err)
			}
			groups[i].Contributor = c
		}
		for j, b := range g.Beneficiaries {
			a, err := addressFlag("address", b.Address)
			if err != nil {
				return nil, fmt.Errorf("group %d beneficiary %d: %w", i, j, err)
			}
			groups[i].Beneficiaries = append(groups[i].Beneficiaries, revshare.Beneficiary{Address: a, PPM: b.PPM})
		}
	}
	return groups, nil
}
