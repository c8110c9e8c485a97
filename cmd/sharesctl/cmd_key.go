package main

import (
	"fmt"
	"io"

	"github.com/bitfsorg/libshares-go/account"
)

func cmdKeygen(input io.Reader, output io.Writer, args []string) error {
	fl, _ := newFlagSet("keygen", `
Generate a new secp256k1 key pair and print the private key with its
address. Nothing is written to disk.
`)
	networkFl := fl.String("network", "mainnet", "Network used for address encoding.")
	if err := fl.Parse(args); err != nil {
		return err
	}

	net, err := account.GetNetwork(*networkFl)
	if err != nil {
		return err
	}
	kp, err := account.GenerateKey()
	if err != nil {
		return err
	}
	encoded, err := kp.Address.Encode(net)
	if err != nil {
		return err
	}
	fmt.Fprintf(output, "private: %s\n", kp.PrivateKeyHex())
	fmt.Fprintf(output, "address: %s\n", encoded)
	fmt.Fprintf(output, "hex:     %s\n", kp.Address.Hex())
	return nil
}
