package account

import "errors"

var (
	// ErrInvalidAddress indicates an address string or byte slice cannot be decoded.
	ErrInvalidAddress = errors.New("account: invalid address")

	// ErrInvalidNetwork indicates the network name is not recognized.
	ErrInvalidNetwork = errors.New("account: invalid network name")

	// ErrInvalidPublicKey indicates a public key failed to parse.
	ErrInvalidPublicKey = errors.New("account: invalid public key")

	// ErrKeyGeneration indicates a private key could not be generated.
	ErrKeyGeneration = errors.New("account: key generation failed")
)
