package account

import (
	"encoding/hex"
	"fmt"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
)

// KeyPair is a freshly generated identity.
type KeyPair struct {
	PrivateKey *ec.PrivateKey
	PublicKey  *ec.PublicKey
	Address    Address
}

// GenerateKey creates a random secp256k1 key pair and its address.
func GenerateKey() (*KeyPair, error) {
	priv, err := ec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyGeneration, err)
	}
	addr, err := AddressFromPublicKey(priv.PubKey())
	if err != nil {
		return nil, err
	}
	return &KeyPair{PrivateKey: priv, PublicKey: priv.PubKey(), Address: addr}, nil
}

// PrivateKeyHex returns the hex-encoded private scalar.
func (k *KeyPair) PrivateKeyHex() string {
	return hex.EncodeToString(k.PrivateKey.Serialize())
}

// AddressFromPublicKeyHex parses a hex-encoded public key and returns its address.
func AddressFromPublicKeyHex(s string) (Address, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return ZeroAddress, fmt.Errorf("%w: %w", ErrInvalidPublicKey, err)
	}
	pub, err := ec.PublicKeyFromBytes(b)
	if err != nil {
		return ZeroAddress, fmt.Errorf("%w: %w", ErrInvalidPublicKey, err)
	}
	return AddressFromPublicKey(pub)
}
