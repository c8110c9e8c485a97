// Package account defines the identities used across agreement instances:
// holders, fee collectors, factories and the instances themselves all share
// one 20-byte address space.
package account

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	bsvhash "github.com/bsv-blockchain/go-sdk/primitives/hash"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/script"
	"golang.org/x/crypto/sha3"
)

// AddressSize is the length of an address in bytes.
const AddressSize = 20

// Address identifies a holder, a collector, a factory or an agreement instance.
type Address [AddressSize]byte

// ZeroAddress is the unset address. It never owns shares or funds.
var ZeroAddress Address

// IsZero reports whether a is the zero address.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// Bytes returns a copy of the raw address bytes.
func (a Address) Bytes() []byte {
	b := make([]byte, AddressSize)
	copy(b, a[:])
	return b
}

// Hex returns the lowercase hex form of the address.
func (a Address) Hex() string {
	return hex.EncodeToString(a[:])
}

// Compare orders addresses bytewise.
func (a Address) Compare(b Address) int {
	return bytes.Compare(a[:], b[:])
}

// String returns the mainnet base58check form. Use Encode for other networks.
func (a Address) String() string {
	s, err := a.Encode(&MainNet)
	if err != nil {
		return a.Hex()
	}
	return s
}

// Encode returns the base58check form of the address for the given network.
func (a Address) Encode(net *Network) (string, error) {
	if net == nil {
		net = &MainNet
	}
	addr, err := script.NewAddressFromPublicKeyHash(a[:], net.Mainnet)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	return addr.AddressString, nil
}

// ParseAddress decodes a base58check address or a 40-character hex string.
func ParseAddress(s string) (Address, error) {
	var a Address
	if len(s) == AddressSize*2 {
		if b, err := hex.DecodeString(s); err == nil {
			copy(a[:], b)
			return a, nil
		}
	}
	addr, err := script.NewAddressFromString(s)
	if err != nil {
		return a, fmt.Errorf("%w: %q: %w", ErrInvalidAddress, s, err)
	}
	return AddressFromBytes([]byte(addr.PublicKeyHash))
}

// AddressFromBytes converts a 20-byte slice into an Address.
func AddressFromBytes(b []byte) (Address, error) {
	var a Address
	if len(b) != AddressSize {
		return a, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidAddress, AddressSize, len(b))
	}
	copy(a[:], b)
	return a, nil
}

// AddressFromPublicKey returns HASH160 of the compressed public key.
func AddressFromPublicKey(pub *ec.PublicKey) (Address, error) {
	if pub == nil {
		return ZeroAddress, ErrInvalidPublicKey
	}
	return AddressFromBytes(bsvhash.Hash160(pub.Compressed()))
}

// DeriveInstanceAddress computes the address of the nonce-th agreement
// instance created by factory: the low 20 bytes of
// Keccak-256(factory || nonce), nonce big-endian.
func DeriveInstanceAddress(factory Address, nonce uint64) Address {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], nonce)

	h := sha3.NewLegacyKeccak256()
	h.Write(factory[:])
	h.Write(n[:])
	sum := h.Sum(nil)

	var a Address
	copy(a[:], sum[len(sum)-AddressSize:])
	return a
}
