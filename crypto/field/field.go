// Package field contains helpers to handle elements of the BN254 scalar
// field, the field every commitment, nullifier and Merkle node lives in.
package field

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/vocdoni/arbo"
)

// Size is the length in bytes of an encoded field element.
const Size = fr.Bytes

// Modulus is the BN254 scalar field order.
var Modulus = fr.Modulus()

// IsValid reports whether x is a canonical field element (0 <= x < Modulus).
func IsValid(x *big.Int) bool {
	return x != nil && x.Sign() >= 0 && x.Cmp(Modulus) < 0
}

// Reduce returns x modulo the field order, without modifying x.
func Reduce(x *big.Int) *big.Int {
	return arbo.BigToFF(arbo.BN254BaseField, new(big.Int).Set(x))
}

// Random returns a uniformly random field element.
func Random() (*big.Int, error) {
	var e fr.Element
	if _, err := e.SetRandom(); err != nil {
		return nil, fmt.Errorf("cannot sample field element: %w", err)
	}
	return e.BigInt(new(big.Int)), nil
}

// FromUint64 returns v as a field element.
func FromUint64(v uint64) *big.Int {
	return new(big.Int).SetUint64(v)
}

// ToBytes encodes x as 32 big-endian bytes. It panics if x is not a valid
// field element.
func ToBytes(x *big.Int) [Size]byte {
	if !IsValid(x) {
		panic(fmt.Sprintf("value is not a field element: %v", x))
	}
	var out [Size]byte
	x.FillBytes(out[:])
	return out
}

// FromBytes decodes a 32 byte big-endian value, failing if it is not a
// canonical field element.
func FromBytes(b []byte) (*big.Int, error) {
	if len(b) != Size {
		return nil, fmt.Errorf("invalid field element length %d", len(b))
	}
	x := new(big.Int).SetBytes(b)
	if !IsValid(x) {
		return nil, fmt.Errorf("value %s exceeds the field modulus", x)
	}
	return x, nil
}

// FromDecimal parses a base-10 string into a canonical field element.
func FromDecimal(s string) (*big.Int, error) {
	x, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid decimal field element %q", s)
	}
	if !IsValid(x) {
		return nil, fmt.Errorf("value %s is not a field element", s)
	}
	return x, nil
}

// Equal reports whether a and b hold the same value, treating nil as a
// distinct value.
func Equal(a, b *big.Int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Cmp(b) == 0
}
