package types

import (
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"
)

// BigInt is a big.Int wrapper which marshals JSON as a decimal string, which
// is the representation every circom tool expects for field elements.
type BigInt big.Int

// NewInt returns a BigInt from the provided big.Int. A nil input yields zero.
func NewInt(i *big.Int) *BigInt {
	if i == nil {
		return new(BigInt)
	}
	return (*BigInt)(new(big.Int).Set(i))
}

// MarshalText implements encoding.TextMarshaler, which json uses.
func (i *BigInt) MarshalText() ([]byte, error) {
	return (*big.Int)(i).MarshalText()
}

// UnmarshalText implements encoding.TextUnmarshaler. Only base-10 numbers are
// accepted.
func (i *BigInt) UnmarshalText(data []byte) error {
	if _, ok := i.MathBigInt().SetString(string(data), 10); !ok {
		return fmt.Errorf("invalid decimal number: %q", data)
	}
	return nil
}

// MarshalCBOR encodes the number as its decimal string.
func (i *BigInt) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(i.String())
}

// UnmarshalCBOR decodes a decimal string produced by MarshalCBOR.
func (i *BigInt) UnmarshalCBOR(data []byte) error {
	var s string
	if err := cbor.Unmarshal(data, &s); err != nil {
		return err
	}
	return i.UnmarshalText([]byte(s))
}

// MathBigInt returns the underlying *big.Int, sharing memory.
func (i *BigInt) MathBigInt() *big.Int {
	return (*big.Int)(i)
}

// String returns the decimal representation.
func (i *BigInt) String() string {
	return (*big.Int)(i).String()
}

// SetUint64 sets the value and returns the receiver.
func (i *BigInt) SetUint64(x uint64) *BigInt {
	return (*BigInt)(i.MathBigInt().SetUint64(x))
}

// Equal reports whether both numbers are equal.
func (i *BigInt) Equal(j *BigInt) bool {
	return i.MathBigInt().Cmp(j.MathBigInt()) == 0
}
