// Package util holds small helpers shared across packages.
package util

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// RandomBytes generates a random byte slice of length n.
func RandomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}

// Random32 generates a random 32-byte array, the size of ephemeral scalars
// and viewing keys.
func Random32() [32]byte {
	var b [32]byte
	copy(b[:], RandomBytes(32))
	return b
}

// RandomInt returns a uniform integer in [min, max). It panics if max <= min.
func RandomInt(min, max int) int {
	num, err := rand.Int(rand.Reader, big.NewInt(int64(max-min)))
	if err != nil {
		panic(err)
	}
	return int(num.Int64()) + min
}

// TrimHex trims the '0x' prefix from a hex string.
func TrimHex(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

// TrimSlash removes trailing slashes from a base URL so paths can be
// appended with a single separator.
func TrimSlash(u string) string {
	return strings.TrimRight(u, "/")
}
