package wallet

import (
	"errors"
	"fmt"
	"maps"
	"math/big"
	"slices"
	"strings"

	"github.com/solshield/shieldcore/crypto/field"
	"github.com/solshield/shieldcore/crypto/hash/poseidon"
	"github.com/solshield/shieldcore/note"
)

// ErrNoNullifier is returned by Transfer when the wallet was built without
// a NullifierFunc.
var ErrNoNullifier = errors.New("no nullifier scheme configured")

// NullifierFunc derives the nullifier revealed when spending n. It has to
// match the nullifier constraint of the deployed transfer circuit, so the
// wallet has no default and rejects transfers until one is configured.
type NullifierFunc func(n *note.Note, spendingKey *big.Int) (*big.Int, error)

// PoseidonNullifier computes Poseidon(commitment, leafIndex, spendingKey),
// with leafIndex 0 for notes without a position. Proofs built with it only
// verify against a circuit constraining this exact layout.
func PoseidonNullifier(n *note.Note, spendingKey *big.Int) (*big.Int, error) {
	var index uint64
	if n.LeafIndex != nil {
		index = *n.LeafIndex
	}
	return poseidon.Hash(n.Commitment, field.FromUint64(index), spendingKey)
}

var nullifierSchemes = map[string]NullifierFunc{
	"poseidon-commitment-index-key": PoseidonNullifier,
}

// NullifierSchemes lists the registered scheme names, sorted.
func NullifierSchemes() []string {
	return slices.Sorted(maps.Keys(nullifierSchemes))
}

// NullifierScheme returns the NullifierFunc registered under name.
func NullifierScheme(name string) (NullifierFunc, error) {
	fn, ok := nullifierSchemes[name]
	if !ok {
		return nil, fmt.Errorf("unknown nullifier scheme %q, expected one of: %s",
			name, strings.Join(NullifierSchemes(), ", "))
	}
	return fn, nil
}
