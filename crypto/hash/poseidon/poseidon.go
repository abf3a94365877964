// Package poseidon provides the circuit-compatible hash primitives of the
// shielded pool: Poseidon over the BN254 scalar field, the two-to-one
// compression used by the commitment tree and a hash-to-field helper.
package poseidon

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/iden3/go-iden3-crypto/poseidon"
	"github.com/solshield/shieldcore/crypto/field"
)

// maxChunk is the widest input the iden3 Poseidon implementation accepts.
const maxChunk = 16

// Hash returns Poseidon(inputs...). Every input must be a canonical field
// element and at most 16 inputs are accepted.
func Hash(inputs ...*big.Int) (*big.Int, error) {
	if len(inputs) == 0 || len(inputs) > maxChunk {
		return nil, fmt.Errorf("poseidon: invalid number of inputs %d", len(inputs))
	}
	for i, in := range inputs {
		if !field.IsValid(in) {
			return nil, fmt.Errorf("poseidon: input %d is not a field element", i)
		}
	}
	return poseidon.Hash(inputs)
}

// Hash2 is the two-to-one compression used for Merkle nodes.
func Hash2(left, right *big.Int) (*big.Int, error) {
	return Hash(left, right)
}

// HashToField maps arbitrary bytes into the scalar field as
// Keccak256(data) mod r.
func HashToField(data []byte) *big.Int {
	return field.Reduce(new(big.Int).SetBytes(crypto.Keccak256(data)))
}
