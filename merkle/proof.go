package merkle

import (
	"math/big"

	"github.com/solshield/shieldcore/crypto/field"
	"github.com/solshield/shieldcore/crypto/hash/poseidon"
)

// ProofData is an inclusion path for one leaf. PathIndices[i] is 0 when the
// node at level i is a left child and 1 when it is a right child.
type ProofData struct {
	PathIndices  []uint8
	PathElements []*big.Int
	LeafIndex    uint64
}

// GenerateProof returns the inclusion path of the leaf at leafIndex. It does
// not modify the tree.
func (t *Tree) GenerateProof(leafIndex uint64) (*ProofData, error) {
	t.mustBeInitialized()
	if leafIndex >= t.Capacity() {
		return nil, ErrIndexOutOfRange
	}
	if _, ok := t.leaves[leafIndex]; !ok {
		return nil, ErrLeafNotFound
	}
	proof := &ProofData{
		PathIndices:  make([]uint8, t.depth),
		PathElements: make([]*big.Int, t.depth),
		LeafIndex:    leafIndex,
	}
	idx := leafIndex
	for level := 0; level < t.depth; level++ {
		proof.PathIndices[level] = uint8(idx & 1)
		proof.PathElements[level] = new(big.Int).Set(t.node(level, idx^1))
		idx >>= 1
	}
	return proof, nil
}

// VerifyProof folds leaf along the proof path and compares the result with
// root.
func VerifyProof(proof *ProofData, leaf, root *big.Int) bool {
	if proof == nil || leaf == nil || root == nil {
		return false
	}
	if len(proof.PathIndices) != len(proof.PathElements) || len(proof.PathElements) == 0 {
		return false
	}
	current := leaf
	for i, sibling := range proof.PathElements {
		var err error
		switch proof.PathIndices[i] {
		case 0:
			current, err = poseidon.Hash2(current, sibling)
		case 1:
			current, err = poseidon.Hash2(sibling, current)
		default:
			return false
		}
		if err != nil {
			return false
		}
	}
	return field.Equal(current, root)
}

// DummyProof returns the all-left path of zero siblings. It is used for the
// padding input of a transfer that spends a single note, where the circuit
// skips the membership check of zero amount inputs.
func (t *Tree) DummyProof() *ProofData {
	t.mustBeInitialized()
	proof := &ProofData{
		PathIndices:  make([]uint8, t.depth),
		PathElements: make([]*big.Int, t.depth),
	}
	for level := 0; level < t.depth; level++ {
		proof.PathElements[level] = new(big.Int).Set(t.zeroValues[level])
	}
	return proof
}
