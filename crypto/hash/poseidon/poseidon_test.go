package poseidon

import (
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/iden3/go-iden3-crypto/poseidon"
	"github.com/solshield/shieldcore/crypto/field"
)

func TestHashMatchesIden3(t *testing.T) {
	c := qt.New(t)
	in := []*big.Int{big.NewInt(1), big.NewInt(2)}
	want, err := poseidon.Hash(in)
	c.Assert(err, qt.IsNil)
	got, err := Hash2(in[0], in[1])
	c.Assert(err, qt.IsNil)
	c.Assert(got.Cmp(want), qt.Equals, 0)
	// order matters for tree nodes
	swapped, err := Hash2(in[1], in[0])
	c.Assert(err, qt.IsNil)
	c.Assert(swapped.Cmp(got), qt.Not(qt.Equals), 0)
}

func TestHashRejectsInvalidInputs(t *testing.T) {
	c := qt.New(t)
	_, err := Hash()
	c.Assert(err, qt.IsNotNil)
	_, err = Hash(field.Modulus)
	c.Assert(err, qt.ErrorMatches, "poseidon: input 0 is not a field element")
	_, err = Hash(make17()...)
	c.Assert(err, qt.IsNotNil)
}

func TestHashToField(t *testing.T) {
	c := qt.New(t)
	a := HashToField([]byte("seed"))
	b := HashToField([]byte("seed"))
	c.Assert(a.Cmp(b), qt.Equals, 0)
	c.Assert(field.IsValid(a), qt.IsTrue)
	c.Assert(HashToField([]byte("seed2")).Cmp(a), qt.Not(qt.Equals), 0)
}

func make17() []*big.Int {
	out := make([]*big.Int, 17)
	for i := range out {
		out[i] = big.NewInt(int64(i + 1))
	}
	return out
}
