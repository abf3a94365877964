package note

import (
	"encoding/json"
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/solshield/shieldcore/crypto/field"
)

var (
	testOwner = big.NewInt(0x1234)
	testMint  = big.NewInt(0x5678)
	testRand  = big.NewInt(0x9abc)
)

func TestCommitmentDeterministic(t *testing.T) {
	c := qt.New(t)

	cm1, err := Commitment(1_000_000, testOwner, testRand, testMint)
	c.Assert(err, qt.IsNil)
	cm2, err := Commitment(1_000_000, testOwner, testRand, testMint)
	c.Assert(err, qt.IsNil)
	c.Assert(cm1.Cmp(cm2), qt.Equals, 0)
	c.Assert(field.IsValid(cm1), qt.IsTrue)

	one := big.NewInt(1)
	variants := []struct {
		name              string
		amount            uint64
		owner, rand, mint *big.Int
	}{
		{"amount", 1_000_001, testOwner, testRand, testMint},
		{"owner", 1_000_000, new(big.Int).Add(testOwner, one), testRand, testMint},
		{"randomness", 1_000_000, testOwner, new(big.Int).Add(testRand, one), testMint},
		{"mint", 1_000_000, testOwner, testRand, new(big.Int).Add(testMint, one)},
	}
	for _, v := range variants {
		cm, err := Commitment(v.amount, v.owner, v.rand, v.mint)
		c.Assert(err, qt.IsNil)
		c.Assert(cm.Cmp(cm1), qt.Not(qt.Equals), 0, qt.Commentf("changing %s", v.name))
	}
}

func TestNewNote(t *testing.T) {
	c := qt.New(t)

	n, err := New(42, testOwner, testMint, nil)
	c.Assert(err, qt.IsNil)
	c.Assert(n.Randomness, qt.Not(qt.IsNil))
	c.Assert(n.Verify(), qt.IsNil)
	c.Assert(n.Spendable(), qt.IsFalse)

	n.SetLeafIndex(7)
	c.Assert(n.Spendable(), qt.IsTrue)
	c.Assert(*n.LeafIndex, qt.Equals, uint64(7))

	other, err := New(42, testOwner, testMint, nil)
	c.Assert(err, qt.IsNil)
	c.Assert(other.Commitment.Cmp(n.Commitment), qt.Not(qt.Equals), 0)

	_, err = New(1, field.Modulus, testMint, testRand)
	c.Assert(err, qt.ErrorMatches, ".*not a field element")
}

func TestNoteJSON(t *testing.T) {
	c := qt.New(t)

	n, err := New(5, testOwner, testMint, testRand)
	c.Assert(err, qt.IsNil)
	n.SetLeafIndex(3)

	data, err := json.Marshal(n)
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Contains, `"ownerPubkey":"4660"`)

	var decoded Note
	c.Assert(json.Unmarshal(data, &decoded), qt.IsNil)
	c.Assert(decoded.Commitment.Cmp(n.Commitment), qt.Equals, 0)
	c.Assert(*decoded.LeafIndex, qt.Equals, uint64(3))

	// a forged amount must not pass the commitment check
	forged := n.Clone()
	forged.Amount = 6
	data, err = json.Marshal(forged)
	c.Assert(err, qt.IsNil)
	c.Assert(json.Unmarshal(data, &decoded), qt.ErrorMatches, "note commitment mismatch")
}

func TestSpendingKeyPair(t *testing.T) {
	c := qt.New(t)

	kp1, err := GenerateSpendingKeyPair([]byte("seed"))
	c.Assert(err, qt.IsNil)
	kp2, err := GenerateSpendingKeyPair([]byte("seed"))
	c.Assert(err, qt.IsNil)
	c.Assert(kp1.SpendingKey.Cmp(kp2.SpendingKey), qt.Equals, 0)
	c.Assert(kp1.OwnerPubkey.Cmp(kp2.OwnerPubkey), qt.Equals, 0)
	c.Assert(kp1.SpendingKeyHash.Cmp(kp2.SpendingKeyHash), qt.Equals, 0)
	c.Assert(kp1.ViewingKey(), qt.Equals, kp2.ViewingKey())

	kp3, err := GenerateSpendingKeyPair([]byte("other seed"))
	c.Assert(err, qt.IsNil)
	c.Assert(kp3.OwnerPubkey.Cmp(kp1.OwnerPubkey), qt.Not(qt.Equals), 0)
	c.Assert(kp3.ViewingKey(), qt.Not(qt.Equals), kp1.ViewingKey())

	_, err = GenerateSpendingKeyPair(nil)
	c.Assert(err, qt.ErrorMatches, "empty seed")
}
