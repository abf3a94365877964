// Package note implements shielded notes: the value objects hidden behind a
// Poseidon commitment, the keys that own them and the authenticated
// encryption used to hand them to a viewing key holder.
package note

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/solshield/shieldcore/crypto/field"
	"github.com/solshield/shieldcore/crypto/hash/poseidon"
	"github.com/solshield/shieldcore/types"
)

// Note is a shielded unit of value. Commitment always equals
// Poseidon(Amount, OwnerPubkey, Randomness, TokenMint). LeafIndex is nil
// until the commitment insertion has been confirmed on chain.
type Note struct {
	Amount      uint64
	OwnerPubkey *big.Int
	Randomness  *big.Int
	TokenMint   *big.Int
	Commitment  *big.Int
	LeafIndex   *uint64
}

// New creates a note and computes its commitment. If randomness is nil, a
// uniformly random field element is drawn.
func New(amount uint64, ownerPubkey, tokenMint, randomness *big.Int) (*Note, error) {
	if randomness == nil {
		var err error
		if randomness, err = field.Random(); err != nil {
			return nil, err
		}
	}
	cm, err := Commitment(amount, ownerPubkey, randomness, tokenMint)
	if err != nil {
		return nil, err
	}
	return &Note{
		Amount:      amount,
		OwnerPubkey: new(big.Int).Set(ownerPubkey),
		Randomness:  new(big.Int).Set(randomness),
		TokenMint:   new(big.Int).Set(tokenMint),
		Commitment:  cm,
	}, nil
}

// Commitment computes Poseidon(amount, ownerPubkey, randomness, tokenMint).
func Commitment(amount uint64, ownerPubkey, randomness, tokenMint *big.Int) (*big.Int, error) {
	if ownerPubkey == nil || randomness == nil || tokenMint == nil {
		return nil, fmt.Errorf("note commitment: missing field")
	}
	cm, err := poseidon.Hash(field.FromUint64(amount), ownerPubkey, randomness, tokenMint)
	if err != nil {
		return nil, fmt.Errorf("note commitment: %w", err)
	}
	return cm, nil
}

// TokenMintFromBytes maps a token mint address (a 32 byte public key) into
// the scalar field by reducing its big-endian value.
func TokenMintFromBytes(mint []byte) *big.Int {
	return field.Reduce(new(big.Int).SetBytes(mint))
}

// Verify recomputes the commitment and checks it matches the stored one.
func (n *Note) Verify() error {
	cm, err := Commitment(n.Amount, n.OwnerPubkey, n.Randomness, n.TokenMint)
	if err != nil {
		return err
	}
	if !field.Equal(cm, n.Commitment) {
		return fmt.Errorf("note commitment mismatch")
	}
	return nil
}

// Spendable reports whether the note can be referenced by a transfer, that
// is, whether its tree position is known.
func (n *Note) Spendable() bool {
	return n.LeafIndex != nil
}

// SetLeafIndex records the confirmed tree position of the note.
func (n *Note) SetLeafIndex(index uint64) {
	n.LeafIndex = &index
}

// Clone returns a deep copy of the note.
func (n *Note) Clone() *Note {
	c := &Note{
		Amount:      n.Amount,
		OwnerPubkey: new(big.Int).Set(n.OwnerPubkey),
		Randomness:  new(big.Int).Set(n.Randomness),
		TokenMint:   new(big.Int).Set(n.TokenMint),
		Commitment:  new(big.Int).Set(n.Commitment),
	}
	if n.LeafIndex != nil {
		c.SetLeafIndex(*n.LeafIndex)
	}
	return c
}

// noteJSON is the plaintext storage representation of a note, with every
// field element as a decimal string.
type noteJSON struct {
	Amount      uint64        `json:"amount"`
	OwnerPubkey *types.BigInt `json:"ownerPubkey"`
	Randomness  *types.BigInt `json:"randomness"`
	TokenMint   *types.BigInt `json:"tokenMint"`
	Commitment  *types.BigInt `json:"commitment"`
	LeafIndex   *uint64       `json:"leafIndex,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (n *Note) MarshalJSON() ([]byte, error) {
	return json.Marshal(&noteJSON{
		Amount:      n.Amount,
		OwnerPubkey: types.NewInt(n.OwnerPubkey),
		Randomness:  types.NewInt(n.Randomness),
		TokenMint:   types.NewInt(n.TokenMint),
		Commitment:  types.NewInt(n.Commitment),
		LeafIndex:   n.LeafIndex,
	})
}

// UnmarshalJSON implements json.Unmarshaler. The commitment is checked
// against the decoded fields.
func (n *Note) UnmarshalJSON(data []byte) error {
	var nj noteJSON
	if err := json.Unmarshal(data, &nj); err != nil {
		return err
	}
	if nj.OwnerPubkey == nil || nj.Randomness == nil || nj.TokenMint == nil || nj.Commitment == nil {
		return fmt.Errorf("incomplete note")
	}
	*n = Note{
		Amount:      nj.Amount,
		OwnerPubkey: nj.OwnerPubkey.MathBigInt(),
		Randomness:  nj.Randomness.MathBigInt(),
		TokenMint:   nj.TokenMint.MathBigInt(),
		Commitment:  nj.Commitment.MathBigInt(),
		LeafIndex:   nj.LeafIndex,
	}
	return n.Verify()
}
