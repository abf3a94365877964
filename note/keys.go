package note

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/solshield/shieldcore/crypto/field"
	"github.com/solshield/shieldcore/crypto/hash/poseidon"
)

// viewingKeyDomain separates the viewing key derivation from any other use
// of the spending key bytes.
var viewingKeyDomain = []byte("shield-viewing-key")

// SpendingKeyPair groups the spending key with its public counterparts.
// OwnerPubkey is the value written into note commitments, SpendingKeyHash is
// the value the circuit binds spending authority to.
type SpendingKeyPair struct {
	SpendingKey     *big.Int
	OwnerPubkey     *big.Int
	SpendingKeyHash *big.Int
}

// KeyDeriver maps a spending key to its public values. The derivation has
// to match the transfer circuit in use, so it is pluggable.
type KeyDeriver interface {
	OwnerPubkey(spendingKey *big.Int) (*big.Int, error)
	SpendingKeyHash(spendingKey, ownerPubkey *big.Int) (*big.Int, error)
}

// PoseidonKeyDeriver is the default KeyDeriver:
//
//	ownerPubkey     = Poseidon(spendingKey)
//	spendingKeyHash = Poseidon(spendingKey, ownerPubkey)
type PoseidonKeyDeriver struct{}

// OwnerPubkey implements KeyDeriver.
func (PoseidonKeyDeriver) OwnerPubkey(spendingKey *big.Int) (*big.Int, error) {
	return poseidon.Hash(spendingKey)
}

// SpendingKeyHash implements KeyDeriver.
func (PoseidonKeyDeriver) SpendingKeyHash(spendingKey, ownerPubkey *big.Int) (*big.Int, error) {
	return poseidon.Hash(spendingKey, ownerPubkey)
}

// GenerateSpendingKeyPair deterministically derives a key pair from seed
// with the default PoseidonKeyDeriver.
func GenerateSpendingKeyPair(seed []byte) (*SpendingKeyPair, error) {
	return GenerateSpendingKeyPairWith(seed, PoseidonKeyDeriver{})
}

// GenerateSpendingKeyPairWith derives a key pair from seed using the given
// deriver. The spending key is HashToField(seed).
func GenerateSpendingKeyPairWith(seed []byte, deriver KeyDeriver) (*SpendingKeyPair, error) {
	if len(seed) == 0 {
		return nil, fmt.Errorf("empty seed")
	}
	sk := poseidon.HashToField(seed)
	owner, err := deriver.OwnerPubkey(sk)
	if err != nil {
		return nil, fmt.Errorf("cannot derive owner pubkey: %w", err)
	}
	skHash, err := deriver.SpendingKeyHash(sk, owner)
	if err != nil {
		return nil, fmt.Errorf("cannot derive spending key hash: %w", err)
	}
	return &SpendingKeyPair{
		SpendingKey:     sk,
		OwnerPubkey:     owner,
		SpendingKeyHash: skHash,
	}, nil
}

// ViewingKey returns the symmetric viewing key of the pair. Holding it
// allows decrypting notes but not spending them, since the spending key
// cannot be recovered from a Keccak256 image.
func (kp *SpendingKeyPair) ViewingKey() [32]byte {
	sk := field.ToBytes(kp.SpendingKey)
	var vk [32]byte
	copy(vk[:], crypto.Keccak256(viewingKeyDomain, sk[:]))
	return vk
}
