package prover

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/solshield/shieldcore/circuits"
	"github.com/solshield/shieldcore/crypto/field"
	"github.com/solshield/shieldcore/merkle"
	"github.com/solshield/shieldcore/types"
)

// TransferPublicInputs are the values the transfer circuit exposes and the
// on-chain verifier checks.
type TransferPublicInputs struct {
	MerkleRoot        *big.Int
	Nullifiers        [types.TransferInputs]*big.Int
	OutputCommitments [types.TransferOutputs]*big.Int
	// PublicAmount is the value entering (positive) or leaving (negative)
	// the pool; it is encoded modulo the field order.
	PublicAmount *big.Int
	TokenMint    *big.Int
}

// InputNote is a note being spent with its inclusion path.
type InputNote struct {
	Amount      uint64
	OwnerPubkey *big.Int
	Randomness  *big.Int
	Path        *merkle.ProofData
}

// OutputNote is a note being created.
type OutputNote struct {
	Amount     uint64
	Recipient  *big.Int
	Randomness *big.Int
}

// TransferPrivateInputs is the witness known only to the spender.
type TransferPrivateInputs struct {
	InputNotes  [types.TransferInputs]InputNote
	OutputNotes [types.TransferOutputs]OutputNote
	SpendingKey *big.Int
}

// ProofInputs is the circuit input object, every leaf a decimal string.
type ProofInputs map[string]any

// JSON encodes the inputs the way the witness calculator reads them.
func (pi ProofInputs) JSON() ([]byte, error) {
	return json.Marshal(pi)
}

// BuildCircuitInputs maps the transfer inputs to the signal names of the
// transfer circuit. It only checks that every value is present.
func BuildCircuitInputs(pub *TransferPublicInputs, priv *TransferPrivateInputs) (ProofInputs, error) {
	if pub == nil || priv == nil {
		return nil, fmt.Errorf("missing transfer inputs")
	}
	if pub.MerkleRoot == nil || pub.PublicAmount == nil || pub.TokenMint == nil || priv.SpendingKey == nil {
		return nil, fmt.Errorf("missing public or private scalar input")
	}
	nullifiers, err := decimals(pub.Nullifiers[:]...)
	if err != nil {
		return nil, fmt.Errorf("nullifiers: %w", err)
	}
	commitments, err := decimals(pub.OutputCommitments[:]...)
	if err != nil {
		return nil, fmt.Errorf("output commitments: %w", err)
	}

	var (
		inAmounts      []string
		inOwners       []*big.Int
		inRandomness   []*big.Int
		inPathIndices  [][]string
		inPathElements [][]string
	)
	for i, in := range priv.InputNotes {
		if in.Path == nil {
			return nil, fmt.Errorf("input note %d has no merkle path", i)
		}
		inAmounts = append(inAmounts, decimal(field.FromUint64(in.Amount)))
		inOwners = append(inOwners, in.OwnerPubkey)
		inRandomness = append(inRandomness, in.Randomness)
		indices := make([]string, len(in.Path.PathIndices))
		for j, idx := range in.Path.PathIndices {
			indices[j] = fmt.Sprint(idx)
		}
		elements, err := decimals(in.Path.PathElements...)
		if err != nil {
			return nil, fmt.Errorf("input note %d path: %w", i, err)
		}
		inPathIndices = append(inPathIndices, indices)
		inPathElements = append(inPathElements, elements)
	}
	owners, err := decimals(inOwners...)
	if err != nil {
		return nil, fmt.Errorf("input owners: %w", err)
	}
	randomness, err := decimals(inRandomness...)
	if err != nil {
		return nil, fmt.Errorf("input randomness: %w", err)
	}

	var (
		outAmounts    []string
		outRecipients []*big.Int
		outRandomness []*big.Int
	)
	for _, out := range priv.OutputNotes {
		outAmounts = append(outAmounts, decimal(field.FromUint64(out.Amount)))
		outRecipients = append(outRecipients, out.Recipient)
		outRandomness = append(outRandomness, out.Randomness)
	}
	recipients, err := decimals(outRecipients...)
	if err != nil {
		return nil, fmt.Errorf("output recipients: %w", err)
	}
	outRand, err := decimals(outRandomness...)
	if err != nil {
		return nil, fmt.Errorf("output randomness: %w", err)
	}

	return ProofInputs{
		"merkleRoot":        decimal(pub.MerkleRoot),
		"nullifiers":        nullifiers,
		"outputCommitments": commitments,
		"publicAmount":      decimal(field.Reduce(pub.PublicAmount)),
		"tokenMint":         decimal(pub.TokenMint),
		"inAmounts":         inAmounts,
		"inOwnerPubkeys":    owners,
		"inRandomness":      randomness,
		"inPathIndices":     inPathIndices,
		"inPathElements":    inPathElements,
		"outAmounts":        outAmounts,
		"outRecipients":     recipients,
		"outRandomness":     outRand,
		"spendingKey":       decimal(priv.SpendingKey),
	}, nil
}

// PublicSignals returns the public inputs in circuit order.
func (pub *TransferPublicInputs) PublicSignals() []string {
	signals := []string{decimal(pub.MerkleRoot)}
	for _, n := range pub.Nullifiers {
		signals = append(signals, decimal(n))
	}
	for _, cm := range pub.OutputCommitments {
		signals = append(signals, decimal(cm))
	}
	return append(signals, decimal(field.Reduce(pub.PublicAmount)), decimal(pub.TokenMint))
}

// CheckSignals compares the public signals output by the circuit with the
// expected ones. Any difference is reported as ErrProofGeneration.
func (pub *TransferPublicInputs) CheckSignals(signals []string) error {
	if len(signals) != circuits.TransferNPubInputs {
		return fmt.Errorf("%w: circuit output %d public signals, expected %d",
			ErrProofGeneration, len(signals), circuits.TransferNPubInputs)
	}
	for i, want := range pub.PublicSignals() {
		if signals[i] != want {
			return fmt.Errorf("%w: public signal %d is %s, expected %s", ErrProofGeneration, i, signals[i], want)
		}
	}
	return nil
}

func decimal(x *big.Int) string {
	if x == nil {
		return "0"
	}
	return x.String()
}

func decimals(xs ...*big.Int) ([]string, error) {
	out := make([]string, len(xs))
	for i, x := range xs {
		if x == nil {
			return nil, fmt.Errorf("value %d is missing", i)
		}
		out[i] = x.String()
	}
	return out, nil
}
