package circuits

import (
	"fmt"

	"github.com/vocdoni/circom2gnark/parser"
)

// TransferNPubInputs is the number of public signals of the transfer
// circuit: merkle root, two nullifiers, two output commitments, public
// amount and token mint.
const TransferNPubInputs = 7

// Circom2GnarkProof parses a snarkjs formatted proof and its public signals
// into the circom2gnark representation.
func Circom2GnarkProof(circomProof, pubSignals []byte) (*parser.CircomProof, []string, error) {
	proofData, err := parser.UnmarshalCircomProofJSON(circomProof)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid circom proof: %w", err)
	}
	pubSignalsData, err := parser.UnmarshalCircomPublicSignalsJSON(pubSignals)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid public signals: %w", err)
	}
	return proofData, pubSignalsData, nil
}

// VerifyCircomProof converts a circom Groth16 proof to gnark and verifies it
// with the JSON verifying key. Malformed inputs return an error; a proof
// that does not verify returns false and a nil error.
func VerifyCircomProof(vkey, circomProof, pubSignals []byte) (bool, error) {
	proof, signals, err := Circom2GnarkProof(circomProof, pubSignals)
	if err != nil {
		return false, err
	}
	vk, err := parser.UnmarshalCircomVerificationKeyJSON(vkey)
	if err != nil {
		return false, fmt.Errorf("invalid verification key: %w", err)
	}
	gnarkProof, err := parser.ConvertCircomToGnark(proof, vk, signals)
	if err != nil {
		return false, fmt.Errorf("cannot convert proof: %w", err)
	}
	ok, err := parser.VerifyProof(gnarkProof)
	if err != nil {
		// circom2gnark reports a failed pairing check as an error
		return false, nil
	}
	return ok, nil
}
