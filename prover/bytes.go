package prover

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fp"
	"github.com/solshield/shieldcore/types"
)

const (
	g1Size = 2 * fp.Bytes
	g2Size = 4 * fp.Bytes
)

// Groth16ProofData is the fixed size proof encoding consumed by the
// on-chain verifier: G1 points as x‖y and G2 points as x0‖x1‖y0‖y1, every
// coordinate 32 bytes big-endian.
type Groth16ProofData struct {
	PiA [g1Size]byte
	PiB [g2Size]byte
	PiC [g1Size]byte
}

// Bytes returns PiA‖PiB‖PiC.
func (d *Groth16ProofData) Bytes() types.HexBytes {
	out := make([]byte, 0, 2*g1Size+g2Size)
	out = append(out, d.PiA[:]...)
	out = append(out, d.PiB[:]...)
	return append(out, d.PiC[:]...)
}

// Groth16ProofDataFromBytes parses the output of Bytes.
func Groth16ProofDataFromBytes(b []byte) (*Groth16ProofData, error) {
	if len(b) != 2*g1Size+g2Size {
		return nil, fmt.Errorf("invalid proof length %d", len(b))
	}
	d := &Groth16ProofData{}
	off := copy(d.PiA[:], b)
	off += copy(d.PiB[:], b[off:])
	copy(d.PiC[:], b[off:])
	return d, nil
}

// ProofToBytes encodes a snarkjs formatted proof. The projective third
// coordinate of each point is dropped.
func ProofToBytes(proof *Proof) (*Groth16ProofData, error) {
	if proof == nil || proof.Data == nil {
		return nil, fmt.Errorf("nil proof")
	}
	p := proof.Data
	if len(p.A) < 2 || len(p.C) < 2 || len(p.B) < 2 || len(p.B[0]) < 2 || len(p.B[1]) < 2 {
		return nil, fmt.Errorf("malformed proof points")
	}
	d := &Groth16ProofData{}
	for i, coord := range []string{p.A[0], p.A[1]} {
		if err := putCoordinate(d.PiA[i*fp.Bytes:], coord); err != nil {
			return nil, fmt.Errorf("pi_a: %w", err)
		}
	}
	for i, coord := range []string{p.B[0][0], p.B[0][1], p.B[1][0], p.B[1][1]} {
		if err := putCoordinate(d.PiB[i*fp.Bytes:], coord); err != nil {
			return nil, fmt.Errorf("pi_b: %w", err)
		}
	}
	for i, coord := range []string{p.C[0], p.C[1]} {
		if err := putCoordinate(d.PiC[i*fp.Bytes:], coord); err != nil {
			return nil, fmt.Errorf("pi_c: %w", err)
		}
	}
	return d, nil
}

// putCoordinate writes a decimal base field coordinate as 32 big-endian
// bytes into dst.
func putCoordinate(dst []byte, coord string) error {
	v, ok := new(big.Int).SetString(coord, 10)
	if !ok {
		return fmt.Errorf("invalid coordinate %q", coord)
	}
	if v.Sign() < 0 || v.Cmp(fp.Modulus()) >= 0 {
		return fmt.Errorf("coordinate %s is not a base field element", coord)
	}
	v.FillBytes(dst[:fp.Bytes])
	return nil
}
