// Package prover turns transfer inputs into Groth16 proofs with the
// compiled circom transfer circuit, and encodes the proofs the way the
// on-chain verifier expects them.
package prover

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iden3/go-rapidsnark/prover"
	rstypes "github.com/iden3/go-rapidsnark/types"
	"github.com/iden3/go-rapidsnark/witness"
	"github.com/solshield/shieldcore/circuits"
	"github.com/solshield/shieldcore/log"
)

var (
	// ErrProofTimeout is returned when proving takes longer than allowed.
	// The computation may still finish in the background; its result is
	// discarded.
	ErrProofTimeout = errors.New("proof generation timed out")
	// ErrProofGeneration wraps any failure of the prover itself.
	ErrProofGeneration = errors.New("proof generation failed")
)

// Proof is a Groth16 proof in snarkjs layout, decimal coordinates, with its
// public signals.
type Proof struct {
	Data          *rstypes.ProofData `json:"proof"`
	PublicSignals []string           `json:"publicSignals"`
}

// ProofJSON returns the snarkjs JSON of the proof.
func (p *Proof) ProofJSON() ([]byte, error) {
	return json.Marshal(p.Data)
}

// PublicSignalsJSON returns the JSON array of public signals.
func (p *Proof) PublicSignalsJSON() ([]byte, error) {
	return json.Marshal(p.PublicSignals)
}

// Prover generates a proof from the JSON encoded circuit inputs.
type Prover interface {
	Prove(ctx context.Context, inputs []byte) (*Proof, error)
}

// CircomProver computes the witness with the circom WASM generator and the
// proof with rapidsnark.
type CircomProver struct {
	wasm []byte
	zkey []byte
}

// NewCircomProver returns a prover for the given witness generator and
// proving key.
func NewCircomProver(wasm, zkey []byte) (*CircomProver, error) {
	if len(wasm) == 0 || len(zkey) == 0 {
		return nil, fmt.Errorf("witness calculator and proving key are required")
	}
	return &CircomProver{wasm: wasm, zkey: zkey}, nil
}

// NewCircomProverFromArtifacts loads the artifacts and returns a prover
// using them.
func NewCircomProverFromArtifacts(ctx context.Context, artifacts *circuits.CircuitArtifacts) (*CircomProver, error) {
	if err := artifacts.LoadAll(ctx); err != nil {
		return nil, err
	}
	return NewCircomProver(artifacts.WitnessCalculator(), artifacts.ProvingKey())
}

// Prove implements Prover. The computation is not interruptible: ctx is
// only checked before it starts.
func (p *CircomProver) Prove(ctx context.Context, inputs []byte) (*Proof, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	parsed, err := witness.ParseInputs(inputs)
	if err != nil {
		return nil, fmt.Errorf("cannot parse circuit inputs: %w", err)
	}
	calc, err := witness.NewCircom2WitnessCalculator(p.wasm, true)
	if err != nil {
		return nil, fmt.Errorf("cannot instance witness calculator: %w", err)
	}
	w, err := calc.CalculateWTNSBin(parsed, true)
	if err != nil {
		return nil, fmt.Errorf("cannot calculate witness: %w", err)
	}
	zkProof, err := prover.Groth16Prover(p.zkey, w)
	if err != nil {
		return nil, fmt.Errorf("cannot generate proof: %w", err)
	}
	return &Proof{Data: zkProof.Proof, PublicSignals: zkProof.PubSignals}, nil
}

// Result is the outcome of a successful proof generation.
type Result struct {
	Proof    *Proof
	Duration time.Duration
}

// GenerateProof runs p over inputs and waits at most timeout for it. On
// timeout ErrProofTimeout is returned and the prover goroutine is
// abandoned: it keeps running until it finishes and its result is dropped.
// Cancelling ctx returns ctx.Err() in the same way.
func GenerateProof(ctx context.Context, p Prover, inputs ProofInputs, timeout time.Duration) (*Result, error) {
	data, err := inputs.JSON()
	if err != nil {
		return nil, fmt.Errorf("%w: cannot encode inputs: %v", ErrProofGeneration, err)
	}
	type outcome struct {
		proof *Proof
		err   error
	}
	// buffered so the abandoned goroutine never blocks
	done := make(chan outcome, 1)
	proveCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	start := time.Now()
	go func() {
		proof, err := p.Prove(proveCtx, data)
		done <- outcome{proof, err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("%w: %w", ErrProofGeneration, res.err)
		}
		if res.proof == nil || res.proof.Data == nil {
			return nil, fmt.Errorf("%w: prover returned no proof", ErrProofGeneration)
		}
		elapsed := time.Since(start)
		log.Debugw("proof generated", "took", elapsed.String(), "publicSignals", len(res.proof.PublicSignals))
		return &Result{Proof: res.proof, Duration: elapsed}, nil
	case <-timer.C:
		log.Warnw("proof generation timed out, abandoning prover", "timeout", timeout.String())
		return nil, ErrProofTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
