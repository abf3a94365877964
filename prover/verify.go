package prover

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/solshield/shieldcore/circuits"
)

// maxVerifyingKeySize bounds verifying keys fetched over http.
const maxVerifyingKeySize = 16 << 20

// VerifyProofLocally checks proof against publicSignals with the verifying
// key found at vkLocation, a file path or an http(s) URL.
func VerifyProofLocally(ctx context.Context, proof *Proof, publicSignals []string, vkLocation string) (bool, error) {
	vk, err := LoadVerifyingKey(ctx, vkLocation)
	if err != nil {
		return false, err
	}
	return VerifyProofWithKey(proof, publicSignals, vk)
}

// VerifyProofWithKey checks proof against publicSignals with the given
// JSON verifying key.
func VerifyProofWithKey(proof *Proof, publicSignals []string, vk []byte) (bool, error) {
	if proof == nil || proof.Data == nil {
		return false, fmt.Errorf("nil proof")
	}
	proofJSON, err := proof.ProofJSON()
	if err != nil {
		return false, err
	}
	signals := &Proof{PublicSignals: publicSignals}
	signalsJSON, err := signals.PublicSignalsJSON()
	if err != nil {
		return false, err
	}
	return circuits.VerifyCircomProof(vk, proofJSON, signalsJSON)
}

// LoadVerifyingKey reads a verifying key from a path or downloads it.
func LoadVerifyingKey(ctx context.Context, location string) ([]byte, error) {
	if location == "" {
		return nil, fmt.Errorf("no verifying key location")
	}
	if !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://") {
		vk, err := os.ReadFile(location)
		if err != nil {
			return nil, fmt.Errorf("cannot read verifying key: %w", err)
		}
		return vk, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, err
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cannot fetch verifying key: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cannot fetch verifying key: http status %d", res.StatusCode)
	}
	return io.ReadAll(io.LimitReader(res.Body, maxVerifyingKeySize))
}
