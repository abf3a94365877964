package circuits

import (
	"encoding/hex"
	"fmt"

	"github.com/solshield/shieldcore/config"
	"github.com/solshield/shieldcore/util"
)

// NewArtifact builds an Artifact from its configured location.
func NewArtifact(name string, loc config.ArtifactLocation) (*Artifact, error) {
	if loc.Location == "" {
		return nil, nil
	}
	a := &Artifact{Name: name}
	if loc.Hash != "" {
		h, err := hex.DecodeString(util.TrimHex(loc.Hash))
		if err != nil {
			return nil, fmt.Errorf("invalid %s hash: %w", name, err)
		}
		a.Hash = h
	}
	if loc.IsRemote() {
		a.RemoteURL = loc.Location
	} else {
		a.LocalPath = loc.Location
	}
	return a, nil
}

// TransferArtifacts returns the artifacts of the transfer circuit described
// by cfg. Artifacts without a location are left nil.
func TransferArtifacts(cfg config.CircuitConfig) (*CircuitArtifacts, error) {
	wasm, err := NewArtifact("transfer witness calculator", cfg.WASM)
	if err != nil {
		return nil, err
	}
	pk, err := NewArtifact("transfer proving key", cfg.ProvingKey)
	if err != nil {
		return nil, err
	}
	vk, err := NewArtifact("transfer verifying key", cfg.VerifyingKey)
	if err != nil {
		return nil, err
	}
	return NewCircuitArtifacts(wasm, pk, vk), nil
}
