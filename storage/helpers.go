package storage

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// encodeArtifact encodes with the deterministic CBOR options, so equal
// artifacts always produce equal bytes.
func encodeArtifact(a any) ([]byte, error) {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("encode artifact: %w", err)
	}
	return em.Marshal(a)
}

func decodeArtifact(data []byte, out any) error {
	return cbor.Unmarshal(data, out)
}
