package storage

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/solshield/shieldcore/relayer"
)

// relayerRecord is the stored form of a registry entry. Order keeps the
// registration order across restarts.
type relayerRecord struct {
	Order uint64       `cbor:"order"`
	Info  relayer.Info `cbor:"info"`
}

// SetRelayer stores a registry entry. Existing entries keep their
// registration position.
func (s *Storage) SetRelayer(info relayer.Info) error {
	if info.ID == "" {
		return fmt.Errorf("relayer without id")
	}
	rec := relayerRecord{Info: info}
	existing := relayerRecord{}
	switch err := s.getArtifact(relayerPrefix, []byte(info.ID), &existing); err {
	case nil:
		rec.Order = existing.Order
	case ErrNotFound:
		next, err := s.nextRelayerOrder()
		if err != nil {
			return err
		}
		rec.Order = next
	default:
		return err
	}
	return s.setArtifact(relayerPrefix, []byte(info.ID), rec)
}

// DeleteRelayer removes a registry entry.
func (s *Storage) DeleteRelayer(id string) error {
	return s.deleteRaw(relayerPrefix, []byte(id))
}

// Relayers returns the stored registry in registration order.
func (s *Storage) Relayers() ([]relayer.Info, error) {
	records, err := s.relayerRecords()
	if err != nil {
		return nil, err
	}
	list := make([]relayer.Info, len(records))
	for i, r := range records {
		list[i] = r.Info
	}
	return list, nil
}

func (s *Storage) relayerRecords() ([]relayerRecord, error) {
	var (
		records []relayerRecord
		decErr  error
	)
	if err := s.iterate(relayerPrefix, func(k, v []byte) bool {
		rec := relayerRecord{}
		if err := decodeArtifact(v, &rec); err != nil {
			decErr = fmt.Errorf("invalid relayer %s: %w", k, err)
			return false
		}
		records = append(records, rec)
		return true
	}); err != nil {
		return nil, err
	}
	if decErr != nil {
		return nil, decErr
	}
	// keys are ordered by id, restore the registration order
	slices.SortFunc(records, func(a, b relayerRecord) int {
		return cmp.Compare(a.Order, b.Order)
	})
	return records, nil
}

func (s *Storage) nextRelayerOrder() (uint64, error) {
	records, err := s.relayerRecords()
	if err != nil {
		return 0, err
	}
	var next uint64
	for _, r := range records {
		if r.Order >= next {
			next = r.Order + 1
		}
	}
	return next, nil
}
