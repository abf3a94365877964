package storage

import (
	"encoding/json"
	"fmt"

	"github.com/solshield/shieldcore/merkle"
)

// SetTreeSnapshot stores the commitment tree snapshot in its JSON form.
func (s *Storage) SetTreeSnapshot(snapshot *merkle.Snapshot) error {
	if snapshot == nil {
		return fmt.Errorf("nil tree snapshot")
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return s.setRaw(treePrefix, treeSnapshotKey, data)
}

// TreeSnapshot loads the stored tree snapshot. Returns ErrNotFound if none
// was stored yet.
func (s *Storage) TreeSnapshot() (*merkle.Snapshot, error) {
	data, err := s.getRaw(treePrefix, treeSnapshotKey)
	if err != nil {
		return nil, err
	}
	snapshot := &merkle.Snapshot{}
	if err := json.Unmarshal(data, snapshot); err != nil {
		return nil, fmt.Errorf("could not decode tree snapshot: %w", err)
	}
	return snapshot, nil
}
