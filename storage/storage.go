// storage package persists the wallet state in a prefixed key-value store.
// The following prefixes are used:
//   - 't/' for the commitment tree snapshot
//   - 'e/' for encrypted notes, keyed by commitment
//   - 'n/' for decrypted notes owned by the wallet, keyed by commitment
//   - 'r/' for the relayer registry, keyed by relayer id
//
// Relayer health and stats are process local and never stored.
package storage

import (
	"errors"
	"fmt"

	"github.com/solshield/shieldcore/log"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

var (
	treePrefix          = []byte("t/")
	encryptedNotePrefix = []byte("e/")
	notePrefix          = []byte("n/")
	relayerPrefix       = []byte("r/")

	treeSnapshotKey = []byte("snapshot")
)

// ErrNotFound is returned when the requested artifact is not stored.
var ErrNotFound = errors.New("not found")

// Storage wraps the database with typed accessors.
type Storage struct {
	db db.Database
}

// New creates a new Storage instance.
func New(db db.Database) *Storage {
	return &Storage{db: db}
}

// Close closes the storage.
func (s *Storage) Close() {
	if err := s.db.Close(); err != nil {
		log.Warnw("failed to close storage", "error", err.Error())
	}
}

// getRaw reads key under prefix, translating missing keys to ErrNotFound.
func (s *Storage) getRaw(prefix, key []byte) ([]byte, error) {
	rTx := prefixeddb.NewPrefixedReader(s.db, prefix)
	data, err := rTx.Get(key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// setRaw writes key under prefix in its own transaction.
func (s *Storage) setRaw(prefix, key, value []byte) error {
	wTx := prefixeddb.NewPrefixedWriteTx(s.db.WriteTx(), prefix)
	defer wTx.Discard()
	if err := wTx.Set(key, value); err != nil {
		return err
	}
	return wTx.Commit()
}

// deleteRaw removes key under prefix.
func (s *Storage) deleteRaw(prefix, key []byte) error {
	if _, err := s.getRaw(prefix, key); err != nil {
		return err
	}
	wTx := prefixeddb.NewPrefixedWriteTx(s.db.WriteTx(), prefix)
	defer wTx.Discard()
	if err := wTx.Delete(key); err != nil {
		return err
	}
	return wTx.Commit()
}

// iterate calls fn with a copy of every key and value under prefix, in key
// order, until fn returns false.
func (s *Storage) iterate(prefix []byte, fn func(key, value []byte) bool) error {
	rTx := prefixeddb.NewPrefixedReader(s.db, prefix)
	return rTx.Iterate(nil, func(k, v []byte) bool {
		return fn(append([]byte{}, k...), append([]byte{}, v...))
	})
}

// getArtifact decodes the CBOR artifact stored under prefix and key.
func (s *Storage) getArtifact(prefix, key []byte, out any) error {
	data, err := s.getRaw(prefix, key)
	if err != nil {
		return err
	}
	if err := decodeArtifact(data, out); err != nil {
		return fmt.Errorf("could not decode artifact: %w", err)
	}
	return nil
}

// setArtifact stores artifact CBOR encoded under prefix and key.
func (s *Storage) setArtifact(prefix, key []byte, artifact any) error {
	data, err := encodeArtifact(artifact)
	if err != nil {
		return err
	}
	return s.setRaw(prefix, key, data)
}
