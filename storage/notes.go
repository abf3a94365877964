package storage

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/solshield/shieldcore/crypto/field"
	"github.com/solshield/shieldcore/note"
)

func commitmentKey(cm *big.Int) []byte {
	k := field.ToBytes(cm)
	return k[:]
}

// PushEncryptedNote stores an encrypted note under its commitment.
func (s *Storage) PushEncryptedNote(enc *note.EncryptedNote) error {
	if enc == nil {
		return fmt.Errorf("nil encrypted note")
	}
	return s.setRaw(encryptedNotePrefix, enc.Commitment[:], enc.Bytes())
}

// EncryptedNote returns the encrypted note with the given commitment.
func (s *Storage) EncryptedNote(commitment *big.Int) (*note.EncryptedNote, error) {
	data, err := s.getRaw(encryptedNotePrefix, commitmentKey(commitment))
	if err != nil {
		return nil, err
	}
	return note.EncryptedNoteFromBytes(data)
}

// EncryptedNotes returns every stored encrypted note. Entries that cannot
// be parsed are reported as an error.
func (s *Storage) EncryptedNotes() ([]*note.EncryptedNote, error) {
	var (
		notes  []*note.EncryptedNote
		decErr error
	)
	if err := s.iterate(encryptedNotePrefix, func(k, v []byte) bool {
		enc, err := note.EncryptedNoteFromBytes(v)
		if err != nil {
			decErr = fmt.Errorf("invalid encrypted note %x: %w", k, err)
			return false
		}
		notes = append(notes, enc)
		return true
	}); err != nil {
		return nil, err
	}
	return notes, decErr
}

// SetNote stores a decrypted wallet note under its commitment.
func (s *Storage) SetNote(n *note.Note) error {
	if n == nil || n.Commitment == nil {
		return fmt.Errorf("nil note")
	}
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return s.setRaw(notePrefix, commitmentKey(n.Commitment), data)
}

// DeleteNote removes a wallet note, typically once it has been spent.
func (s *Storage) DeleteNote(commitment *big.Int) error {
	return s.deleteRaw(notePrefix, commitmentKey(commitment))
}

// Notes returns every stored wallet note.
func (s *Storage) Notes() ([]*note.Note, error) {
	var (
		notes  []*note.Note
		decErr error
	)
	if err := s.iterate(notePrefix, func(k, v []byte) bool {
		n := &note.Note{}
		if err := json.Unmarshal(v, n); err != nil {
			decErr = fmt.Errorf("invalid note %x: %w", k, err)
			return false
		}
		notes = append(notes, n)
		return true
	}); err != nil {
		return nil, err
	}
	return notes, decErr
}
