package note

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// NoteStringPrefix identifies serialized encrypted notes shared out of band.
const NoteStringPrefix = "shield-note:v1:"

// EncodeNoteString renders an encrypted note as a copyable string.
func EncodeNoteString(enc *EncryptedNote) string {
	return NoteStringPrefix + hex.EncodeToString(enc.Bytes())
}

// ParseNoteString decodes a string produced by EncodeNoteString.
func ParseNoteString(s string) (*EncryptedNote, error) {
	s = strings.TrimSpace(s)
	payload, ok := strings.CutPrefix(s, NoteStringPrefix)
	if !ok {
		return nil, fmt.Errorf("invalid note string prefix")
	}
	b, err := hex.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("invalid note string encoding: %w", err)
	}
	return EncryptedNoteFromBytes(b)
}
