package note

import (
	"bytes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/solshield/shieldcore/crypto/field"
	"github.com/solshield/shieldcore/util"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	// NonceSize is the XChaCha20-Poly1305 nonce length.
	NonceSize = chacha20poly1305.NonceSizeX
	// PlaintextSize is the length of a serialized note: an 8 byte
	// little-endian amount followed by four 32 byte field elements.
	PlaintextSize = 8 + 4*field.Size
	// CiphertextSize is the sealed plaintext length, tag included.
	CiphertextSize = PlaintextSize + chacha20poly1305.Overhead

	ephemeralSize = 32
	lengthSize    = 4
)

// ErrDecryptionFailed is returned when an envelope does not open with the
// given viewing key, either because it belongs to someone else or because
// it was tampered with.
var ErrDecryptionFailed = errors.New("note decryption failed")

var encryptionKeyInfo = []byte("shield-note-encryption")

// EncryptedNote is the envelope published alongside a commitment so the
// recipient can recover the note.
type EncryptedNote struct {
	Ciphertext      []byte
	EphemeralPubkey [ephemeralSize]byte
	Commitment      [field.Size]byte
	Nonce           [NonceSize]byte
}

// Encrypt seals the note for the holder of viewingKey.
func Encrypt(n *Note, viewingKey [32]byte) (*EncryptedNote, error) {
	if err := n.Verify(); err != nil {
		return nil, err
	}
	ephemeralScalar := util.Random32()
	enc := &EncryptedNote{
		Commitment: field.ToBytes(n.Commitment),
	}
	copy(enc.EphemeralPubkey[:], crypto.Keccak256(ephemeralScalar[:]))
	copy(enc.Nonce[:], util.RandomBytes(NonceSize))

	aead, err := newCipher(enc.EphemeralPubkey, viewingKey)
	if err != nil {
		return nil, err
	}
	plaintext := marshalPlaintext(n)
	enc.Ciphertext = aead.Seal(nil, enc.Nonce[:], plaintext, enc.Commitment[:])
	return enc, nil
}

// Decrypt opens the envelope with viewingKey. Any failure, including a
// commitment that does not match the decrypted fields, is reported as
// ErrDecryptionFailed.
func Decrypt(enc *EncryptedNote, viewingKey [32]byte) (*Note, error) {
	if enc == nil || len(enc.Ciphertext) != CiphertextSize {
		return nil, ErrDecryptionFailed
	}
	aead, err := newCipher(enc.EphemeralPubkey, viewingKey)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, enc.Nonce[:], enc.Ciphertext, enc.Commitment[:])
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	n, err := unmarshalPlaintext(plaintext)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	cm := field.ToBytes(n.Commitment)
	if !bytes.Equal(cm[:], enc.Commitment[:]) || n.Verify() != nil {
		return nil, ErrDecryptionFailed
	}
	return n, nil
}

// Scan tries every envelope with viewingKey and returns the notes that
// open. Envelopes for other keys are skipped silently.
func Scan(encs []*EncryptedNote, viewingKey [32]byte) []*Note {
	var notes []*Note
	for _, enc := range encs {
		n, err := Decrypt(enc, viewingKey)
		if err != nil {
			continue
		}
		notes = append(notes, n)
	}
	return notes
}

// Bytes serializes the envelope as
// [u32 LE len][ciphertext][32 eph pubkey][32 commitment][nonce].
func (e *EncryptedNote) Bytes() []byte {
	buf := make([]byte, 0, lengthSize+len(e.Ciphertext)+ephemeralSize+field.Size+NonceSize)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(e.Ciphertext)))
	buf = append(buf, e.Ciphertext...)
	buf = append(buf, e.EphemeralPubkey[:]...)
	buf = append(buf, e.Commitment[:]...)
	buf = append(buf, e.Nonce[:]...)
	return buf
}

// EncryptedNoteFromBytes parses the output of Bytes.
func EncryptedNoteFromBytes(b []byte) (*EncryptedNote, error) {
	if len(b) < lengthSize {
		return nil, fmt.Errorf("encrypted note too short: %d bytes", len(b))
	}
	ctLen := int(binary.LittleEndian.Uint32(b))
	want := lengthSize + ctLen + ephemeralSize + field.Size + NonceSize
	if ctLen > len(b) || len(b) != want {
		return nil, fmt.Errorf("invalid encrypted note length %d, expected %d", len(b), want)
	}
	e := &EncryptedNote{}
	off := lengthSize
	e.Ciphertext = bytes.Clone(b[off : off+ctLen])
	off += ctLen
	off += copy(e.EphemeralPubkey[:], b[off:])
	off += copy(e.Commitment[:], b[off:])
	copy(e.Nonce[:], b[off:])
	return e, nil
}

func newCipher(ephemeralPubkey, viewingKey [32]byte) (cipher.AEAD, error) {
	secret := make([]byte, 0, 64)
	secret = append(secret, ephemeralPubkey[:]...)
	secret = append(secret, viewingKey[:]...)
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, encryptionKeyInfo), key); err != nil {
		return nil, fmt.Errorf("cannot derive note key: %w", err)
	}
	return chacha20poly1305.NewX(key)
}

func marshalPlaintext(n *Note) []byte {
	buf := make([]byte, 0, PlaintextSize)
	buf = binary.LittleEndian.AppendUint64(buf, n.Amount)
	for _, fe := range []*big.Int{n.OwnerPubkey, n.Randomness, n.TokenMint, n.Commitment} {
		b := field.ToBytes(fe)
		buf = append(buf, b[:]...)
	}
	return buf
}

func unmarshalPlaintext(b []byte) (*Note, error) {
	if len(b) != PlaintextSize {
		return nil, fmt.Errorf("invalid plaintext length %d", len(b))
	}
	n := &Note{Amount: binary.LittleEndian.Uint64(b[:8])}
	fields := make([]*big.Int, 4)
	for i := range fields {
		off := 8 + i*field.Size
		v, err := field.FromBytes(b[off : off+field.Size])
		if err != nil {
			return nil, err
		}
		fields[i] = v
	}
	n.OwnerPubkey, n.Randomness, n.TokenMint, n.Commitment = fields[0], fields[1], fields[2], fields[3]
	return n, nil
}
