package note

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/solshield/shieldcore/util"
)

func TestEncryptDecrypt(t *testing.T) {
	c := qt.New(t)

	kp, err := GenerateSpendingKeyPair([]byte("alice"))
	c.Assert(err, qt.IsNil)
	n, err := New(1_000_000, kp.OwnerPubkey, testMint, nil)
	c.Assert(err, qt.IsNil)

	enc, err := Encrypt(n, kp.ViewingKey())
	c.Assert(err, qt.IsNil)
	c.Assert(enc.Ciphertext, qt.HasLen, CiphertextSize)

	dec, err := Decrypt(enc, kp.ViewingKey())
	c.Assert(err, qt.IsNil)
	c.Assert(dec.Amount, qt.Equals, n.Amount)
	c.Assert(dec.OwnerPubkey.Cmp(n.OwnerPubkey), qt.Equals, 0)
	c.Assert(dec.Randomness.Cmp(n.Randomness), qt.Equals, 0)
	c.Assert(dec.TokenMint.Cmp(n.TokenMint), qt.Equals, 0)
	c.Assert(dec.Commitment.Cmp(n.Commitment), qt.Equals, 0)

	// wrong viewing key
	_, err = Decrypt(enc, util.Random32())
	c.Assert(err, qt.ErrorIs, ErrDecryptionFailed)

	// tampered ciphertext
	tampered := *enc
	tampered.Ciphertext = append([]byte{}, enc.Ciphertext...)
	tampered.Ciphertext[0] ^= 0x01
	_, err = Decrypt(&tampered, kp.ViewingKey())
	c.Assert(err, qt.ErrorIs, ErrDecryptionFailed)

	// tampered associated commitment
	tampered = *enc
	tampered.Commitment[31] ^= 0x01
	_, err = Decrypt(&tampered, kp.ViewingKey())
	c.Assert(err, qt.ErrorIs, ErrDecryptionFailed)

	// truncated envelope
	tampered = *enc
	tampered.Ciphertext = enc.Ciphertext[:10]
	_, err = Decrypt(&tampered, kp.ViewingKey())
	c.Assert(err, qt.ErrorIs, ErrDecryptionFailed)
}

func TestScan(t *testing.T) {
	c := qt.New(t)

	alice, err := GenerateSpendingKeyPair([]byte("alice"))
	c.Assert(err, qt.IsNil)
	bob, err := GenerateSpendingKeyPair([]byte("bob"))
	c.Assert(err, qt.IsNil)

	var encs []*EncryptedNote
	for i, kp := range []*SpendingKeyPair{alice, bob, alice, bob, bob} {
		n, err := New(uint64(i+1), kp.OwnerPubkey, testMint, nil)
		c.Assert(err, qt.IsNil)
		enc, err := Encrypt(n, kp.ViewingKey())
		c.Assert(err, qt.IsNil)
		encs = append(encs, enc)
	}
	encs = append(encs, &EncryptedNote{Ciphertext: []byte("garbage")}, nil)

	notes := Scan(encs, alice.ViewingKey())
	c.Assert(notes, qt.HasLen, 2)
	c.Assert(notes[0].Amount, qt.Equals, uint64(1))
	c.Assert(notes[1].Amount, qt.Equals, uint64(3))

	c.Assert(Scan(encs, bob.ViewingKey()), qt.HasLen, 3)
	c.Assert(Scan(nil, bob.ViewingKey()), qt.HasLen, 0)
}

func TestEncryptedNoteBytes(t *testing.T) {
	c := qt.New(t)

	kp, err := GenerateSpendingKeyPair([]byte("carol"))
	c.Assert(err, qt.IsNil)
	n, err := New(77, kp.OwnerPubkey, testMint, nil)
	c.Assert(err, qt.IsNil)
	enc, err := Encrypt(n, kp.ViewingKey())
	c.Assert(err, qt.IsNil)

	b := enc.Bytes()
	c.Assert(b, qt.HasLen, 4+CiphertextSize+32+32+NonceSize)
	c.Assert(int(b[0])|int(b[1])<<8, qt.Equals, CiphertextSize)

	parsed, err := EncryptedNoteFromBytes(b)
	c.Assert(err, qt.IsNil)
	c.Assert(parsed, qt.DeepEquals, enc)

	_, err = EncryptedNoteFromBytes(b[:len(b)-1])
	c.Assert(err, qt.ErrorMatches, "invalid encrypted note length.*")
	_, err = EncryptedNoteFromBytes([]byte{1, 2})
	c.Assert(err, qt.ErrorMatches, "encrypted note too short.*")

	s := EncodeNoteString(enc)
	c.Assert(s[:len(NoteStringPrefix)], qt.Equals, NoteStringPrefix)
	fromString, err := ParseNoteString(" " + s + "\n")
	c.Assert(err, qt.IsNil)
	c.Assert(fromString, qt.DeepEquals, enc)

	dec, err := Decrypt(fromString, kp.ViewingKey())
	c.Assert(err, qt.IsNil)
	c.Assert(dec.Amount, qt.Equals, uint64(77))

	_, err = ParseNoteString("note:" + s)
	c.Assert(err, qt.ErrorMatches, "invalid note string prefix")
	_, err = ParseNoteString(NoteStringPrefix + "zz")
	c.Assert(err, qt.ErrorMatches, "invalid note string encoding.*")
}
