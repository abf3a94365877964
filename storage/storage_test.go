package storage

import (
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/solshield/shieldcore/merkle"
	"github.com/solshield/shieldcore/note"
	"github.com/solshield/shieldcore/relayer"
	"go.vocdoni.io/dvote/db/metadb"
)

func testNote(c *qt.C, amount uint64) *note.Note {
	n, err := note.New(amount, big.NewInt(0x1234), big.NewInt(0x5678), nil)
	c.Assert(err, qt.IsNil)
	return n
}

func TestTreeSnapshot(t *testing.T) {
	c := qt.New(t)
	stg := New(metadb.NewTest(t))

	_, err := stg.TreeSnapshot()
	c.Assert(err, qt.Equals, ErrNotFound)

	tree, err := merkle.New(4)
	c.Assert(err, qt.IsNil)
	tree.Initialize()
	for i := int64(1); i <= 5; i++ {
		_, err := tree.Insert(big.NewInt(i * 100))
		c.Assert(err, qt.IsNil)
	}
	c.Assert(stg.SetTreeSnapshot(tree.Export()), qt.IsNil)

	snapshot, err := stg.TreeSnapshot()
	c.Assert(err, qt.IsNil)
	restored, err := merkle.FromSnapshot(snapshot)
	c.Assert(err, qt.IsNil)
	c.Assert(restored.Root().Cmp(tree.Root()), qt.Equals, 0)
	c.Assert(restored.NextIndex(), qt.Equals, uint64(5))
}

func TestEncryptedNotes(t *testing.T) {
	c := qt.New(t)
	stg := New(metadb.NewTest(t))

	kp, err := note.GenerateSpendingKeyPair([]byte("storage test"))
	c.Assert(err, qt.IsNil)
	vk := kp.ViewingKey()

	var want []*note.Note
	for _, amount := range []uint64{10, 20, 30} {
		n := testNote(c, amount)
		enc, err := note.Encrypt(n, vk)
		c.Assert(err, qt.IsNil)
		c.Assert(stg.PushEncryptedNote(enc), qt.IsNil)
		want = append(want, n)
	}

	encs, err := stg.EncryptedNotes()
	c.Assert(err, qt.IsNil)
	c.Assert(encs, qt.HasLen, 3)
	c.Assert(note.Scan(encs, vk), qt.HasLen, 3)

	enc, err := stg.EncryptedNote(want[1].Commitment)
	c.Assert(err, qt.IsNil)
	got, err := note.Decrypt(enc, vk)
	c.Assert(err, qt.IsNil)
	c.Assert(got.Amount, qt.Equals, uint64(20))

	_, err = stg.EncryptedNote(big.NewInt(1))
	c.Assert(err, qt.Equals, ErrNotFound)
}

func TestNotes(t *testing.T) {
	c := qt.New(t)
	stg := New(metadb.NewTest(t))

	n1, n2 := testNote(c, 5), testNote(c, 7)
	n2.SetLeafIndex(3)
	c.Assert(stg.SetNote(n1), qt.IsNil)
	c.Assert(stg.SetNote(n2), qt.IsNil)

	notes, err := stg.Notes()
	c.Assert(err, qt.IsNil)
	c.Assert(notes, qt.HasLen, 2)
	var total uint64
	for _, n := range notes {
		total += n.Amount
		if n.Amount == 7 {
			c.Assert(n.Spendable(), qt.IsTrue)
			c.Assert(*n.LeafIndex, qt.Equals, uint64(3))
		}
	}
	c.Assert(total, qt.Equals, uint64(12))

	// overwriting keeps a single entry per commitment
	n1.SetLeafIndex(1)
	c.Assert(stg.SetNote(n1), qt.IsNil)
	notes, err = stg.Notes()
	c.Assert(err, qt.IsNil)
	c.Assert(notes, qt.HasLen, 2)

	c.Assert(stg.DeleteNote(n1.Commitment), qt.IsNil)
	c.Assert(stg.DeleteNote(n1.Commitment), qt.Equals, ErrNotFound)
	notes, err = stg.Notes()
	c.Assert(err, qt.IsNil)
	c.Assert(notes, qt.HasLen, 1)
	c.Assert(notes[0].Commitment.Cmp(n2.Commitment), qt.Equals, 0)
}

func TestRelayers(t *testing.T) {
	c := qt.New(t)
	stg := New(metadb.NewTest(t))

	c.Assert(stg.SetRelayer(relayer.Info{URL: "http://x"}), qt.ErrorMatches, "relayer without id")

	// ids sort in the opposite order of registration
	for _, id := range []string{"zulu", "mike", "alpha"} {
		c.Assert(stg.SetRelayer(relayer.Info{
			ID:              id,
			URL:             "https://" + id + ".example.com",
			FeeBps:          10,
			SupportedTokens: []string{"USDC"},
		}), qt.IsNil)
	}
	// update keeps the position
	c.Assert(stg.SetRelayer(relayer.Info{ID: "zulu", URL: "https://zulu.example.com", FeeBps: 99}), qt.IsNil)

	list, err := stg.Relayers()
	c.Assert(err, qt.IsNil)
	c.Assert(list, qt.HasLen, 3)
	c.Assert([]string{list[0].ID, list[1].ID, list[2].ID}, qt.DeepEquals, []string{"zulu", "mike", "alpha"})
	c.Assert(list[0].FeeBps, qt.Equals, uint32(99))
	c.Assert(list[1].SupportedTokens, qt.DeepEquals, []string{"USDC"})

	c.Assert(stg.DeleteRelayer("mike"), qt.IsNil)
	c.Assert(stg.DeleteRelayer("mike"), qt.Equals, ErrNotFound)
	c.Assert(stg.SetRelayer(relayer.Info{ID: "bravo", URL: "https://bravo.example.com"}), qt.IsNil)
	list, err = stg.Relayers()
	c.Assert(err, qt.IsNil)
	c.Assert([]string{list[0].ID, list[1].ID, list[2].ID}, qt.DeepEquals, []string{"zulu", "alpha", "bravo"})
}

func TestRelayersKeepRegistrationOrder(t *testing.T) {
	c := qt.New(t)
	stg := New(metadb.NewTest(t))

	// key order interleaves with registration order
	ids := []string{"m", "c", "x", "a", "q", "f", "z", "b", "k", "e", "y", "d"}
	for _, id := range ids {
		c.Assert(stg.SetRelayer(relayer.Info{ID: id, URL: "https://" + id + ".example.com"}), qt.IsNil)
	}
	list, err := stg.Relayers()
	c.Assert(err, qt.IsNil)
	got := make([]string, 0, len(list))
	for _, info := range list {
		got = append(got, info.ID)
	}
	c.Assert(got, qt.DeepEquals, ids)
}
