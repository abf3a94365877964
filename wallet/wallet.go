// Package wallet ties notes, the local commitment tree mirror, the proof
// pipeline and the relayer network into the operations offered to the
// wallet UI: shielding, scanning, importing and private transfers.
package wallet

import (
	"errors"
	"fmt"
	"math/big"
	"slices"
	"sync"
	"time"

	"github.com/solshield/shieldcore/config"
	"github.com/solshield/shieldcore/log"
	"github.com/solshield/shieldcore/merkle"
	"github.com/solshield/shieldcore/note"
	"github.com/solshield/shieldcore/prover"
	"github.com/solshield/shieldcore/relayer"
	"github.com/solshield/shieldcore/storage"
	"github.com/solshield/shieldcore/types"
)

var (
	// ErrInsufficientFunds is returned when the spendable notes of a token
	// cannot cover a transfer.
	ErrInsufficientFunds = errors.New("insufficient shielded funds")
	// ErrInvalidProof is returned when local verification rejects a proof.
	ErrInvalidProof = errors.New("generated proof does not verify")
	// ErrNoteNotOwned is returned when importing a note that does not
	// decrypt with the wallet viewing key.
	ErrNoteNotOwned = errors.New("note is not owned by this wallet")
	// ErrCommitmentConflict is returned when confirming a commitment at a
	// tree position that already holds a different one.
	ErrCommitmentConflict = errors.New("tree position holds another commitment")
)

// Config holds the collaborators of a Wallet. Storage, Prover, Network and
// Nullifier are optional: without Storage the state only lives in memory,
// without any of the others transfers are rejected.
type Config struct {
	Keys      *note.SpendingKeyPair
	Storage   *storage.Storage
	Prover    prover.Prover
	Network   *relayer.Network
	Nullifier NullifierFunc

	TreeDepth    int
	ProofTimeout time.Duration
	// VerifyingKey is the location of the verifying key used to check
	// proofs before submitting them. Empty disables the check.
	VerifyingKey string
}

// Wallet is the shielded wallet state. It is safe for concurrent use, and
// serializes every operation that mutates the tree or the note set.
type Wallet struct {
	mu sync.Mutex

	keys       *note.SpendingKeyPair
	viewingKey [32]byte
	stg        *storage.Storage
	prover     prover.Prover
	network    *relayer.Network
	nullifier  NullifierFunc

	proofTimeout time.Duration
	vkLocation   string

	tree *merkle.Tree
	// notes are the unspent notes owned by the wallet, by commitment
	notes map[string]*note.Note
}

// New creates a wallet, restoring the tree and notes from storage when
// present.
func New(cfg Config) (*Wallet, error) {
	if cfg.Keys == nil {
		return nil, fmt.Errorf("wallet requires a spending key pair")
	}
	if cfg.TreeDepth == 0 {
		cfg.TreeDepth = types.DefaultTreeDepth
	}
	if cfg.ProofTimeout == 0 {
		cfg.ProofTimeout = config.DefaultProofTimeout
	}
	w := &Wallet{
		keys:         cfg.Keys,
		viewingKey:   cfg.Keys.ViewingKey(),
		stg:          cfg.Storage,
		prover:       cfg.Prover,
		network:      cfg.Network,
		nullifier:    cfg.Nullifier,
		proofTimeout: cfg.ProofTimeout,
		vkLocation:   cfg.VerifyingKey,
		notes:        make(map[string]*note.Note),
	}
	if err := w.load(cfg.TreeDepth); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Wallet) load(depth int) error {
	if w.stg != nil {
		snapshot, err := w.stg.TreeSnapshot()
		switch {
		case err == nil:
			if w.tree, err = merkle.FromSnapshot(snapshot); err != nil {
				return fmt.Errorf("could not restore commitment tree: %w", err)
			}
		case errors.Is(err, storage.ErrNotFound):
		default:
			return err
		}
	}
	if w.tree == nil {
		tree, err := merkle.New(depth)
		if err != nil {
			return err
		}
		tree.Initialize()
		w.tree = tree
	}
	if w.stg == nil {
		return nil
	}
	notes, err := w.stg.Notes()
	if err != nil {
		return fmt.Errorf("could not load notes: %w", err)
	}
	for _, n := range notes {
		w.notes[n.Commitment.String()] = n
	}
	log.Infow("wallet loaded", "notes", len(notes), "leaves", w.tree.Size(), "depth", w.tree.Depth())
	return nil
}

// OwnerPubkey returns the public value that receives notes for this wallet.
func (w *Wallet) OwnerPubkey() *big.Int {
	return new(big.Int).Set(w.keys.OwnerPubkey)
}

// ViewingKey returns the key used to decrypt notes sent to this wallet.
func (w *Wallet) ViewingKey() [32]byte {
	return w.viewingKey
}

// Root returns the current root of the local tree mirror.
func (w *Wallet) Root() *big.Int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tree.Root()
}

// TreeSnapshot exports the local tree mirror.
func (w *Wallet) TreeSnapshot() *merkle.Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tree.Export()
}

// ShieldResult is the outcome of a deposit.
type ShieldResult struct {
	Note       *note.Note
	Encrypted  *note.EncryptedNote
	NoteString string
}

// Shield creates a note of amount tokens owned by the wallet and stores it
// with its envelope. The tree mirror is not touched: the note stays
// unspendable until ConfirmDeposit reports the position its commitment got
// on chain. On error the wallet is left unchanged.
func (w *Wallet) Shield(amount uint64, tokenMint *big.Int) (*ShieldResult, error) {
	if amount == 0 {
		return nil, fmt.Errorf("cannot shield a zero amount")
	}
	n, err := note.New(amount, w.keys.OwnerPubkey, tokenMint, nil)
	if err != nil {
		return nil, err
	}
	enc, err := note.Encrypt(n, w.viewingKey)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.persist([]*note.Note{n}, []*note.EncryptedNote{enc}, nil); err != nil {
		return nil, err
	}
	w.notes[n.Commitment.String()] = n
	log.Infow("deposit note created", "amount", amount, "commitment", n.Commitment.String())
	return &ShieldResult{
		Note:       n.Clone(),
		Encrypted:  enc,
		NoteString: note.EncodeNoteString(enc),
	}, nil
}

// ConfirmDeposit replays the on-chain insertion of commitment at index into
// the tree mirror. If the commitment belongs to a wallet note, the note
// becomes spendable and a copy is returned; otherwise the returned note is
// nil. Confirming the same commitment at the same index again is a no-op.
func (w *Wallet) ConfirmDeposit(commitment *big.Int, index uint64) (*note.Note, error) {
	if commitment == nil {
		return nil, fmt.Errorf("missing commitment")
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	n, owned := w.notes[commitment.String()]
	if leaf, ok := w.tree.Leaf(index); ok {
		if leaf.Cmp(commitment) != 0 {
			return nil, fmt.Errorf("%w: index %d", ErrCommitmentConflict, index)
		}
		if !owned {
			return nil, nil
		}
		if n.Spendable() && *n.LeafIndex == index {
			return n.Clone(), nil
		}
	}

	restore := w.tree.Export()
	if err := w.tree.InsertAt(index, commitment); err != nil {
		return nil, err
	}
	var updated []*note.Note
	if owned {
		n = n.Clone()
		n.SetLeafIndex(index)
		updated = append(updated, n)
	}
	if err := w.persist(updated, nil, nil); err != nil {
		if ierr := w.tree.Import(restore); ierr != nil {
			log.Errorw(ierr, "could not roll back commitment tree")
		}
		return nil, err
	}
	log.Infow("deposit confirmed", "leafIndex", index, "owned", owned, "commitment", commitment.String())
	if !owned {
		return nil, nil
	}
	w.notes[commitment.String()] = n
	return n.Clone(), nil
}

// ScanNotes decrypts encs with the wallet viewing key and adopts the notes
// that open and are not known yet. If encs is nil the stored encrypted
// notes are scanned. Notes whose commitment is not in the tree mirror are
// adopted without a leaf index and are not spendable until it is known.
func (w *Wallet) ScanNotes(encs []*note.EncryptedNote) ([]*note.Note, error) {
	if encs == nil && w.stg != nil {
		var err error
		if encs, err = w.stg.EncryptedNotes(); err != nil {
			return nil, err
		}
	}
	found := note.Scan(encs, w.viewingKey)

	w.mu.Lock()
	defer w.mu.Unlock()
	var adopted []*note.Note
	for _, n := range found {
		if _, ok := w.notes[n.Commitment.String()]; ok {
			continue
		}
		w.locate(n)
		adopted = append(adopted, n)
	}
	if len(adopted) == 0 {
		return nil, nil
	}
	if err := w.persist(adopted, nil, nil); err != nil {
		return nil, err
	}
	for _, n := range adopted {
		w.notes[n.Commitment.String()] = n
	}
	log.Debugw("notes scanned", "envelopes", len(encs), "adopted", len(adopted))
	return cloneNotes(adopted), nil
}

// ImportNote adopts a note received out of band as a note string.
func (w *Wallet) ImportNote(noteString string) (*note.Note, error) {
	enc, err := note.ParseNoteString(noteString)
	if err != nil {
		return nil, err
	}
	n, err := note.Decrypt(enc, w.viewingKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoteNotOwned, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if known, ok := w.notes[n.Commitment.String()]; ok {
		return known.Clone(), nil
	}
	w.locate(n)
	if err := w.persist([]*note.Note{n}, []*note.EncryptedNote{enc}, nil); err != nil {
		return nil, err
	}
	w.notes[n.Commitment.String()] = n
	log.Infow("note imported", "amount", n.Amount, "spendable", n.Spendable())
	return n.Clone(), nil
}

// SpendableNotes returns the notes of tokenMint with a known tree position,
// largest first. A nil tokenMint returns every spendable note.
func (w *Wallet) SpendableNotes(tokenMint *big.Int) []*note.Note {
	w.mu.Lock()
	defer w.mu.Unlock()
	return cloneNotes(w.spendable(tokenMint))
}

// Balance returns the total spendable amount of tokenMint.
func (w *Wallet) Balance(tokenMint *big.Int) uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	var total uint64
	for _, n := range w.spendable(tokenMint) {
		total += n.Amount
	}
	return total
}

func (w *Wallet) spendable(tokenMint *big.Int) []*note.Note {
	var list []*note.Note
	for _, n := range w.notes {
		if !n.Spendable() {
			continue
		}
		if tokenMint != nil && n.TokenMint.Cmp(tokenMint) != 0 {
			continue
		}
		list = append(list, n)
	}
	slices.SortFunc(list, func(a, b *note.Note) int {
		if a.Amount != b.Amount {
			if a.Amount > b.Amount {
				return -1
			}
			return 1
		}
		return a.Commitment.Cmp(b.Commitment)
	})
	return list
}

// locate sets the leaf index of n if its commitment is in the tree.
func (w *Wallet) locate(n *note.Note) {
	if n.Spendable() {
		return
	}
	if index, err := w.tree.IndexOf(n.Commitment); err == nil {
		n.SetLeafIndex(index)
	}
}

// persist stores notes, encrypted envelopes and the tree snapshot, and
// removes the spent notes. It is a no-op without storage.
func (w *Wallet) persist(notes []*note.Note, encs []*note.EncryptedNote, spent []*note.Note) error {
	if w.stg == nil {
		return nil
	}
	for _, enc := range encs {
		if err := w.stg.PushEncryptedNote(enc); err != nil {
			return fmt.Errorf("could not store encrypted note: %w", err)
		}
	}
	for _, n := range notes {
		if err := w.stg.SetNote(n); err != nil {
			return fmt.Errorf("could not store note: %w", err)
		}
	}
	for _, n := range spent {
		if err := w.stg.DeleteNote(n.Commitment); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("could not delete spent note: %w", err)
		}
	}
	if err := w.stg.SetTreeSnapshot(w.tree.Export()); err != nil {
		return fmt.Errorf("could not store tree snapshot: %w", err)
	}
	return nil
}

func cloneNotes(notes []*note.Note) []*note.Note {
	out := make([]*note.Note, len(notes))
	for i, n := range notes {
		out[i] = n.Clone()
	}
	return out
}
