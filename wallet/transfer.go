package wallet

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/solshield/shieldcore/log"
	"github.com/solshield/shieldcore/note"
	"github.com/solshield/shieldcore/prover"
	"github.com/solshield/shieldcore/relayer"
	"github.com/solshield/shieldcore/types"
)

// TransferRequest describes a private transfer.
type TransferRequest struct {
	// Recipient is the owner pubkey the recipient note is created for.
	Recipient *big.Int
	Amount    uint64
	TokenMint *big.Int
	// Token is the token identifier relayers advertise support for.
	Token string
	// RelayerID forces the first relayer tried. Empty selects the best.
	RelayerID string
	// RecipientViewingKey, when set, is used to encrypt the recipient note
	// so it can be handed over as a note string.
	RecipientViewingKey *[32]byte
}

// TransferResult is the outcome of a relayed transfer.
type TransferResult struct {
	Response      *relayer.TransferResponse
	Nullifiers    [types.TransferInputs]*big.Int
	RecipientNote *note.Note
	ChangeNote    *note.Note
	// RecipientNoteString is only set when a recipient viewing key was
	// given or the wallet paid itself.
	RecipientNoteString string
	ProofDuration       time.Duration
}

// preparedTransfer holds everything computed before submission.
type preparedTransfer struct {
	inputs  []*note.Note
	outputs [types.TransferOutputs]*note.Note
	pub     *prover.TransferPublicInputs
	priv    *prover.TransferPrivateInputs
}

// Transfer spends wallet notes to pay req.Amount to req.Recipient. It
// selects up to two input notes, proves the transfer, optionally verifies
// the proof locally and submits it through the relayer network. Only when
// a relayer accepts the transaction are the output commitments inserted
// into the tree mirror and the spent notes dropped; any earlier failure
// leaves the wallet unchanged.
func (w *Wallet) Transfer(ctx context.Context, req *TransferRequest) (*TransferResult, error) {
	if w.prover == nil || w.network == nil {
		return nil, fmt.Errorf("wallet has no prover or relayer network")
	}
	if w.nullifier == nil {
		return nil, ErrNoNullifier
	}
	if req == nil || req.Recipient == nil || req.TokenMint == nil {
		return nil, fmt.Errorf("incomplete transfer request")
	}
	if req.Amount == 0 {
		return nil, fmt.Errorf("cannot transfer a zero amount")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	prep, err := w.prepareTransfer(req)
	if err != nil {
		return nil, err
	}
	inputs, err := prover.BuildCircuitInputs(prep.pub, prep.priv)
	if err != nil {
		return nil, err
	}
	res, err := prover.GenerateProof(ctx, w.prover, inputs, w.proofTimeout)
	if err != nil {
		return nil, err
	}
	// the relayer gets the signals the proof was built for
	if err := prep.pub.CheckSignals(res.Proof.PublicSignals); err != nil {
		return nil, err
	}
	signals := res.Proof.PublicSignals
	if w.vkLocation != "" {
		ok, err := prover.VerifyProofLocally(ctx, res.Proof, signals, w.vkLocation)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrInvalidProof
		}
	}
	proofBytes, err := prover.ProofToBytes(res.Proof)
	if err != nil {
		return nil, err
	}

	relayReq := &relayer.TransferRequest{
		Proof:        proofBytes.Bytes(),
		PublicInputs: signals,
		MerkleRoot:   prep.pub.MerkleRoot.String(),
		Token:        req.Token,
		Amount:       req.Amount,
	}
	for _, nf := range prep.pub.Nullifiers {
		relayReq.Nullifiers = append(relayReq.Nullifiers, nf.String())
	}
	for _, cm := range prep.pub.OutputCommitments {
		relayReq.OutputCommitments = append(relayReq.OutputCommitments, cm.String())
	}
	resp, err := w.network.SubmitTransaction(ctx, relayReq, req.RelayerID)
	if err != nil {
		return nil, err
	}

	result := &TransferResult{
		Response:      resp,
		Nullifiers:    prep.pub.Nullifiers,
		ProofDuration: res.Duration,
	}
	if err := w.commitTransfer(prep, req, result); err != nil {
		// the transaction is already relayed, so report it with the error
		return result, fmt.Errorf("transfer %s relayed but local state not persisted: %w", resp.TxID, err)
	}
	log.Infow("transfer relayed",
		"txId", resp.TxID,
		"relayer", resp.RelayerID,
		"amount", req.Amount,
		"inputs", len(prep.inputs),
		"proofTime", res.Duration.String())
	return result, nil
}

// prepareTransfer selects the input notes and builds the circuit inputs.
func (w *Wallet) prepareTransfer(req *TransferRequest) (*preparedTransfer, error) {
	selected, total, err := selectNotes(w.spendable(req.TokenMint), req.Amount)
	if err != nil {
		return nil, err
	}
	prep := &preparedTransfer{
		inputs: selected,
		pub: &prover.TransferPublicInputs{
			MerkleRoot:   w.tree.Root(),
			PublicAmount: big.NewInt(0),
			TokenMint:    new(big.Int).Set(req.TokenMint),
		},
		priv: &prover.TransferPrivateInputs{
			SpendingKey: w.keys.SpendingKey,
		},
	}

	for i := range types.TransferInputs {
		var (
			in   *note.Note
			path = w.tree.DummyProof()
		)
		if i < len(selected) {
			in = selected[i]
			if path, err = w.tree.GenerateProof(*in.LeafIndex); err != nil {
				return nil, fmt.Errorf("no merkle path for input %d: %w", i, err)
			}
		} else if in, err = note.New(0, w.keys.OwnerPubkey, req.TokenMint, nil); err != nil {
			return nil, err
		}
		nf, err := w.nullifier(in, w.keys.SpendingKey)
		if err != nil {
			return nil, fmt.Errorf("cannot derive nullifier %d: %w", i, err)
		}
		prep.pub.Nullifiers[i] = nf
		prep.priv.InputNotes[i] = prover.InputNote{
			Amount:      in.Amount,
			OwnerPubkey: in.OwnerPubkey,
			Randomness:  in.Randomness,
			Path:        path,
		}
	}

	amounts := [types.TransferOutputs]uint64{req.Amount, total - req.Amount}
	owners := [types.TransferOutputs]*big.Int{req.Recipient, w.keys.OwnerPubkey}
	for i := range types.TransferOutputs {
		out, err := note.New(amounts[i], owners[i], req.TokenMint, nil)
		if err != nil {
			return nil, err
		}
		prep.outputs[i] = out
		prep.pub.OutputCommitments[i] = out.Commitment
		prep.priv.OutputNotes[i] = prover.OutputNote{
			Amount:     out.Amount,
			Recipient:  out.OwnerPubkey,
			Randomness: out.Randomness,
		}
	}
	return prep, nil
}

// commitTransfer applies an accepted transfer to the tree mirror and the
// note set.
func (w *Wallet) commitTransfer(prep *preparedTransfer, req *TransferRequest, result *TransferResult) error {
	for _, out := range prep.outputs {
		index, err := w.tree.Insert(out.Commitment)
		if err != nil {
			return err
		}
		out.SetLeafIndex(index)
	}
	recipient, change := prep.outputs[0], prep.outputs[1]
	result.RecipientNote, result.ChangeNote = recipient.Clone(), change.Clone()

	var (
		keep []*note.Note
		encs []*note.EncryptedNote
	)
	toSelf := recipient.OwnerPubkey.Cmp(w.keys.OwnerPubkey) == 0
	if vk := req.RecipientViewingKey; vk != nil || toSelf {
		if vk == nil {
			vk = &w.viewingKey
		}
		enc, err := note.Encrypt(recipient, *vk)
		if err != nil {
			return err
		}
		result.RecipientNoteString = note.EncodeNoteString(enc)
		encs = append(encs, enc)
	}
	if toSelf {
		keep = append(keep, recipient)
	}
	if change.Amount > 0 {
		enc, err := note.Encrypt(change, w.viewingKey)
		if err != nil {
			return err
		}
		encs = append(encs, enc)
		keep = append(keep, change)
	}

	for _, in := range prep.inputs {
		delete(w.notes, in.Commitment.String())
	}
	for _, n := range keep {
		w.notes[n.Commitment.String()] = n
	}
	return w.persist(keep, encs, prep.inputs)
}

// selectNotes picks the smallest single note covering amount, or else the
// two largest notes. notes must be sorted largest first.
func selectNotes(notes []*note.Note, amount uint64) ([]*note.Note, uint64, error) {
	var best *note.Note
	for _, n := range notes {
		if n.Amount < amount {
			break
		}
		best = n
	}
	if best != nil {
		return []*note.Note{best}, best.Amount, nil
	}
	if len(notes) >= types.TransferInputs {
		total := notes[0].Amount + notes[1].Amount
		if total >= amount && total >= notes[0].Amount {
			return notes[:types.TransferInputs], total, nil
		}
	}
	return nil, 0, fmt.Errorf("%w: need %d", ErrInsufficientFunds, amount)
}
