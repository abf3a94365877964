package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/solshield/shieldcore/crypto/field"
	"github.com/solshield/shieldcore/log"
	"github.com/solshield/shieldcore/merkle"
	"github.com/solshield/shieldcore/note"
	"github.com/solshield/shieldcore/types"
	"github.com/solshield/shieldcore/wallet"
)

// walletInfo returns the public wallet information
// GET /wallet
func (a *API) walletInfo(w http.ResponseWriter, r *http.Request) {
	snapshot := a.wallet.TreeSnapshot()
	httpWriteJSON(w, &WalletInfo{
		OwnerPubkey: types.NewInt(a.wallet.OwnerPubkey()),
		Root:        types.NewInt(a.wallet.Root()),
		Leaves:      len(snapshot.Leaves),
		Depth:       snapshot.Depth,
	})
}

// balance returns the spendable balance
// GET /wallet/balance?token=<mint>
func (a *API) balance(w http.ResponseWriter, r *http.Request) {
	token, err := tokenParam(r)
	if err != nil {
		ErrMalformedParam.WithErr(err).Write(w)
		return
	}
	res := &Balance{Balance: a.wallet.Balance(token)}
	if token != nil {
		res.Token = types.NewInt(token)
	}
	httpWriteJSON(w, res)
}

// notes lists the spendable notes
// GET /wallet/notes?token=<mint>
func (a *API) notes(w http.ResponseWriter, r *http.Request) {
	token, err := tokenParam(r)
	if err != nil {
		ErrMalformedParam.WithErr(err).Write(w)
		return
	}
	notes := a.wallet.SpendableNotes(token)
	if notes == nil {
		notes = []*note.Note{}
	}
	httpWriteJSON(w, &Notes{Notes: notes})
}

// shield creates a deposit note
// POST /wallet/shield
func (a *API) shield(w http.ResponseWriter, r *http.Request) {
	req := &ShieldRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if req.Amount == 0 || req.TokenMint == nil || !field.IsValid(req.TokenMint.MathBigInt()) {
		ErrInvalidShieldRequest.With("amount and token mint are required").Write(w)
		return
	}
	res, err := a.wallet.Shield(req.Amount, req.TokenMint.MathBigInt())
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, &ShieldResponse{Note: res.Note, NoteString: res.NoteString})
}

// confirmDeposit records the on-chain position of a deposit commitment
// POST /wallet/deposits/confirm
func (a *API) confirmDeposit(w http.ResponseWriter, r *http.Request) {
	req := &ConfirmDepositRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if req.Commitment == nil || req.LeafIndex == nil {
		ErrInvalidDeposit.With("commitment and leaf index are required").Write(w)
		return
	}
	n, err := a.wallet.ConfirmDeposit(req.Commitment.MathBigInt(), *req.LeafIndex)
	if err != nil {
		switch {
		case errors.Is(err, wallet.ErrCommitmentConflict):
			ErrCommitmentConflict.WithErr(err).Write(w)
		case errors.Is(err, merkle.ErrIndexOutOfRange), errors.Is(err, merkle.ErrInvalidLeaf):
			ErrInvalidDeposit.WithErr(err).Write(w)
		default:
			ErrGenericInternalServerError.WithErr(err).Write(w)
		}
		return
	}
	httpWriteJSON(w, &ConfirmDepositResponse{Note: n, Root: types.NewInt(a.wallet.Root())})
}

// importNote adopts a note string
// POST /wallet/notes/import
func (a *API) importNote(w http.ResponseWriter, r *http.Request) {
	req := &ImportNoteRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	n, err := a.wallet.ImportNote(req.NoteString)
	if err != nil {
		if errors.Is(err, wallet.ErrNoteNotOwned) {
			ErrNoteNotOwned.Write(w)
			return
		}
		ErrInvalidNote.WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, n)
}

// scanNotes scans note strings, or the stored encrypted notes
// POST /wallet/notes/scan
func (a *API) scanNotes(w http.ResponseWriter, r *http.Request) {
	req := &ScanNotesRequest{}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
			return
		}
	}
	var encs []*note.EncryptedNote
	for i, s := range req.NoteStrings {
		enc, err := note.ParseNoteString(s)
		if err != nil {
			ErrInvalidNote.Withf("note string %d: %v", i, err).Write(w)
			return
		}
		encs = append(encs, enc)
	}
	found, err := a.wallet.ScanNotes(encs)
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	if found == nil {
		found = []*note.Note{}
	}
	httpWriteJSON(w, &Notes{Notes: found})
}

// transfer proves and relays a private transfer
// POST /wallet/transfer
func (a *API) transfer(w http.ResponseWriter, r *http.Request) {
	req := &TransferRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if req.Recipient == nil || req.TokenMint == nil || req.Amount == 0 {
		ErrInvalidTransfer.With("recipient, token mint and amount are required").Write(w)
		return
	}
	wreq := &wallet.TransferRequest{
		Recipient: req.Recipient.MathBigInt(),
		Amount:    req.Amount,
		TokenMint: req.TokenMint.MathBigInt(),
		Token:     req.Token,
		RelayerID: req.RelayerID,
	}
	if len(req.RecipientViewingKey) > 0 {
		if len(req.RecipientViewingKey) != 32 {
			ErrInvalidTransfer.Withf("recipient viewing key must be 32 bytes, got %d", len(req.RecipientViewingKey)).Write(w)
			return
		}
		vk := [32]byte(req.RecipientViewingKey)
		wreq.RecipientViewingKey = &vk
	}
	res, err := a.wallet.Transfer(r.Context(), wreq)
	if err != nil && res == nil {
		transferError(err).Write(w)
		return
	}
	if err != nil {
		// relayed, only the local bookkeeping failed
		log.Errorw(err, "transfer relayed with local errors")
	}
	out := &TransferResponse{
		TxID:                res.Response.TxID,
		Signature:           res.Response.Signature,
		RelayerID:           res.Response.RelayerID,
		RecipientNote:       res.RecipientNote,
		ChangeNote:          res.ChangeNote,
		RecipientNoteString: res.RecipientNoteString,
		ProofTime:           res.ProofDuration.String(),
	}
	for _, nf := range res.Nullifiers {
		out.Nullifiers = append(out.Nullifiers, types.NewInt(nf))
	}
	httpWriteJSON(w, out)
}

// tree exports the commitment tree mirror
// GET /tree
func (a *API) tree(w http.ResponseWriter, r *http.Request) {
	httpWriteJSON(w, a.wallet.TreeSnapshot())
}
