package api

import (
	"github.com/solshield/shieldcore/note"
	"github.com/solshield/shieldcore/relayer"
	"github.com/solshield/shieldcore/types"
)

// WalletInfo is the public information of the wallet.
type WalletInfo struct {
	OwnerPubkey *types.BigInt `json:"ownerPubkey"`
	Root        *types.BigInt `json:"root"`
	Leaves      int           `json:"leaves"`
	Depth       int           `json:"depth"`
}

// Balance is the spendable balance of a token, or of every token when
// Token is not set.
type Balance struct {
	Token   *types.BigInt `json:"token,omitempty"`
	Balance uint64        `json:"balance"`
}

// Notes is a list of wallet notes.
type Notes struct {
	Notes []*note.Note `json:"notes"`
}

// ShieldRequest asks for a deposit note.
type ShieldRequest struct {
	Amount    uint64        `json:"amount"`
	TokenMint *types.BigInt `json:"tokenMint"`
}

// ShieldResponse carries the created note and its note string.
type ShieldResponse struct {
	Note       *note.Note `json:"note"`
	NoteString string     `json:"noteString"`
}

// ConfirmDepositRequest reports the leaf index a deposit commitment got
// on chain.
type ConfirmDepositRequest struct {
	Commitment *types.BigInt `json:"commitment"`
	LeafIndex  *uint64       `json:"leafIndex"`
}

// ConfirmDepositResponse carries the note made spendable, if the deposit
// belongs to the wallet, and the new tree root.
type ConfirmDepositResponse struct {
	Note *note.Note    `json:"note,omitempty"`
	Root *types.BigInt `json:"root"`
}

// ImportNoteRequest carries a note string received out of band.
type ImportNoteRequest struct {
	NoteString string `json:"noteString"`
}

// ScanNotesRequest lists note strings to scan. When empty, the encrypted
// notes already stored are scanned.
type ScanNotesRequest struct {
	NoteStrings []string `json:"noteStrings,omitempty"`
}

// TransferRequest asks for a private transfer.
type TransferRequest struct {
	Recipient           *types.BigInt  `json:"recipient"`
	Amount              uint64         `json:"amount"`
	TokenMint           *types.BigInt  `json:"tokenMint"`
	Token               string         `json:"token,omitempty"`
	RelayerID           string         `json:"relayerId,omitempty"`
	RecipientViewingKey types.HexBytes `json:"recipientViewingKey,omitempty"`
}

// TransferResponse is the outcome of a relayed transfer.
type TransferResponse struct {
	TxID                string          `json:"txId"`
	Signature           string          `json:"signature,omitempty"`
	RelayerID           string          `json:"relayerId"`
	Nullifiers          []*types.BigInt `json:"nullifiers"`
	RecipientNote       *note.Note      `json:"recipientNote"`
	ChangeNote          *note.Note      `json:"changeNote"`
	RecipientNoteString string          `json:"recipientNoteString,omitempty"`
	ProofTime           string          `json:"proofTime"`
}

// Relayer is a registry entry with its observed health and stats.
type Relayer struct {
	relayer.Info
	Health *relayer.Health `json:"health,omitempty"`
	Stats  *relayer.Stats  `json:"stats,omitempty"`
}

// Relayers is the relayer registry.
type Relayers struct {
	Relayers []*Relayer `json:"relayers"`
}

// NewRelayerResponse returns the id of a registered relayer.
type NewRelayerResponse struct {
	ID string `json:"id"`
}
