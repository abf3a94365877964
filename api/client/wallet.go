package client

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strconv"

	"github.com/solshield/shieldcore/api"
	"github.com/solshield/shieldcore/merkle"
	"github.com/solshield/shieldcore/note"
	"github.com/solshield/shieldcore/relayer"
	"github.com/solshield/shieldcore/types"
)

// Error is an error response of the API.
type Error struct {
	Status  int
	Code    int    `json:"code"`
	Message string `json:"error"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %d (code %d: %s)", errCodeNot200, e.Status, e.Code, e.Message)
}

// call performs the request and decodes the response into out, which may
// be nil. Non 200 answers are returned as *Error.
func (c *HTTPclient) call(ctx context.Context, method string, body, out any, params []string, urlPath ...string) error {
	data, status, err := c.Request(ctx, method, body, params, urlPath...)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		apiErr := &Error{Status: status}
		if err := json.Unmarshal(data, apiErr); err != nil {
			apiErr.Message = string(data)
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("could not decode response: %w", err)
	}
	return nil
}

func tokenParams(token *big.Int) []string {
	if token == nil {
		return nil
	}
	return []string{api.TokenQueryParam, token.String()}
}

// WalletInfo returns the public wallet information.
func (c *HTTPclient) WalletInfo(ctx context.Context) (*api.WalletInfo, error) {
	info := &api.WalletInfo{}
	return info, c.call(ctx, HTTPGET, nil, info, nil, api.WalletEndpoint)
}

// Balance returns the spendable balance of token, or of every token if nil.
func (c *HTTPclient) Balance(ctx context.Context, token *big.Int) (uint64, error) {
	res := &api.Balance{}
	if err := c.call(ctx, HTTPGET, nil, res, tokenParams(token), api.BalanceEndpoint); err != nil {
		return 0, err
	}
	return res.Balance, nil
}

// Notes returns the spendable notes of token, or of every token if nil.
func (c *HTTPclient) Notes(ctx context.Context, token *big.Int) ([]*note.Note, error) {
	res := &api.Notes{}
	if err := c.call(ctx, HTTPGET, nil, res, tokenParams(token), api.NotesEndpoint); err != nil {
		return nil, err
	}
	return res.Notes, nil
}

// Shield creates a deposit note.
func (c *HTTPclient) Shield(ctx context.Context, amount uint64, tokenMint *big.Int) (*api.ShieldResponse, error) {
	res := &api.ShieldResponse{}
	req := &api.ShieldRequest{Amount: amount, TokenMint: types.NewInt(tokenMint)}
	return res, c.call(ctx, HTTPPOST, req, res, nil, api.ShieldEndpoint)
}

// ConfirmDeposit reports the leaf index a deposit commitment got on chain.
func (c *HTTPclient) ConfirmDeposit(ctx context.Context, commitment *big.Int, leafIndex uint64) (*api.ConfirmDepositResponse, error) {
	req := &api.ConfirmDepositRequest{Commitment: types.NewInt(commitment), LeafIndex: &leafIndex}
	res := &api.ConfirmDepositResponse{}
	return res, c.call(ctx, HTTPPOST, req, res, nil, api.ConfirmDepositEndpoint)
}

// ImportNote adopts a note string.
func (c *HTTPclient) ImportNote(ctx context.Context, noteString string) (*note.Note, error) {
	n := &note.Note{}
	req := &api.ImportNoteRequest{NoteString: noteString}
	return n, c.call(ctx, HTTPPOST, req, n, nil, api.ImportNoteEndpoint)
}

// ScanNotes scans the note strings, or the stored encrypted notes if none
// is given, and returns the newly adopted notes.
func (c *HTTPclient) ScanNotes(ctx context.Context, noteStrings ...string) ([]*note.Note, error) {
	res := &api.Notes{}
	req := &api.ScanNotesRequest{NoteStrings: noteStrings}
	if err := c.call(ctx, HTTPPOST, req, res, nil, api.ScanNotesEndpoint); err != nil {
		return nil, err
	}
	return res.Notes, nil
}

// Transfer proves and relays a private transfer. Proof generation is slow,
// so callers usually raise the client timeout first with SetTimeout.
func (c *HTTPclient) Transfer(ctx context.Context, req *api.TransferRequest) (*api.TransferResponse, error) {
	res := &api.TransferResponse{}
	return res, c.call(ctx, HTTPPOST, req, res, nil, api.TransferEndpoint)
}

// Tree exports the commitment tree mirror.
func (c *HTTPclient) Tree(ctx context.Context) (*merkle.Snapshot, error) {
	snapshot := &merkle.Snapshot{}
	return snapshot, c.call(ctx, HTTPGET, nil, snapshot, nil, api.TreeEndpoint)
}

// Relayers returns the relayer registry with health and stats.
func (c *HTTPclient) Relayers(ctx context.Context) ([]*api.Relayer, error) {
	res := &api.Relayers{}
	if err := c.call(ctx, HTTPGET, nil, res, nil, api.RelayersEndpoint); err != nil {
		return nil, err
	}
	return res.Relayers, nil
}

// AddRelayer registers a relayer and returns its id.
func (c *HTTPclient) AddRelayer(ctx context.Context, info relayer.Info) (string, error) {
	res := &api.NewRelayerResponse{}
	if err := c.call(ctx, HTTPPOST, info, res, nil, api.RelayersEndpoint); err != nil {
		return "", err
	}
	return res.ID, nil
}

// RemoveRelayer drops a relayer from the registry.
func (c *HTTPclient) RemoveRelayer(ctx context.Context, id string) error {
	return c.call(ctx, HTTPDELETE, nil, nil, nil, api.RelayersEndpoint, id)
}

// NetworkStatus returns the aggregated relayer network status.
func (c *HTTPclient) NetworkStatus(ctx context.Context) (*relayer.NetworkStatus, error) {
	status := &relayer.NetworkStatus{}
	return status, c.call(ctx, HTTPGET, nil, status, nil, api.RelayersStatusEndpoint)
}

// BestRelayer returns the best relayer accepting token and amount.
func (c *HTTPclient) BestRelayer(ctx context.Context, token string, amount uint64) (*api.Relayer, error) {
	res := &api.Relayer{}
	params := []string{api.AmountQueryParam, strconv.FormatUint(amount, 10)}
	if token != "" {
		params = append(params, api.TokenQueryParam, token)
	}
	return res, c.call(ctx, HTTPGET, nil, res, params, api.RelayersBestEndpoint)
}
