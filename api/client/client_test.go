package client

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/go-chi/chi/v5"
	rstypes "github.com/iden3/go-rapidsnark/types"
	"github.com/solshield/shieldcore/api"
	"github.com/solshield/shieldcore/note"
	"github.com/solshield/shieldcore/prover"
	"github.com/solshield/shieldcore/relayer"
	"github.com/solshield/shieldcore/storage"
	"github.com/solshield/shieldcore/types"
	"github.com/solshield/shieldcore/wallet"
	"go.vocdoni.io/dvote/db/metadb"
)

var testMint = big.NewInt(0x5678)

// staticProver returns a fixed proof with the public signals the transfer
// circuit outputs for the inputs.
type staticProver struct{}

func (staticProver) Prove(_ context.Context, inputs []byte) (*prover.Proof, error) {
	var in struct {
		MerkleRoot        string   `json:"merkleRoot"`
		Nullifiers        []string `json:"nullifiers"`
		OutputCommitments []string `json:"outputCommitments"`
		PublicAmount      string   `json:"publicAmount"`
		TokenMint         string   `json:"tokenMint"`
	}
	if err := json.Unmarshal(inputs, &in); err != nil {
		return nil, err
	}
	signals := append([]string{in.MerkleRoot}, in.Nullifiers...)
	signals = append(signals, in.OutputCommitments...)
	return &prover.Proof{
		Data: &rstypes.ProofData{
			A:        []string{"1", "2", "1"},
			B:        [][]string{{"3", "4"}, {"5", "6"}, {"1", "0"}},
			C:        []string{"7", "8", "1"},
			Protocol: "groth16",
		},
		PublicSignals: append(signals, in.PublicAmount, in.TokenMint),
	}, nil
}

func newRelayerServer(t *testing.T) *httptest.Server {
	r := chi.NewRouter()
	r.Get(relayer.HealthEndpoint, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]float64{"successRate": 99, "balance": 5})
	})
	r.Post(relayer.RelayTransferEndpoint, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(&relayer.TransferResponse{Success: true, TxID: "tx-42", Signature: "sig"})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, c *qt.C) (*HTTPclient, *storage.Storage) {
	stg := storage.New(metadb.NewTest(t))
	kp, err := note.GenerateSpendingKeyPair([]byte("api test"))
	c.Assert(err, qt.IsNil)
	network := relayer.New(relayer.Config{HealthTimeout: time.Second, SubmitTimeout: time.Second})
	w, err := wallet.New(wallet.Config{
		Keys:      kp,
		Storage:   stg,
		Prover:    staticProver{},
		Network:   network,
		Nullifier: wallet.PoseidonNullifier,
		TreeDepth: 6,
	})
	c.Assert(err, qt.IsNil)

	a, err := api.New(&api.APIConfig{Host: "127.0.0.1", Port: 0, Wallet: w, Network: network, Storage: stg})
	c.Assert(err, qt.IsNil)
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })

	cli, err := New("http://" + a.Addr().String())
	c.Assert(err, qt.IsNil)
	return cli, stg
}

func TestWalletEndpoints(t *testing.T) {
	c := qt.New(t)
	cli, _ := newTestClient(t, c)
	ctx := context.Background()

	info, err := cli.WalletInfo(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(info.Depth, qt.Equals, 6)
	c.Assert(info.Leaves, qt.Equals, 0)

	shielded, err := cli.Shield(ctx, 1000, testMint)
	c.Assert(err, qt.IsNil)
	c.Assert(shielded.Note.Amount, qt.Equals, uint64(1000))
	c.Assert(shielded.Note.Spendable(), qt.IsFalse)
	_, err = cli.Shield(ctx, 0, testMint)
	apiErr := &Error{}
	c.Assert(errors.As(err, &apiErr), qt.IsTrue)
	c.Assert(apiErr.Code, qt.Equals, api.ErrInvalidShieldRequest.Code)

	// unconfirmed deposits are not part of the balance
	balance, err := cli.Balance(ctx, testMint)
	c.Assert(err, qt.IsNil)
	c.Assert(balance, qt.Equals, uint64(0))

	confirmed, err := cli.ConfirmDeposit(ctx, shielded.Note.Commitment, 0)
	c.Assert(err, qt.IsNil)
	c.Assert(*confirmed.Note.LeafIndex, qt.Equals, uint64(0))
	c.Assert(confirmed.Root.MathBigInt().Sign(), qt.Not(qt.Equals), 0)
	_, err = cli.ConfirmDeposit(ctx, big.NewInt(5), 0)
	c.Assert(errors.As(err, &apiErr), qt.IsTrue)
	c.Assert(apiErr.Code, qt.Equals, api.ErrCommitmentConflict.Code)
	_, err = cli.ConfirmDeposit(ctx, big.NewInt(5), 1<<6)
	c.Assert(errors.As(err, &apiErr), qt.IsTrue)
	c.Assert(apiErr.Code, qt.Equals, api.ErrInvalidDeposit.Code)

	balance, err = cli.Balance(ctx, testMint)
	c.Assert(err, qt.IsNil)
	c.Assert(balance, qt.Equals, uint64(1000))
	balance, err = cli.Balance(ctx, big.NewInt(1))
	c.Assert(err, qt.IsNil)
	c.Assert(balance, qt.Equals, uint64(0))

	notes, err := cli.Notes(ctx, nil)
	c.Assert(err, qt.IsNil)
	c.Assert(notes, qt.HasLen, 1)
	c.Assert(notes[0].Commitment.Cmp(shielded.Note.Commitment), qt.Equals, 0)

	imported, err := cli.ImportNote(ctx, shielded.NoteString)
	c.Assert(err, qt.IsNil)
	c.Assert(imported.Amount, qt.Equals, uint64(1000))
	_, err = cli.ImportNote(ctx, "shield-note:v1:zz")
	c.Assert(errors.As(err, &apiErr), qt.IsTrue)
	c.Assert(apiErr.Code, qt.Equals, api.ErrInvalidNote.Code)

	scanned, err := cli.ScanNotes(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(scanned, qt.HasLen, 0)

	tree, err := cli.Tree(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(tree.Leaves, qt.HasLen, 1)
	c.Assert(tree.Depth, qt.Equals, 6)
}

func TestTransferEndpoint(t *testing.T) {
	c := qt.New(t)
	cli, _ := newTestClient(t, c)
	ctx := context.Background()

	req := &api.TransferRequest{
		Recipient: types.NewInt(big.NewInt(777)),
		Amount:    300,
		TokenMint: types.NewInt(testMint),
	}
	// no relayer registered yet and no funds
	_, err := cli.Transfer(ctx, req)
	apiErr := &Error{}
	c.Assert(errors.As(err, &apiErr), qt.IsTrue)
	c.Assert(apiErr.Code, qt.Equals, api.ErrInsufficientFunds.Code)

	shielded, err := cli.Shield(ctx, 1000, testMint)
	c.Assert(err, qt.IsNil)
	_, err = cli.ConfirmDeposit(ctx, shielded.Note.Commitment, 0)
	c.Assert(err, qt.IsNil)
	_, err = cli.Transfer(ctx, req)
	c.Assert(errors.As(err, &apiErr), qt.IsTrue)
	c.Assert(apiErr.Code, qt.Equals, api.ErrNoAvailableRelayer.Code)

	srv := newRelayerServer(t)
	id, err := cli.AddRelayer(ctx, relayer.Info{URL: srv.URL, FeeBps: 5})
	c.Assert(err, qt.IsNil)
	c.Assert(id, qt.Not(qt.Equals), "")

	res, err := cli.Transfer(ctx, req)
	c.Assert(err, qt.IsNil)
	c.Assert(res.TxID, qt.Equals, "tx-42")
	c.Assert(res.RelayerID, qt.Equals, id)
	c.Assert(res.Nullifiers, qt.HasLen, 2)
	c.Assert(res.ChangeNote.Amount, qt.Equals, uint64(700))

	balance, err := cli.Balance(ctx, testMint)
	c.Assert(err, qt.IsNil)
	c.Assert(balance, qt.Equals, uint64(700))
}

func TestRelayerEndpoints(t *testing.T) {
	c := qt.New(t)
	cli, stg := newTestClient(t, c)
	ctx := context.Background()

	srv := newRelayerServer(t)
	id, err := cli.AddRelayer(ctx, relayer.Info{ID: "main", URL: srv.URL, SupportedTokens: []string{"USDC"}})
	c.Assert(err, qt.IsNil)
	c.Assert(id, qt.Equals, "main")
	_, err = cli.AddRelayer(ctx, relayer.Info{ID: "down", URL: "http://127.0.0.1:1"})
	c.Assert(err, qt.IsNil)

	list, err := cli.Relayers(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(list, qt.HasLen, 2)
	c.Assert(list[0].ID, qt.Equals, "main")
	c.Assert(list[0].Health.Online, qt.IsTrue)
	c.Assert(list[0].Health.SuccessRate, qt.Equals, float64(99))
	c.Assert(list[1].Health.Online, qt.IsFalse)

	stored, err := stg.Relayers()
	c.Assert(err, qt.IsNil)
	c.Assert(stored, qt.HasLen, 2)

	status, err := cli.NetworkStatus(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(status.Total, qt.Equals, 2)
	c.Assert(status.Online, qt.Equals, 1)

	best, err := cli.BestRelayer(ctx, "USDC", 10)
	c.Assert(err, qt.IsNil)
	c.Assert(best.ID, qt.Equals, "main")
	_, err = cli.BestRelayer(ctx, "BONK", 10)
	apiErr := &Error{}
	c.Assert(errors.As(err, &apiErr), qt.IsTrue)
	c.Assert(apiErr.Code, qt.Equals, api.ErrNoAvailableRelayer.Code)

	c.Assert(cli.RemoveRelayer(ctx, "down"), qt.IsNil)
	err = cli.RemoveRelayer(ctx, "down")
	c.Assert(errors.As(err, &apiErr), qt.IsTrue)
	c.Assert(apiErr.Status, qt.Equals, http.StatusNotFound)
	stored, err = stg.Relayers()
	c.Assert(err, qt.IsNil)
	c.Assert(stored, qt.HasLen, 1)
}
