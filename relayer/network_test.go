package relayer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/go-chi/chi/v5"
)

// fakeRelayer emulates the relayer HTTP API.
type fakeRelayer struct {
	srv         *httptest.Server
	down        atomic.Bool
	reject      atomic.Bool
	okStatus    atomic.Int32
	relays      atomic.Int32
	successRate float64
	balance     float64
	lastRequest atomic.Pointer[TransferRequest]
}

func newFakeRelayer(t *testing.T, successRate, balance float64) *fakeRelayer {
	f := &fakeRelayer{successRate: successRate, balance: balance}
	r := chi.NewRouter()
	r.Get(HealthEndpoint, func(w http.ResponseWriter, _ *http.Request) {
		if f.down.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		if status := int(f.okStatus.Load()); status == http.StatusNoContent {
			w.WriteHeader(status)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]float64{
			"successRate": f.successRate,
			"balance":     f.balance,
		})
	})
	r.Post(RelayTransferEndpoint, func(w http.ResponseWriter, r *http.Request) {
		f.relays.Add(1)
		req := &TransferRequest{}
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.lastRequest.Store(req)
		if f.reject.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(&TransferResponse{Error: "simulation failed"})
			return
		}
		if status := int(f.okStatus.Load()); status != 0 {
			w.WriteHeader(status)
		}
		_ = json.NewEncoder(w).Encode(&TransferResponse{Success: true, TxID: "tx-" + f.srv.URL, Signature: "sig"})
	})
	f.srv = httptest.NewServer(r)
	t.Cleanup(f.srv.Close)
	return f
}

func testNetwork(cfg Config) *Network {
	if cfg.HealthTimeout == 0 {
		cfg.HealthTimeout = time.Second
	}
	if cfg.SubmitTimeout == 0 {
		cfg.SubmitTimeout = time.Second
	}
	return New(cfg)
}

func onlineHealth(latency time.Duration, successRate, balance float64) *Health {
	return &Health{Online: true, Latency: latency, SuccessRate: successRate, Balance: balance, CheckedAt: time.Now()}
}

func TestAddRemoveRelayer(t *testing.T) {
	c := qt.New(t)
	n := testNetwork(Config{})

	for _, id := range []string{"a", "b", "c"} {
		_, err := n.AddRelayer(Info{ID: id, URL: "http://" + id + ".example.com/"})
		c.Assert(err, qt.IsNil)
	}
	// replacing keeps the position
	_, err := n.AddRelayer(Info{ID: "a", URL: "http://a2.example.com", FeeBps: 9})
	c.Assert(err, qt.IsNil)
	list := n.Relayers()
	c.Assert(list, qt.HasLen, 3)
	c.Assert(list[0].ID, qt.Equals, "a")
	c.Assert(list[0].FeeBps, qt.Equals, uint32(9))
	c.Assert(list[1].URL, qt.Equals, "http://b.example.com")

	id, err := n.AddRelayer(Info{URL: "https://anon.example.com"})
	c.Assert(err, qt.IsNil)
	c.Assert(id, qt.Not(qt.Equals), "")
	_, ok := n.Relayer(id)
	c.Assert(ok, qt.IsTrue)

	_, err = n.AddRelayer(Info{ID: "bad", URL: "ftp://x"})
	c.Assert(err, qt.ErrorMatches, ".*unsupported scheme")

	n.setHealth("b", onlineHealth(10*time.Millisecond, 100, 2))
	c.Assert(n.Health("b"), qt.Not(qt.IsNil))
	c.Assert(n.RemoveRelayer("b"), qt.IsNil)
	c.Assert(n.Health("b"), qt.IsNil)
	c.Assert(n.Stats("b"), qt.IsNil)
	c.Assert(n.Relayers(), qt.HasLen, 3)
	c.Assert(n.RemoveRelayer("b"), qt.ErrorIs, ErrRelayerNotFound)

	// re-adding starts from a clean cache
	_, err = n.AddRelayer(Info{ID: "b", URL: "http://b.example.com"})
	c.Assert(err, qt.IsNil)
	c.Assert(n.Health("b"), qt.IsNil)
	c.Assert(n.Relayers()[3].ID, qt.Equals, "b")
}

func TestCheckRelayerHealth(t *testing.T) {
	c := qt.New(t)
	n := testNetwork(Config{})

	up := newFakeRelayer(t, 97.5, 3)
	_, err := n.AddRelayer(Info{ID: "up", URL: up.srv.URL})
	c.Assert(err, qt.IsNil)
	h := n.CheckRelayerHealth(context.Background(), Info{ID: "up", URL: up.srv.URL})
	c.Assert(h.Online, qt.IsTrue)
	c.Assert(h.SuccessRate, qt.Equals, 97.5)
	c.Assert(h.Balance, qt.Equals, 3.0)
	c.Assert(h.RecentErrors, qt.HasLen, 0)
	c.Assert(n.Health("up").Online, qt.IsTrue)

	// a failing check overwrites the snapshot
	up.down.Store(true)
	h = n.CheckRelayerHealth(context.Background(), Info{ID: "up", URL: up.srv.URL})
	c.Assert(h.Online, qt.IsFalse)
	c.Assert(h.SuccessRate, qt.Equals, 0.0)
	c.Assert(h.RecentErrors, qt.DeepEquals, []string{"health check returned http status 503"})
	c.Assert(n.Health("up").Online, qt.IsFalse)
	c.Assert(n.Stats("up").Uptime, qt.Equals, 0.5)

	// unreachable relayer
	gone := newFakeRelayer(t, 100, 0)
	gone.srv.Close()
	h = n.CheckRelayerHealth(context.Background(), Info{ID: "gone", URL: gone.srv.URL})
	c.Assert(h.Online, qt.IsFalse)
	c.Assert(h.RecentErrors, qt.HasLen, 1)
	// unregistered relayers are not cached
	c.Assert(n.Health("gone"), qt.IsNil)
}

func TestCheckAllRelayers(t *testing.T) {
	c := qt.New(t)
	n := testNetwork(Config{})

	a := newFakeRelayer(t, 100, 2)
	b := newFakeRelayer(t, 100, 2)
	b.down.Store(true)
	d := newFakeRelayer(t, 90, 0)
	for id, f := range map[string]*fakeRelayer{"a": a, "b": b, "d": d} {
		_, err := n.AddRelayer(Info{ID: id, URL: f.srv.URL})
		c.Assert(err, qt.IsNil)
	}
	n.CheckAllRelayers(context.Background())
	c.Assert(n.Health("a").Online, qt.IsTrue)
	c.Assert(n.Health("b").Online, qt.IsFalse)
	c.Assert(n.Health("d").Online, qt.IsTrue)

	status := n.GetNetworkStatus()
	c.Assert(status.Total, qt.Equals, 3)
	c.Assert(status.Online, qt.Equals, 2)
	c.Assert(status.SuccessRate, qt.Equals, (100.0+0+90)/3)
}

func TestNetworkStatusMeansOnlyCoverChecked(t *testing.T) {
	c := qt.New(t)
	n := testNetwork(Config{})
	for _, id := range []string{"a", "b", "c"} {
		_, err := n.AddRelayer(Info{ID: id, URL: "http://" + id + ".example.com"})
		c.Assert(err, qt.IsNil)
	}
	c.Assert(n.GetNetworkStatus(), qt.Equals, NetworkStatus{Total: 3})

	n.setHealth("a", onlineHealth(100*time.Millisecond, 80, 0))
	n.setHealth("c", &Health{Latency: 300 * time.Millisecond})
	status := n.GetNetworkStatus()
	c.Assert(status.Total, qt.Equals, 3)
	c.Assert(status.Online, qt.Equals, 1)
	c.Assert(status.AverageLatency, qt.Equals, 200*time.Millisecond)
	c.Assert(status.SuccessRate, qt.Equals, 40.0)
}

func TestStartStopHealthChecks(t *testing.T) {
	c := qt.New(t)
	n := testNetwork(Config{})
	f := newFakeRelayer(t, 100, 5)
	_, err := n.AddRelayer(Info{ID: "f", URL: f.srv.URL})
	c.Assert(err, qt.IsNil)

	c.Assert(n.StartHealthChecks(context.Background(), 0), qt.ErrorMatches, "invalid health check interval.*")
	c.Assert(n.StartHealthChecks(context.Background(), -time.Second), qt.IsNotNil)
	c.Assert(n.StartHealthChecks(context.Background(), 20*time.Millisecond), qt.IsNil)
	deadline := time.Now().Add(5 * time.Second)
	for n.Stats("f").Uptime == 0 || n.statsChecks("f") < 3 {
		if time.Now().After(deadline) {
			c.Fatal("health checks did not run")
		}
		time.Sleep(10 * time.Millisecond)
	}
	n.StopHealthChecks()
	checks := n.statsChecks("f")
	time.Sleep(100 * time.Millisecond)
	c.Assert(n.statsChecks("f"), qt.Equals, checks)
	// stopping twice is a no-op
	n.StopHealthChecks()
}

func (n *Network) statsChecks(id string) uint64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.relayers[id].stats.checks
}
