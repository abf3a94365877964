// Package relayer is the client side of the relayer network: a registry of
// third party relayers, their cached health and stats, health aware
// selection and transaction submission with failover.
package relayer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/solshield/shieldcore/config"
	"github.com/solshield/shieldcore/log"
	"github.com/solshield/shieldcore/util"
)

var (
	// ErrNoAvailableRelayer is returned when no relayer passes the filters.
	ErrNoAvailableRelayer = errors.New("no available relayer")
	// ErrAllRelayersFailed is returned when every attempted relayer failed.
	ErrAllRelayersFailed = errors.New("all relayers failed")
	// ErrRelayerNotFound is returned for unknown relayer ids.
	ErrRelayerNotFound = errors.New("relayer not found")
)

// Config tunes a Network. Zero values are replaced by the defaults.
type Config struct {
	HealthTimeout        time.Duration
	SubmitTimeout        time.Duration
	MaxAttempts          int
	MaxConsecutiveErrors int
	PreferredRegion      string
	// HTTPClient is used for every request; timeouts are applied per
	// request through the context.
	HTTPClient *http.Client
}

func (c *Config) setDefaults() {
	if c.HealthTimeout <= 0 {
		c.HealthTimeout = config.DefaultHealthTimeout
	}
	if c.SubmitTimeout <= 0 {
		c.SubmitTimeout = config.DefaultSubmitTimeout
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = config.DefaultMaxSubmitAttempts
	}
	if c.MaxConsecutiveErrors <= 0 {
		c.MaxConsecutiveErrors = config.DefaultMaxConsecutiveErrors
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Transport: &http.Transport{
			IdleConnTimeout: c.SubmitTimeout,
		}}
	}
}

// relayerState is everything the network knows about one relayer.
type relayerState struct {
	info              *Info
	client            *client
	health            *Health
	stats             *Stats
	consecutiveErrors int
}

// Network is the caller owned registry of relayers. It is safe for
// concurrent use.
type Network struct {
	cfg Config

	mu       sync.RWMutex
	relayers map[string]*relayerState
	order    []string // registration order

	healthMu     sync.Mutex
	healthCancel context.CancelFunc
	healthWg     sync.WaitGroup
}

// New returns an empty relayer network.
func New(cfg Config) *Network {
	cfg.setDefaults()
	return &Network{
		cfg:      cfg,
		relayers: make(map[string]*relayerState),
	}
}

// AddRelayer registers a relayer, replacing any entry with the same id
// while keeping its position. An empty id gets a random one, which is
// returned.
func (n *Network) AddRelayer(info Info) (string, error) {
	info.URL = util.TrimSlash(info.URL)
	cli, err := newClient(n.cfg.HTTPClient, info.URL)
	if err != nil {
		return "", err
	}
	if info.ID == "" {
		info.ID = uuid.NewString()
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, exists := n.relayers[info.ID]; !exists {
		n.order = append(n.order, info.ID)
	}
	n.relayers[info.ID] = &relayerState{
		info:   &info,
		client: cli,
		stats:  &Stats{},
	}
	log.Infow("relayer added", "id", info.ID, "url", info.URL, "feeBps", info.FeeBps, "region", info.Region)
	return info.ID, nil
}

// RemoveRelayer unregisters a relayer and drops its cached health and
// stats.
func (n *Network) RemoveRelayer(id string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.relayers[id]; !ok {
		return ErrRelayerNotFound
	}
	delete(n.relayers, id)
	for i, rid := range n.order {
		if rid == id {
			n.order = append(n.order[:i], n.order[i+1:]...)
			break
		}
	}
	log.Infow("relayer removed", "id", id)
	return nil
}

// Relayers returns a copy of the registry in registration order.
func (n *Network) Relayers() []Info {
	n.mu.RLock()
	defer n.mu.RUnlock()
	list := make([]Info, 0, len(n.order))
	for _, id := range n.order {
		list = append(list, *n.relayers[id].info)
	}
	return list
}

// Relayer returns the registry entry of id.
func (n *Network) Relayer(id string) (Info, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	st, ok := n.relayers[id]
	if !ok {
		return Info{}, false
	}
	return *st.info, true
}

// Health returns the cached health of id, nil if it was never checked.
func (n *Network) Health(id string) *Health {
	n.mu.RLock()
	defer n.mu.RUnlock()
	st, ok := n.relayers[id]
	if !ok || st.health == nil {
		return nil
	}
	return st.health.clone()
}

// Stats returns the cumulative stats of id, nil if unknown.
func (n *Network) Stats(id string) *Stats {
	n.mu.RLock()
	defer n.mu.RUnlock()
	st, ok := n.relayers[id]
	if !ok {
		return nil
	}
	s := *st.stats
	return &s
}

// GetNetworkStatus counts every registered relayer. The latency and
// success rate means only cover relayers that have a health snapshot.
func (n *Network) GetNetworkStatus() NetworkStatus {
	n.mu.RLock()
	defer n.mu.RUnlock()
	var (
		status       NetworkStatus
		checked      int
		totalLatency time.Duration
		totalRate    float64
	)
	status.Total = len(n.order)
	for _, id := range n.order {
		h := n.relayers[id].health
		if h == nil {
			continue
		}
		checked++
		if h.Online {
			status.Online++
		}
		totalLatency += h.Latency
		totalRate += h.SuccessRate
	}
	if checked > 0 {
		status.AverageLatency = totalLatency / time.Duration(checked)
		status.SuccessRate = totalRate / float64(checked)
	}
	return status
}

// setHealth stores a health snapshot and updates the uptime ratio.
func (n *Network) setHealth(id string, h *Health) {
	n.mu.Lock()
	defer n.mu.Unlock()
	st, ok := n.relayers[id]
	if !ok {
		// removed while being checked
		return
	}
	st.health = h
	st.stats.checks++
	if h.Online {
		st.stats.onlineChecks++
		st.consecutiveErrors = 0
	}
	st.stats.Uptime = float64(st.stats.onlineChecks) / float64(st.stats.checks)
}

// recordSuccess accounts a relayed transaction.
func (n *Network) recordSuccess(id string, latency time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	st, ok := n.relayers[id]
	if !ok {
		return
	}
	s := st.stats
	s.TotalTransactions++
	// running mean over successful relays
	s.AverageLatency += (latency - s.AverageLatency) / time.Duration(s.TotalTransactions)
	st.consecutiveErrors = 0
}

// recordFailure accounts a failed submission and demotes the relayer to
// offline after too many consecutive failures.
func (n *Network) recordFailure(id string, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	st, ok := n.relayers[id]
	if !ok {
		return
	}
	st.stats.FailedAttempts++
	st.consecutiveErrors++
	if st.health != nil {
		st.health.RecentErrors = appendRecentError(st.health.RecentErrors, err.Error())
	}
	if st.consecutiveErrors >= n.cfg.MaxConsecutiveErrors && st.health != nil && st.health.Online {
		st.health.Online = false
		log.Warnw("relayer demoted to offline", "id", id, "consecutiveErrors", st.consecutiveErrors)
	}
}

const maxRecentErrors = 10

func appendRecentError(errs []string, msg string) []string {
	errs = append(errs, msg)
	if len(errs) > maxRecentErrors {
		errs = errs[len(errs)-maxRecentErrors:]
	}
	return errs
}

// snapshot is a consistent copy of a relayer used outside the lock.
type snapshot struct {
	info   Info
	client *client
	health *Health
}

// snapshots returns the relayers in registration order.
func (n *Network) snapshots() []snapshot {
	n.mu.RLock()
	defer n.mu.RUnlock()
	list := make([]snapshot, 0, len(n.order))
	for _, id := range n.order {
		st := n.relayers[id]
		s := snapshot{info: *st.info, client: st.client}
		if st.health != nil {
			s.health = st.health.clone()
		}
		list = append(list, s)
	}
	return list
}

func (n *Network) snapshotOf(id string) (snapshot, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	st, ok := n.relayers[id]
	if !ok {
		return snapshot{}, fmt.Errorf("%w: %s", ErrRelayerNotFound, id)
	}
	s := snapshot{info: *st.info, client: st.client}
	if st.health != nil {
		s.health = st.health.clone()
	}
	return s, nil
}
