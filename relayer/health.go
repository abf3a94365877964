package relayer

import (
	"context"
	"fmt"
	"time"

	"github.com/solshield/shieldcore/log"
	"golang.org/x/sync/errgroup"
)

// defaultSuccessRate is assumed when a relayer does not report one.
const defaultSuccessRate = 100

// CheckRelayerHealth queries {url}/health with the health timeout and
// returns the observed state. If the relayer is registered, the snapshot
// replaces its cached health.
func (n *Network) CheckRelayerHealth(ctx context.Context, info Info) *Health {
	cli, err := n.clientFor(info)
	if err != nil {
		h := &Health{RecentErrors: []string{err.Error()}, CheckedAt: time.Now()}
		n.setHealth(info.ID, h)
		return h
	}
	ctx, cancel := context.WithTimeout(ctx, n.cfg.HealthTimeout)
	defer cancel()

	start := time.Now()
	hr, err := cli.health(ctx)
	h := &Health{
		Latency:   time.Since(start),
		CheckedAt: time.Now(),
	}
	if err != nil {
		h.RecentErrors = []string{err.Error()}
		log.Debugw("relayer health check failed", "id", info.ID, "error", err.Error())
	} else {
		h.Online = true
		h.SuccessRate = defaultSuccessRate
		if hr.SuccessRate != nil {
			h.SuccessRate = *hr.SuccessRate
		}
		h.Balance = hr.Balance
		log.Debugw("relayer health checked", "id", info.ID, "latency", h.Latency.String(),
			"successRate", h.SuccessRate, "balance", h.Balance)
	}
	n.setHealth(info.ID, h)
	return h.clone()
}

// clientFor returns the registered client of the relayer, or a new one
// for unregistered entries.
func (n *Network) clientFor(info Info) (*client, error) {
	n.mu.RLock()
	st, ok := n.relayers[info.ID]
	n.mu.RUnlock()
	if ok && st.info.URL == info.URL {
		return st.client, nil
	}
	return newClient(n.cfg.HTTPClient, info.URL)
}

// CheckAllRelayers checks every registered relayer concurrently and waits
// for all of them. A failing relayer never affects the others.
func (n *Network) CheckAllRelayers(ctx context.Context) {
	var g errgroup.Group
	for _, s := range n.snapshots() {
		info := s.info
		g.Go(func() error {
			n.CheckRelayerHealth(ctx, info)
			return nil
		})
	}
	_ = g.Wait()
	status := n.GetNetworkStatus()
	log.Debugw("relayer network checked", "total", status.Total, "online", status.Online)
}

// StartHealthChecks checks all relayers now and then every interval until
// StopHealthChecks is called or ctx is done. Starting again restarts the
// loop. The interval must be positive.
func (n *Network) StartHealthChecks(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("invalid health check interval %s", interval)
	}
	n.StopHealthChecks()

	n.healthMu.Lock()
	defer n.healthMu.Unlock()
	ctx, cancel := context.WithCancel(ctx)
	n.healthCancel = cancel
	n.healthWg.Add(1)
	go func() {
		defer n.healthWg.Done()
		n.CheckAllRelayers(ctx)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n.CheckAllRelayers(ctx)
			}
		}
	}()
	log.Infow("relayer health checks started", "interval", interval.String())
	return nil
}

// StopHealthChecks stops the periodic checks and waits for the running
// round to finish.
func (n *Network) StopHealthChecks() {
	n.healthMu.Lock()
	cancel := n.healthCancel
	n.healthCancel = nil
	n.healthMu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	n.healthWg.Wait()
	log.Infow("relayer health checks stopped")
}
