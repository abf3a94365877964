package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/solshield/shieldcore/relayer"
)

// HealthMonitor represents a service that keeps the relayer health
// snapshots fresh.
type HealthMonitor struct {
	network  *relayer.Network
	interval time.Duration
	mu       sync.Mutex
	running  bool
}

// NewHealthMonitor creates a new HealthMonitor checking every interval.
func NewHealthMonitor(network *relayer.Network, interval time.Duration) *HealthMonitor {
	return &HealthMonitor{
		network:  network,
		interval: interval,
	}
}

// Start checks every relayer now and then periodically. It returns an
// error if the service is already running.
func (hm *HealthMonitor) Start(ctx context.Context) error {
	hm.mu.Lock()
	defer hm.mu.Unlock()

	if hm.running {
		return fmt.Errorf("service already running")
	}
	if err := hm.network.StartHealthChecks(ctx, hm.interval); err != nil {
		return err
	}
	hm.running = true
	return nil
}

// Stop halts the health checks.
func (hm *HealthMonitor) Stop() {
	hm.mu.Lock()
	defer hm.mu.Unlock()

	if hm.running {
		hm.network.StopHealthChecks()
		hm.running = false
	}
}
