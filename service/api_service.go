package service

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/solshield/shieldcore/api"
	"github.com/solshield/shieldcore/log"
	"github.com/solshield/shieldcore/relayer"
	"github.com/solshield/shieldcore/storage"
	"github.com/solshield/shieldcore/wallet"
)

// APIService represents a service that manages the HTTP API server.
type APIService struct {
	wallet  *wallet.Wallet
	network *relayer.Network
	storage *storage.Storage
	api     *api.API
	mu      sync.Mutex
	host    string
	port    int
}

// NewAPI creates a new APIService instance. Storage is optional.
func NewAPI(w *wallet.Wallet, network *relayer.Network, stg *storage.Storage, host string, port int) *APIService {
	return &APIService{
		wallet:  w,
		network: network,
		storage: stg,
		host:    host,
		port:    port,
	}
}

// Start begins the API server. It returns an error if the service
// is already running or if it fails to start.
func (as *APIService) Start(ctx context.Context) error {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.api != nil {
		return fmt.Errorf("service already running")
	}
	a, err := api.New(&api.APIConfig{
		Host:    as.host,
		Port:    as.port,
		Wallet:  as.wallet,
		Network: as.network,
		Storage: as.storage,
	})
	if err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}
	as.api = a
	return nil
}

// Stop halts the API server.
func (as *APIService) Stop() {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.api == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := as.api.Shutdown(ctx); err != nil {
		log.Warnw("API server shutdown failed", "error", err.Error())
	}
	as.api = nil
}

// HostPort returns the host and port of the API server. Once started, the
// port is the one actually bound.
func (as *APIService) HostPort() (string, int) {
	as.mu.Lock()
	defer as.mu.Unlock()
	if as.api != nil {
		if addr, ok := as.api.Addr().(*net.TCPAddr); ok {
			return as.host, addr.Port
		}
	}
	return as.host, as.port
}
