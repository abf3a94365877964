// Package api serves the local HTTP interface used by the wallet UI to
// reach the shielded wallet and the relayer network.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/solshield/shieldcore/log"
	"github.com/solshield/shieldcore/relayer"
	stg "github.com/solshield/shieldcore/storage"
	"github.com/solshield/shieldcore/wallet"
)

// APIConfig type represents the configuration for the API HTTP server.
type APIConfig struct {
	Host    string
	Port    int
	Wallet  *wallet.Wallet
	Network *relayer.Network
	// Storage is optional. When set, relayer registry changes are persisted.
	Storage *stg.Storage
}

// API type represents the API HTTP server.
type API struct {
	router   *chi.Mux
	server   *http.Server
	listener net.Listener
	wallet   *wallet.Wallet
	network  *relayer.Network
	storage  *stg.Storage
}

// New creates a new API instance with the given configuration and starts
// serving it in the background.
func New(conf *APIConfig) (*API, error) {
	a, err := newAPI(conf)
	if err != nil {
		return nil, err
	}
	a.listener, err = net.Listen("tcp", fmt.Sprintf("%s:%d", conf.Host, conf.Port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s:%d: %w", conf.Host, conf.Port, err)
	}
	a.server = &http.Server{
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Infow("starting API server", "address", a.listener.Addr().String())
		if err := a.server.Serve(a.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorw(err, "API server stopped")
		}
	}()
	return a, nil
}

// newAPI builds the API and its router without serving it.
func newAPI(conf *APIConfig) (*API, error) {
	if conf == nil {
		return nil, fmt.Errorf("missing API configuration")
	}
	if conf.Wallet == nil {
		return nil, fmt.Errorf("missing wallet instance")
	}
	if conf.Network == nil {
		return nil, fmt.Errorf("missing relayer network instance")
	}
	a := &API{
		wallet:  conf.Wallet,
		network: conf.Network,
		storage: conf.Storage,
	}
	a.initRouter()
	return a, nil
}

// Router returns the chi router for testing purposes
func (a *API) Router() *chi.Mux {
	return a.router
}

// Addr returns the address the server listens on.
func (a *API) Addr() net.Addr {
	if a.listener == nil {
		return nil
	}
	return a.listener.Addr()
}

// Shutdown gracefully stops the HTTP server.
func (a *API) Shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}

// registerHandlers registers all the API handlers.
func (a *API) registerHandlers() {
	log.Infow("register handler", "endpoint", PingEndpoint, "method", "GET")
	a.router.Get(PingEndpoint, func(w http.ResponseWriter, r *http.Request) {
		httpWriteOK(w)
	})
	// wallet
	log.Infow("register handler", "endpoint", WalletEndpoint, "method", "GET")
	a.router.Get(WalletEndpoint, a.walletInfo)
	log.Infow("register handler", "endpoint", BalanceEndpoint, "method", "GET")
	a.router.Get(BalanceEndpoint, a.balance)
	log.Infow("register handler", "endpoint", NotesEndpoint, "method", "GET")
	a.router.Get(NotesEndpoint, a.notes)
	log.Infow("register handler", "endpoint", ShieldEndpoint, "method", "POST")
	a.router.Post(ShieldEndpoint, a.shield)
	log.Infow("register handler", "endpoint", ConfirmDepositEndpoint, "method", "POST")
	a.router.Post(ConfirmDepositEndpoint, a.confirmDeposit)
	log.Infow("register handler", "endpoint", ImportNoteEndpoint, "method", "POST")
	a.router.Post(ImportNoteEndpoint, a.importNote)
	log.Infow("register handler", "endpoint", ScanNotesEndpoint, "method", "POST")
	a.router.Post(ScanNotesEndpoint, a.scanNotes)
	log.Infow("register handler", "endpoint", TransferEndpoint, "method", "POST")
	a.router.Post(TransferEndpoint, a.transfer)
	log.Infow("register handler", "endpoint", TreeEndpoint, "method", "GET")
	a.router.Get(TreeEndpoint, a.tree)
	// relayers
	log.Infow("register handler", "endpoint", RelayersEndpoint, "method", "GET")
	a.router.Get(RelayersEndpoint, a.relayers)
	log.Infow("register handler", "endpoint", RelayersEndpoint, "method", "POST")
	a.router.Post(RelayersEndpoint, a.addRelayer)
	log.Infow("register handler", "endpoint", RelayersStatusEndpoint, "method", "GET")
	a.router.Get(RelayersStatusEndpoint, a.networkStatus)
	log.Infow("register handler", "endpoint", RelayersBestEndpoint, "method", "GET")
	a.router.Get(RelayersBestEndpoint, a.bestRelayer)
	log.Infow("register handler", "endpoint", RelayerEndpoint, "method", "GET")
	a.router.Get(RelayerEndpoint, a.relayer)
	log.Infow("register handler", "endpoint", RelayerEndpoint, "method", "DELETE")
	a.router.Delete(RelayerEndpoint, a.removeRelayer)
}

// initRouter creates the router with all the routes and middleware.
func (a *API) initRouter() {
	// Create the router with a basic middleware stack
	a.router = chi.NewRouter()
	a.router.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}).Handler)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Throttle(100))
	// proof generation can take minutes
	a.router.Use(middleware.Timeout(5 * time.Minute))

	// Register the API handlers
	a.registerHandlers()
}
