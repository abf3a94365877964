package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	gnarklogger "github.com/consensys/gnark/logger"
	"github.com/solshield/shieldcore/circuits"
	"github.com/solshield/shieldcore/config"
	"github.com/solshield/shieldcore/log"
	"github.com/solshield/shieldcore/note"
	"github.com/solshield/shieldcore/prover"
	"github.com/solshield/shieldcore/relayer"
	"github.com/solshield/shieldcore/service"
	"github.com/solshield/shieldcore/storage"
	"github.com/solshield/shieldcore/util"
	"github.com/solshield/shieldcore/wallet"
	"github.com/vocdoni/arbo/memdb"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/metadb"
)

const (
	envPrefix      = "SHIELD_"
	seedFileName   = "seed"
	seedSize       = 32
	artifactsLimit = 30 * time.Minute
)

func main() {
	cfg := config.Default()
	var relayers []string
	var seed string

	flag.StringVar(&cfg.LogLevel, "loglevel", cfg.LogLevel, "log level (debug, info, warn, error, fatal)")
	flag.StringVar(&cfg.LogOutput, "logoutput", cfg.LogOutput, "log output (stdout, stderr or a file path)")
	flag.StringVar(&cfg.DataDir, "datadir", cfg.DataDir, "data directory, empty keeps the state in memory")
	flag.StringVar(&seed, "seed", "", "hex encoded spending key seed, read or created in the data directory if empty")
	flag.StringVar(&cfg.APIHost, "api-host", cfg.APIHost, "API listen host")
	flag.IntVar(&cfg.APIPort, "api-port", cfg.APIPort, "API listen port")
	flag.IntVar(&cfg.TreeDepth, "tree-depth", cfg.TreeDepth, "depth of the commitment tree")
	flag.StringVar(&cfg.Circuit.WASM.Location, "circuit-wasm", "", "transfer witness calculator (path or URL)")
	flag.StringVar(&cfg.Circuit.WASM.Hash, "circuit-wasm-hash", "", "sha256 of the witness calculator")
	flag.StringVar(&cfg.Circuit.ProvingKey.Location, "circuit-zkey", "", "transfer proving key (path or URL)")
	flag.StringVar(&cfg.Circuit.ProvingKey.Hash, "circuit-zkey-hash", "", "sha256 of the proving key")
	flag.StringVar(&cfg.Circuit.VerifyingKey.Location, "circuit-vkey", "", "transfer verifying key (path or URL)")
	flag.StringVar(&cfg.Circuit.VerifyingKey.Hash, "circuit-vkey-hash", "", "sha256 of the verifying key")
	flag.StringVar(&cfg.Nullifier, "nullifier", "", "nullifier scheme constrained by the transfer circuit ("+
		strings.Join(wallet.NullifierSchemes(), ", ")+")")
	flag.BoolVar(&cfg.VerifyLocally, "verify-locally", cfg.VerifyLocally, "verify proofs before submitting them")
	flag.DurationVar(&cfg.ProofTimeout, "proof-timeout", cfg.ProofTimeout, "proof generation timeout")
	flag.DurationVar(&cfg.HealthInterval, "health-interval", cfg.HealthInterval, "relayer health check interval")
	flag.DurationVar(&cfg.HealthTimeout, "health-timeout", cfg.HealthTimeout, "relayer health check timeout")
	flag.DurationVar(&cfg.SubmitTimeout, "submit-timeout", cfg.SubmitTimeout, "relayer submission timeout")
	flag.IntVar(&cfg.MaxSubmitAttempts, "max-submit-attempts", cfg.MaxSubmitAttempts, "relayers tried per transfer")
	flag.IntVar(&cfg.MaxConsecutiveErrors, "max-consecutive-errors", cfg.MaxConsecutiveErrors,
		"failed submissions before a relayer is marked offline")
	flag.StringVar(&cfg.PreferredRegion, "region", cfg.PreferredRegion, "preferred relayer region")
	flag.StringArrayVar(&relayers, "relayer", nil, "relayer as id=url[,fee=bps][,region=name], can be repeated")
	flag.Parse()
	if err := applyEnv(flag.CommandLine); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log.Init(cfg.LogLevel, cfg.LogOutput, nil)
	gnarklogger.Set(*log.Logger())

	for _, r := range relayers {
		rc, err := config.ParseRelayer(r)
		if err != nil {
			log.Fatal(err)
		}
		cfg.Relayers = append(cfg.Relayers, rc)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := run(ctx, cfg, seed); err != nil {
		log.Fatal(err)
	}
}

// applyEnv sets every flag not given on the command line from its SHIELD_*
// environment variable, e.g. --api-port from SHIELD_API_PORT.
func applyEnv(fs *flag.FlagSet) error {
	var errs []error
	fs.VisitAll(func(f *flag.Flag) {
		if f.Changed {
			return
		}
		name := envPrefix + strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
		v, ok := os.LookupEnv(name)
		if !ok {
			return
		}
		if err := fs.Set(f.Name, v); err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", name, err))
		}
	})
	return errors.Join(errs...)
}

func run(ctx context.Context, cfg *config.Config, seed string) error {
	database, err := openDatabase(cfg.DataDir)
	if err != nil {
		return err
	}
	stg := storage.New(database)
	defer stg.Close()

	keys, err := loadKeys(cfg.DataDir, seed)
	if err != nil {
		return err
	}

	network := relayer.New(relayer.Config{
		HealthTimeout:        cfg.HealthTimeout,
		SubmitTimeout:        cfg.SubmitTimeout,
		MaxAttempts:          cfg.MaxSubmitAttempts,
		MaxConsecutiveErrors: cfg.MaxConsecutiveErrors,
		PreferredRegion:      cfg.PreferredRegion,
	})
	if err := service.RegisterRelayers(network, stg, cfg.Relayers); err != nil {
		return err
	}

	wcfg := wallet.Config{
		Keys:         keys,
		Storage:      stg,
		Network:      network,
		TreeDepth:    cfg.TreeDepth,
		ProofTimeout: cfg.ProofTimeout,
	}
	if cfg.Circuit.Configured() {
		artifacts, err := circuits.TransferArtifacts(cfg.Circuit)
		if err != nil {
			return err
		}
		if err := service.DownloadArtifacts(artifactsLimit, artifacts); err != nil {
			return fmt.Errorf("could not load circuit artifacts: %w", err)
		}
		if wcfg.Prover, err = prover.NewCircomProverFromArtifacts(ctx, artifacts); err != nil {
			return err
		}
		if cfg.VerifyLocally {
			wcfg.VerifyingKey = cfg.Circuit.VerifyingKey.Location
		}
	} else {
		log.Warn("no transfer circuit configured, transfers are disabled")
	}
	if wcfg.Nullifier, err = nullifierFunc(cfg.Nullifier); err != nil {
		return err
	}
	if wcfg.Nullifier == nil {
		log.Warn("no nullifier scheme configured, transfers are disabled")
	}
	w, err := wallet.New(wcfg)
	if err != nil {
		return err
	}
	log.Infow("wallet ready",
		"ownerPubkey", w.OwnerPubkey().String(),
		"root", w.Root().String(),
		"relayers", len(network.Relayers()))

	monitor := service.NewHealthMonitor(network, cfg.HealthInterval)
	if err := monitor.Start(ctx); err != nil {
		return err
	}
	defer monitor.Stop()

	apiService := service.NewAPI(w, network, stg, cfg.APIHost, cfg.APIPort)
	if err := apiService.Start(ctx); err != nil {
		return err
	}
	defer apiService.Stop()

	<-ctx.Done()
	log.Info("shutting down")
	return nil
}

func openDatabase(dataDir string) (db.Database, error) {
	if dataDir == "" {
		log.Warn("no data directory, state is kept in memory")
		return memdb.New(), nil
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create data directory: %w", err)
	}
	return metadb.New(db.TypePebble, filepath.Join(dataDir, "db"))
}

// loadKeys derives the spending key pair from seed or, if empty, from the
// seed file of the data directory, creating it on first run.
func loadKeys(dataDir, seed string) (*note.SpendingKeyPair, error) {
	var raw []byte
	switch {
	case seed != "":
		var err error
		if raw, err = hex.DecodeString(util.TrimHex(seed)); err != nil {
			return nil, fmt.Errorf("invalid seed: %w", err)
		}
	case dataDir == "":
		log.Warn("no seed and no data directory, using an ephemeral wallet")
		raw = util.RandomBytes(seedSize)
	default:
		path := filepath.Join(dataDir, seedFileName)
		content, err := os.ReadFile(path)
		switch {
		case err == nil:
			if raw, err = hex.DecodeString(strings.TrimSpace(string(content))); err != nil {
				return nil, fmt.Errorf("invalid seed file %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
			raw = util.RandomBytes(seedSize)
			if err := os.WriteFile(path, []byte(hex.EncodeToString(raw)), 0o600); err != nil {
				return nil, fmt.Errorf("could not write seed file: %w", err)
			}
			log.Infow("new wallet seed created", "path", path)
		default:
			return nil, err
		}
	}
	return note.GenerateSpendingKeyPair(raw)
}

// nullifierFunc resolves the configured nullifier scheme, nil if unset.
func nullifierFunc(name string) (wallet.NullifierFunc, error) {
	if name == "" {
		return nil, nil
	}
	return wallet.NullifierScheme(name)
}
