// Package config holds the configuration of the shielded wallet core and
// its daemon, with the default values used when a setting is not given.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/solshield/shieldcore/types"
)

const (
	// DefaultAPIHost and DefaultAPIPort are where the local API listens.
	DefaultAPIHost = "127.0.0.1"
	DefaultAPIPort = 9095

	// DefaultProofTimeout bounds a single Groth16 proof generation.
	DefaultProofTimeout = 120 * time.Second
	// DefaultHealthInterval is the period of relayer health checks.
	DefaultHealthInterval = 30 * time.Second
	// DefaultHealthTimeout bounds a single relayer health request.
	DefaultHealthTimeout = 5 * time.Second
	// DefaultSubmitTimeout bounds a single relayer submission.
	DefaultSubmitTimeout = 60 * time.Second
	// DefaultMaxSubmitAttempts caps how many relayers a submission tries: the
	// best candidate plus one fallback.
	DefaultMaxSubmitAttempts = 2
	// DefaultMaxConsecutiveErrors demotes a relayer to offline between
	// health checks.
	DefaultMaxConsecutiveErrors = 3
)

// ArtifactLocation points to a circuit artifact. Location is a local file
// path or an http(s) URL; Hash is the optional hex encoded sha256.
type ArtifactLocation struct {
	Location string
	Hash     string
}

// IsRemote reports whether the artifact has to be downloaded.
func (a ArtifactLocation) IsRemote() bool {
	return strings.HasPrefix(a.Location, "http://") || strings.HasPrefix(a.Location, "https://")
}

// CircuitConfig locates the compiled transfer circuit.
type CircuitConfig struct {
	WASM         ArtifactLocation
	ProvingKey   ArtifactLocation
	VerifyingKey ArtifactLocation
}

// Configured reports whether the files needed for proving are set.
func (c CircuitConfig) Configured() bool {
	return c.WASM.Location != "" && c.ProvingKey.Location != ""
}

// RelayerConfig is a statically configured relayer.
type RelayerConfig struct {
	ID     string
	URL    string
	FeeBps uint32
	Region string
}

// Config is the full configuration of the daemon.
type Config struct {
	LogLevel  string
	LogOutput string
	DataDir   string

	APIHost string
	APIPort int

	TreeDepth int
	Circuit   CircuitConfig
	// VerifyLocally checks every generated proof against the verifying key
	// before it is submitted.
	VerifyLocally bool
	ProofTimeout  time.Duration
	// Nullifier names the nullifier derivation matching the circuit. Empty
	// leaves transfers disabled.
	Nullifier string

	HealthInterval       time.Duration
	HealthTimeout        time.Duration
	SubmitTimeout        time.Duration
	MaxSubmitAttempts    int
	MaxConsecutiveErrors int
	PreferredRegion      string
	Relayers             []RelayerConfig
}

// Default returns the configuration with every default value set.
func Default() *Config {
	return &Config{
		LogLevel:             "info",
		LogOutput:            "stdout",
		DataDir:              ".shieldcore",
		APIHost:              DefaultAPIHost,
		APIPort:              DefaultAPIPort,
		TreeDepth:            types.DefaultTreeDepth,
		ProofTimeout:         DefaultProofTimeout,
		HealthInterval:       DefaultHealthInterval,
		HealthTimeout:        DefaultHealthTimeout,
		SubmitTimeout:        DefaultSubmitTimeout,
		MaxSubmitAttempts:    DefaultMaxSubmitAttempts,
		MaxConsecutiveErrors: DefaultMaxConsecutiveErrors,
	}
}

// Validate checks the values that would make the daemon misbehave.
func (c *Config) Validate() error {
	if c.TreeDepth < 1 || c.TreeDepth > types.MaxTreeDepth {
		return fmt.Errorf("tree depth must be in [1, %d]", types.MaxTreeDepth)
	}
	if c.APIPort <= 0 || c.APIPort > 65535 {
		return fmt.Errorf("invalid api port %d", c.APIPort)
	}
	if c.MaxSubmitAttempts < 1 {
		return fmt.Errorf("max submit attempts must be at least 1")
	}
	if c.ProofTimeout <= 0 || c.HealthTimeout <= 0 || c.SubmitTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if c.HealthInterval <= 0 {
		return fmt.Errorf("health interval must be positive")
	}
	if c.VerifyLocally && c.Circuit.VerifyingKey.Location == "" {
		return fmt.Errorf("local verification requires a verifying key")
	}
	return nil
}

// ParseRelayer parses a relayer given as id=url[,fee=bps][,region=name].
func ParseRelayer(s string) (RelayerConfig, error) {
	var rc RelayerConfig
	parts := strings.Split(s, ",")
	id, u, ok := strings.Cut(parts[0], "=")
	if !ok || id == "" || u == "" {
		return rc, fmt.Errorf("invalid relayer %q, expected id=url", s)
	}
	rc.ID, rc.URL = id, u
	for _, p := range parts[1:] {
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			return rc, fmt.Errorf("invalid relayer option %q", p)
		}
		switch k {
		case "fee":
			var fee uint32
			if _, err := fmt.Sscanf(v, "%d", &fee); err != nil {
				return rc, fmt.Errorf("invalid relayer fee %q: %w", v, err)
			}
			rc.FeeBps = fee
		case "region":
			rc.Region = v
		default:
			return rc, fmt.Errorf("unknown relayer option %q", k)
		}
	}
	return rc, nil
}
