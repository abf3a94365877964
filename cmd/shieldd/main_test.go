package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	flag "github.com/spf13/pflag"
)

func TestApplyEnv(t *testing.T) {
	c := qt.New(t)
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	port := fs.Int("api-port", 1, "")
	host := fs.String("api-host", "a", "")
	timeout := fs.Duration("proof-timeout", time.Second, "")
	c.Assert(fs.Parse([]string{"--api-host", "cli"}), qt.IsNil)

	t.Setenv("SHIELD_API_PORT", "9999")
	t.Setenv("SHIELD_API_HOST", "env")
	t.Setenv("SHIELD_PROOF_TIMEOUT", "3m")
	c.Assert(applyEnv(fs), qt.IsNil)
	c.Assert(*port, qt.Equals, 9999)
	// command line wins over the environment
	c.Assert(*host, qt.Equals, "cli")
	c.Assert(*timeout, qt.Equals, 3*time.Minute)

	fs = flag.NewFlagSet("test", flag.ContinueOnError)
	fs.Int("api-port", 1, "")
	c.Assert(fs.Parse(nil), qt.IsNil)
	t.Setenv("SHIELD_API_PORT", "not a number")
	c.Assert(applyEnv(fs), qt.ErrorMatches, "invalid SHIELD_API_PORT.*")
}

func TestLoadKeys(t *testing.T) {
	c := qt.New(t)
	dir := t.TempDir()

	first, err := loadKeys(dir, "")
	c.Assert(err, qt.IsNil)
	_, err = os.Stat(filepath.Join(dir, seedFileName))
	c.Assert(err, qt.IsNil)
	second, err := loadKeys(dir, "")
	c.Assert(err, qt.IsNil)
	c.Assert(second.OwnerPubkey.Cmp(first.OwnerPubkey), qt.Equals, 0)

	a, err := loadKeys("", "0x0102")
	c.Assert(err, qt.IsNil)
	b, err := loadKeys(dir, "0102")
	c.Assert(err, qt.IsNil)
	c.Assert(a.SpendingKey.Cmp(b.SpendingKey), qt.Equals, 0)

	_, err = loadKeys(dir, "zz")
	c.Assert(err, qt.ErrorMatches, "invalid seed.*")
}

func TestNullifierFunc(t *testing.T) {
	c := qt.New(t)

	fn, err := nullifierFunc("")
	c.Assert(err, qt.IsNil)
	c.Assert(fn, qt.IsNil)

	fn, err = nullifierFunc("poseidon-commitment-index-key")
	c.Assert(err, qt.IsNil)
	c.Assert(fn, qt.Not(qt.IsNil))

	_, err = nullifierFunc("sha256")
	c.Assert(err, qt.ErrorMatches, `unknown nullifier scheme "sha256", expected one of: poseidon-commitment-index-key`)
}
