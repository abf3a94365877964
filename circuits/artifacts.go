package circuits

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/solshield/shieldcore/log"
	"github.com/solshield/shieldcore/types"
)

// CheckHashes determines if the hashes of the artifacts are checked when
// they are loaded or downloaded. It can be disabled by setting the
// SHIELD_CHECK_HASHES environment variable to false or 0.
var CheckHashes = true

// BaseDir is the path of the artifact cache. Artifacts missing there are
// downloaded and stored. Defaults to the SHIELD_ARTIFACTS_DIR env var or
// ~/.cache/shield-artifacts.
var BaseDir string

func init() {
	if checkHashes := os.Getenv("SHIELD_CHECK_HASHES"); checkHashes != "" {
		if strings.ToLower(checkHashes) == "false" || checkHashes == "0" {
			CheckHashes = false
		}
	}
	if dir := os.Getenv("SHIELD_ARTIFACTS_DIR"); dir != "" {
		BaseDir = dir
	} else {
		home, err := os.UserHomeDir()
		if err != nil || home == "" {
			log.Warnf("unable to access user home directory, using temporary directory: %v", err)
			BaseDir = filepath.Join(os.TempDir(), "shield-artifacts")
		} else {
			BaseDir = filepath.Join(home, ".cache", "shield-artifacts")
		}
	}
}

// Artifact is a circuit file (witness generator, proving or verifying key)
// referenced either by a local path or by a remote URL. Hash is the
// optional sha256 of the content.
type Artifact struct {
	Name      string
	LocalPath string
	RemoteURL string
	Hash      []byte
	Content   []byte
}

// cacheName returns the file name of the artifact inside BaseDir: the hex
// encoded hash, or the hash of the remote URL when no hash is configured.
func (k *Artifact) cacheName() string {
	if len(k.Hash) > 0 {
		return hex.EncodeToString(k.Hash)
	}
	h := sha256.Sum256([]byte(k.RemoteURL))
	return "url-" + hex.EncodeToString(h[:])
}

// Load makes the artifact content available. Already loaded content is
// kept. A local path is read directly; otherwise the cache is checked and,
// on a miss, the artifact is downloaded into the cache first.
func (k *Artifact) Load(ctx context.Context) error {
	if len(k.Content) != 0 {
		return nil
	}
	if k.LocalPath != "" {
		content, err := os.ReadFile(k.LocalPath)
		if err != nil {
			return fmt.Errorf("error reading artifact %s: %w", k.LocalPath, err)
		}
		if err := k.checkHash(content); err != nil {
			return err
		}
		k.Content = content
		return nil
	}
	if k.RemoteURL == "" {
		return fmt.Errorf("artifact %q has neither local path nor remote url", k.Name)
	}
	content, err := load(k.cacheName(), k.Hash)
	if err != nil {
		return err
	}
	if content == nil {
		if err := k.Download(ctx); err != nil {
			return err
		}
		if content, err = load(k.cacheName(), k.Hash); err != nil {
			return err
		}
		if content == nil {
			return fmt.Errorf("no content found for artifact %q", k.Name)
		}
	}
	k.Content = content
	return nil
}

// Download fetches the artifact from RemoteURL into the local cache,
// resuming a previous partial download if there is one.
func (k *Artifact) Download(ctx context.Context) error {
	if k.RemoteURL == "" {
		return fmt.Errorf("artifact %q has no remote url", k.Name)
	}
	if err := os.MkdirAll(BaseDir, 0o755); err != nil {
		return fmt.Errorf("error creating the base directory: %w", err)
	}
	return downloadAndStore(ctx, k.cacheName(), k.Hash, k.RemoteURL)
}

func (k *Artifact) checkHash(content []byte) error {
	if !CheckHashes || len(k.Hash) == 0 {
		return nil
	}
	if h := sha256.Sum256(content); !bytes.Equal(h[:], k.Hash) {
		return fmt.Errorf("hash mismatch for artifact %q: expected %x, got %x", k.Name, k.Hash, h)
	}
	return nil
}

// CircuitArtifacts holds the three files of a compiled circom circuit.
type CircuitArtifacts struct {
	witnessCalculator *Artifact
	provingKey        *Artifact
	verifyingKey      *Artifact
}

// NewCircuitArtifacts groups the circuit artifacts. Any of them can be nil
// when the component using them does not need it.
func NewCircuitArtifacts(wasm, provingKey, verifyingKey *Artifact) *CircuitArtifacts {
	return &CircuitArtifacts{
		witnessCalculator: wasm,
		provingKey:        provingKey,
		verifyingKey:      verifyingKey,
	}
}

// All returns the non nil artifacts.
func (ca *CircuitArtifacts) All() []*Artifact {
	var all []*Artifact
	for _, a := range []*Artifact{ca.witnessCalculator, ca.provingKey, ca.verifyingKey} {
		if a != nil {
			all = append(all, a)
		}
	}
	return all
}

// LoadAll loads every artifact into memory, downloading what is missing.
func (ca *CircuitArtifacts) LoadAll(ctx context.Context) error {
	for _, a := range ca.All() {
		if err := a.Load(ctx); err != nil {
			return fmt.Errorf("error loading %s: %w", a.Name, err)
		}
	}
	return nil
}

// WitnessCalculator returns the circom WASM witness generator, nil if not
// loaded.
func (ca *CircuitArtifacts) WitnessCalculator() types.HexBytes {
	if ca.witnessCalculator == nil {
		return nil
	}
	return ca.witnessCalculator.Content
}

// ProvingKey returns the zkey content, nil if not loaded.
func (ca *CircuitArtifacts) ProvingKey() types.HexBytes {
	if ca.provingKey == nil {
		return nil
	}
	return ca.provingKey.Content
}

// VerifyingKey returns the JSON verifying key, nil if not loaded.
func (ca *CircuitArtifacts) VerifyingKey() types.HexBytes {
	if ca.verifyingKey == nil {
		return nil
	}
	return ca.verifyingKey.Content
}

// load reads a cached artifact. A missing file yields nil content and a
// nil error.
func load(name string, hash []byte) ([]byte, error) {
	path := filepath.Join(BaseDir, name)
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("error reading file %s: %w", path, err)
	}
	if CheckHashes && len(hash) > 0 {
		if fileHash := sha256.Sum256(content); !bytes.Equal(fileHash[:], hash) {
			return nil, fmt.Errorf("hash mismatch for file %s: expected %x, got %x", path, hash, fileHash)
		}
	}
	return content, nil
}

// progressReader wraps an io.Reader and keeps track of the total bytes read.
type progressReader struct {
	reader        io.Reader
	total         int64 // updated atomically
	contentLength int64
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	atomic.AddInt64(&pr.total, int64(n))
	return n, err
}

// downloadAndStore downloads a file into the cache under name. The data is
// written to a .partial file first and renamed once the hash matches.
func downloadAndStore(ctx context.Context, name string, expectedHash []byte, fileURL string) error {
	if _, err := url.Parse(fileURL); err != nil {
		return fmt.Errorf("error parsing the file URL provided: %w", err)
	}
	path := filepath.Join(BaseDir, name)
	partialPath := path + ".partial"

	var startByte int64
	if info, err := os.Stat(partialPath); err == nil {
		startByte = info.Size()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return fmt.Errorf("error creating the file request: %w", err)
	}
	if startByte > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", startByte))
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("error performing the request: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusPartialContent {
		return fmt.Errorf("error downloading file %s: http status: %d", fileURL, res.StatusCode)
	}
	// append only if the server honored the range request
	resuming := startByte > 0 && res.StatusCode == http.StatusPartialContent
	fileMode := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if resuming {
		fileMode = os.O_APPEND | os.O_WRONLY
	} else {
		startByte = 0
	}
	hasher := sha256.New()
	if resuming {
		existing, err := os.Open(partialPath)
		if err != nil {
			return fmt.Errorf("error reading partial artifact: %w", err)
		}
		_, err = io.Copy(hasher, existing)
		existing.Close()
		if err != nil {
			return fmt.Errorf("error hashing partial artifact: %w", err)
		}
	}
	fd, err := os.OpenFile(partialPath, fileMode, 0o644)
	if err != nil {
		return fmt.Errorf("error opening artifact file: %w", err)
	}
	defer fd.Close()

	pr := &progressReader{
		reader:        res.Body,
		contentLength: res.ContentLength + startByte,
	}
	mw := io.MultiWriter(fd, hasher)
	done := make(chan error, 1)
	go func() {
		_, err := io.Copy(mw, pr)
		done <- err
	}()
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for copying := true; copying; {
		select {
		case err := <-done:
			if err != nil {
				return fmt.Errorf("error copying data to file: %w", err)
			}
			copying = false
		case <-ticker.C:
			total := atomic.LoadInt64(&pr.total)
			var percentage float64
			if pr.contentLength > 0 {
				percentage = (float64(total+startByte) / float64(pr.contentLength)) * 100
			}
			log.Debugw("downloading artifact", "url", fileURL,
				"downloaded", fmt.Sprintf("%.2fMiB", float64(total)/(1024*1024)),
				"progress", fmt.Sprintf("%.2f%%", percentage))
		}
	}
	if CheckHashes && len(expectedHash) > 0 {
		if computed := hasher.Sum(nil); !bytes.Equal(computed, expectedHash) {
			os.Remove(partialPath)
			return fmt.Errorf("hash mismatch: expected %x, got %x", expectedHash, computed)
		}
	}
	if err := fd.Close(); err != nil {
		return fmt.Errorf("error closing artifact file: %w", err)
	}
	if err := os.Rename(partialPath, path); err != nil {
		return fmt.Errorf("error renaming file: %w", err)
	}
	log.Infow("artifact downloaded", "url", fileURL, "path", path)
	return nil
}
