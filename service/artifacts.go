package service

import (
	"context"
	"fmt"
	"time"

	"github.com/solshield/shieldcore/circuits"
	"golang.org/x/sync/errgroup"
)

// DownloadArtifacts loads the artifacts of every circuit concurrently,
// downloading those missing from the local cache.
func DownloadArtifacts(timeout time.Duration, all ...*circuits.CircuitArtifacts) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	for _, ca := range all {
		for _, a := range ca.All() {
			g.Go(func() error {
				if err := a.Load(ctx); err != nil {
					return fmt.Errorf("error loading %s: %w", a.Name, err)
				}
				return nil
			})
		}
	}
	return g.Wait()
}
