package service

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/solshield/shieldcore/config"
	"github.com/solshield/shieldcore/log"
	"github.com/solshield/shieldcore/relayer"
	"github.com/solshield/shieldcore/storage"
)

// RegisterRelayers adds the stored registry and then the configured
// relayers to the network. Configured relayers override stored entries
// with the same id and are persisted when stg is not nil.
func RegisterRelayers(network *relayer.Network, stg *storage.Storage, configured []config.RelayerConfig) error {
	if stg != nil {
		stored, err := stg.Relayers()
		if err != nil {
			return fmt.Errorf("could not load relayer registry: %w", err)
		}
		for _, info := range stored {
			if _, err := network.AddRelayer(info); err != nil {
				log.Warnw("skipping stored relayer", "id", info.ID, "error", err.Error())
			}
		}
	}
	for _, rc := range configured {
		info := relayer.Info{ID: rc.ID, URL: rc.URL, FeeBps: rc.FeeBps, Region: rc.Region}
		if info.ID == "" {
			// stable across restarts, so the stored entry is replaced
			info.ID = uuid.NewSHA1(uuid.NameSpaceURL, []byte(rc.URL)).String()
		}
		id, err := network.AddRelayer(info)
		if err != nil {
			return fmt.Errorf("invalid relayer %q: %w", rc.URL, err)
		}
		info.ID = id
		if stg != nil {
			if err := stg.SetRelayer(info); err != nil {
				return err
			}
		}
	}
	log.Infow("relayers registered", "total", len(network.Relayers()))
	return nil
}
