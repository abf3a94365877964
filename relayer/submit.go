package relayer

import (
	"context"
	"fmt"
	"time"

	"github.com/solshield/shieldcore/log"
)

// SubmitTransaction relays req through relayerID or, if empty, through the
// best scored relayer for req.Token and req.Amount. Failed attempts move on
// to the best relayer not yet tried, up to MaxAttempts relayers in total.
// ErrNoAvailableRelayer is returned when no relayer can take the first
// attempt and ErrAllRelayersFailed once every attempt failed.
func (n *Network) SubmitTransaction(ctx context.Context, req *TransferRequest, relayerID string) (*TransferResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("nil transfer request")
	}
	opts := SelectionOptions{
		Token:   req.Token,
		Amount:  req.Amount,
		Exclude: make(map[string]bool),
	}
	var (
		target snapshot
		err    error
	)
	if relayerID != "" {
		if target, err = n.snapshotOf(relayerID); err != nil {
			return nil, err
		}
	} else {
		var ok bool
		if target, ok = n.selectBest(opts); !ok {
			return nil, ErrNoAvailableRelayer
		}
	}

	var lastErr error
	for attempt := 1; attempt <= n.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		opts.Exclude[target.info.ID] = true
		resp, err := n.submitTo(ctx, target, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		log.Warnw("relayer submission failed", "id", target.info.ID, "attempt", attempt, "error", err.Error())

		next, ok := n.selectBest(opts)
		if !ok {
			break
		}
		target = next
	}
	return nil, fmt.Errorf("%w: %v", ErrAllRelayersFailed, lastErr)
}

// submitTo performs one submission with the submit timeout and records the
// outcome in the relayer stats.
func (n *Network) submitTo(ctx context.Context, target snapshot, req *TransferRequest) (*TransferResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, n.cfg.SubmitTimeout)
	defer cancel()
	start := time.Now()
	resp, err := target.client.relay(ctx, req)
	if err != nil {
		n.recordFailure(target.info.ID, err)
		return nil, err
	}
	latency := time.Since(start)
	n.recordSuccess(target.info.ID, latency)
	resp.RelayerID = target.info.ID
	log.Infow("transaction relayed", "relayer", target.info.ID, "txId", resp.TxID, "latency", latency.String())
	return resp, nil
}
