package relayer

import (
	"math"

	"github.com/solshield/shieldcore/util"
)

const (
	baseScore          = 100.0
	maxLatencyPenalty  = 30.0
	regionBonus        = 20.0
	balanceBonus       = 10.0
	minBalanceForBonus = 1.0
)

// Score rates a relayer, higher is better:
//
//	100 - min(30, latencyMs/100) - (100-successRate)*0.5 - feeBps
//	    + 20 if the region matches + 10 if the balance is above 1
func Score(info *Info, h *Health, preferredRegion string) float64 {
	latencyMs := float64(h.Latency.Milliseconds())
	score := baseScore
	score -= math.Min(maxLatencyPenalty, latencyMs/100)
	score -= (100 - h.SuccessRate) * 0.5
	score -= float64(info.FeeBps)
	if preferredRegion != "" && info.Region == preferredRegion {
		score += regionBonus
	}
	if h.Balance > minBalanceForBonus {
		score += balanceBonus
	}
	return score
}

// candidates returns the online relayers passing the filters, in
// registration order.
func (n *Network) candidates(opts SelectionOptions) []snapshot {
	var list []snapshot
	for _, s := range n.snapshots() {
		if s.health == nil || !s.health.Online {
			continue
		}
		if opts.Exclude[s.info.ID] {
			continue
		}
		if !s.info.SupportsToken(opts.Token) || !s.info.AcceptsAmount(opts.Amount) {
			continue
		}
		if opts.MaxFeeBps > 0 && s.info.FeeBps > opts.MaxFeeBps {
			continue
		}
		list = append(list, s)
	}
	return list
}

// SelectBestRelayer returns the highest scored candidate, the earliest
// registered one on ties, or nil if there is none.
func (n *Network) SelectBestRelayer(opts SelectionOptions) *Info {
	s, ok := n.selectBest(opts)
	if !ok {
		return nil
	}
	return &s.info
}

func (n *Network) selectBest(opts SelectionOptions) (snapshot, bool) {
	region := opts.PreferredRegion
	if region == "" {
		region = n.cfg.PreferredRegion
	}
	var (
		best      snapshot
		bestScore float64
		found     bool
	)
	for _, s := range n.candidates(opts) {
		score := Score(&s.info, s.health, region)
		if !found || score > bestScore {
			best, bestScore, found = s, score, true
		}
	}
	return best, found
}

// SelectRandomRelayer returns a uniformly chosen candidate, or nil.
func (n *Network) SelectRandomRelayer(opts SelectionOptions) *Info {
	list := n.candidates(opts)
	if len(list) == 0 {
		return nil
	}
	return &list[util.RandomInt(0, len(list))].info
}
