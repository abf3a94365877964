package relayer

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func TestScore(t *testing.T) {
	c := qt.New(t)

	info := &Info{FeeBps: 10, Region: "eu"}
	h := onlineHealth(500*time.Millisecond, 90, 2)
	// 100 - 5 - 5 - 10 + 10
	c.Assert(Score(info, h, ""), qt.Equals, 90.0)
	c.Assert(Score(info, h, "eu"), qt.Equals, 110.0)
	c.Assert(Score(info, h, "us"), qt.Equals, 90.0)

	// latency penalty is capped at 30
	h.Latency = 10 * time.Second
	h.Balance = 0
	c.Assert(Score(info, h, ""), qt.Equals, 100.0-30-5-10)
}

func selectionNetwork(c *qt.C) *Network {
	n := testNetwork(Config{PreferredRegion: "eu"})
	relayers := []struct {
		info   Info
		health *Health
	}{
		{Info{ID: "slow", URL: "http://slow", FeeBps: 5}, onlineHealth(3*time.Second, 100, 5)},
		{Info{ID: "cheap", URL: "http://cheap", FeeBps: 1, Region: "eu"}, onlineHealth(100*time.Millisecond, 100, 5)},
		{Info{ID: "usdc", URL: "http://usdc", FeeBps: 2, Region: "eu", SupportedTokens: []string{"USDC"}}, onlineHealth(100*time.Millisecond, 100, 5)},
		{Info{ID: "big", URL: "http://big", FeeBps: 8, MinAmount: 1000, MaxAmount: 5000}, onlineHealth(100*time.Millisecond, 100, 5)},
		{Info{ID: "offline", URL: "http://offline"}, &Health{}},
		{Info{ID: "unknown", URL: "http://unknown"}, nil},
	}
	for _, r := range relayers {
		_, err := n.AddRelayer(r.info)
		c.Assert(err, qt.IsNil)
		if r.health != nil {
			n.setHealth(r.info.ID, r.health)
		}
	}
	return n
}

func TestSelectBestRelayer(t *testing.T) {
	c := qt.New(t)
	n := selectionNetwork(c)

	// deterministic
	for i := 0; i < 10; i++ {
		c.Assert(n.SelectBestRelayer(SelectionOptions{}).ID, qt.Equals, "cheap")
	}
	c.Assert(n.SelectBestRelayer(SelectionOptions{Token: "USDC"}).ID, qt.Equals, "cheap")
	c.Assert(n.SelectBestRelayer(SelectionOptions{Token: "BONK"}).ID, qt.Equals, "cheap")
	c.Assert(n.SelectBestRelayer(SelectionOptions{Exclude: map[string]bool{"cheap": true}}).ID, qt.Equals, "usdc")
	c.Assert(n.SelectBestRelayer(SelectionOptions{Token: "BONK", Exclude: map[string]bool{"cheap": true}}).ID, qt.Equals, "slow")
	c.Assert(n.SelectBestRelayer(SelectionOptions{Token: "BONK", Amount: 2000, Exclude: map[string]bool{"cheap": true}}).ID, qt.Equals, "big")
	c.Assert(n.SelectBestRelayer(SelectionOptions{Amount: 2000, Exclude: map[string]bool{"cheap": true, "usdc": true}}).ID, qt.Equals, "big")
	c.Assert(n.SelectBestRelayer(SelectionOptions{Amount: 9000, Exclude: map[string]bool{"cheap": true, "usdc": true}}).ID, qt.Equals, "slow")
	c.Assert(n.SelectBestRelayer(SelectionOptions{MaxFeeBps: 1, Exclude: map[string]bool{"cheap": true}}), qt.IsNil)

	// removing the top relayer falls through to the next best
	c.Assert(n.RemoveRelayer("cheap"), qt.IsNil)
	c.Assert(n.SelectBestRelayer(SelectionOptions{}).ID, qt.Equals, "usdc")
	c.Assert(n.RemoveRelayer("usdc"), qt.IsNil)
	c.Assert(n.SelectBestRelayer(SelectionOptions{}).ID, qt.Equals, "slow")
}

func TestSelectBestRelayerTies(t *testing.T) {
	c := qt.New(t)
	n := testNetwork(Config{})
	for _, id := range []string{"first", "second", "third"} {
		_, err := n.AddRelayer(Info{ID: id, URL: "http://" + id, FeeBps: 3})
		c.Assert(err, qt.IsNil)
		n.setHealth(id, onlineHealth(200*time.Millisecond, 99, 2))
	}
	c.Assert(n.SelectBestRelayer(SelectionOptions{}).ID, qt.Equals, "first")
	c.Assert(n.RemoveRelayer("first"), qt.IsNil)
	c.Assert(n.SelectBestRelayer(SelectionOptions{}).ID, qt.Equals, "second")
}

func TestSelectRandomRelayer(t *testing.T) {
	c := qt.New(t)
	n := selectionNetwork(c)

	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		r := n.SelectRandomRelayer(SelectionOptions{Token: "BONK"})
		c.Assert(r, qt.Not(qt.IsNil))
		seen[r.ID] = true
	}
	c.Assert(seen["usdc"], qt.IsFalse)
	c.Assert(seen["offline"], qt.IsFalse)
	c.Assert(seen["unknown"], qt.IsFalse)
	c.Assert(len(seen) >= 2, qt.IsTrue)

	c.Assert(n.SelectRandomRelayer(SelectionOptions{Token: "BONK", MaxFeeBps: 1, Exclude: map[string]bool{"cheap": true}}), qt.IsNil)
	c.Assert(testNetwork(Config{}).SelectRandomRelayer(SelectionOptions{}), qt.IsNil)
}
