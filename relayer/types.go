package relayer

import (
	"slices"
	"time"

	"github.com/solshield/shieldcore/types"
)

// Info is the registry entry of a relayer.
type Info struct {
	ID     string         `json:"id"`
	URL    string         `json:"url"`
	Pubkey types.HexBytes `json:"pubkey,omitempty"`
	FeeBps uint32         `json:"feeBps"`
	// MinAmount and MaxAmount bound the transfer amounts the relayer
	// accepts. A zero MaxAmount means no upper bound.
	MinAmount uint64 `json:"minAmount"`
	MaxAmount uint64 `json:"maxAmount"`
	// SupportedTokens lists the token mints accepted. Empty means any.
	SupportedTokens []string `json:"supportedTokens,omitempty"`
	Region          string   `json:"region,omitempty"`
}

// SupportsToken reports whether the relayer accepts the token. An empty
// token matches every relayer.
func (i *Info) SupportsToken(token string) bool {
	return token == "" || len(i.SupportedTokens) == 0 || slices.Contains(i.SupportedTokens, token)
}

// AcceptsAmount reports whether amount is inside the relayer range.
func (i *Info) AcceptsAmount(amount uint64) bool {
	if amount < i.MinAmount {
		return false
	}
	return i.MaxAmount == 0 || amount <= i.MaxAmount
}

// Health is the last observed state of a relayer.
type Health struct {
	Online  bool          `json:"online"`
	Latency time.Duration `json:"latency"`
	// SuccessRate is the percentage (0 to 100) of relays the relayer
	// reports as successful.
	SuccessRate  float64   `json:"successRate"`
	RecentErrors []string  `json:"recentErrors,omitempty"`
	Balance      float64   `json:"balance"`
	CheckedAt    time.Time `json:"checkedAt"`
}

func (h *Health) clone() *Health {
	c := *h
	c.RecentErrors = slices.Clone(h.RecentErrors)
	return &c
}

// Stats are the cumulative counters of a relayer in this process.
type Stats struct {
	TotalTransactions uint64        `json:"totalTransactions"`
	FailedAttempts    uint64        `json:"failedAttempts"`
	AverageLatency    time.Duration `json:"averageLatency"`
	// Uptime is the ratio of health checks that found the relayer online.
	Uptime float64 `json:"uptime"`

	checks       uint64
	onlineChecks uint64
}

// TransferRequest is the body posted to {url}/relay/transfer.
type TransferRequest struct {
	Proof                types.HexBytes `json:"proof"`
	PublicInputs         []string       `json:"publicInputs"`
	Nullifiers           []string       `json:"nullifiers"`
	OutputCommitments    []string       `json:"outputCommitments"`
	MerkleRoot           string         `json:"merkleRoot"`
	RelayerFeeCommitment string         `json:"relayerFeeCommitment,omitempty"`

	// Token and Amount only drive relayer selection and are not sent.
	Token  string `json:"-"`
	Amount uint64 `json:"-"`
}

// TransferResponse is the relayer answer to a TransferRequest. RelayerID is
// filled locally with the relayer that produced it.
type TransferResponse struct {
	Success   bool   `json:"success"`
	TxID      string `json:"txId,omitempty"`
	Signature string `json:"signature,omitempty"`
	Error     string `json:"error,omitempty"`
	RelayerID string `json:"relayerId,omitempty"`
}

// NetworkStatus summarizes the relayers with a known health snapshot.
type NetworkStatus struct {
	Total          int           `json:"total"`
	Online         int           `json:"online"`
	AverageLatency time.Duration `json:"averageLatency"`
	SuccessRate    float64       `json:"successRate"`
}

// SelectionOptions filter the candidate relayers.
type SelectionOptions struct {
	Token  string
	Amount uint64
	// MaxFeeBps is the fee ceiling; zero means no limit.
	MaxFeeBps       uint32
	PreferredRegion string
	Exclude         map[string]bool
}
