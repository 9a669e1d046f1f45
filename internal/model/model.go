package model

import "time"

// Probe outcomes recorded on a Hop.
const (
	OutcomeRedirect = "redirect"
	OutcomeTerminal = "terminal"
	OutcomeTimeout  = "timeout"
	OutcomeNetwork  = "network"
	OutcomeBlocked  = "blocked"
	OutcomeCanceled = "canceled"
)

// StopReason explains why a chain walk ended.
type StopReason string

const (
	StopTerminal     StopReason = "terminal"
	StopTimeout      StopReason = "timeout"
	StopNetwork      StopReason = "network"
	StopBlocked      StopReason = "blocked"
	StopCanceled     StopReason = "canceled"
	StopMaxRedirects StopReason = "max_redirects"
	StopNoTarget     StopReason = "no_target"
)

// Hop represents a single probe in a redirect chain.
type Hop struct {
	Index    int      `json:"index"`
	URL      string   `json:"url"`
	Status   int      `json:"status,omitempty"`
	Outcome  string   `json:"outcome"`
	Location string   `json:"location,omitempty"`
	Found    []string `json:"found,omitempty"`
	Error    string   `json:"error,omitempty"`
	TimeMs   int64    `json:"time_ms"`
}

// Result is the final output for a single resolved target.
// Chain is deduplicated; Hops keeps every probe in order.
type Result struct {
	Target     string     `json:"target"`
	Chain      []string   `json:"chain"`
	Hops       []Hop      `json:"hops"`
	Stop       StopReason `json:"stop"`
	StartedAt  time.Time  `json:"started_at"`
	DurationMs int64      `json:"duration_ms"`
}

// Final returns the last URL of the chain, or the target when empty.
func (r Result) Final() string {
	if len(r.Chain) == 0 {
		return r.Target
	}
	return r.Chain[len(r.Chain)-1]
}
