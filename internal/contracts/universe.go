package contracts

// UniverseState is the per-entity band state evaluated during maintenance
type UniverseState string

const (
	StateTrackedInBand    UniverseState = "tracked-in-band"
	StateTrackedAnchor    UniverseState = "tracked-anchor"
	StateTrackedOutOfBand UniverseState = "tracked-out-of-band" // transient, about to be untracked
	StateUntracked        UniverseState = "untracked"
)

// Transition records one membership change
type Transition struct {
	EntityID  string        `json:"entity_id"`
	From      UniverseState `json:"from"`
	To        UniverseState `json:"to"`
	MarketCap Metric        `json:"market_cap"`
	Reason    string        `json:"reason"`
}

// UniverseEntry records an entity left unchanged and why
type UniverseEntry struct {
	EntityID  string        `json:"entity_id"`
	State     UniverseState `json:"state"`
	MarketCap Metric        `json:"market_cap"`
	Reason    string        `json:"reason"`
}

// UniverseReport is the audit output of one review or discovery run
type UniverseReport struct {
	Operation string          `json:"operation"` // "review" | "discover"
	Added     []Transition    `json:"added"`
	Removed   []Transition    `json:"removed"`
	Unchanged []UniverseEntry `json:"unchanged"`
}

// Transitions returns the number of membership changes
func (r *UniverseReport) Transitions() int {
	return len(r.Added) + len(r.Removed)
}

// CandidateListing is an external watch-list entry considered by discovery
type CandidateListing struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Sector string `json:"sector"`
}
