package s1_universe

import (
	"fmt"
	"sort"

	"github.com/wonny/multibagger/internal/contracts"
	"github.com/wonny/multibagger/internal/strategyconfig"
	"github.com/wonny/multibagger/pkg/logger"
)

// Reasons recorded in universe reports
const (
	ReasonWithinBand     = "within band"
	ReasonAboveBand      = "above band"
	ReasonBelowBand      = "below band"
	ReasonAnchor         = "anchor"
	ReasonNoValuation    = "no valuation"
	ReasonNotTracked     = "not tracked"
	ReasonAlreadyTracked = "already tracked"
	ReasonMaxAdditions   = "deferred: max additions reached"
)

// Result is the new membership snapshot plus its audit report.
// Input entities are never modified.
type Result struct {
	Entities []contracts.Entity
	Report   contracts.UniverseReport
}

// Maintainer applies market-cap band membership rules
// ⭐ SSOT: S1 유니버스 멤버십 전이는 여기서만
type Maintainer struct {
	logger *logger.Logger
}

// NewMaintainer creates a new universe maintainer
func NewMaintainer(log *logger.Logger) *Maintainer {
	return &Maintainer{
		logger: log,
	}
}

// Review untracks every tracked, non-anchor entity whose current market cap is
// outside the band. Entities without a valuation are left as they are.
func (m *Maintainer) Review(entities []contracts.Entity, valuations map[string]contracts.Metric, band strategyconfig.UniverseBand) Result {
	next := copyEntities(entities)
	report := contracts.UniverseReport{
		Operation: "review",
		Added:     make([]contracts.Transition, 0),
		Removed:   make([]contracts.Transition, 0),
		Unchanged: make([]contracts.UniverseEntry, 0),
	}

	for _, i := range sortedIndex(next) {
		e := &next[i]
		marketCap := valuations[e.ID]

		if !e.IsTracked() {
			report.Unchanged = append(report.Unchanged, entry(e.ID, contracts.StateUntracked, marketCap, ReasonNotTracked))
			continue
		}

		if e.Anchor || band.IsAnchor(e.ID) {
			report.Unchanged = append(report.Unchanged, entry(e.ID, contracts.StateTrackedAnchor, marketCap, ReasonAnchor))
			continue
		}

		if !marketCap.IsDefined() {
			report.Unchanged = append(report.Unchanged, entry(e.ID, contracts.StateTrackedInBand, marketCap, ReasonNoValuation))
			continue
		}

		state, reason := classify(marketCap, band)
		switch state {
		case contracts.StateTrackedOutOfBand:
			e.Status = contracts.StatusUntracked
			report.Removed = append(report.Removed, contracts.Transition{
				EntityID:  e.ID,
				From:      contracts.StateTrackedOutOfBand,
				To:        contracts.StateUntracked,
				MarketCap: marketCap,
				Reason:    reason,
			})
		default:
			report.Unchanged = append(report.Unchanged, entry(e.ID, state, marketCap, reason))
		}
	}

	m.logSummary(report)
	return Result{Entities: next, Report: report}
}

// Discover tracks every untracked watch-list candidate whose current market cap
// is inside the band. Out-of-band candidates stay untracked and are reported,
// not treated as errors. band.MaxAdditions > 0 caps additions per run in
// watch-list order.
func (m *Maintainer) Discover(entities []contracts.Entity, candidates []contracts.CandidateListing, valuations map[string]contracts.Metric, band strategyconfig.UniverseBand) Result {
	next := copyEntities(entities)
	report := contracts.UniverseReport{
		Operation: "discover",
		Added:     make([]contracts.Transition, 0),
		Removed:   make([]contracts.Transition, 0),
		Unchanged: make([]contracts.UniverseEntry, 0),
	}

	byID := make(map[string]int, len(next))
	for i, e := range next {
		byID[e.ID] = i
	}

	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		marketCap := valuations[c.ID]

		idx, known := byID[c.ID]
		if known && next[idx].IsTracked() {
			report.Unchanged = append(report.Unchanged, entry(c.ID, trackedState(next[idx], marketCap, band), marketCap, ReasonAlreadyTracked))
			continue
		}

		if !marketCap.IsDefined() {
			report.Unchanged = append(report.Unchanged, entry(c.ID, contracts.StateUntracked, marketCap, ReasonNoValuation))
			continue
		}

		state, reason := classify(marketCap, band)
		if state != contracts.StateTrackedInBand {
			report.Unchanged = append(report.Unchanged, entry(c.ID, contracts.StateUntracked, marketCap, reason))
			continue
		}

		if band.MaxAdditions > 0 && len(report.Added) >= band.MaxAdditions {
			report.Unchanged = append(report.Unchanged, entry(c.ID, contracts.StateUntracked, marketCap, ReasonMaxAdditions))
			continue
		}

		if known {
			next[idx].Status = contracts.StatusTracked
		} else {
			next = append(next, contracts.Entity{
				ID:     c.ID,
				Name:   c.Name,
				Sector: c.Sector,
				Anchor: band.IsAnchor(c.ID),
				Status: contracts.StatusTracked,
			})
			byID[c.ID] = len(next) - 1
		}

		report.Added = append(report.Added, contracts.Transition{
			EntityID:  c.ID,
			From:      contracts.StateUntracked,
			To:        contracts.StateTrackedInBand,
			MarketCap: marketCap,
			Reason:    ReasonWithinBand,
		})
	}

	m.logSummary(report)
	return Result{Entities: next, Report: report}
}

// classify maps a defined market cap onto the band (bounds inclusive)
func classify(marketCap contracts.Metric, band strategyconfig.UniverseBand) (contracts.UniverseState, string) {
	v, _ := marketCap.Get()
	switch {
	case v > band.MaxMarketCap:
		return contracts.StateTrackedOutOfBand, ReasonAboveBand
	case v < band.MinMarketCap:
		return contracts.StateTrackedOutOfBand, ReasonBelowBand
	default:
		return contracts.StateTrackedInBand, ReasonWithinBand
	}
}

// trackedState reports the band state of an already tracked entity
func trackedState(e contracts.Entity, marketCap contracts.Metric, band strategyconfig.UniverseBand) contracts.UniverseState {
	if e.Anchor || band.IsAnchor(e.ID) {
		return contracts.StateTrackedAnchor
	}
	if v, ok := marketCap.Get(); ok && !band.Contains(v) {
		return contracts.StateTrackedOutOfBand
	}
	return contracts.StateTrackedInBand
}

func entry(id string, state contracts.UniverseState, marketCap contracts.Metric, reason string) contracts.UniverseEntry {
	return contracts.UniverseEntry{
		EntityID:  id,
		State:     state,
		MarketCap: marketCap,
		Reason:    reason,
	}
}

func copyEntities(entities []contracts.Entity) []contracts.Entity {
	out := make([]contracts.Entity, len(entities))
	copy(out, entities)
	return out
}

// sortedIndex returns indexes into entities ordered by id
func sortedIndex(entities []contracts.Entity) []int {
	idx := make([]int, len(entities))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		return entities[idx[a]].ID < entities[idx[b]].ID
	})
	return idx
}

func (m *Maintainer) logSummary(report contracts.UniverseReport) {
	m.logger.WithFields(map[string]interface{}{
		"operation": report.Operation,
		"added":     len(report.Added),
		"removed":   len(report.Removed),
		"unchanged": len(report.Unchanged),
	}).Info(fmt.Sprintf("Universe %s completed", report.Operation))
}
