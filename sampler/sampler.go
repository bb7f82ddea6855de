// Package sampler picks one call case and one email case per agent per
// reporting period, widening its search progressively when the period's
// data is too thin to clear the strict content gate.
package sampler

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/ryoyaiwata8-sudo/mail-review/gate"
	"github.com/ryoyaiwata8-sudo/mail-review/models"
)

// wideningDays extends the period on both sides for the tier-3 search.
const wideningDays = 7

// Engine runs the tiered selection. The random source is injected so a
// fixed seed reproduces the exact picks; the engine never mutates cases
// or interactions.
type Engine struct {
	rng *rand.Rand
	th  gate.Thresholds
}

// New returns an engine drawing tie-break picks from rng and gating
// with the default thresholds.
func New(rng *rand.Rand) *Engine {
	return NewWithThresholds(rng, gate.DefaultThresholds())
}

// NewWithThresholds returns an engine gating with th instead of the
// defaults, for config-tuned deployments.
func NewWithThresholds(rng *rand.Rand, th gate.Thresholds) *Engine {
	return &Engine{rng: rng, th: th}
}

// SplitByPeriod partitions cases into those whose calendar day falls
// inside [start, end] (inclusive) and the rest. Cases without a valid
// date land in the out slice.
func SplitByPeriod(cases []*models.Case, start, end time.Time) (in, out []*models.Case) {
	for _, c := range cases {
		if inPeriod(c, start, end) {
			in = append(in, c)
		} else {
			out = append(out, c)
		}
	}
	return in, out
}

// Select produces one bundle per agent. The roster is the set of
// distinct non-Unknown agents across the full case list, sorted, so an
// agent with zero in-range activity still appears (and lands on a
// widened pick or a skip). inRange and all must be snapshots of the same
// linking run; Select reads both without mutation.
func (e *Engine) Select(inRange, all []*models.Case, start, end time.Time) []models.SelectionBundle {
	roster := agentRoster(all)

	bundles := make([]models.SelectionBundle, 0, len(roster))
	for _, agent := range roster {
		bundles = append(bundles, models.SelectionBundle{
			Agent:     agent,
			CallCase:  e.selectChannel(agent, models.ChannelCall, inRange, all, start, end),
			EmailCase: e.selectChannel(agent, models.ChannelEmail, inRange, all, start, end),
		})
	}
	return bundles
}

// selectChannel walks the four tiers for one (agent, channel) slot and
// returns the first hit. Every branch terminates in selected or
// skipped; "no data" is a normal outcome, not an error.
func (e *Engine) selectChannel(agent string, channel models.Channel, inRange, all []*models.Case, start, end time.Time) models.SelectionResult {
	pool := casesFor(agent, channel, inRange)

	// Tier 1: strict gate over the in-period pool.
	if r, ok := e.pickPassing(pool, gate.Strict); ok {
		r.Fallback = models.FallbackNone
		return r
	}

	// Tier 2: same pool, loose gate.
	if r, ok := e.pickPassing(pool, gate.Loose); ok {
		r.Fallback = models.FallbackLooseGate
		return r
	}

	// Tier 3: strict gate over the widened window, excluding anything
	// already inside the original period so tiers 1 and 3 never see the
	// same case.
	widened := make([]*models.Case, 0)
	for _, c := range casesFor(agent, channel, all) {
		if inPeriod(c, start, end) {
			continue
		}
		if inPeriod(c, start.AddDate(0, 0, -wideningDays), end.AddDate(0, 0, wideningDays)) {
			widened = append(widened, c)
		}
	}
	if r, ok := e.pickPassing(widened, gate.Strict); ok {
		r.Fallback = models.FallbackDateWidening
		return r
	}

	// Tier 4: exhausted.
	return models.SelectionResult{
		Status: models.StatusSkipped,
		Reason: fmt.Sprintf("No evaluable %s case found in target or extended range", channel),
	}
}

// pickPassing gates every candidate and picks uniformly at random among
// the passers. Any qualifying case is considered equally representative;
// no ranking is applied.
func (e *Engine) pickPassing(candidates []*models.Case, mode gate.Mode) (models.SelectionResult, bool) {
	type passer struct {
		c       *models.Case
		verdict gate.Verdict
	}
	var passers []passer
	for _, c := range candidates {
		if v := gate.EvaluateWith(c, mode, e.th); v.Passed {
			passers = append(passers, passer{c: c, verdict: v})
		}
	}
	if len(passers) == 0 {
		return models.SelectionResult{}, false
	}

	p := passers[e.rng.Intn(len(passers))]
	return models.SelectionResult{
		Status: models.StatusSelected,
		Case:   p.c,
		CaseID: p.c.CaseID,
		Reason: p.verdict.Reason,
	}, true
}

func casesFor(agent string, channel models.Channel, cases []*models.Case) []*models.Case {
	var out []*models.Case
	for _, c := range cases {
		if c.Agent == agent && gate.InferChannel(c) == channel {
			out = append(out, c)
		}
	}
	return out
}

func agentRoster(cases []*models.Case) []string {
	seen := make(map[string]bool)
	for _, c := range cases {
		if c.Agent != models.AgentUnknown {
			seen[c.Agent] = true
		}
	}
	roster := make([]string, 0, len(seen))
	for agent := range seen {
		roster = append(roster, agent)
	}
	sort.Strings(roster)
	return roster
}

func inPeriod(c *models.Case, start, end time.Time) bool {
	d, ok := c.Date()
	if !ok {
		return false
	}
	return !d.Before(dayOf(start)) && !d.After(dayOf(end))
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
