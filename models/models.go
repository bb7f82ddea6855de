package models

import (
	"fmt"
	"time"
)

// Channel identifies the contact channel of an interaction.
type Channel string

const (
	ChannelCall  Channel = "CALL"
	ChannelEmail Channel = "EMAIL"
)

// AgentUnknown is the sentinel agent name used when the source record
// carries no resolvable agent. Cases for this agent are still linked but
// are excluded from the selection roster.
const AgentUnknown = "Unknown"

// Interaction represents one logged customer contact event (a phone call
// or an email row). It is shared across packages to link, gate and
// evaluate cases.
type Interaction struct {
	ID          string
	Channel     Channel
	Timestamp   time.Time
	Agent       string
	CustomerKey string
	Subject     string
	// Body holds the email body, or the call transcript once the
	// transcription layer has populated it. Empty for calls that have
	// not been transcribed yet.
	Body string
	// FilePath references the source audio file (calls) or workbook
	// (emails). Required for calls so transcription can find the audio.
	FilePath string
}

// Case is one agent's cluster of interactions on one calendar day.
// Membership is fixed at link time; only an interaction's Body is
// mutated afterwards, by transcription.
type Case struct {
	CaseID       string
	Agent        string
	Interactions []*Interaction
}

// NewCase creates an empty case shell for the given deterministic ID.
func NewCase(caseID string) *Case {
	return &Case{CaseID: caseID, Agent: AgentUnknown}
}

// AddInteraction appends an interaction, resolving the case agent from
// the first non-Unknown member (first write wins).
func (c *Case) AddInteraction(i *Interaction) {
	c.Interactions = append(c.Interactions, i)
	if c.Agent == AgentUnknown && i.Agent != AgentUnknown {
		c.Agent = i.Agent
	}
}

// LatestTimestamp returns the maximum timestamp across member
// interactions. ok is false only for an empty case, which the linker
// never produces.
func (c *Case) LatestTimestamp() (time.Time, bool) {
	if len(c.Interactions) == 0 {
		return time.Time{}, false
	}
	latest := c.Interactions[0].Timestamp
	for _, i := range c.Interactions[1:] {
		if i.Timestamp.After(latest) {
			latest = i.Timestamp
		}
	}
	return latest, true
}

// Date returns the calendar day the case covers, derived from its first
// member with a valid timestamp. ok is false when no member carries a
// parseable timestamp; such a case is neither in-range nor reachable by
// date widening.
func (c *Case) Date() (time.Time, bool) {
	for _, i := range c.Interactions {
		if !i.Timestamp.IsZero() {
			t := i.Timestamp
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

func (c *Case) String() string {
	return fmt.Sprintf("<Case %s | Agent: %s | Interactions: %d>", c.CaseID, c.Agent, len(c.Interactions))
}

// Fallback names the tier that produced a selection. Empty means the
// strict in-period gate matched directly.
type Fallback string

const (
	FallbackNone         Fallback = ""
	FallbackLooseGate    Fallback = "loose_gate"
	FallbackDateWidening Fallback = "date_widening"
)

// SelectionStatus is the terminal state of one per-channel selection.
type SelectionStatus string

const (
	StatusSelected SelectionStatus = "selected"
	StatusSkipped  SelectionStatus = "skipped"
)

// SelectionResult is the outcome of the tiered search for one agent and
// one channel. Status == StatusSelected implies Case is non-nil and
// Reason names the gate check that admitted it.
type SelectionResult struct {
	Status   SelectionStatus `json:"status"`
	Case     *Case           `json:"-"`
	CaseID   string          `json:"case_id,omitempty"`
	Reason   string          `json:"reason"`
	Fallback Fallback        `json:"fallback,omitempty"`
}

// SelectionBundle pairs the call and email selection for one agent.
type SelectionBundle struct {
	Agent     string          `json:"agent"`
	CallCase  SelectionResult `json:"call_case"`
	EmailCase SelectionResult `json:"email_case"`
}

// Scores holds the per-axis grading returned by the evaluation LLM.
type Scores struct {
	Politeness int `json:"politeness"`
	Clarity    int `json:"clarity"`
	Accuracy   int `json:"accuracy"`
	Empathy    int `json:"empathy"`
}

// Average returns the mean of the four axes.
func (s Scores) Average() float64 {
	return float64(s.Politeness+s.Clarity+s.Accuracy+s.Empathy) / 4.0
}

// Evaluation is the parsed grading output for one case. BookingID and
// TourCode are extracted from the interaction text when mentioned;
// empty otherwise.
type Evaluation struct {
	Scores      Scores `json:"scores"`
	Comment     string `json:"comment"`
	Evidence    string `json:"evidence"`
	Improvement string `json:"improvement"`
	BookingID   string `json:"booking_id"`
	TourCode    string `json:"tour_code"`
}

// HoldSegment is one detected on-hold span inside a call recording.
type HoldSegment struct {
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Duration float64 `json:"duration"`
	Trigger  string  `json:"trigger"`
}

// CaseResult is the reporting unit: one evaluated or skipped channel
// slot for one agent in one run.
type CaseResult struct {
	RunID            string
	CaseID           string
	Agent            string
	Channel          Channel
	Status           string
	Reason           string
	Fallback         Fallback
	Evaluation       *Evaluation
	HoldTotalSec     float64
	TotalDurationSec float64
	HoldSegments     []HoldSegment
}
