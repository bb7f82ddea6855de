// Package gate decides whether a case carries enough content to be worth
// sending to AI evaluation. The check is a proxy for "this interaction
// had enough signal to score meaningfully": a hard volume threshold
// first, then a cheap lexical rescue for short but information-dense
// content.
package gate

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ryoyaiwata8-sudo/mail-review/models"
)

// Mode selects the strictness of the gate thresholds.
type Mode string

const (
	Strict Mode = "strict"
	Loose  Mode = "loose"
)

// Thresholds are the rune-count volume gates per channel and mode plus
// the absolute floors below which structure rescue is not attempted.
// Build overrides from DefaultThresholds; a zero field is never valid.
type Thresholds struct {
	CallStrictMin    int
	CallLooseMin     int
	EmailStrictMin   int
	EmailLooseMin    int
	CallRescueFloor  int
	EmailRescueFloor int
}

// DefaultThresholds returns the calibrated production values.
func DefaultThresholds() Thresholds {
	return Thresholds{
		CallStrictMin:    600,
		CallLooseMin:     300,
		EmailStrictMin:   350,
		EmailLooseMin:    150,
		CallRescueFloor:  100,
		EmailRescueFloor: 50,
	}
}

// structureCues are domain signals that make short content worth
// evaluating anyway: acknowledgement phrases, monetary/date/logistics
// terms, and procedural request phrases. Each cue present in the content
// counts one point.
var structureCues = []string{
	"承知",
	"かしこまり",
	"お世話になっております",
	"お願い",
	"ください",
	"円",
	"¥",
	"ツアー",
	"予約",
	"出発",
	"確認",
	"・",
}

// Verdict is the gate outcome for one case. Reason always states which
// numeric check decided it, for auditability.
type Verdict struct {
	Passed  bool
	Channel models.Channel
	Reason  string
}

// InferChannel classifies a case for gating: CALL if any member
// interaction is a call, EMAIL otherwise. A mixed case is always
// treated as CALL.
func InferChannel(c *models.Case) models.Channel {
	for _, i := range c.Interactions {
		if i.Channel == models.ChannelCall {
			return models.ChannelCall
		}
	}
	return models.ChannelEmail
}

// Evaluate runs the two-stage content gate over a case at the given
// strictness using the default thresholds. Pure: no mutation,
// deterministic for the same content.
func Evaluate(c *models.Case, mode Mode) Verdict {
	return EvaluateWith(c, mode, DefaultThresholds())
}

// EvaluateWith is Evaluate with explicit thresholds, for deployments
// that tune the gate per config file.
func EvaluateWith(c *models.Case, mode Mode, th Thresholds) Verdict {
	channel := InferChannel(c)
	content := channelContent(c, channel)
	length := utf8.RuneCountInString(content)

	minLen := th.volume(channel, mode)
	if length >= minLen {
		return Verdict{
			Passed:  true,
			Channel: channel,
			Reason:  fmt.Sprintf("Volume gate: %d >= %d (%s %s)", length, minLen, channel, mode),
		}
	}

	floor := th.CallRescueFloor
	if channel == models.ChannelEmail {
		floor = th.EmailRescueFloor
	}
	if length > floor {
		points := structurePoints(content)
		needed := rescueThreshold(channel, mode)
		if points >= needed {
			return Verdict{
				Passed:  true,
				Channel: channel,
				Reason:  fmt.Sprintf("Structure rescue: %d points >= %d (volume %d < %d)", points, needed, length, minLen),
			}
		}
		return Verdict{
			Passed:  false,
			Channel: channel,
			Reason:  fmt.Sprintf("Below volume gate (%d < %d) and structure rescue (%d points < %d)", length, minLen, points, needed),
		}
	}

	return Verdict{
		Passed:  false,
		Channel: channel,
		Reason:  fmt.Sprintf("Below volume gate (%d < %d) and rescue floor (%d)", length, minLen, floor),
	}
}

// channelContent concatenates the bodies of the case's interactions that
// match the inferred channel; the other channel's interactions are
// ignored even when present in a mixed case.
func channelContent(c *models.Case, channel models.Channel) string {
	var sb strings.Builder
	for _, i := range c.Interactions {
		if i.Channel == channel {
			sb.WriteString(i.Body)
		}
	}
	return sb.String()
}

func (th Thresholds) volume(channel models.Channel, mode Mode) int {
	if channel == models.ChannelCall {
		if mode == Strict {
			return th.CallStrictMin
		}
		return th.CallLooseMin
	}
	if mode == Strict {
		return th.EmailStrictMin
	}
	return th.EmailLooseMin
}

func rescueThreshold(channel models.Channel, mode Mode) int {
	if channel == models.ChannelCall {
		if mode == Strict {
			return 1
		}
		return 0
	}
	if mode == Strict {
		return 2
	}
	return 1
}

func structurePoints(content string) int {
	points := 0
	for _, cue := range structureCues {
		if strings.Contains(content, cue) {
			points++
		}
	}
	return points
}
