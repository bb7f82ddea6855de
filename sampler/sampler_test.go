package sampler_test

import (
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryoyaiwata8-sudo/mail-review/gate"
	"github.com/ryoyaiwata8-sudo/mail-review/models"
	"github.com/ryoyaiwata8-sudo/mail-review/sampler"
)

var (
	periodStart = time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC)
	periodEnd   = time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)
)

// body builds content of exactly n runes with the cue fragments
// appended.
func body(n int, cues ...string) string {
	suffix := strings.Join(cues, "")
	fill := n - len([]rune(suffix))
	return strings.Repeat("あ", fill) + suffix
}

func mkCase(agent string, channel models.Channel, day time.Time, content string) *models.Case {
	c := models.NewCase("CASE_" + agent + "_" + day.Format("20060102"))
	c.AddInteraction(&models.Interaction{
		ID:        "i-" + c.CaseID,
		Channel:   channel,
		Agent:     agent,
		Timestamp: day.Add(10 * time.Hour),
		Body:      content,
	})
	return c
}

func run(t *testing.T, cases []*models.Case) []models.SelectionBundle {
	t.Helper()
	inRange, _ := sampler.SplitByPeriod(cases, periodStart, periodEnd)
	engine := sampler.New(rand.New(rand.NewSource(42)))
	return engine.Select(inRange, cases, periodStart, periodEnd)
}

func bundleFor(t *testing.T, bundles []models.SelectionBundle, agent string) models.SelectionBundle {
	t.Helper()
	for _, b := range bundles {
		if b.Agent == agent {
			return b
		}
	}
	t.Fatalf("no bundle for agent %s", agent)
	return models.SelectionBundle{}
}

func TestSelect_Tiers(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2026, 2, d, 0, 0, 0, 0, time.UTC)
	}

	tests := map[string]struct {
		cases          []*models.Case
		agent          string
		channel        models.Channel
		expectStatus   models.SelectionStatus
		expectFallback models.Fallback
		reasonContains string
	}{
		"StrictInPeriod_Volume": {
			cases: []*models.Case{
				mkCase("A", models.ChannelEmail, day(10), body(400)),
			},
			agent:          "A",
			channel:        models.ChannelEmail,
			expectStatus:   models.StatusSelected,
			expectFallback: models.FallbackNone,
			reasonContains: "Volume gate",
		},
		"StrictInPeriod_StructureRescue": {
			cases: []*models.Case{
				mkCase("B", models.ChannelEmail, day(10), body(200, "・", "お願い")),
			},
			agent:          "B",
			channel:        models.ChannelEmail,
			expectStatus:   models.StatusSelected,
			expectFallback: models.FallbackNone,
			reasonContains: "Structure rescue",
		},
		"LooseInPeriod": {
			cases: []*models.Case{
				mkCase("E", models.ChannelEmail, day(10), body(200, "お願い")),
			},
			agent:          "E",
			channel:        models.ChannelEmail,
			expectStatus:   models.StatusSelected,
			expectFallback: models.FallbackLooseGate,
		},
		"DateWidening": {
			cases: []*models.Case{
				mkCase("C", models.ChannelEmail, day(10), body(50)),
				mkCase("C", models.ChannelEmail, day(4), body(500)),
			},
			agent:          "C",
			channel:        models.ChannelEmail,
			expectStatus:   models.StatusSelected,
			expectFallback: models.FallbackDateWidening,
		},
		"Exhausted": {
			cases: []*models.Case{
				mkCase("D", models.ChannelEmail, day(10), body(50)),
			},
			agent:          "D",
			channel:        models.ChannelEmail,
			expectStatus:   models.StatusSkipped,
			reasonContains: "No evaluable EMAIL case found in target or extended range",
		},
		"NoCallData_CallSkipped": {
			cases: []*models.Case{
				mkCase("A", models.ChannelEmail, day(10), body(400)),
			},
			agent:          "A",
			channel:        models.ChannelCall,
			expectStatus:   models.StatusSkipped,
			reasonContains: "No evaluable CALL case found",
		},
		"BeyondWidenedWindow_Skipped": {
			cases: []*models.Case{
				mkCase("F", models.ChannelEmail, day(10), body(50)),
				mkCase("F", models.ChannelEmail, time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC), body(500)),
			},
			agent:        "F",
			channel:      models.ChannelEmail,
			expectStatus: models.StatusSkipped,
		},
		"WidenedCandidateMustStillPassStrict": {
			cases: []*models.Case{
				mkCase("G", models.ChannelEmail, day(10), body(50)),
				mkCase("G", models.ChannelEmail, day(4), body(200, "お願い")),
			},
			agent:        "G",
			channel:      models.ChannelEmail,
			expectStatus: models.StatusSkipped,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			bundles := run(t, tt.cases)
			b := bundleFor(t, bundles, tt.agent)

			result := b.EmailCase
			if tt.channel == models.ChannelCall {
				result = b.CallCase
			}

			assert.Equal(t, tt.expectStatus, result.Status, "reason: %s", result.Reason)
			if tt.expectStatus == models.StatusSelected {
				require.NotNil(t, result.Case)
				assert.Equal(t, tt.expectFallback, result.Fallback)
				assert.Equal(t, result.Case.CaseID, result.CaseID)
			} else {
				assert.Nil(t, result.Case)
			}
			if tt.reasonContains != "" {
				assert.Contains(t, result.Reason, tt.reasonContains)
			}
		})
	}
}

func TestSelect_CustomThresholds(t *testing.T) {
	day := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	cases := []*models.Case{
		mkCase("A", models.ChannelEmail, day, body(120)),
	}
	inRange, _ := sampler.SplitByPeriod(cases, periodStart, periodEnd)

	// Under the default thresholds 120 runes with no cues never passes.
	def := sampler.New(rand.New(rand.NewSource(1)))
	b := bundleFor(t, def.Select(inRange, cases, periodStart, periodEnd), "A")
	assert.Equal(t, models.StatusSkipped, b.EmailCase.Status)

	th := gate.DefaultThresholds()
	th.EmailStrictMin = 100
	tuned := sampler.NewWithThresholds(rand.New(rand.NewSource(1)), th)
	b = bundleFor(t, tuned.Select(inRange, cases, periodStart, periodEnd), "A")
	require.Equal(t, models.StatusSelected, b.EmailCase.Status)
	assert.Equal(t, models.FallbackNone, b.EmailCase.Fallback)
}

func TestSelect_ChannelsIndependent(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2026, 2, d, 0, 0, 0, 0, time.UTC)
	}
	// Calls clear strict in-period; the only good email sits in the
	// widened window, so one agent lands on different tiers per channel.
	cases := []*models.Case{
		mkCase("A", models.ChannelCall, day(10), body(700)),
		mkCase("A", models.ChannelEmail, day(11), body(60)),
		mkCase("A", models.ChannelEmail, day(4), body(500)),
	}

	b := bundleFor(t, run(t, cases), "A")
	assert.Equal(t, models.StatusSelected, b.CallCase.Status)
	assert.Equal(t, models.FallbackNone, b.CallCase.Fallback)
	assert.Equal(t, models.StatusSelected, b.EmailCase.Status)
	assert.Equal(t, models.FallbackDateWidening, b.EmailCase.Fallback)
}

func TestSelect_DateWideningExclusivity(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2026, 2, d, 0, 0, 0, 0, time.UTC)
	}
	cases := []*models.Case{
		mkCase("A", models.ChannelEmail, day(8), body(500)),  // 1 day before start
		mkCase("A", models.ChannelEmail, day(10), body(60)),  // in range, too thin
		mkCase("B", models.ChannelEmail, day(16), body(500)), // 2 days after end
		mkCase("C", models.ChannelEmail, day(2), body(500)),  // exactly start-7
	}

	for _, b := range run(t, cases) {
		for _, result := range []models.SelectionResult{b.CallCase, b.EmailCase} {
			if result.Fallback != models.FallbackDateWidening {
				continue
			}
			d, ok := result.Case.Date()
			require.True(t, ok)
			outside := d.Before(periodStart) || d.After(periodEnd)
			assert.True(t, outside, "widened pick %s dated inside the period", result.CaseID)
			assert.False(t, d.Before(periodStart.AddDate(0, 0, -7)))
			assert.False(t, d.After(periodEnd.AddDate(0, 0, 7)))
		}
	}
}

func TestSelect_RosterSortedAndExcludesUnknown(t *testing.T) {
	day := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	outOfRange := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	cases := []*models.Case{
		mkCase("湯本", models.ChannelEmail, day, body(400)),
		mkCase("濱﨑彩那", models.ChannelEmail, outOfRange, body(400)),
		mkCase(models.AgentUnknown, models.ChannelEmail, day, body(400)),
		mkCase("Aoki", models.ChannelEmail, day, body(400)),
	}

	bundles := run(t, cases)

	agents := make([]string, 0, len(bundles))
	for _, b := range bundles {
		agents = append(agents, b.Agent)
	}
	// Unknown is dropped; 濱﨑彩那 has no in-range activity but is still
	// on the roster because the roster spans the full case list.
	assert.Equal(t, []string{"Aoki", "湯本", "濱﨑彩那"}, agents)
}

func TestSelect_AtMostOnePerChannel(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2026, 2, d, 0, 0, 0, 0, time.UTC)
	}
	cases := []*models.Case{
		mkCase("A", models.ChannelEmail, day(9), body(400)),
		mkCase("A", models.ChannelEmail, day(10), body(400)),
		mkCase("A", models.ChannelEmail, day(11), body(400)),
		mkCase("A", models.ChannelCall, day(12), body(700)),
		mkCase("A", models.ChannelCall, day(13), body(700)),
	}

	bundles := run(t, cases)
	require.Len(t, bundles, 1)
	b := bundles[0]
	assert.Equal(t, models.StatusSelected, b.CallCase.Status)
	assert.Equal(t, models.StatusSelected, b.EmailCase.Status)
	assert.NotNil(t, b.CallCase.Case)
	assert.NotNil(t, b.EmailCase.Case)
}

func TestSelect_SeededDeterminism(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2026, 2, d, 0, 0, 0, 0, time.UTC)
	}
	cases := []*models.Case{
		mkCase("A", models.ChannelEmail, day(9), body(400)),
		mkCase("A", models.ChannelEmail, day(10), body(400)),
		mkCase("A", models.ChannelEmail, day(11), body(400)),
		mkCase("A", models.ChannelEmail, day(12), body(400)),
	}
	inRange, _ := sampler.SplitByPeriod(cases, periodStart, periodEnd)

	first := sampler.New(rand.New(rand.NewSource(7))).Select(inRange, cases, periodStart, periodEnd)
	for i := 0; i < 5; i++ {
		again := sampler.New(rand.New(rand.NewSource(7))).Select(inRange, cases, periodStart, periodEnd)
		assert.Equal(t, first[0].EmailCase.CaseID, again[0].EmailCase.CaseID)
	}
}

func TestSplitByPeriod(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2026, 2, d, 0, 0, 0, 0, time.UTC)
	}
	inStart := mkCase("A", models.ChannelEmail, day(9), body(10))
	inEnd := mkCase("A", models.ChannelEmail, day(14), body(10))
	before := mkCase("A", models.ChannelEmail, day(8), body(10))
	after := mkCase("A", models.ChannelEmail, day(15), body(10))

	dateless := models.NewCase("CASE_A_00010101")
	dateless.AddInteraction(&models.Interaction{ID: "x", Channel: models.ChannelEmail, Agent: "A"})

	in, out := sampler.SplitByPeriod(
		[]*models.Case{inStart, inEnd, before, after, dateless},
		periodStart, periodEnd,
	)

	assert.ElementsMatch(t, []*models.Case{inStart, inEnd}, in)
	assert.ElementsMatch(t, []*models.Case{before, after, dateless}, out)
}
