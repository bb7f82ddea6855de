package formatter_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ryoyaiwata8-sudo/mail-review/formatter"
	"github.com/ryoyaiwata8-sudo/mail-review/models"
)

func sampleBundles() []models.SelectionBundle {
	return []models.SelectionBundle{
		{
			Agent: "湯本",
			CallCase: models.SelectionResult{
				Status: models.StatusSelected,
				CaseID: "CASE_湯本_20260210",
				Reason: "Volume gate: 650 >= 600 (CALL strict)",
			},
			EmailCase: models.SelectionResult{
				Status:   models.StatusSelected,
				CaseID:   "CASE_湯本_20260204",
				Reason:   "Volume gate: 500 >= 350 (EMAIL strict)",
				Fallback: models.FallbackDateWidening,
			},
		},
		{
			Agent: "濱﨑彩那",
			CallCase: models.SelectionResult{
				Status: models.StatusSkipped,
				Reason: "No evaluable CALL case found in target or extended range",
			},
			EmailCase: models.SelectionResult{
				Status:   models.StatusSelected,
				CaseID:   "CASE_濱﨑彩那_20260211",
				Reason:   "Structure rescue: 1 points >= 1 (volume 200 < 350)",
				Fallback: models.FallbackLooseGate,
			},
		},
	}
}

func TestFormatText(t *testing.T) {
	tests := map[string]struct {
		bundles  []models.SelectionBundle
		contains []string
	}{
		"Empty": {
			bundles:  nil,
			contains: nil,
		},
		"TwoAgents": {
			bundles: sampleBundles(),
			contains: []string{
				"[AGENT: 湯本]",
				"CALL  : CASE_湯本_20260210 (strict)",
				"EMAIL : CASE_湯本_20260204 (date_widening)",
				"[AGENT: 濱﨑彩那]",
				"CALL  : skipped (No evaluable CALL case found in target or extended range)",
				"EMAIL : CASE_濱﨑彩那_20260211 (loose_gate)",
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			output := formatter.FormatText(tt.bundles)
			for _, s := range tt.contains {
				assert.Contains(t, output, s)
			}
		})
	}
}

func TestFormatJSON(t *testing.T) {
	output := formatter.FormatJSON(sampleBundles())

	for _, s := range []string{
		`"agent": "湯本"`,
		`"channel": "CALL"`,
		`"status": "selected"`,
		`"case_id": "CASE_湯本_20260210"`,
		`"tier": "date_widening"`,
		`"fallback": "loose_gate"`,
		`"status": "skipped"`,
	} {
		assert.Contains(t, output, s)
	}
}

func TestFormatCSV(t *testing.T) {
	output := formatter.FormatCSV(sampleBundles())
	lines := strings.Split(strings.TrimSpace(output), "\n")

	// Check header
	assert.Equal(t, "Agent,Channel,Status,CaseID,Tier,Reason", lines[0])
	// One row per agent per channel.
	assert.Len(t, lines, 5)
	assert.Contains(t, output, "湯本,CALL,selected,CASE_湯本_20260210,strict,Volume gate: 650 >= 600 (CALL strict)")
	assert.Contains(t, output, "濱﨑彩那,CALL,skipped,,exhausted,No evaluable CALL case found in target or extended range")
}
