package formatter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ryoyaiwata8-sudo/mail-review/models"
)

// BundleData holds prepared selection data used by all formatters
type BundleData struct {
	Agent    string         `json:"agent"`
	Channels []ChannelEntry `json:"channels"`
}

// ChannelEntry is one channel slot of an agent's bundle, flattened for
// display.
type ChannelEntry struct {
	Channel  models.Channel  `json:"channel"`
	Status   string          `json:"status"`
	CaseID   string          `json:"case_id,omitempty"`
	Tier     string          `json:"tier"`
	Reason   string          `json:"reason"`
	Fallback models.Fallback `json:"fallback,omitempty"`
}

// prepareBundleData flattens bundles into per-channel display rows
func prepareBundleData(bundles []models.SelectionBundle) []BundleData {
	data := make([]BundleData, 0, len(bundles))
	for _, b := range bundles {
		data = append(data, BundleData{
			Agent: b.Agent,
			Channels: []ChannelEntry{
				channelEntry(models.ChannelCall, b.CallCase),
				channelEntry(models.ChannelEmail, b.EmailCase),
			},
		})
	}
	return data
}

func channelEntry(channel models.Channel, r models.SelectionResult) ChannelEntry {
	return ChannelEntry{
		Channel:  channel,
		Status:   string(r.Status),
		CaseID:   r.CaseID,
		Tier:     tierName(r),
		Reason:   r.Reason,
		Fallback: r.Fallback,
	}
}

// tierName labels the tier that produced a result for display.
func tierName(r models.SelectionResult) string {
	if r.Status == models.StatusSkipped {
		return "exhausted"
	}
	switch r.Fallback {
	case models.FallbackLooseGate:
		return "loose_gate"
	case models.FallbackDateWidening:
		return "date_widening"
	default:
		return "strict"
	}
}

// FormatText returns the text representation of the selection run
func FormatText(bundles []models.SelectionBundle) string {
	data := prepareBundleData(bundles)
	var sb strings.Builder

	for _, agent := range data {
		sb.WriteString(fmt.Sprintf("[AGENT: %s]\n", agent.Agent))
		for _, ch := range agent.Channels {
			if ch.Status == string(models.StatusSelected) {
				sb.WriteString(fmt.Sprintf("  %-5s : %s (%s)\n", ch.Channel, ch.CaseID, ch.Tier))
				sb.WriteString(fmt.Sprintf("          %s\n", ch.Reason))
			} else {
				sb.WriteString(fmt.Sprintf("  %-5s : skipped (%s)\n", ch.Channel, ch.Reason))
			}
		}
	}

	return sb.String()
}

// FormatJSON returns the JSON representation of the selection run
func FormatJSON(bundles []models.SelectionBundle) string {
	data := prepareBundleData(bundles)
	jsonBytes, _ := json.MarshalIndent(data, "", "  ")
	return string(jsonBytes)
}

// FormatCSV returns the CSV representation of the selection run
func FormatCSV(bundles []models.SelectionBundle) string {
	data := prepareBundleData(bundles)
	var sb strings.Builder
	writer := csv.NewWriter(&sb)

	// Write header
	writer.Write([]string{
		"Agent", "Channel", "Status", "CaseID", "Tier", "Reason",
	})

	for _, agent := range data {
		for _, ch := range agent.Channels {
			writer.Write([]string{
				agent.Agent,
				string(ch.Channel),
				ch.Status,
				ch.CaseID,
				ch.Tier,
				ch.Reason,
			})
		}
	}

	writer.Flush()
	return sb.String()
}
