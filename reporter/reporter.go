// Package reporter renders the weekly Markdown reports. Two modes share
// one layout: score mode leads with the numeric grading, coach mode
// leads with evidence and improvement guidance.
package reporter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ryoyaiwata8-sudo/mail-review/models"
)

// Mode selects the report emphasis.
type Mode string

const (
	ModeScore Mode = "score"
	ModeCoach Mode = "coach"
)

// Reporter renders case results as Markdown.
type Reporter struct {
	mode Mode
}

func New(mode Mode) *Reporter {
	return &Reporter{mode: mode}
}

// GenerateReport renders all results for one reporting period, grouped
// by agent. Skipped channel slots are rendered with their reason so the
// report accounts for every agent and channel, not only the evaluated
// ones.
func (r *Reporter) GenerateReport(results []models.CaseResult, start, end time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Add-On Value Weekly Report (%s ~ %s)\n\n",
		start.Format("2006-01-02"), end.Format("2006-01-02"))

	byAgent := make(map[string][]models.CaseResult)
	for _, res := range results {
		byAgent[res.Agent] = append(byAgent[res.Agent], res)
	}
	agents := make([]string, 0, len(byAgent))
	for agent := range byAgent {
		agents = append(agents, agent)
	}
	sort.Strings(agents)

	for _, agent := range agents {
		agentResults := byAgent[agent]
		fmt.Fprintf(&sb, "## Agent: %s\n\n", agent)
		r.writeSummary(&sb, agentResults)

		for _, res := range agentResults {
			if res.Status != "evaluated" || res.Evaluation == nil {
				fmt.Fprintf(&sb, "### %s: skipped\n", res.Channel)
				fmt.Fprintf(&sb, "- **Reason**: %s\n\n", res.Reason)
				continue
			}
			r.writeCase(&sb, res)
		}
		sb.WriteString("---\n\n")
	}

	return sb.String()
}

func (r *Reporter) writeSummary(sb *strings.Builder, results []models.CaseResult) {
	evaluated := 0
	var scoreSum float64
	for _, res := range results {
		if res.Status == "evaluated" && res.Evaluation != nil {
			evaluated++
			scoreSum += res.Evaluation.Scores.Average()
		}
	}
	fmt.Fprintf(sb, "**Cases Reviewed**: %d\n", evaluated)
	if evaluated > 0 {
		fmt.Fprintf(sb, "**Avg Score**: %.1f/5.0\n", scoreSum/float64(evaluated))
	}
	sb.WriteString("\n")
}

func (r *Reporter) writeCase(sb *strings.Builder, res models.CaseResult) {
	tier := "strict"
	if res.Fallback != models.FallbackNone {
		tier = string(res.Fallback)
	}
	fmt.Fprintf(sb, "### Case: %s (%s, %s)\n", res.CaseID, res.Channel, tier)

	eval := res.Evaluation
	scores := fmt.Sprintf("丁寧さ %d / 明確さ %d / 正確さ %d / 共感 %d",
		eval.Scores.Politeness, eval.Scores.Clarity, eval.Scores.Accuracy, eval.Scores.Empathy)

	if r.mode == ModeCoach {
		fmt.Fprintf(sb, "- **Good Point (Evidence)**: %s\n", orNA(eval.Evidence))
		fmt.Fprintf(sb, "- **Improvement**: %s\n", orNA(eval.Improvement))
		fmt.Fprintf(sb, "- **Comment**: %s\n", eval.Comment)
		fmt.Fprintf(sb, "- **Scores**: %s\n", scores)
	} else {
		fmt.Fprintf(sb, "- **Scores**: %s\n", scores)
		fmt.Fprintf(sb, "- **Comment**: %s\n", eval.Comment)
		fmt.Fprintf(sb, "- **Good Point (Evidence)**: %s\n", orNA(eval.Evidence))
		fmt.Fprintf(sb, "- **Improvement**: %s\n", orNA(eval.Improvement))
	}

	if res.Channel == models.ChannelCall && res.TotalDurationSec > 0 {
		fmt.Fprintf(sb, "- **Hold Time**: %.0fs of %.0fs (%.1f%%)\n",
			res.HoldTotalSec, res.TotalDurationSec, res.HoldTotalSec/res.TotalDurationSec*100)
	}
	sb.WriteString("\n")
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
