// Package exporter writes the check-log sheets consumed by the QA team:
// UTF-8-BOM CSV files Excel opens cleanly, plus an xlsx check sheet.
package exporter

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ryoyaiwata8-sudo/mail-review/models"
)

// Columns for the check log.
var csvColumns = []string{
	"case_id",
	"booking_id",
	"agent",
	"channel",
	"interaction_date",
	"tour_code",
	"hold_ratio",
	"interaction_url",
	"category",
	"check_item",
	"rating_symbol",
	"rating_num",
	"comment",
	"evidence",
}

// Score to symbol mapping used on the check sheet. 5 collapses to ◎;
// reviewers grade on the four-symbol scale.
var scoreToSymbol = map[int]string{1: "×", 2: "△", 3: "〇", 4: "◎", 5: "◎"}

// checkRow is one flattened line of the check sheet.
type checkRow struct {
	category string
	item     string
	symbol   string
	score    string
	comment  string
	evidence string
}

// extractDateStr pulls YYYYMMDD from a case ID and reformats it as
// YYYY-MM-DD; empty when the suffix is not a date.
func extractDateStr(caseID string) string {
	if len(caseID) < 8 {
		return ""
	}
	suffix := caseID[len(caseID)-8:]
	d, err := time.Parse("20060102", suffix)
	if err != nil {
		return ""
	}
	return d.Format("2006-01-02")
}

// guardTourCode wraps a digit-only tour code in an Excel formula
// (="02841") so the leading zeros survive opening the CSV. Codes with
// letters pass through untouched.
func guardTourCode(code string) string {
	if code == "" {
		return ""
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return code
		}
	}
	return fmt.Sprintf("=%q", code)
}

func interactionURL(caseID string, channel models.Channel) string {
	if channel == models.ChannelCall {
		return fmt.Sprintf("https://s3.travelstandard.jp/audio/%s.mp3", caseID)
	}
	return fmt.Sprintf("https://s3.travelstandard.jp/email/view/%s.html", caseID)
}

// resultRows expands one evaluation result into check sheet rows: the
// four score axes, the review notes, then the overall comment. Case
// metadata is written on the first row only so merged-cell style sheets
// stay readable.
func resultRows(res models.CaseResult) [][]string {
	if res.Evaluation == nil {
		return nil
	}
	eval := res.Evaluation

	items := []checkRow{
		scoreRow("応対品質", "丁寧さ", eval.Scores.Politeness),
		scoreRow("応対品質", "明確さ", eval.Scores.Clarity),
		scoreRow("応対品質", "正確さ", eval.Scores.Accuracy),
		scoreRow("応対品質", "共感", eval.Scores.Empathy),
		{category: "振り返り", item: "良かった点", comment: eval.Evidence},
		{category: "振り返り", item: "改善点", comment: eval.Improvement},
		{category: "総評", item: "全体コメント", comment: eval.Comment},
	}

	holdRatio := ""
	if res.Channel == models.ChannelCall {
		holdRatio = "0.0%"
		if res.TotalDurationSec > 0 {
			holdRatio = fmt.Sprintf("%.1f%%", res.HoldTotalSec/res.TotalDurationSec*100)
		}
	}

	rows := make([][]string, 0, len(items))
	for i, item := range items {
		first := i == 0
		meta := func(v string) string {
			if first {
				return v
			}
			return ""
		}
		rows = append(rows, []string{
			meta(res.CaseID),
			meta(eval.BookingID),
			meta(res.Agent),
			meta(string(res.Channel)),
			meta(extractDateStr(res.CaseID)),
			meta(guardTourCode(eval.TourCode)),
			meta(holdRatio),
			meta(interactionURL(res.CaseID, res.Channel)),
			item.category,
			item.item,
			item.symbol,
			item.score,
			item.comment,
			item.evidence,
		})
	}
	return rows
}

func scoreRow(category, item string, score int) checkRow {
	return checkRow{
		category: category,
		item:     item,
		symbol:   scoreToSymbol[score],
		score:    strconv.Itoa(score),
	}
}

// ExportCSV writes evaluated results into channel-split check logs. The
// files start with a UTF-8 BOM so Excel detects the encoding. Channels
// with no evaluated result produce no file.
func ExportCSV(results []models.CaseResult, callPath, emailPath string) error {
	var callRows, emailRows [][]string
	for _, res := range results {
		rows := resultRows(res)
		if res.Channel == models.ChannelCall {
			callRows = append(callRows, rows...)
		} else {
			emailRows = append(emailRows, rows...)
		}
	}

	if len(callRows) > 0 {
		if err := writeCSV(callPath, callRows); err != nil {
			return fmt.Errorf("writing call check log: %w", err)
		}
	}
	if len(emailRows) > 0 {
		if err := writeCSV(emailPath, emailRows); err != nil {
			return fmt.Errorf("writing email check log: %w", err)
		}
	}
	return nil
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if err := w.Write(csvColumns); err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
