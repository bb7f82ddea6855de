package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/xuri/excelize/v2"

	apperrors "github.com/ryoyaiwata8-sudo/mail-review/errors"
	"github.com/ryoyaiwata8-sudo/mail-review/models"
)

// Email log column headers as exported by the mail tool.
const (
	colMailNumber = "メール番号"
	colDateTime   = "日時"
	colAgent      = "担当者"
	colSubject    = "件名"
	colBody       = "本文"
	colSender     = "差出人"
)

// timestampLayouts covers the date-time shapes seen across exports.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04",
	"2006-01-02",
	"2006/01/02",
	time.RFC3339,
}

// loadEmailWorkbook reads the first sheet of an xlsx email log. The
// first row is the header; rows are matched to columns by header name so
// column order in the export does not matter.
func (l *Loader) loadEmailWorkbook(path string) ([]*models.Interaction, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &apperrors.ParseError{File: filepath.Base(path), Err: apperrors.ErrNoSheets}
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	return l.emailRows(path, rows)
}

// loadEmailCSV reads a csv-shaped email log with the same columns.
func (l *Loader) loadEmailCSV(path string) ([]*models.Interaction, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	return l.emailRows(path, records)
}

// emailRows converts header+data rows into EMAIL interactions. Rows with
// no mail number get a content-hash fallback ID; rows with an
// unparseable timestamp default to now, per the source system's
// behavior.
func (l *Loader) emailRows(path string, rows [][]string) ([]*models.Interaction, error) {
	if len(rows) == 0 {
		return nil, &apperrors.ParseError{File: filepath.Base(path), Row: 1, Err: apperrors.ErrEmptyRecord}
	}

	cols := make(map[string]int)
	for idx, h := range rows[0] {
		cols[strings.TrimSpace(h)] = idx
	}
	if _, ok := cols[colAgent]; !ok {
		return nil, &apperrors.ParseError{
			File: filepath.Base(path),
			Row:  1,
			Err:  fmt.Errorf("%w: %s", apperrors.ErrMissingColumn, colAgent),
		}
	}

	cell := func(row []string, name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var interactions []*models.Interaction
	for n, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}

		id := cell(row, colMailNumber)
		if id == "" {
			id = fmt.Sprintf("EMAIL_%d", xxhash.Sum64String(strings.Join(row, "|")))
		}

		ts := parseTimestamp(cell(row, colDateTime))
		if ts.IsZero() {
			// Defaulted to now rather than rejected; the row is still a
			// real email even when the export mangled the date.
			perr := &apperrors.ParseError{File: filepath.Base(path), Row: n + 2, Err: apperrors.ErrInvalidTimestamp}
			l.log.Debug("email row without parseable timestamp", "error", perr)
			ts = time.Now()
		}

		interactions = append(interactions, &models.Interaction{
			ID:          id,
			Channel:     models.ChannelEmail,
			Timestamp:   ts,
			Agent:       l.NormalizeAgent(cell(row, colAgent)),
			CustomerKey: cell(row, colSender),
			Subject:     cell(row, colSubject),
			Body:        cell(row, colBody),
			FilePath:    path,
		})
	}
	return interactions, nil
}

func parseTimestamp(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
