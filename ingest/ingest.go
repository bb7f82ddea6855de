// Package ingest loads raw interactions from a data directory: call
// metadata from audio filenames and email rows from spreadsheet exports.
// It guarantees every interaction it emits has an ID, a channel, an
// agent (possibly Unknown) and, for calls, a file path.
package ingest

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ryoyaiwata8-sudo/mail-review/models"
)

// excludeKeywords marks workbooks that are not email logs (task
// tracking, generated reports, evaluation and check sheets share the
// data directory).
var excludeKeywords = []string{"タスク管理", "レポート", "評価", "チェック"}

// Loader scans one data directory for interaction sources.
type Loader struct {
	dir      string
	agentMap map[string]string
	log      *slog.Logger
}

// NewLoader builds a loader for dir. extraAgents entries extend the
// built-in agent name map; keys are matched case-insensitively.
func NewLoader(dir string, extraAgents map[string]string, log *slog.Logger) *Loader {
	if log == nil {
		log = slog.Default()
	}
	merged := make(map[string]string, len(defaultAgentMap)+len(extraAgents))
	for k, v := range defaultAgentMap {
		merged[strings.ToUpper(k)] = v
	}
	for k, v := range extraAgents {
		merged[strings.ToUpper(k)] = v
	}
	return &Loader{dir: dir, agentMap: merged, log: log}
}

// LoadAll returns every interaction found in the data directory, calls
// first. Individual unreadable files are logged and skipped; only a
// missing directory is a hard error.
func (l *Loader) LoadAll() ([]*models.Interaction, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("reading data dir: %w", err)
	}

	var interactions []*models.Interaction
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		path := filepath.Join(l.dir, name)

		switch {
		case strings.HasSuffix(name, ".mp3"):
			i, err := l.loadAudio(path, entry)
			if err != nil {
				l.log.Warn("skipping audio file", slog.String("file", name), slog.Any("error", err))
				continue
			}
			interactions = append(interactions, i)
		case strings.HasSuffix(name, ".xlsx") && !isExcluded(name):
			rows, err := l.loadEmailWorkbook(path)
			if err != nil {
				l.log.Warn("skipping email workbook", slog.String("file", name), slog.Any("error", err))
				continue
			}
			interactions = append(interactions, rows...)
		case strings.HasSuffix(name, ".csv") && !isExcluded(name):
			rows, err := l.loadEmailCSV(path)
			if err != nil {
				l.log.Warn("skipping email csv", slog.String("file", name), slog.Any("error", err))
				continue
			}
			interactions = append(interactions, rows...)
		}
	}

	l.log.Info("ingestion complete", slog.Int("interactions", len(interactions)))
	return interactions, nil
}

func isExcluded(name string) bool {
	for _, kw := range excludeKeywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}
