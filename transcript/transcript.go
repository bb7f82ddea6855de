// Package transcript turns call recordings into text before the content
// gate runs. Results are cached next to the audio file so repeated runs
// over the same data directory do not re-bill the transcription API.
package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ryoyaiwata8-sudo/mail-review/models"
)

// Result is the structured output of one transcription: the transcript
// text plus hold-time detail extracted from the same pass.
type Result struct {
	Text             string               `json:"text"`
	TotalDurationSec float64              `json:"total_duration_sec"`
	HoldTotalSec     float64              `json:"hold_total_sec"`
	HoldSegments     []models.HoldSegment `json:"hold_segments"`
}

// Provider produces a Result for one audio file.
type Provider interface {
	Transcribe(ctx context.Context, path string) (Result, error)
}

// Service wraps a Provider with sidecar caches next to the recording:
// "<audio>.json" for structured results, "<audio>.txt" as a plain-text
// transcript left over from older tooling.
type Service struct {
	provider Provider
	log      *slog.Logger
}

func NewService(provider Provider, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{provider: provider, log: log}
}

// Transcribe returns the cached result for path if present, otherwise
// calls the provider and caches what it returns. A cache entry without
// a positive total duration is treated as stale and reprocessed. A
// plain "<audio>.txt" transcript counts as a hit too, text only with
// no hold detail, so existing transcripts are never re-billed.
func (s *Service) Transcribe(ctx context.Context, path string) (Result, error) {
	cachePath := path + ".json"
	if data, err := os.ReadFile(cachePath); err == nil {
		var cached Result
		if err := json.Unmarshal(data, &cached); err == nil && cached.TotalDurationSec > 0 {
			return cached, nil
		}
		s.log.Debug("stale transcript cache, reprocessing", slog.String("file", path))
	}
	if data, err := os.ReadFile(path + ".txt"); err == nil && strings.TrimSpace(string(data)) != "" {
		return Result{Text: string(data)}, nil
	}

	res, err := s.provider.Transcribe(ctx, path)
	if err != nil {
		return Result{}, fmt.Errorf("transcribing %s: %w", path, err)
	}

	if data, err := json.Marshal(res); err == nil {
		if err := os.WriteFile(cachePath, data, 0o644); err != nil {
			s.log.Warn("could not write transcript cache", slog.String("file", cachePath), slog.Any("error", err))
		}
	}
	return res, nil
}

// FillBodies populates the transcript body of every untranscribed call
// in the given cases. It must run before the content gate is applied to
// those cases; gating reads the populated bodies. Per-file failures are
// logged and leave the body empty, which the gate treats as no content.
func (s *Service) FillBodies(ctx context.Context, cases []*models.Case) {
	for _, c := range cases {
		for _, i := range c.Interactions {
			if i.Channel != models.ChannelCall || i.FilePath == "" || i.Body != "" {
				continue
			}
			res, err := s.Transcribe(ctx, i.FilePath)
			if err != nil {
				s.log.Warn("transcription failed", slog.String("file", i.FilePath), slog.Any("error", err))
				continue
			}
			i.Body = res.Text
		}
	}
}
