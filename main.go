package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/ryoyaiwata8-sudo/mail-review/config"
	"github.com/ryoyaiwata8-sudo/mail-review/evaluator"
	"github.com/ryoyaiwata8-sudo/mail-review/exporter"
	"github.com/ryoyaiwata8-sudo/mail-review/formatter"
	"github.com/ryoyaiwata8-sudo/mail-review/gate"
	"github.com/ryoyaiwata8-sudo/mail-review/ingest"
	"github.com/ryoyaiwata8-sudo/mail-review/linker"
	"github.com/ryoyaiwata8-sudo/mail-review/metrics"
	"github.com/ryoyaiwata8-sudo/mail-review/models"
	"github.com/ryoyaiwata8-sudo/mail-review/reporter"
	"github.com/ryoyaiwata8-sudo/mail-review/sampler"
	"github.com/ryoyaiwata8-sudo/mail-review/transcript"
	"github.com/ryoyaiwata8-sudo/mail-review/watcher"
)

const (
	dashboardFile = "dashboard_data.json"
	// dashboardHistory bounds the file under watch mode.
	dashboardHistory = 50
)

func main() {
	// Define flags
	dataDir := flag.String("data", "", "Data directory with audio files and email logs (overrides config)")
	configPath := flag.String("config", "", "Optional YAML config file")
	startStr := flag.String("start", "", "Period start date YYYY-MM-DD (default: Monday of the current week)")
	endStr := flag.String("end", "", "Period end date YYYY-MM-DD (default: today)")
	format := flag.String("format", "text", "Selection output format: text|json|csv")
	seed := flag.Int64("seed", 0, "Random seed for tie-breaking (0 = time-based)")
	watch := flag.Bool("watch", false, "Keep running and re-process when the data directory changes")
	metricsAddr := flag.String("metrics-addr", "", "Address to expose Prometheus metrics (e.g., :9090)")
	pushGateway := flag.String("push-url", "", "Pushgateway URL to push metrics to (e.g., http://localhost:9091)")
	wait := flag.Bool("wait", false, "Keep process running after completion to allow for metric scraping")

	// Parse command-line flags
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(log)

	// Start metrics server if address provided
	if *metricsAddr != "" {
		go func() {
			http.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
			fmt.Printf("Metrics server listening on %s/metrics\n", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, nil); err != nil {
				fmt.Printf("Metrics server error: %v\n", err)
			}
		}()
	}

	// Validate format enum
	validFormats := map[string]bool{"text": true, "json": true, "csv": true}
	if !validFormats[*format] {
		fmt.Printf("Error: format must be one of: text, json, csv (got: %s)\n", *format)
		os.Exit(1)
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}

	start, end, err := resolvePeriod(*startStr, *endStr)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Target Period: %s ~ %s\n", start.Format("2006-01-02"), end.Format("2006-01-02"))

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	p := newPipeline(cfg, log, *format, rngSeed)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := p.run(ctx, start, end); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if *watch {
		w := watcher.New(cfg.DataDir, func(ctx context.Context) {
			if err := p.run(ctx, start, end); err != nil {
				log.Error("re-processing failed", slog.Any("error", err))
			}
		}, log)
		if err := w.Run(ctx); err != nil && ctx.Err() == nil {
			fmt.Printf("Watcher error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Handle metrics pushing or waiting
	if *pushGateway != "" {
		jobName := "mail_review"
		if err := push.New(*pushGateway, jobName).Gatherer(metrics.Registry).Push(); err != nil {
			fmt.Fprintf(os.Stderr, "Error pushing to Pushgateway: %v\n", err)
		} else {
			fmt.Println("\nMetrics successfully pushed to Pushgateway")
		}
	}

	if *wait && *metricsAddr != "" {
		fmt.Println("\nProcess kept alive for metric scraping. Press Ctrl+C to exit.")
		<-ctx.Done()
		fmt.Println("\nExiting...")
	}
}

// resolvePeriod parses the period flags, defaulting to Monday of the
// current week through today.
func resolvePeriod(startStr, endStr string) (time.Time, time.Time, error) {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	weekday := int(today.Weekday()+6) % 7 // Monday = 0
	start := today.AddDate(0, 0, -weekday)
	end := today

	var err error
	if startStr != "" {
		start, err = time.Parse("2006-01-02", startStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid -start date: %v", err)
		}
	}
	if endStr != "" {
		end, err = time.Parse("2006-01-02", endStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid -end date: %v", err)
		}
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("period end %s is before start %s", end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	return start, end, nil
}

// pipeline wires the collaborators for one configuration; run executes
// one full ingest-link-select-evaluate-export pass.
type pipeline struct {
	cfg        *config.Config
	log        *slog.Logger
	format     string
	seed       int64
	thresholds gate.Thresholds
	loader     *ingest.Loader
	transcript *transcript.Service
	evaluator  *evaluator.Evaluator
}

func newPipeline(cfg *config.Config, log *slog.Logger, format string, seed int64) *pipeline {
	var provider transcript.Provider
	var llm evaluator.LLMClient
	if key := cfg.APIKey(); key != "" {
		provider = transcript.NewGeminiProvider(key)
		llm = evaluator.NewGeminiLLMClient(key)
	} else {
		log.Warn("no API key configured, using canned transcription and evaluation")
		provider = &transcript.StaticProvider{}
		llm = evaluator.MockLLMClient{}
	}

	return &pipeline{
		cfg:        cfg,
		log:        log,
		format:     format,
		seed:       seed,
		thresholds: cfg.Thresholds(),
		loader:     ingest.NewLoader(cfg.DataDir, cfg.AgentMap, log),
		transcript: transcript.NewService(provider, log),
		evaluator:  evaluator.New(llm),
	}
}

func (p *pipeline) run(ctx context.Context, start, end time.Time) error {
	runID := uuid.NewString()
	metrics.ResetRunGauges()

	// Step 1: Data load & linking
	interactions, err := p.loader.LoadAll()
	if err != nil {
		return err
	}
	for _, i := range interactions {
		metrics.InteractionsIngested.WithLabelValues(string(i.Channel)).Inc()
	}

	cases := linker.Link(interactions)
	metrics.CasesLinked.Set(float64(len(cases)))
	fmt.Printf("Total Cases Found: %d\n", len(cases))

	// Step 2: pre-transcribe in-range calls so gating sees transcripts
	inRange, _ := sampler.SplitByPeriod(cases, start, end)
	p.transcript.FillBodies(ctx, inRange)
	for _, c := range inRange {
		for _, mode := range []gate.Mode{gate.Strict, gate.Loose} {
			v := gate.EvaluateWith(c, mode, p.thresholds)
			result := "fail"
			if v.Passed {
				result = "pass"
			}
			metrics.GateVerdicts.WithLabelValues(string(v.Channel), string(mode), result).Inc()
		}
	}

	// Step 3: tiered dual-sample selection (CALLx1 + EMAILx1 per agent)
	engine := sampler.NewWithThresholds(rand.New(rand.NewSource(p.seed)), p.thresholds)
	bundles := engine.Select(inRange, cases, start, end)
	fmt.Print(formatSelection(p.format, bundles))

	// Step 4: evaluation
	results := p.evaluate(ctx, runID, bundles)

	// Step 5: export and reports
	if err := p.export(results, start, end); err != nil {
		return err
	}
	return writeDashboard(runID, results)
}

func (p *pipeline) evaluate(ctx context.Context, runID string, bundles []models.SelectionBundle) []models.CaseResult {
	var results []models.CaseResult
	for _, bundle := range bundles {
		for _, slot := range []struct {
			channel models.Channel
			result  models.SelectionResult
		}{
			{models.ChannelCall, bundle.CallCase},
			{models.ChannelEmail, bundle.EmailCase},
		} {
			res := models.CaseResult{
				RunID:    runID,
				Agent:    bundle.Agent,
				Channel:  slot.channel,
				Reason:   slot.result.Reason,
				Fallback: slot.result.Fallback,
			}
			if slot.result.Status != models.StatusSelected {
				res.Status = "skipped"
				metrics.AgentsSkippedTotal.Inc()
				metrics.SelectionsByTier.WithLabelValues(string(slot.channel), "skipped").Inc()
				results = append(results, res)
				continue
			}
			metrics.SelectionsByTier.WithLabelValues(string(slot.channel), tierLabel(slot.result.Fallback)).Inc()

			c := slot.result.Case
			res.CaseID = c.CaseID

			if slot.channel == models.ChannelCall {
				p.attachHoldTime(ctx, c, &res)
			}

			evalStart := time.Now()
			evaluation, err := p.evaluator.EvaluateCase(ctx, c)
			metrics.EvaluationDurationSeconds.Observe(time.Since(evalStart).Seconds())
			if err != nil {
				p.log.Error("evaluation failed", slog.String("case", c.CaseID), slog.Any("error", err))
				res.Status = "skipped"
				res.Reason = fmt.Sprintf("evaluation failed: %v", err)
				results = append(results, res)
				continue
			}
			res.Status = "evaluated"
			res.Evaluation = evaluation
			results = append(results, res)
		}
	}
	return results
}

// attachHoldTime re-reads the structured transcription for the case's
// calls to carry hold-time totals into the report. Results were cached
// during the pre-gating pass, so this does not re-bill.
func (p *pipeline) attachHoldTime(ctx context.Context, c *models.Case, res *models.CaseResult) {
	for _, i := range c.Interactions {
		if i.Channel != models.ChannelCall || i.FilePath == "" {
			continue
		}
		tStart := time.Now()
		info, err := p.transcript.Transcribe(ctx, i.FilePath)
		metrics.TranscriptionDurationSeconds.Observe(time.Since(tStart).Seconds())
		if err != nil {
			p.log.Warn("hold-time extraction failed", slog.String("file", i.FilePath), slog.Any("error", err))
			continue
		}
		i.Body = info.Text
		res.HoldTotalSec += info.HoldTotalSec
		res.TotalDurationSec += info.TotalDurationSec
		res.HoldSegments = append(res.HoldSegments, info.HoldSegments...)
	}
}

func (p *pipeline) export(results []models.CaseResult, start, end time.Time) error {
	var evaluated []models.CaseResult
	for _, r := range results {
		if r.Status == "evaluated" {
			evaluated = append(evaluated, r)
		}
	}
	if len(evaluated) > 0 {
		if err := exporter.ExportCSV(evaluated, "CHECK_LOG_CALL.csv", "CHECK_LOG_EMAIL.csv"); err != nil {
			return err
		}
		if err := exporter.ExportExcel(evaluated, "weekly_check_sheet.xlsx"); err != nil {
			return err
		}
	}

	scoreReport := reporter.New(reporter.ModeScore).GenerateReport(results, start, end)
	coachReport := reporter.New(reporter.ModeCoach).GenerateReport(results, start, end)
	for name, content := range map[string]string{
		"score_report.md":  scoreReport,
		"coach_report.md":  coachReport,
		"weekly_report.md": scoreReport,
	} {
		if err := os.WriteFile(name, []byte(content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	fmt.Println("Reports generated: score_report.md, coach_report.md, and weekly_report.md.")
	return nil
}

// writeDashboard prepends a run summary to the dashboard JSON consumed
// by the monitoring page, newest first, keeping the last
// dashboardHistory runs.
func writeDashboard(runID string, results []models.CaseResult) error {
	var entries []dashboardEntry
	if data, err := os.ReadFile(dashboardFile); err == nil {
		// Malformed history is discarded rather than blocking the run.
		_ = json.Unmarshal(data, &entries)
	}

	entry := dashboardEntry{RunID: runID, Timestamp: time.Now()}
	for _, r := range results {
		line := dashboardCaseLine{
			Agent:   r.Agent,
			Channel: string(r.Channel),
			CaseID:  r.CaseID,
			Status:  r.Status,
			Reason:  r.Reason,
		}
		if r.Evaluation != nil {
			line.AvgScore = r.Evaluation.Scores.Average()
		}
		entry.Results = append(entry.Results, line)
	}
	entries = append([]dashboardEntry{entry}, entries...)
	if len(entries) > dashboardHistory {
		entries = entries[:dashboardHistory]
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(dashboardFile, data, 0o644)
}

type dashboardEntry struct {
	RunID     string              `json:"run_id"`
	Timestamp time.Time           `json:"timestamp"`
	Results   []dashboardCaseLine `json:"results"`
}

type dashboardCaseLine struct {
	Agent    string  `json:"agent"`
	Channel  string  `json:"channel"`
	CaseID   string  `json:"case_id,omitempty"`
	Status   string  `json:"status"`
	Reason   string  `json:"reason"`
	AvgScore float64 `json:"avg_score,omitempty"`
}

func formatSelection(format string, bundles []models.SelectionBundle) string {
	switch format {
	case "json":
		return formatter.FormatJSON(bundles)
	case "csv":
		return formatter.FormatCSV(bundles)
	default: // "text"
		return formatter.FormatText(bundles)
	}
}

func tierLabel(f models.Fallback) string {
	if f == models.FallbackNone {
		return "strict"
	}
	return string(f)
}
