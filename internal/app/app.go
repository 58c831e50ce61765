// Package app wires the full pipeline: config, connectivity preflight,
// LLM planning, concurrent search, pruning, summarization and the HTML
// report on disk.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/deusflow/ainews/internal/cache"
	"github.com/deusflow/ainews/internal/config"
	"github.com/deusflow/ainews/internal/diagnose"
	"github.com/deusflow/ainews/internal/fetch"
	"github.com/deusflow/ainews/internal/httpx"
	"github.com/deusflow/ainews/internal/llm"
	"github.com/deusflow/ainews/internal/logger"
	"github.com/deusflow/ainews/internal/metrics"
	"github.com/deusflow/ainews/internal/planner"
	"github.com/deusflow/ainews/internal/prune"
	"github.com/deusflow/ainews/internal/ratelimit"
	"github.com/deusflow/ainews/internal/render"
	"github.com/deusflow/ainews/internal/report"
	"github.com/deusflow/ainews/internal/search"
)

// Options are the run parameters collected by the CLI layer.
type Options struct {
	Topic      string
	OutputDir  string // overrides output.directory when set
	ConfigPath string
}

// Pipeline holds the already-constructed stages so tests can drive the
// flow with fakes.
type Pipeline struct {
	Orchestrator *search.Orchestrator
	Planner      *planner.Planner
	Summarizer   *report.Summarizer
	Limits       prune.Limits
}

// Execute runs plan, search, prune and summarize for a topic. A nil
// result report never happens: degraded outcomes carry an explanatory
// prologue instead.
func (p *Pipeline) Execute(ctx context.Context, topic string, catalog *search.Catalog, userTarget, minPerCore int) (*report.Report, []fetch.Item, error) {
	var plan []search.Task
	if p.Planner != nil {
		plan = p.Planner.Plan(ctx, topic, userTarget, minPerCore, catalog)
		if len(plan) > 0 {
			logger.Info("planner generated a dynamic search strategy")
		}
	}

	raw := p.Orchestrator.Run(ctx, topic, plan, catalog)
	if len(raw) == 0 {
		return nil, nil, nil
	}

	pruned := prune.Apply(raw, p.Limits)
	rep, err := p.Summarizer.Summarize(ctx, topic, pruned)
	if err != nil {
		return nil, pruned, err
	}
	return rep, pruned, nil
}

// Run is the CLI entry point: it assembles the pipeline from config
// and executes it once for the given topic.
func Run(ctx context.Context, opts Options) error {
	start := time.Now()
	defer func() {
		metrics.Global.RecordProcessingTime(time.Since(start))
		metrics.Global.SetLastRun()
	}()

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	logger.Init(cfg.Output.LogLevel)
	if err := cfg.Validate(); err != nil {
		metrics.Global.SetError(err.Error())
		return err
	}

	httpClient, err := httpx.NewClient(cfg.Proxy.HTTP, cfg.Proxy.HTTPS, 30*time.Second)
	if err != nil {
		return fmt.Errorf("failed to build http client: %w", err)
	}

	isGlobal, msg := diagnose.CheckConnectivity(ctx, httpClient)
	if !isGlobal {
		logger.Warn(msg)
		logger.Warn("results may be empty because Google/DuckDuckGo are blocked; configure 'proxy' in config.yaml for foreign sources")
	} else {
		logger.Info(msg)
	}

	catalog, err := search.LoadCatalog(cfg.Search.SourcesFile)
	if err != nil {
		return err
	}

	llmClient, err := llm.New(ctx, cfg.LLM, httpClient, ratelimit.New(cfg.LLM.MaxRequests))
	if err != nil {
		metrics.Global.SetError(err.Error())
		return err
	}
	defer func() {
		if c, ok := llmClient.(llm.Closer); ok {
			_ = c.Close()
		}
	}()

	params := fetch.Params{Region: cfg.Search.Region, TimeLimit: cfg.Search.TimeLimit}
	generic := genericEngine(cfg, httpClient, params)
	engines := search.Engines{
		Generic: generic,
		Site:    fetch.NewSiteSearch(generic),
		Feed:    fetch.NewGoogleNews(httpClient, "", ""),
	}

	pipe := &Pipeline{
		Orchestrator: search.NewOrchestrator(engines, search.Options{
			Concurrency: cfg.Search.Concurrency,
			Budget:      cfg.Search.Budget(),
			TotalTarget: cfg.Search.TotalNews,
		}),
		Planner:    planner.New(llmClient),
		Summarizer: report.NewSummarizer(llmClient),
		Limits: prune.Limits{
			MaxItems: minInt(cfg.Search.TotalNews, cfg.Search.MaxItems),
			MaxBody:  cfg.Search.BodyMaxChars,
		},
	}

	rep, _, err := pipe.Execute(ctx, opts.Topic, catalog, cfg.Search.TotalNews, cfg.Search.MinPerCoreSource)
	if err != nil {
		metrics.Global.SetError(err.Error())
		return err
	}
	if rep == nil {
		logger.Error("no news found", "topic", opts.Topic)
		if !isGlobal {
			logger.Warn("hint: you seem to be offline or in a restricted network, configure 'proxy' in config.yaml")
		}
		cause := "Unknown"
		if !isGlobal {
			cause = "Network/Proxy"
		}
		payload, _ := json.Marshal(map[string]string{"error": "No news found", "cause": cause})
		fmt.Println(string(payload))
		return nil
	}

	if len(rep.Items) == 0 {
		logger.Warn("report contains no stories, skipping HTML output", "prologue", rep.Prologue)
		return nil
	}

	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = cfg.Output.Directory
	}
	path, err := writeReport(rep, outputDir, time.Now())
	if err != nil {
		metrics.Global.SetError(err.Error())
		return err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}
	fileURL := "file://" + absPath

	logger.Info("html report saved", "path", path)
	fmt.Println("\n" + strings.Repeat("=", 50))
	fmt.Println("Report Generation Complete!")
	fmt.Printf("Browser Link: %s\n", fileURL)
	fmt.Printf("\033]8;;%s\033\\Click here to open report in browser\033]8;;\033\\\n", fileURL)
	fmt.Println(strings.Repeat("=", 50))
	return nil
}

// genericEngine prefers SerpApi when a key is configured, otherwise
// the keyless DuckDuckGo endpoint.
func genericEngine(cfg *config.Config, httpClient *http.Client, params fetch.Params) fetch.Searcher {
	if cfg.Search.SerpAPIKey != "" {
		logger.Info("generic engine: serpapi")
		return fetch.NewSerpAPI(cfg.Search.SerpAPIKey, params)
	}
	logger.Debug("generic engine: duckduckgo")
	return fetch.NewDuckDuckGo(httpClient, params, cache.New())
}

func writeReport(rep *report.Report, outputDir string, now time.Time) (string, error) {
	html, err := render.HTML(rep, now)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	fileName := fmt.Sprintf("%s_%s.html", strings.ReplaceAll(rep.Topic, " ", "_"), now.Format("2006-01-02"))
	path := filepath.Join(outputDir, fileName)
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return "", fmt.Errorf("failed to save html file: %w", err)
	}
	return path, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
