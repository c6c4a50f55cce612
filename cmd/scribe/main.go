// Command scribe runs the research assistant core against a project
// root and prints its synthesized report.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	scribe "github.com/arcoslabs/scribe"
	"github.com/arcoslabs/scribe/internal/config"
	"github.com/arcoslabs/scribe/remotereasoner"
	"github.com/arcoslabs/scribe/scholar"
	"github.com/arcoslabs/scribe/tools/cleancsv"
	"github.com/arcoslabs/scribe/tools/cleanmarkdown"
	"github.com/arcoslabs/scribe/tools/file"
	"github.com/arcoslabs/scribe/tools/sandbox"
	scholartool "github.com/arcoslabs/scribe/tools/scholar"
	"github.com/arcoslabs/scribe/tools/searchcode"
	"github.com/arcoslabs/scribe/tools/summarize"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("scribe", flag.ContinueOnError)
	root := fs.String("root", ".", "Root directory to analyze")
	listTools := fs.Bool("tools", false, "List registered tools and exit")
	validateConfig := fs.Bool("validate-config", false, "Validate models.ini and exit")
	modelsPath := fs.String("models", "models.ini", "Path to models.ini")
	tuningPath := fs.String("tuning", "scribe.toml", "Path to scribe.toml")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	logger := slog.Default()

	if *validateConfig {
		return runValidateConfig(*modelsPath, logger)
	}

	modelsCfg, err := config.LoadModels(*modelsPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "scribe: "+err.Error())
		return 1
	}
	tuningCfg, err := config.LoadTuning(*tuningPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "scribe: "+err.Error())
		return 1
	}

	cas, err := scribe.NewContentStore(*root)
	if err != nil {
		fmt.Fprintln(os.Stderr, "scribe: "+err.Error())
		return 1
	}

	scholarPool := buildScholarPool()
	registry := buildToolRegistry(*root, cas, scholarPool)

	if *listTools {
		for _, def := range registry.List() {
			fmt.Printf("%s\t%s\n", def.Name, def.Description)
		}
		return 0
	}

	opts := []scribe.OrchestratorOption{
		scribe.WithToolRegistry(registry),
		scribe.WithScholarPool(scholarPool),
		scribe.WithLogger(logger),
		scribe.WithBaseConcurrency(tuningCfg.Planner.BaseConcurrency),
		// scribe.toml holds drift rates; the monitor takes similarity thresholds.
		scribe.WithDriftMonitor(scribe.NewDriftMonitor(1-tuningCfg.Drift.WarnThreshold, 1-tuningCfg.Drift.DangerThreshold)),
	}

	if apiKey := os.Getenv("OPENROUTER_API_KEY"); apiKey != "" {
		reasoner := remotereasoner.New(apiKey, modelsCfg.Primary, modelsCfg.OpenRouterURL)
		wrapped := scribe.WithRateLimit(scribe.WithRetry(reasoner), scribe.RPM(60))
		opts = append(opts,
			scribe.WithReasoner(wrapped, modelsCfg.Primary),
			scribe.WithModelRouter(scribe.NewModelRouter(modelsCfg.Primary, modelsCfg.Fallback, modelsCfg.FallbackInterval)),
		)
		logger.Info("remote reasoner configured", "primary", modelsCfg.Primary, "fallback", modelsCfg.Fallback)
	} else {
		logger.Info("OPENROUTER_API_KEY not set, running local-only")
	}

	orch := scribe.NewOrchestrator(*root, opts...)

	question := strings.Join(fs.Args(), " ")
	if question == "" {
		fmt.Print("Question: ")
		fmt.Scanln(&question)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	report, _, err := orch.Run(ctx, question)
	if err != nil {
		fmt.Fprintln(os.Stderr, "scribe: "+err.Error())
		return 1
	}
	fmt.Println(report)
	return 0
}

func buildToolRegistry(root string, cas *scribe.ContentStore, pool *scribe.ScholarPool) *scribe.ToolRegistry {
	registry := scribe.NewToolRegistry()
	registry.Add(file.New(root))
	registry.Add(searchcode.New(root, cas))
	registry.Add(sandbox.New(root, 30))
	registry.Add(cleancsv.New(root))
	registry.Add(cleanmarkdown.New(root))
	registry.Add(summarize.New(scribe.NewVerifierGate(nil, "")))
	registry.Add(scholartool.New(pool))
	return registry
}

func buildScholarPool() *scribe.ScholarPool {
	providers := []scribe.ScholarProvider{
		scholar.ArxivProvider{},
		scholar.CrossrefProvider{},
		scholar.OpenAlexProvider{},
		scholar.SemanticScholarProvider{},
	}
	return scribe.NewScholarPool(providers)
}

func runValidateConfig(modelsPath string, logger *slog.Logger) int {
	cfg, err := config.LoadModels(modelsPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "scribe: "+err.Error())
		return 1
	}
	var problems []string
	if cfg.Primary == "" {
		problems = append(problems, "primary model is empty")
	}
	if cfg.FallbackInterval <= 0 {
		problems = append(problems, "fallback_interval must be > 0")
	}
	if cfg.OpenRouterURL == "" {
		problems = append(problems, "openrouter base_url is empty")
	}
	if len(problems) > 0 {
		for _, p := range problems {
			fmt.Fprintln(os.Stderr, "scribe: config: "+p)
		}
		return 1
	}
	logger.Info("models config valid", "primary", cfg.Primary, "fallback", cfg.Fallback)
	fmt.Println("models.ini OK")
	return 0
}
