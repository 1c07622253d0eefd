// cmd/viralpipe/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/socialpulse/viralpipe/internal/analyzer"
	"github.com/socialpulse/viralpipe/internal/config"
	"github.com/socialpulse/viralpipe/internal/errors"
	"github.com/socialpulse/viralpipe/internal/monitoring"
	"github.com/socialpulse/viralpipe/internal/output"
	"github.com/socialpulse/viralpipe/internal/pipeline"
	"github.com/socialpulse/viralpipe/internal/resolver"
	"github.com/socialpulse/viralpipe/internal/scraper"
	"github.com/socialpulse/viralpipe/internal/utils"
)

// Version information (set by build flags)
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: viralpipe run <config.yaml>")
			os.Exit(1)
		}
		runPipeline(os.Args[2])
	case "validate":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: viralpipe validate <config.yaml>")
			os.Exit(1)
		}
		validateConfig(os.Args[2])
	case "template":
		printTemplate()
	case "version":
		fmt.Printf("viralpipe %s (built %s, commit %s)\n", version, buildTime, gitCommit)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`viralpipe - social video viral analytics pipeline

Usage:
  viralpipe run <config.yaml>       Run the pipeline once
  viralpipe validate <config.yaml>  Validate a configuration file
  viralpipe template                Print a starter configuration file
  viralpipe version                 Print version information
  viralpipe help                    Show this help`)
}

func printTemplate() {
	data, err := yaml.Marshal(config.GenerateTemplate())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to render template: %v\n", err)
		os.Exit(1)
	}
	fmt.Print(string(data))
}

func validateConfig(file string) {
	if _, err := config.LoadFromFile(file); err != nil {
		fmt.Fprintf(os.Stderr, "configuration invalid: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("configuration %s is valid\n", file)
}

func runPipeline(file string) {
	logger := utils.NewComponentLogger("main")

	cfg, err := config.LoadFromFile(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(exitCode(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var metrics *monitoring.Metrics
	var ops *monitoring.Server
	if cfg.Monitoring.Enabled {
		metrics = monitoring.NewMetrics()
		ops = monitoring.NewServer(cfg.Monitoring.Address)
		ops.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			ops.Shutdown(shutdownCtx)
		}()
	}

	manager, err := output.NewManager(ctx, cfg.Outputs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build outputs: %v\n", err)
		os.Exit(exitCode(err))
	}
	defer manager.Close()

	opts := []pipeline.Option{pipeline.WithLogger(utils.NewComponentLogger("pipeline"))}
	if metrics != nil {
		opts = append(opts, pipeline.WithObserver(metrics))
	}
	if cfg.Stages.Resolve {
		opts = append(opts, pipeline.WithResolver(resolver.New(cfg.Resolver)))
	}
	if cfg.Stages.Analyze {
		a, err := analyzer.New(ctx, cfg.Analyzer)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create analyzer: %v\n", err)
			os.Exit(exitCode(err))
		}
		opts = append(opts, pipeline.WithAnalyzer(a))
	}
	if cfg.Stages.UploadAssets {
		store, err := output.AssetStoreFor(ctx, cfg.Outputs)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create asset store: %v\n", err)
			os.Exit(exitCode(err))
		}
		opts = append(opts, pipeline.WithAssetStore(store))
	}

	p, err := pipeline.New(cfg, scraper.New(cfg.Scraper), manager.Sinks(), opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build pipeline: %v\n", err)
		os.Exit(exitCode(err))
	}

	summary, runErr := p.Run(ctx)
	if metrics != nil {
		metrics.ObserveRun(runErr == nil)
	}
	if ops != nil {
		ops.SetSummary(summary)
	}

	printSummary(summary)

	if runErr != nil {
		logger.Errorf("pipeline run failed: %v", runErr)
		os.Exit(exitCode(runErr))
	}
}

func printSummary(summary interface{}) {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return
	}
	fmt.Println(string(data))
}

// exitCode maps the failure taxonomy onto process exit codes: configuration
// problems are distinguishable from runtime failures in scripts.
func exitCode(err error) int {
	if errors.IsConfig(err) {
		return 2
	}
	return 1
}
