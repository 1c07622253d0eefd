// cmd/server/main.go

// Standalone ops server: serves Prometheus metrics and health for
// deployments where the pipeline runs as a scheduled job and the scrape
// endpoint has to outlive individual runs.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/socialpulse/viralpipe/internal/config"
	"github.com/socialpulse/viralpipe/internal/monitoring"
)

func main() {
	addr := ":9090"
	if len(os.Args) > 1 {
		cfg, err := config.LoadFromFile(os.Args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
			os.Exit(2)
		}
		addr = cfg.Monitoring.Address
	}

	monitoring.NewMetrics()
	server := monitoring.NewServer(addr)
	server.Start()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown failed: %v\n", err)
		os.Exit(1)
	}
}
