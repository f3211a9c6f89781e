package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"catalog/consolidator/internal/config"
	"catalog/consolidator/internal/container"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := config.ConfigureLogging(cfg.Log); err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}
	log.Info("Starting catalog consolidation...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := container.New(ctx, cfg, afero.NewOsFs())
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer app.Close()

	result, err := app.Run(ctx)
	if err != nil {
		log.Errorf("Consolidation failed: %v", err)
		app.Close()
		os.Exit(1)
	}

	if len(result.Failures) > 0 {
		log.Warnf("Finished with %d excluded input units", len(result.Failures))
		return
	}

	log.Infof("Consolidation finished successfully: %s", cfg.Output.Dir)
}
