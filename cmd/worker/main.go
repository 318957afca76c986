package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/trace/internal/client/config"
	"github.com/dmitrijs2005/trace/internal/logging"
	"github.com/dmitrijs2005/trace/internal/worker"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger := logging.NewJSONLogger(os.Stdout, cfg.SlogLevel())

	app, err := worker.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error(ctx, err.Error())
		os.Exit(1)
	}

}
