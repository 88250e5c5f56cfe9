package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/gistkeeper/internal/buildinfo"
	"github.com/dmitrijs2005/gistkeeper/internal/client/cli"
	"github.com/dmitrijs2005/gistkeeper/internal/client/config"
	"github.com/dmitrijs2005/gistkeeper/internal/filex"
	"github.com/dmitrijs2005/gistkeeper/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()

	// the knowledge base is usable without a remote
	if cfg.Backend == config.BackendGist && cfg.GistID == "" {
		fmt.Println("No gist id configured, working locally.")
		cfg.Backend = ""
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	if err := filex.EnsureParentDir(cfg.LogFile); err != nil {
		log.Fatalf("%v", err)
	}
	logger := logging.New(logging.Options{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  10,
		MaxBackups: 3,
	})

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}

}
