package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/rebeliceyang/lazytdm/internal/config"
	"github.com/rebeliceyang/lazytdm/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := pflag.NewFlagSet("tdm-server", pflag.ExitOnError)
	config.ServerFlags(flags)
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.Load(flags)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.General.Level()}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store server.Store
	if cfg.Server.DatabaseURL != "" {
		pg, err := server.NewPostgresStore(ctx, cfg.Server.DatabaseURL)
		if err != nil {
			return err
		}
		logger.Info("using postgres store")
		store = pg
	} else {
		logger.Info("using in-memory store")
		store = server.NewMemoryStore()
	}
	defer store.Close()

	return server.Run(ctx, server.Config{
		Addr:   cfg.Server.Addr,
		Store:  store,
		Logger: logger,
	})
}
