// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/homedash/internal/config"
	"github.com/tomtom215/homedash/internal/logging"
	"github.com/tomtom215/homedash/internal/supervisor"
)

func main() {
	issueToken := flag.Bool("issue-token", false, "print a bearer token for mutating routes and exit")
	subject := flag.String("subject", "homedash", "token subject (with -issue-token)")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime (with -issue-token)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		// Logging isn't configured yet.
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	if *issueToken {
		if err := printToken(os.Stdout, cfg.Security, *subject, *ttl); err != nil {
			logging.Fatal().Err(err).Msg("Failed to issue token")
		}
		return
	}

	logging.Info().
		Str("deployment", cfg.Mode.Deployment).
		Str("addr", cfg.Server.Addr()).
		Msg("Starting Homedash")

	a, err := buildApp(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer a.close()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureDecay:     30,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		a.close()
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}
	a.supervise(tree)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", cfg.Server.Addr()).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	if err := <-errCh; err != nil && ctx.Err() == nil {
		logging.Error().Err(err).Msg("Supervisor tree stopped unexpectedly")
	}

	if unstopped, err := tree.UnstoppedServiceReport(); err != nil {
		logging.Warn().Err(err).Msg("Could not get unstopped service report")
	} else if len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop cleanly")
		}
	}

	logging.Info().Msg("Shutdown complete")
}
