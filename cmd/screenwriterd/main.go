/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Command screenwriterd serves the backend API for local development.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"screenwriter/internal/backend"
	"screenwriter/internal/config"
	applog "screenwriter/internal/log"
	"screenwriter/internal/version"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cancel()
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath, addr, dsn string
	cmd := &cobra.Command{
		Use:           "screenwriterd",
		Short:         "Serve the screenwriter backend API",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if dsn != "" {
				cfg.Server.DatabaseURL = dsn
			}
			applog.Init(applog.Options{
				Level:     cfg.Logging.Level,
				Format:    cfg.Logging.Format,
				AddSource: cfg.Logging.Source,
				File:      cfg.Logging.File,
			})
			return serve(cmd.Context(), cfg.Server)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Configuration file path")
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address, overriding server.addr")
	cmd.Flags().StringVar(&dsn, "database-url", "", "Postgres DSN for the film catalog, overriding server.database_url")
	return cmd
}

func loadConfig(path string) (config.AppConfig, error) {
	if strings.TrimSpace(path) == "" {
		cfg, _, err := config.Load()
		return cfg, err
	}
	cfg, _, err := config.LoadFrom(path)
	return cfg, err
}

func serve(ctx context.Context, cfg config.ServerConfig) error {
	l := applog.WithComponent("screenwriterd")
	srv, closeCatalog, err := backend.NewServerFromConfig(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeCatalog(); err != nil {
			l.Warn("close catalog", slog.Any("err", err))
		}
	}()

	catalog := "memory"
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		catalog = "postgres"
	}
	l.Info("starting backend",
		slog.String("addr", cfg.Addr),
		slog.String("catalog", catalog),
		slog.Bool("auth", cfg.AuthSecret != ""),
	)
	err = srv.ListenAndServe(ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	l.Info("shut down")
	return err
}
