// Copyright 2025 The Gitrelayd Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command gitrelayd runs the GitHub App webhook listener.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/gitrelay/gitrelayd/internal/config"
	"github.com/gitrelay/gitrelayd/internal/executor"
	"github.com/gitrelay/gitrelayd/internal/github"
	"github.com/gitrelay/gitrelayd/internal/handler"
	"github.com/gitrelay/gitrelayd/internal/webhook"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(log)

	auth, err := github.NewAuthenticator(cfg.GitHub.AppID, cfg.GitHub.InstallationID, cfg.GitHub.PrivateKeyPEM, cfg.GitHub.APIURL)
	if err != nil {
		log.Error("failed to initialize GitHub App credentials", "error", err)
		os.Exit(1)
	}
	defer auth.Close()

	provider := executor.NewProvider(func() (executor.Executor, error) {
		return executor.NewClient(cfg.Executor.URL)
	})

	registry := handler.NewRegistry(provider, log)
	registry.Register(handler.NewIssueAssignedHandler(provider, cfg.Executor.StepLimit, log))
	registry.Register(handler.NewCommentTriggerHandler(provider, cfg.Executor.StepLimit, log))

	srv := webhook.NewServer(webhook.Config{
		Host:                cfg.Listener.Host,
		Port:                cfg.Listener.Port,
		WebhookPath:         cfg.Listener.WebhookPath,
		MaxConcurrentEvents: cfg.Listener.MaxConcurrentEvents,
		DispatchTimeout:     cfg.DispatchTimeout(),
	}, registry, auth, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		log.Error("webhook server failed", "error", err)
		os.Exit(1)
	}
	log.Info("webhook server stopped")
}
