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

// Package config loads service settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config carries every setting the service reads at startup.
type Config struct {
	GitHub   GitHubConfig
	Listener ListenerConfig
	Executor ExecutorConfig
	LogLevel slog.Level
}

// GitHubConfig holds the GitHub App credentials.
type GitHubConfig struct {
	AppID          string
	InstallationID int64
	PrivateKeyPEM  string
	APIURL         string
}

// ListenerConfig holds the HTTP listener settings.
type ListenerConfig struct {
	Host                   string
	Port                   int
	WebhookPath            string
	MaxConcurrentEvents    int64
	DispatchTimeoutSeconds int
}

// ExecutorConfig holds the downstream executor settings.
type ExecutorConfig struct {
	URL       string
	StepLimit int
}

// Load reads configuration from environment variables, applying defaults and
// validating the credential settings. GITHUB_APP_PRIVATE_KEY may hold the PEM
// text itself or a path to a PEM file.
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("github_api_url", "https://api.github.com")
	v.SetDefault("listener_host", "0.0.0.0")
	v.SetDefault("listener_port", 8000)
	v.SetDefault("webhook_path", "/github/events")
	v.SetDefault("max_concurrent_events", 10)
	v.SetDefault("dispatch_timeout_seconds", 300)
	v.SetDefault("executor_url", "http://localhost:2024")
	v.SetDefault("executor_step_limit", 250)
	v.SetDefault("log_level", "INFO")

	appID := strings.TrimSpace(v.GetString("github_app_id"))
	if appID == "" {
		return Config{}, fmt.Errorf("GITHUB_APP_ID is required")
	}

	installationID := v.GetInt64("github_installation_id")
	if installationID <= 0 {
		return Config{}, fmt.Errorf("GITHUB_INSTALLATION_ID is required")
	}

	privateKey, err := resolvePrivateKey(v.GetString("github_app_private_key"))
	if err != nil {
		return Config{}, err
	}

	port := v.GetInt("listener_port")
	if port <= 0 || port > 65535 {
		return Config{}, fmt.Errorf("invalid LISTENER_PORT: %d", port)
	}

	maxEvents := v.GetInt64("max_concurrent_events")
	if maxEvents <= 0 {
		maxEvents = 10
	}

	timeoutSeconds := v.GetInt("dispatch_timeout_seconds")
	if timeoutSeconds <= 0 {
		timeoutSeconds = 300
	}

	stepLimit := v.GetInt("executor_step_limit")
	if stepLimit <= 0 {
		stepLimit = 250
	}

	level, err := parseLogLevel(v.GetString("log_level"))
	if err != nil {
		return Config{}, err
	}

	webhookPath := strings.TrimSpace(v.GetString("webhook_path"))
	if !strings.HasPrefix(webhookPath, "/") {
		return Config{}, fmt.Errorf("invalid WEBHOOK_PATH: %q", webhookPath)
	}

	return Config{
		GitHub: GitHubConfig{
			AppID:          appID,
			InstallationID: installationID,
			PrivateKeyPEM:  privateKey,
			APIURL:         strings.TrimSpace(v.GetString("github_api_url")),
		},
		Listener: ListenerConfig{
			Host:                   strings.TrimSpace(v.GetString("listener_host")),
			Port:                   port,
			WebhookPath:            webhookPath,
			MaxConcurrentEvents:    maxEvents,
			DispatchTimeoutSeconds: timeoutSeconds,
		},
		Executor: ExecutorConfig{
			URL:       strings.TrimSpace(v.GetString("executor_url")),
			StepLimit: stepLimit,
		},
		LogLevel: level,
	}, nil
}

// DispatchTimeout returns the per-dispatch wall-clock limit.
func (c Config) DispatchTimeout() time.Duration {
	return time.Duration(c.Listener.DispatchTimeoutSeconds) * time.Second
}

// resolvePrivateKey accepts either inline PEM text or a filesystem path to a
// PEM file.
func resolvePrivateKey(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("GITHUB_APP_PRIVATE_KEY is required")
	}
	if strings.HasPrefix(raw, "-----BEGIN") {
		return raw, nil
	}
	data, err := os.ReadFile(raw)
	if err != nil {
		return "", fmt.Errorf("failed to read GITHUB_APP_PRIVATE_KEY file: %w", err)
	}
	pem := strings.TrimSpace(string(data))
	if !strings.HasPrefix(pem, "-----BEGIN") {
		return "", fmt.Errorf("GITHUB_APP_PRIVATE_KEY file %s does not contain PEM data", raw)
	}
	return pem, nil
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "", "INFO":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid LOG_LEVEL: %q", raw)
	}
}
