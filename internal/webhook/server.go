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

package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/gitrelay/gitrelayd/internal/event"
	"github.com/gitrelay/gitrelayd/internal/github"
	"github.com/gitrelay/gitrelayd/internal/handler"
)

// maxBodyBytes caps webhook payload reads. GitHub itself caps deliveries at
// 25 MB.
const maxBodyBytes = 25 << 20

// UpstreamChecker verifies that GitHub App credentials still work.
type UpstreamChecker interface {
	RateLimit(ctx context.Context, installationID int64) (*github.RateLimitStatus, error)
}

// Config carries the listener settings for a Server.
type Config struct {
	Host                string
	Port                int
	WebhookPath         string
	MaxConcurrentEvents int64
	DispatchTimeout     time.Duration
}

// Server receives GitHub webhook deliveries and dispatches them through a
// handler registry.
type Server struct {
	cfg      Config
	registry *handler.Registry
	upstream UpstreamChecker
	limiter  *semaphore.Weighted
	logger   *slog.Logger
	server   *http.Server
}

// NewServer creates a webhook server. The upstream checker may be nil, in
// which case the upstream health probe reports the credentials as unchecked.
func NewServer(cfg Config, registry *handler.Registry, upstream UpstreamChecker, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxConcurrentEvents <= 0 {
		cfg.MaxConcurrentEvents = 10
	}
	if cfg.DispatchTimeout <= 0 {
		cfg.DispatchTimeout = 300 * time.Second
	}
	if cfg.WebhookPath == "" {
		cfg.WebhookPath = "/github/events"
	}
	return &Server{
		cfg:      cfg,
		registry: registry,
		upstream: upstream,
		limiter:  semaphore.NewWeighted(cfg.MaxConcurrentEvents),
		logger:   logger,
	}
}

// Handler returns the server's routing handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.cfg.WebhookPath, s.handleWebhook)
	mux.HandleFunc("/", s.handleHealth)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/health/upstream", s.handleUpstreamHealth)
	mux.HandleFunc("/health/dispatcher", s.handleDispatcherHealth)
	return mux
}

// Start runs the server until the context is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler: s.Handler(),
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting webhook server", "addr", s.server.Addr, "path", s.cfg.WebhookPath)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.logger.Info("shutting down webhook server")
	return s.server.Shutdown(ctx)
}

// deliveryMeta is the minimal envelope peeked at before dispatch.
type deliveryMeta struct {
	Zen        string `json:"zen"`
	Repository struct {
		FullName string `json:"full_name"`
	} `json:"repository"`
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	eventType := r.Header.Get("X-GitHub-Event")
	if eventType == "" {
		http.Error(w, "Missing X-GitHub-Event header", http.StatusBadRequest)
		return
	}
	deliveryID := r.Header.Get("X-GitHub-Delivery")
	if deliveryID == "" {
		http.Error(w, "Missing X-GitHub-Delivery header", http.StatusBadRequest)
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.logger.Error("failed to read request body", "error", err)
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var meta deliveryMeta
	if err := json.Unmarshal(payload, &meta); err != nil {
		s.logger.Error("failed to parse JSON payload", "error", err, "delivery_id", deliveryID)
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	s.logger.Info("received webhook delivery",
		"event_type", eventType,
		"delivery_id", deliveryID,
		"repository", meta.Repository.FullName)

	if eventType == "ping" {
		writeJSON(w, http.StatusOK, EventResponse{
			Status:    "pong",
			EventType: eventType,
			Timestamp: time.Now().UTC(),
			Message:   "Zen: " + meta.Zen,
		})
		return
	}

	outcome := s.process(r.Context(), event.Delivery{
		EventType:  eventType,
		DeliveryID: deliveryID,
		Payload:    payload,
	})
	writeJSON(w, http.StatusOK, toResponse(eventType, outcome))
}

// process runs one delivery through the registry under the admission limiter
// and the dispatch deadline. Acquiring a slot blocks; timed-out dispatches
// may keep running downstream, unobserved.
func (s *Server) process(ctx context.Context, delivery event.Delivery) handler.Outcome {
	if err := s.limiter.Acquire(ctx, 1); err != nil {
		return handler.Failed("", fmt.Errorf("dispatch not admitted: %w", err))
	}

	dispatchCtx, cancel := context.WithTimeout(context.Background(), s.cfg.DispatchTimeout)
	defer cancel()

	done := make(chan handler.Outcome, 1)
	go func() {
		defer s.limiter.Release(1)
		done <- s.registry.Dispatch(dispatchCtx, delivery)
	}()

	select {
	case outcome := <-done:
		return outcome
	case <-dispatchCtx.Done():
		s.logger.Warn("dispatch timed out",
			"event_type", delivery.EventType,
			"delivery_id", delivery.DeliveryID,
			"timeout", s.cfg.DispatchTimeout)
		return handler.Timeout(s.cfg.DispatchTimeout)
	}
}

func toResponse(eventType string, outcome handler.Outcome) EventResponse {
	message := outcome.Summary
	if message == "" {
		message = outcome.Reason
	}
	return EventResponse{
		Status:    string(outcome.Status),
		EventType: eventType,
		Timestamp: outcome.Timestamp,
		ThreadID:  outcome.ThreadID,
		Message:   message,
		Error:     outcome.Error,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/health" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, healthNow())
}

// handleUpstreamHealth checks that the GitHub App credentials can still reach
// the API. Probe failures degrade the response body, never the transport.
func (s *Server) handleUpstreamHealth(w http.ResponseWriter, r *http.Request) {
	resp := UpstreamHealthResponse{HealthResponse: healthNow()}

	if s.upstream == nil {
		resp.UpstreamStatus = "unchecked"
		writeJSON(w, http.StatusOK, resp)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status, err := s.upstream.RateLimit(ctx, 0)
	if err != nil {
		s.logger.Error("upstream health probe failed", "error", err)
		resp.Status = "degraded"
		resp.UpstreamStatus = "error"
		resp.Error = err.Error()
		writeJSON(w, http.StatusOK, resp)
		return
	}

	resp.UpstreamStatus = "ok"
	resp.RateLimitRemaining = status.Remaining
	resp.RateLimitReset = status.Reset.UTC().Format(time.RFC3339)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDispatcherHealth(w http.ResponseWriter, r *http.Request) {
	resp := DispatcherHealthResponse{HealthResponse: healthNow()}

	if err := s.registry.Ready(r.Context()); err != nil {
		resp.Status = "degraded"
		resp.DispatcherStatus = "error"
		resp.Error = err.Error()
		writeJSON(w, http.StatusOK, resp)
		return
	}

	resp.DispatcherStatus = "ok"
	writeJSON(w, http.StatusOK, resp)
}

func healthNow() HealthResponse {
	return HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   version,
		Service:   serviceName,
	}
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
