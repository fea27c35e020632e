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

package handler

import (
	"context"
	"log/slog"

	"github.com/gitrelay/gitrelayd/internal/event"
	"github.com/gitrelay/gitrelayd/internal/executor"
)

// Handler processes one category of webhook delivery.
type Handler interface {
	// CanHandle reports whether this handler wants the delivery. It must be
	// cheap and must not call the executor.
	CanHandle(delivery event.Delivery) bool

	// Handle runs the full decision and dispatch for the delivery.
	Handle(ctx context.Context, delivery event.Delivery) Outcome
}

// Registry holds an ordered list of handlers. Dispatch walks them in
// registration order and the first handler that accepts the delivery wins.
type Registry struct {
	handlers []Handler
	provider *executor.Provider
	logger   *slog.Logger
}

// NewRegistry returns an empty registry backed by the given executor provider.
func NewRegistry(provider *executor.Provider, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		provider: provider,
		logger:   logger,
	}
}

// Register appends a handler. Registration order determines dispatch priority.
func (r *Registry) Register(h Handler) {
	r.handlers = append(r.handlers, h)
}

// Dispatch routes the delivery to the first matching handler. Deliveries no
// handler accepts produce an unhandled outcome without touching the executor.
func (r *Registry) Dispatch(ctx context.Context, delivery event.Delivery) Outcome {
	for _, h := range r.handlers {
		if h.CanHandle(delivery) {
			return h.Handle(ctx, delivery)
		}
	}
	r.logger.Info("no handler for event",
		"event_type", delivery.EventType,
		"delivery_id", delivery.DeliveryID)
	return Unhandled(delivery.EventType)
}

// Ready reports whether the dispatch pipeline can reach its executor. It
// forces the lazy executor build without issuing a run.
func (r *Registry) Ready(ctx context.Context) error {
	_, err := r.provider.Executor()
	return err
}
