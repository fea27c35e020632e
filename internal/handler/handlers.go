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
	"time"

	"github.com/gitrelay/gitrelayd/internal/event"
	"github.com/gitrelay/gitrelayd/internal/executor"
)

const skipActionNotConfigured = "event action not configured for processing"

// dispatcher carries the pieces every concrete handler needs to turn an
// accepted delivery into an executor run.
type dispatcher struct {
	provider  *executor.Provider
	stepLimit int
	logger    *slog.Logger
	now       func() time.Time
}

func newDispatcher(provider *executor.Provider, stepLimit int, logger *slog.Logger) dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return dispatcher{
		provider:  provider,
		stepLimit: stepLimit,
		logger:    logger,
		now:       time.Now,
	}
}

// invoke builds the canonical request for the delivery and runs it. Transport
// and executor failures become error outcomes; a completed run is a success
// even when the executor reports a run-level error string.
func (d dispatcher) invoke(ctx context.Context, delivery event.Delivery) Outcome {
	threadID := event.ThreadID(delivery.Payload, d.now())
	req := event.BuildRequest(delivery.EventType, delivery.Payload)

	exec, err := d.provider.Executor()
	if err != nil {
		return Failed(threadID, err)
	}

	d.logger.Info("dispatching event",
		"event_type", delivery.EventType,
		"delivery_id", delivery.DeliveryID,
		"thread_id", threadID)

	result, err := exec.Run(ctx, executor.RunRequest{
		ThreadID:  threadID,
		Request:   req,
		StepLimit: d.stepLimit,
	})
	if err != nil {
		return Failed(threadID, err)
	}

	out := Success(threadID, result.Summary)
	out.Error = result.Error
	return out
}

// IssueAssignedHandler dispatches issues events whose issue was assigned to
// the bot account.
type IssueAssignedHandler struct {
	dispatcher
}

// NewIssueAssignedHandler returns a handler for issues/assigned deliveries.
func NewIssueAssignedHandler(provider *executor.Provider, stepLimit int, logger *slog.Logger) *IssueAssignedHandler {
	return &IssueAssignedHandler{dispatcher: newDispatcher(provider, stepLimit, logger)}
}

func (h *IssueAssignedHandler) CanHandle(delivery event.Delivery) bool {
	return delivery.EventType == "issues"
}

func (h *IssueAssignedHandler) Handle(ctx context.Context, delivery event.Delivery) Outcome {
	if event.Action(delivery.Payload) != "assigned" {
		return Skipped(skipActionNotConfigured)
	}
	if !event.ShouldProcess(delivery.EventType, delivery.Payload) {
		return Skipped("issue not assigned to the bot")
	}
	return h.invoke(ctx, delivery)
}

// CommentTriggerHandler dispatches issue_comment events whose comment body
// mentions the bot trigger phrase.
type CommentTriggerHandler struct {
	dispatcher
}

// NewCommentTriggerHandler returns a handler for issue_comment/created
// deliveries.
func NewCommentTriggerHandler(provider *executor.Provider, stepLimit int, logger *slog.Logger) *CommentTriggerHandler {
	return &CommentTriggerHandler{dispatcher: newDispatcher(provider, stepLimit, logger)}
}

func (h *CommentTriggerHandler) CanHandle(delivery event.Delivery) bool {
	return delivery.EventType == "issue_comment"
}

func (h *CommentTriggerHandler) Handle(ctx context.Context, delivery event.Delivery) Outcome {
	if event.Action(delivery.Payload) != "created" {
		return Skipped(skipActionNotConfigured)
	}
	if !event.ShouldProcess(delivery.EventType, delivery.Payload) {
		return Skipped("comment does not contain a trigger phrase")
	}
	return h.invoke(ctx, delivery)
}
