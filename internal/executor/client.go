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

package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/gitrelay/gitrelayd/internal/event"
)

// RunRequest carries one canonical request into the executor.
type RunRequest struct {
	ThreadID  string
	Request   event.Request
	StepLimit int
}

// RunResult is what the executor eventually reports back.
type RunResult struct {
	Summary string `json:"summary"`
	Error   string `json:"error"`
}

// Executor runs a canonical request to completion. Implementations block
// until the run finishes or ctx is cancelled.
type Executor interface {
	Run(ctx context.Context, req RunRequest) (*RunResult, error)
}

// Client talks to the task executor service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the executor service at baseURL.
func NewClient(baseURL string) (*Client, error) {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("executor URL is not configured")
	}

	return &Client{
		baseURL: baseURL,
		// No client-level timeout: the per-dispatch context governs how
		// long a run may take.
		httpClient: &http.Client{},
	}, nil
}

type runPayload struct {
	ThreadID       string           `json:"thread_id"`
	Messages       []messagePayload `json:"messages"`
	Project        string           `json:"project,omitempty"`
	RecursionLimit int              `json:"recursion_limit"`
}

type messagePayload struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Run submits the request to the executor and waits for its result.
func (c *Client) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	payload := runPayload{
		ThreadID:       req.ThreadID,
		Project:        req.Request.Project,
		RecursionLimit: req.StepLimit,
	}
	for _, msg := range req.Request.Messages {
		payload.Messages = append(payload.Messages, messagePayload{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode run request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/runs", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build run request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("executor request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return nil, fmt.Errorf("executor returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	result := &RunResult{}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return nil, fmt.Errorf("failed to decode run result: %w", err)
	}
	return result, nil
}

// Provider materializes the process-wide executor handle lazily and at most
// once; the first call's result, success or failure, is what every later
// call sees.
type Provider struct {
	build func() (Executor, error)
	once  sync.Once
	exec  Executor
	err   error
}

// NewProvider wraps a build function in a lazy, idempotent provider.
func NewProvider(build func() (Executor, error)) *Provider {
	return &Provider{build: build}
}

// Executor returns the shared executor handle, building it on first use.
func (p *Provider) Executor() (Executor, error) {
	p.once.Do(func() {
		p.exec, p.err = p.build()
	})
	return p.exec, p.err
}
