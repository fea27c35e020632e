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
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gitrelay/gitrelayd/internal/event"
)

func TestNewClient_RequiresURL(t *testing.T) {
	if _, err := NewClient("  "); err == nil {
		t.Error("NewClient accepted an empty URL")
	}
}

func TestClient_Run(t *testing.T) {
	var received runPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/runs" || r.Method != http.MethodPost {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"summary": "done", "error": ""}`))
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	result, err := client.Run(context.Background(), RunRequest{
		ThreadID: "issue_1_7_1700000000",
		Request: event.Request{
			Messages: []event.Message{
				{Role: event.RoleSystem, Content: "context"},
				{Role: event.RoleHuman, Content: "task"},
			},
			Project: "widgets",
		},
		StepLimit: 250,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Summary != "done" {
		t.Errorf("summary is %q, expected %q", result.Summary, "done")
	}
	if received.ThreadID != "issue_1_7_1700000000" {
		t.Errorf("thread_id sent as %q", received.ThreadID)
	}
	if received.RecursionLimit != 250 {
		t.Errorf("recursion_limit sent as %d, expected 250", received.RecursionLimit)
	}
	if len(received.Messages) != 2 || received.Messages[0].Role != "system" {
		t.Errorf("messages sent as %+v", received.Messages)
	}
}

func TestClient_RunUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	if _, err := client.Run(context.Background(), RunRequest{}); err == nil {
		t.Error("Run succeeded against a failing executor")
	}
}

func TestClient_RunHonorsContext(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
	}))
	t.Cleanup(server.Close)
	t.Cleanup(func() { close(release) })

	client, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := client.Run(ctx, RunRequest{})
		done <- err
	}()

	<-started
	cancel()

	if err := <-done; err == nil {
		t.Error("Run returned nil after context cancellation")
	}
}

func TestProvider_BuildsOnce(t *testing.T) {
	var builds atomic.Int64
	provider := NewProvider(func() (Executor, error) {
		builds.Add(1)
		client, err := NewClient("http://localhost:2024")
		return client, err
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := provider.Executor(); err != nil {
				t.Errorf("Executor failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := builds.Load(); got != 1 {
		t.Errorf("provider built %d times, expected 1", got)
	}
}

func TestProvider_CachesBuildError(t *testing.T) {
	var builds atomic.Int64
	provider := NewProvider(func() (Executor, error) {
		builds.Add(1)
		return nil, errors.New("executor unavailable")
	})

	if _, err := provider.Executor(); err == nil {
		t.Fatal("Executor returned nil error for a failing build")
	}
	if _, err := provider.Executor(); err == nil {
		t.Fatal("second Executor call lost the build error")
	}
	if got := builds.Load(); got != 1 {
		t.Errorf("failing build ran %d times, expected 1", got)
	}
}
