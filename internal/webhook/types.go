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

import "time"

const (
	serviceName = "gitrelayd"
	version     = "0.1.0"
)

// EventResponse is the body returned for every accepted webhook delivery.
type EventResponse struct {
	Status    string    `json:"status"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	ThreadID  string    `json:"thread_id,omitempty"`
	Message   string    `json:"message,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// HealthResponse is the body of the basic liveness probe.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Service   string    `json:"service"`
}

// UpstreamHealthResponse extends the liveness probe with the result of a
// GitHub API credential check.
type UpstreamHealthResponse struct {
	HealthResponse
	UpstreamStatus     string `json:"upstream_status"`
	RateLimitRemaining int    `json:"rate_limit_remaining,omitempty"`
	RateLimitReset     string `json:"rate_limit_reset,omitempty"`
	Error              string `json:"error,omitempty"`
}

// DispatcherHealthResponse reports whether the dispatch pipeline can reach
// its executor.
type DispatcherHealthResponse struct {
	HealthResponse
	DispatcherStatus string `json:"dispatcher_status"`
	Error            string `json:"error,omitempty"`
}
