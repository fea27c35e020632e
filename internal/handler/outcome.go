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
	"fmt"
	"time"
)

// Status enumerates the possible results of dispatching one delivery.
type Status string

const (
	StatusSuccess   Status = "success"
	StatusSkipped   Status = "skipped"
	StatusTimeout   Status = "timeout"
	StatusError     Status = "error"
	StatusUnhandled Status = "unhandled"
)

// Outcome is the single result shape for every dispatch path; exactly one
// status applies and every outcome is timestamped. The HTTP layer serializes
// it as-is.
type Outcome struct {
	Status    Status
	ThreadID  string
	Summary   string
	Reason    string
	Error     string
	EventType string
	Timestamp time.Time
}

// Success reports a completed downstream run.
func Success(threadID, summary string) Outcome {
	return Outcome{
		Status:    StatusSuccess,
		ThreadID:  threadID,
		Summary:   summary,
		Timestamp: time.Now().UTC(),
	}
}

// Skipped reports an intentionally unprocessed delivery.
func Skipped(reason string) Outcome {
	return Outcome{
		Status:    StatusSkipped,
		Reason:    reason,
		Timestamp: time.Now().UTC(),
	}
}

// Timeout reports a dispatch abandoned after the configured wall-clock limit.
func Timeout(after time.Duration) Outcome {
	return Outcome{
		Status:    StatusTimeout,
		Error:     fmt.Sprintf("dispatch timed out after %d seconds", int(after.Seconds())),
		Timestamp: time.Now().UTC(),
	}
}

// Failed reports a dispatch that hit a transport or executor error.
func Failed(threadID string, err error) Outcome {
	return Outcome{
		Status:    StatusError,
		ThreadID:  threadID,
		Error:     err.Error(),
		Timestamp: time.Now().UTC(),
	}
}

// Unhandled reports an event type no registered handler accepts. It is a
// normal outcome, not an error.
func Unhandled(eventType string) Outcome {
	return Outcome{
		Status:    StatusUnhandled,
		Reason:    fmt.Sprintf("no handler registered for event type: %s", eventType),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
	}
}
