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

package event

import "encoding/json"

// Delivery is one inbound webhook notification, scoped to a single HTTP
// request and never stored.
type Delivery struct {
	EventType  string
	DeliveryID string
	Payload    json.RawMessage
}

// Message roles for canonical requests.
const (
	RoleSystem = "system"
	RoleHuman  = "human"
)

// Message is one role-tagged text entry in a canonical request.
type Message struct {
	Role    string
	Content string
}

// Request is the normalized, handler-agnostic representation of an accepted
// event, ready to hand to the downstream task executor.
type Request struct {
	Messages []Message
	Project  string
}

// User is the subset of the GitHub user object this service reads.
type User struct {
	Login   string `json:"login"`
	Type    string `json:"type"`
	HTMLURL string `json:"html_url"`
}

// Label is an issue label.
type Label struct {
	Name string `json:"name"`
}

// Repository is the subset of the GitHub repository object this service reads.
type Repository struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	HTMLURL       string `json:"html_url"`
	DefaultBranch string `json:"default_branch"`
	Private       bool   `json:"private"`
	Owner         User   `json:"owner"`
}

// Issue contains issue metadata.
type Issue struct {
	Number   int     `json:"number"`
	Title    string  `json:"title"`
	Body     string  `json:"body"`
	HTMLURL  string  `json:"html_url"`
	User     *User   `json:"user"`
	Assignee *User   `json:"assignee"`
	Labels   []Label `json:"labels"`
}

// Comment contains issue comment metadata.
type Comment struct {
	Body    string `json:"body"`
	HTMLURL string `json:"html_url"`
	User    *User  `json:"user"`
}

// envelope is the superset of payload fields the classifier inspects. Fields
// absent from a given event type simply stay zero.
type envelope struct {
	Action      string     `json:"action"`
	Issue       Issue      `json:"issue"`
	Comment     Comment    `json:"comment"`
	Repository  Repository `json:"repository"`
	PullRequest *struct {
		Number int `json:"number"`
	} `json:"pull_request"`
}
