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

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	// botLoginSuffix marks machine accounts in assignee logins.
	botLoginSuffix = "[bot]"
	// botName is matched case-insensitively inside assignee logins.
	botName = "gitrelay"
	// rawPayloadLimit bounds the payload dump in the generic fallback message.
	rawPayloadLimit = 500
)

// triggerPhrases are the exact strings that activate the bot from a comment.
// Matching is on these literal phrases, case-insensitively; a bare mention of
// the bot name inside an unrelated word must not trigger.
var triggerPhrases = []string{"gitrelay-bot", "@gitrelay-bot"}

// Action extracts the action field from a payload, or "" when absent or
// malformed.
func Action(payload []byte) string {
	var ev envelope
	if err := json.Unmarshal(payload, &ev); err != nil {
		return ""
	}
	return ev.Action
}

// ShouldProcess reports whether a delivery warrants dispatching to the task
// executor:
//
//   - issues/assigned: accepted when the assignee login ends in "[bot]" or
//     contains the bot name.
//   - issue_comment/created: accepted when the commenter is not itself a bot
//     and the comment body contains one of the trigger phrases.
//   - everything else: rejected.
func ShouldProcess(eventType string, payload []byte) bool {
	var ev envelope
	if err := json.Unmarshal(payload, &ev); err != nil {
		return false
	}

	switch eventType {
	case "issues":
		if ev.Action != "assigned" || ev.Issue.Assignee == nil {
			return false
		}
		login := ev.Issue.Assignee.Login
		return strings.HasSuffix(login, botLoginSuffix) ||
			strings.Contains(strings.ToLower(login), botName)

	case "issue_comment":
		if ev.Action != "created" {
			return false
		}
		// Never react to other bots; that way lies an infinite loop.
		if ev.Comment.User != nil && ev.Comment.User.Type == "Bot" {
			return false
		}
		body := strings.ToLower(ev.Comment.Body)
		for _, phrase := range triggerPhrases {
			if strings.Contains(body, phrase) {
				return true
			}
		}
		return false
	}

	return false
}

// BuildRequest converts a webhook payload into a canonical request: a system
// context message describing the event, a formatted human message, and a
// project reference derived from the repository name. It never fails; missing
// fields fall back to placeholder text, and unrecognized event types get a
// generic rendering with a truncated payload dump.
func BuildRequest(eventType string, payload []byte) Request {
	var ev envelope
	// Decode errors leave a zero envelope; the formatters below fill in
	// placeholders for everything.
	_ = json.Unmarshal(payload, &ev)

	var human string
	switch {
	case eventType == "issues" && ev.Action == "assigned":
		human = formatAssignedIssue(&ev)
	case eventType == "issue_comment" && ev.Action == "created":
		human = formatCommentTrigger(&ev)
	default:
		human = formatGeneric(eventType, &ev, payload)
	}

	return Request{
		Messages: []Message{
			{Role: RoleSystem, Content: systemContext(eventType, &ev.Repository)},
			{Role: RoleHuman, Content: human},
		},
		Project: ev.Repository.Name,
	}
}

// ThreadID derives an identifier for a delivery from the repository id, the
// entity number when one is present, and a timestamp.
func ThreadID(payload []byte, now time.Time) string {
	var ev envelope
	_ = json.Unmarshal(payload, &ev)

	ts := now.Unix()
	switch {
	case ev.PullRequest != nil:
		return fmt.Sprintf("pr_%d_%d_%d", ev.Repository.ID, ev.PullRequest.Number, ts)
	case ev.Issue.Number != 0:
		return fmt.Sprintf("issue_%d_%d_%d", ev.Repository.ID, ev.Issue.Number, ts)
	default:
		return fmt.Sprintf("event_%d_%d", ev.Repository.ID, ts)
	}
}

func formatAssignedIssue(ev *envelope) string {
	author := loginOrUnknown(ev.Issue.User)
	assignee := loginOrUnknown(ev.Issue.Assignee)

	return fmt.Sprintf(`Issue #%s assigned to %s in %s

**Title:** %s
**Author:** %s
**Assigned to:** %s
**URL:** %s
**Labels:** %s

**Description:**
%s

**Repository:** %s
**Action Required:** Please analyze this issue and provide a solution plan.`,
		issueNumber(&ev.Issue), assignee, fullNameOrUnknown(&ev.Repository),
		titleOrUntitled(&ev.Issue), author, assignee, ev.Issue.HTMLURL,
		labelList(ev.Issue.Labels), bodyOrPlaceholder(ev.Issue.Body),
		ev.Repository.HTMLURL)
}

func formatCommentTrigger(ev *envelope) string {
	author := loginOrUnknown(ev.Issue.User)
	commenter := loginOrUnknown(ev.Comment.User)

	return fmt.Sprintf(`Assistance requested for Issue #%s in %s

**Title:** %s
**Author:** %s
**Requested by:** %s
**URL:** %s
**Labels:** %s

**Issue Description:**
%s

**Request Comment:**
%s
**Comment URL:** %s

**Repository:** %s
**Action Required:** Please analyze this issue and provide a solution plan.`,
		issueNumber(&ev.Issue), fullNameOrUnknown(&ev.Repository),
		titleOrUntitled(&ev.Issue), author, commenter, ev.Issue.HTMLURL,
		labelList(ev.Issue.Labels), bodyOrPlaceholder(ev.Issue.Body),
		ev.Comment.Body, ev.Comment.HTMLURL, ev.Repository.HTMLURL)
}

func formatGeneric(eventType string, ev *envelope, payload []byte) string {
	raw := string(payload)
	if len(raw) > rawPayloadLimit {
		raw = raw[:rawPayloadLimit] + "..."
	}

	return fmt.Sprintf(`Unsupported GitHub Event: %s (%s) in %s

**Event Type:** %s
**Action:** %s
**Repository:** %s

**Note:** This service processes issue assignment and comment trigger events.

Raw Event Data:
%s`,
		eventType, ev.Action, fullNameOrUnknown(&ev.Repository),
		eventType, ev.Action, ev.Repository.HTMLURL, raw)
}

func systemContext(eventType string, repo *Repository) string {
	return fmt.Sprintf(`You are processing a GitHub webhook event.

**Event Type:** %s
**Repository:** %s
**Repository URL:** %s
**Private Repository:** %t

Please analyze this event and determine the appropriate action to take. You have access to GitHub tools to interact with the repository.`,
		eventType, fullNameOrUnknown(repo), repo.HTMLURL, repo.Private)
}

func loginOrUnknown(u *User) string {
	if u == nil || u.Login == "" {
		return "unknown"
	}
	return u.Login
}

func fullNameOrUnknown(r *Repository) string {
	if r.FullName == "" {
		return "unknown"
	}
	return r.FullName
}

func issueNumber(i *Issue) string {
	if i.Number == 0 {
		return "unknown"
	}
	return fmt.Sprintf("%d", i.Number)
}

func titleOrUntitled(i *Issue) string {
	if i.Title == "" {
		return "Untitled"
	}
	return i.Title
}

func bodyOrPlaceholder(body string) string {
	if body == "" {
		return "No description provided"
	}
	return body
}

func labelList(labels []Label) string {
	if len(labels) == 0 {
		return "None"
	}
	names := make([]string, len(labels))
	for i, label := range labels {
		names[i] = label.Name
	}
	return strings.Join(names, ", ")
}
