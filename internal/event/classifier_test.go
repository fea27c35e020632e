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
	"fmt"
	"strings"
	"time"

	ginkgo "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func assignedIssuePayload(assignee string) []byte {
	return fmt.Appendf(nil, `{
		"action": "assigned",
		"issue": {
			"number": 7,
			"title": "Fix the flaky build",
			"body": "CI fails intermittently",
			"html_url": "https://github.com/acme/widgets/issues/7",
			"user": {"login": "maintainer"},
			"assignee": {"login": %q},
			"labels": [{"name": "bug"}, {"name": "ci"}]
		},
		"repository": {
			"id": 1001,
			"name": "widgets",
			"full_name": "acme/widgets",
			"html_url": "https://github.com/acme/widgets"
		}
	}`, assignee)
}

func commentPayload(body, userType string) []byte {
	return fmt.Appendf(nil, `{
		"action": "created",
		"issue": {
			"number": 7,
			"title": "Fix the flaky build",
			"user": {"login": "maintainer"}
		},
		"comment": {
			"body": %q,
			"html_url": "https://github.com/acme/widgets/issues/7#issuecomment-1",
			"user": {"login": "commenter", "type": %q}
		},
		"repository": {
			"id": 1001,
			"name": "widgets",
			"full_name": "acme/widgets",
			"html_url": "https://github.com/acme/widgets"
		}
	}`, body, userType)
}

var _ = ginkgo.Describe("ShouldProcess", func() {
	ginkgo.Context("issues events", func() {
		ginkgo.It("accepts assignments to [bot] accounts", func() {
			Expect(ShouldProcess("issues", assignedIssuePayload("some-bot[bot]"))).To(BeTrue())
		})

		ginkgo.It("accepts assignments to logins containing the bot name", func() {
			Expect(ShouldProcess("issues", assignedIssuePayload("Gitrelay-Agent"))).To(BeTrue())
		})

		ginkgo.It("rejects assignments to humans", func() {
			Expect(ShouldProcess("issues", assignedIssuePayload("human-dev"))).To(BeFalse())
		})

		ginkgo.It("rejects actions other than assigned", func() {
			payload := []byte(`{"action": "opened", "issue": {"assignee": {"login": "some-bot[bot]"}}}`)
			Expect(ShouldProcess("issues", payload)).To(BeFalse())
		})

		ginkgo.It("rejects assignments with no assignee", func() {
			payload := []byte(`{"action": "assigned", "issue": {"number": 7}}`)
			Expect(ShouldProcess("issues", payload)).To(BeFalse())
		})
	})

	ginkgo.Context("issue_comment events", func() {
		ginkgo.It("accepts comments containing a trigger phrase", func() {
			Expect(ShouldProcess("issue_comment", commentPayload("please help, @gitrelay-bot", "User"))).To(BeTrue())
		})

		ginkgo.It("matches trigger phrases case-insensitively", func() {
			Expect(ShouldProcess("issue_comment", commentPayload("GITRELAY-BOT take a look", "User"))).To(BeTrue())
		})

		ginkgo.It("rejects comments that only mention the bare bot name", func() {
			Expect(ShouldProcess("issue_comment", commentPayload("the gitrelay service is down", "User"))).To(BeFalse())
		})

		ginkgo.It("rejects comments mentioning a similar but different name", func() {
			Expect(ShouldProcess("issue_comment", commentPayload("ping @gitrelay-robot", "User"))).To(BeFalse())
		})

		ginkgo.It("rejects comments authored by bots", func() {
			Expect(ShouldProcess("issue_comment", commentPayload("@gitrelay-bot do it", "Bot"))).To(BeFalse())
		})

		ginkgo.It("rejects actions other than created", func() {
			payload := []byte(`{"action": "edited", "comment": {"body": "@gitrelay-bot", "user": {"type": "User"}}}`)
			Expect(ShouldProcess("issue_comment", payload)).To(BeFalse())
		})
	})

	ginkgo.Context("other events", func() {
		ginkgo.It("rejects every other event type", func() {
			Expect(ShouldProcess("push", []byte(`{}`))).To(BeFalse())
			Expect(ShouldProcess("pull_request", []byte(`{"action": "opened"}`))).To(BeFalse())
		})

		ginkgo.It("rejects malformed payloads", func() {
			Expect(ShouldProcess("issues", []byte(`not json`))).To(BeFalse())
		})
	})
})

var _ = ginkgo.Describe("BuildRequest", func() {
	ginkgo.It("produces a system message and a human message", func() {
		req := BuildRequest("issues", assignedIssuePayload("gitrelay[bot]"))

		Expect(req.Messages).To(HaveLen(2))
		Expect(req.Messages[0].Role).To(Equal(RoleSystem))
		Expect(req.Messages[0].Content).To(ContainSubstring("acme/widgets"))
		Expect(req.Messages[1].Role).To(Equal(RoleHuman))
		Expect(req.Messages[1].Content).To(ContainSubstring("Issue #7"))
		Expect(req.Messages[1].Content).To(ContainSubstring("bug, ci"))
	})

	ginkgo.It("derives the project reference from the repository name", func() {
		req := BuildRequest("issues", assignedIssuePayload("gitrelay[bot]"))
		Expect(req.Project).To(Equal("widgets"))
	})

	ginkgo.It("formats comment triggers with the requesting user", func() {
		req := BuildRequest("issue_comment", commentPayload("@gitrelay-bot help", "User"))
		Expect(req.Messages[1].Content).To(ContainSubstring("Requested by:** commenter"))
		Expect(req.Messages[1].Content).To(ContainSubstring("@gitrelay-bot help"))
	})

	ginkgo.It("falls back to a generic rendering for unsupported events", func() {
		req := BuildRequest("push", []byte(`{"repository": {"full_name": "acme/widgets"}}`))
		Expect(req.Messages[1].Content).To(ContainSubstring("Unsupported GitHub Event: push"))
	})

	ginkgo.It("truncates the raw payload dump in the generic rendering", func() {
		padding := strings.Repeat("x", 2000)
		payload := fmt.Appendf(nil, `{"filler": %q}`, padding)

		req := BuildRequest("push", payload)
		dump := req.Messages[1].Content[strings.Index(req.Messages[1].Content, "Raw Event Data:"):]
		Expect(len(dump)).To(BeNumerically("<", 600))
		Expect(dump).To(HaveSuffix("..."))
	})

	ginkgo.It("never fails on payloads missing optional fields", func() {
		req := BuildRequest("issues", []byte(`{"action": "assigned"}`))

		Expect(req.Messages[1].Content).To(ContainSubstring("Issue #unknown"))
		Expect(req.Messages[1].Content).To(ContainSubstring("**Title:** Untitled"))
		Expect(req.Messages[1].Content).To(ContainSubstring("**Author:** unknown"))
		Expect(req.Messages[1].Content).To(ContainSubstring("No description provided"))
		Expect(req.Messages[1].Content).To(ContainSubstring("**Labels:** None"))
		Expect(req.Project).To(BeEmpty())
	})

	ginkgo.It("never fails on malformed payloads", func() {
		req := BuildRequest("issues", []byte(`{{{`))
		Expect(req.Messages).To(HaveLen(2))
	})
})

var _ = ginkgo.Describe("ThreadID", func() {
	now := time.Unix(1700000000, 0)

	ginkgo.It("uses the issue number for issue payloads", func() {
		id := ThreadID(assignedIssuePayload("gitrelay[bot]"), now)
		Expect(id).To(Equal("issue_1001_7_1700000000"))
	})

	ginkgo.It("prefers the pull request number when present", func() {
		payload := []byte(`{"pull_request": {"number": 12}, "repository": {"id": 1001}}`)
		Expect(ThreadID(payload, now)).To(Equal("pr_1001_12_1700000000"))
	})

	ginkgo.It("falls back to the repository and timestamp alone", func() {
		payload := []byte(`{"repository": {"id": 1001}}`)
		Expect(ThreadID(payload, now)).To(Equal("event_1001_1700000000"))
	})
})
