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

// Package event classifies GitHub webhook payloads and converts accepted
// ones into canonical requests for the downstream task executor.
//
// Everything here is pure: no network, no storage, no clock beyond the one
// passed in. ShouldProcess encodes the acceptance policy (issue assignments
// to the bot, comments mentioning a trigger phrase); BuildRequest formats a
// payload into role-tagged messages and tolerates arbitrarily malformed
// input by substituting placeholder text.
package event
