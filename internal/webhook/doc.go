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

// Package webhook exposes the HTTP surface of the service: the GitHub
// webhook endpoint and the health probes.
//
// Every well-formed delivery is answered 200 with an EventResponse body; the
// dispatch outcome lives in the body, not the HTTP status. Only malformed
// requests (missing GitHub headers, unparseable JSON) are rejected with 400.
// Deliveries beyond the concurrency limit block at admission rather than
// being shed, and each dispatch runs under a wall-clock deadline.
package webhook
