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

// Package github handles GitHub App authentication for Gitrelayd.
//
// A GitHub App authenticates in two steps: it signs a short-lived JWT
// assertion with its private key, then exchanges that assertion for an
// installation access token scoped to one installation. Installation tokens
// are valid for about an hour; this package caches them and refreshes a
// token 60 seconds before it would expire so that no caller ever holds a
// token about to lapse mid-call.
//
// Token state is in-memory only. Upstream failures are returned as wrapped
// errors; callers map them to health statuses or dispatch outcomes.
package github
