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

// Package handler routes webhook deliveries to the downstream executor.
//
// A Registry holds handlers in registration order; the first handler whose
// CanHandle accepts a delivery owns it. Handlers decide whether the delivery
// warrants a run, issue the run against the executor, and fold every path
// into a single Outcome shape the HTTP layer can serialize.
package handler
