// Copyright 2025 Poiesic Systems
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

// Package chat orchestrates question answering over course material.
//
// A Service ties together the response cache, the context retriever, the
// turn store and a streaming language model. Answers come back as lazy
// event sequences: data fragments as the model produces them, terminated
// early by a single error event when something goes wrong. Nothing runs
// until the caller ranges over the sequence, and abandoning it mid-stream
// cancels generation without recording a partial answer.
//
// Continue picks up a truncated answer, regenerates the missing tail from
// a short history window, and rewrites the stored turn in place.
package chat
