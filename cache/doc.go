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


// Package cache provides the semantic response cache.
//
// The cache is read-through over conversation history rather than a separate
// store: question turns persist their embedding at creation time, and a
// lookup scores the incoming question against those stored embeddings.
// Reusing history this way means cached answers expire naturally as the
// conversation moves on, with no invalidation bookkeeping.
package cache
