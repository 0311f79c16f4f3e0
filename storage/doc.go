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


// Package storage provides the storage abstraction layer for studyhall.
//
// This package defines repository interfaces that decouple storage
// implementation from business logic. It allows for different storage
// backends (BadgerDB, in-memory, etc.) to be used interchangeably.
//
// # Architecture
//
// The storage layer follows the Repository pattern:
//
//   - TurnRepository: append-only conversation turns plus the single
//     narrow text update used by answer continuation
//   - CourseRepository: course records and ownership metadata
//
// Public constructors return interface types to enforce abstraction:
//
//	repo, err := badger.NewTurnRepository(backend)  // returns storage.TurnRepository
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines. The turn sequence of a
// course is appended by many concurrent requests; readers tolerate a
// slightly stale view of the most recent appends.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation
// and timeout support.
package storage
