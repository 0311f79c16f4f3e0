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


// Package index defines the vector store abstraction over document chunks.
//
// The Index interface is the read and write surface for course material:
// the ingest pipeline writes embedded chunks through Upsert, and the
// retriever reads them back through Query with course and document filters.
//
// Implementations:
//
//   - index/weaviate: Production implementation backed by a Weaviate instance
//   - index/mock: In-memory test double with deterministic scoring
package index
