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


package chat

import "errors"

var (
	// ErrTurnRepositoryRequired is returned when a turn repository is not provided.
	ErrTurnRepositoryRequired = errors.New("turn repository required")

	// ErrCourseRepositoryRequired is returned when a course repository is not provided.
	ErrCourseRepositoryRequired = errors.New("course repository required")

	// ErrProviderRequired is returned when an AI provider is not provided.
	ErrProviderRequired = errors.New("AI provider required")

	// ErrCacheRequired is returned when a response cache is not provided.
	ErrCacheRequired = errors.New("response cache required")

	// ErrRetrieverRequired is returned when a context retriever is not provided.
	ErrRetrieverRequired = errors.New("context retriever required")

	// ErrEmptyQuestion is returned for a request without question text.
	ErrEmptyQuestion = errors.New("question cannot be empty")

	// ErrMissingCourse is returned for a request without a course ID.
	ErrMissingCourse = errors.New("course id is required")

	// ErrMissingCaller is returned for a request without a caller identity.
	ErrMissingCaller = errors.New("caller identity is required")

	// errStreamAborted signals that the consumer stopped reading mid-stream.
	errStreamAborted = errors.New("stream aborted by consumer")
)
