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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidTurn indicates a Turn failed validation.
	ErrInvalidTurn = errors.New("invalid turn")

	// ErrInvalidCourse indicates a Course failed validation.
	ErrInvalidCourse = errors.New("invalid course")

	// ErrInvalidTimestamp indicates a timestamp is in the future.
	ErrInvalidTimestamp = errors.New("timestamp cannot be in the future")

	// ErrEmptyText indicates the Text field is empty.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrInvalidRole indicates an invalid Role value.
	ErrInvalidRole = errors.New("invalid role")

	// ErrMissingCourseID indicates a turn without an owning course.
	ErrMissingCourseID = errors.New("course id is required")

	// ErrEmptyCourseName indicates the course Name field is empty.
	ErrEmptyCourseName = errors.New("course name cannot be empty")

	// ErrVectorOnAnswer indicates an answer turn carrying an embedding.
	ErrVectorOnAnswer = errors.New("answer turns must not carry an embedding")

	// ErrVectorLengthMismatch indicates two vectors of different lengths.
	ErrVectorLengthMismatch = errors.New("vectors must have the same length")

	// ErrEmptyVector indicates an empty vector where one is required.
	ErrEmptyVector = errors.New("vector cannot be empty")
)
