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

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ValidateTurn validates a Turn according to domain rules.
//
// Validation rules:
//   - CourseID must be set
//   - Text must not be empty
//   - Role must be valid (Question or Answer)
//   - CreatedAt must not be in the future
//   - Answer turns must not carry an embedding
//
// NOT validated:
//   - Vector on question turns (may be empty when the embedding call failed)
//   - ID (0 is valid before a database sequence assigns one)
//   - ExchangeID (assigned by the orchestrator at persistence time)
func ValidateTurn(turn *Turn) error {
	if turn == nil {
		return fmt.Errorf("%w: turn is nil", ErrInvalidTurn)
	}

	if turn.CourseID == uuid.Nil {
		return fmt.Errorf("%w: %w", ErrInvalidTurn, ErrMissingCourseID)
	}

	if turn.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTurn, ErrEmptyText)
	}

	if err := ValidateRole(turn.Role); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTurn, err)
	}

	if turn.Role == RoleAnswer && turn.HasVector() {
		return fmt.Errorf("%w: %w", ErrInvalidTurn, ErrVectorOnAnswer)
	}

	if !turn.CreatedAt.IsZero() && !IsValidTimestamp(turn.CreatedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidTurn, ErrInvalidTimestamp)
	}

	return nil
}

// ValidateCourse validates a Course according to domain rules.
//
// Validation rules:
//   - ID and OwnerID must be set
//   - Name must not be empty
func ValidateCourse(course *Course) error {
	if course == nil {
		return fmt.Errorf("%w: course is nil", ErrInvalidCourse)
	}

	if course.ID == uuid.Nil || course.OwnerID == uuid.Nil {
		return fmt.Errorf("%w: %w", ErrInvalidCourse, ErrMissingCourseID)
	}

	if course.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidCourse, ErrEmptyCourseName)
	}

	return nil
}

// ValidateRole validates that a Role has a valid value.
func ValidateRole(role Role) error {
	if role != RoleQuestion && role != RoleAnswer {
		return fmt.Errorf("%w: value %d", ErrInvalidRole, role)
	}
	return nil
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}
