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


package storage

import (
	"github.com/poiesic/studyhall/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	var id core.ID
	id, _, err := core.IDMUS.Unmarshal(data)
	return id, err
}

// MarshalTurn serializes a Turn to bytes.
func MarshalTurn(turn *core.Turn) []byte {
	buf := make([]byte, core.TurnMUS.Size(*turn))
	core.TurnMUS.Marshal(*turn, buf)
	return buf
}

// UnmarshalTurn deserializes a Turn from bytes.
func UnmarshalTurn(data []byte) (*core.Turn, error) {
	turn, _, err := core.TurnMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &turn, nil
}

// MarshalCourse serializes a Course to bytes.
func MarshalCourse(course *core.Course) []byte {
	buf := make([]byte, core.CourseMUS.Size(*course))
	core.CourseMUS.Marshal(*course, buf)
	return buf
}

// UnmarshalCourse deserializes a Course from bytes.
func UnmarshalCourse(data []byte) (*core.Course, error) {
	course, _, err := core.CourseMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &course, nil
}
