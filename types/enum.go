/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package types

import (
	"fmt"
	"strings"
)

// Common illegal/default values used by enums.
const (
	IllegalValue = -1
	IllegalName  = "unknown"
	IllegalDesc  = "unknown"
)

// BaseEnum represents a basic enum contract used by domain types.
type BaseEnum interface {
	IsValid() bool
	Number() int
	String() string
	Desc() string
	Name() string
}

// Direction is the sort direction of an ORDER BY key.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

var _ BaseEnum = Asc

// ParseDirection accepts "asc"/"desc" in any case. An empty string means Asc.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "ASC":
		return Asc, nil
	case "DESC":
		return Desc, nil
	default:
		return "", fmt.Errorf("invalid sort direction %q", s)
	}
}

func (d Direction) IsValid() bool { return d == Asc || d == Desc }

func (d Direction) Number() int {
	switch d {
	case Asc:
		return 0
	case Desc:
		return 1
	default:
		return IllegalValue
	}
}

func (d Direction) String() string {
	if !d.IsValid() {
		return IllegalName
	}
	return string(d)
}

func (d Direction) Desc() string {
	switch d {
	case Asc:
		return "ascending"
	case Desc:
		return "descending"
	default:
		return IllegalDesc
	}
}

func (d Direction) Name() string { return strings.ToLower(d.String()) }
