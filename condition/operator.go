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

package condition

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnsupportedOperator = errors.New("condition: unsupported operator")
	ErrUnsupportedFilter   = errors.New("condition: unsupported filter")
	ErrEmptyField          = errors.New("condition: empty field name")
)

// Operator is a binary SQL comparison operator.
type Operator string

const (
	OpEq      Operator = "="
	OpNotEq   Operator = "!="
	OpNe      Operator = "<>"
	OpLt      Operator = "<"
	OpLte     Operator = "<="
	OpGt      Operator = ">"
	OpGte     Operator = ">="
	OpLike    Operator = "LIKE"
	OpNotLike Operator = "NOT LIKE"
	OpILike   Operator = "ILIKE"
	OpIn      Operator = "IN"
	OpNotIn   Operator = "NOT IN"

	// rendered without a bound value; never produced by ParseOperator
	opIsNull  Operator = "IS NULL"
	opNotNull Operator = "IS NOT NULL"
)

var operators = map[Operator]struct{}{
	OpEq: {}, OpNotEq: {}, OpNe: {}, OpLt: {}, OpLte: {}, OpGt: {}, OpGte: {},
	OpLike: {}, OpNotLike: {}, OpILike: {}, OpIn: {}, OpNotIn: {},
}

// ParseOperator accepts any supported operator regardless of case or
// surrounding and repeated whitespace, e.g. "not  like".
func ParseOperator(s string) (Operator, error) {
	op := Operator(strings.ToUpper(strings.Join(strings.Fields(s), " ")))
	if !op.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedOperator, s)
	}
	return op, nil
}

func (op Operator) IsValid() bool {
	_, ok := operators[op]
	return ok
}

func (op Operator) String() string { return string(op) }

func (op Operator) isList() bool { return op == OpIn || op == OpNotIn }
