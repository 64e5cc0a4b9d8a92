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
	"fmt"
	"reflect"
	"strings"

	"github.com/tomoncle/bunrepo/types"
	"github.com/uptrace/bun"
)

// Condition narrows a select query. ApplyTo returns the query with one
// predicate or group added and has no other effect.
type Condition interface {
	ApplyTo(q *bun.SelectQuery) *bun.SelectQuery
}

// Func adapts a closure to Condition. A nil Func leaves the query unchanged.
type Func func(q *bun.SelectQuery) *bun.SelectQuery

func (f Func) ApplyTo(q *bun.SelectQuery) *bun.SelectQuery {
	if f == nil {
		return q
	}
	return f(q)
}

type predicate struct {
	field string
	op    Operator
	value interface{}
	or    bool
}

func (p predicate) ApplyTo(q *bun.SelectQuery) *bun.SelectQuery {
	query, args, err := p.expr()
	if err != nil {
		return q.Err(err)
	}
	if p.or {
		return q.WhereOr(query, args...)
	}
	return q.Where(query, args...)
}

func (p predicate) expr() (string, []interface{}, error) {
	if strings.TrimSpace(p.field) == "" {
		return "", nil, ErrEmptyField
	}
	col, args := Qualify(p.field)

	op := p.op
	if p.value == nil {
		switch op {
		case OpEq:
			op = opIsNull
		case OpNotEq, OpNe:
			op = opNotNull
		}
	}

	switch {
	case op == opIsNull || op == opNotNull:
		return col + " " + string(op), args, nil
	case !op.IsValid():
		return "", nil, fmt.Errorf("%w: %q", ErrUnsupportedOperator, string(p.op))
	case op.isList():
		if !isListValue(p.value) {
			return "", nil, fmt.Errorf("%w: %s needs a slice, got %T", ErrUnsupportedFilter, op, p.value)
		}
		return col + " " + string(op) + " (?)", append(args, bun.In(p.value)), nil
	default:
		return col + " " + string(op) + " ?", append(args, p.value), nil
	}
}

func isListValue(v interface{}) bool {
	if v == nil {
		return false
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Slice, reflect.Array:
		return true
	default:
		return false
	}
}

// Qualify renders field as a quoted identifier. Plain names are prefixed
// with ?TableAlias; dotted names are quoted segment by segment.
func Qualify(field string) (string, []interface{}) {
	if strings.Contains(field, ".") {
		return "?", []interface{}{bun.Ident(field)}
	}
	return "?TableAlias.?", []interface{}{bun.Ident(field)}
}

// Equal matches field = value. A nil value matches IS NULL.
func Equal(field string, value interface{}) Condition {
	return predicate{field: field, op: OpEq, value: value}
}

// Compare matches field <op> value. An invalid op is reported as a query
// error when the query runs.
func Compare(field string, op Operator, value interface{}) Condition {
	return predicate{field: field, op: op, value: value}
}

// In matches field IN (values...). values must be a slice.
func In(field string, values interface{}) Condition {
	return predicate{field: field, op: OpIn, value: values}
}

func NotIn(field string, values interface{}) Condition {
	return predicate{field: field, op: OpNotIn, value: values}
}

func IsNull(field string) Condition {
	return predicate{field: field, op: opIsNull}
}

func NotNull(field string) Condition {
	return predicate{field: field, op: opNotNull}
}

type rawCondition struct {
	query string
	args  []interface{}
	or    bool
}

func (r rawCondition) ApplyTo(q *bun.SelectQuery) *bun.SelectQuery {
	if r.or {
		return q.WhereOr(r.query, r.args...)
	}
	return q.Where(r.query, r.args...)
}

// Raw adds a hand written predicate with Bun placeholders.
func Raw(query string, args ...interface{}) Condition {
	return rawCondition{query: query, args: args}
}

// FromFilter turns a QueryFilter into a raw predicate. A nil or empty
// filter yields a no-op.
func FromFilter(f *types.QueryFilter) Condition {
	if f == nil || strings.TrimSpace(f.Schema) == "" {
		return Func(nil)
	}
	return Raw(f.Schema, f.Args...)
}

type group struct {
	conds []Condition
	or    bool
}

func (g group) ApplyTo(q *bun.SelectQuery) *bun.SelectQuery {
	if len(g.conds) == 0 {
		return q
	}
	sep := " AND "
	if g.or {
		sep = " OR "
	}
	return q.WhereGroup(sep, func(q *bun.SelectQuery) *bun.SelectQuery {
		for _, c := range g.conds {
			if c != nil {
				q = c.ApplyTo(q)
			}
		}
		return q
	})
}

// All groups conds in parentheses, each joined by its own connective:
// AND unless the member was built with Or.
func All(conds ...Condition) Condition {
	return group{conds: conds}
}

// Any groups conds in parentheses joined by OR.
func Any(conds ...Condition) Condition {
	ors := make([]Condition, 0, len(conds))
	for _, c := range conds {
		if c != nil {
			ors = append(ors, Or(c))
		}
	}
	return group{conds: ors}
}

type orCondition struct {
	inner Condition
}

func (o orCondition) ApplyTo(q *bun.SelectQuery) *bun.SelectQuery {
	return q.WhereGroup(" OR ", o.inner.ApplyTo)
}

// Or joins c to the preceding predicates with OR instead of AND. Closures
// and other Condition implementations are wrapped in a group.
func Or(c Condition) Condition {
	switch v := c.(type) {
	case nil:
		return nil
	case predicate:
		v.or = true
		return v
	case rawCondition:
		v.or = true
		return v
	case group:
		v.or = true
		return v
	case orCondition:
		return v
	default:
		return orCondition{inner: c}
	}
}
