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
	"sort"

	"github.com/uptrace/bun"
)

// Filter is the value side of a Criterion. Exactly five shapes exist, built
// by Closure, Triple, Pair, Value and Cond.
type Filter interface {
	isFilter()
}

type closureFilter struct{ fn Func }

type tripleFilter struct {
	field string
	op    Operator
	value interface{}
}

type pairFilter struct {
	field string
	value interface{}
}

type valueFilter struct{ value interface{} }

type condFilter struct{ cond Condition }

func (closureFilter) isFilter() {}
func (tripleFilter) isFilter()  {}
func (pairFilter) isFilter()    {}
func (valueFilter) isFilter()   {}
func (condFilter) isFilter()    {}

// Closure applies fn as a parenthesised group.
func Closure(fn Func) Filter { return closureFilter{fn: fn} }

// Triple compares field with value using op. The criterion key is ignored.
func Triple(field string, op Operator, value interface{}) Filter {
	return tripleFilter{field: field, op: op, value: value}
}

// Pair matches field = value. The criterion key is ignored.
func Pair(field string, value interface{}) Filter {
	return pairFilter{field: field, value: value}
}

// Value matches the criterion key = v.
func Value(v interface{}) Filter { return valueFilter{value: v} }

// Cond applies an existing Condition.
func Cond(c Condition) Filter { return condFilter{cond: c} }

// Criterion pairs a key with its filter.
type Criterion struct {
	Field string
	Spec  Filter
}

// Where is shorthand for Criterion{Field: field, Spec: spec}.
func Where(field string, spec Filter) Criterion {
	return Criterion{Field: field, Spec: spec}
}

// Criteria is an ordered list of criteria applied in sequence.
type Criteria []Criterion

// Build joins every criterion with AND, or with OR when useOr is set, and
// wraps the result in a single group. An empty Criteria builds a no-op.
func (cs Criteria) Build(useOr bool) (Condition, error) {
	conds := make([]Condition, 0, len(cs))
	for i, c := range cs {
		cond, err := c.condition()
		if err != nil {
			return nil, fmt.Errorf("criterion %d (%s): %w", i, c.Field, err)
		}
		if useOr {
			cond = Or(cond)
		}
		conds = append(conds, cond)
	}
	return All(conds...), nil
}

func (c Criterion) condition() (Condition, error) {
	switch f := c.Spec.(type) {
	case closureFilter:
		if f.fn == nil {
			return nil, fmt.Errorf("%w: nil closure", ErrUnsupportedFilter)
		}
		return group{conds: []Condition{f.fn}}, nil
	case tripleFilter:
		if !f.op.IsValid() {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedOperator, string(f.op))
		}
		return Compare(orKey(f.field, c.Field), f.op, f.value), nil
	case pairFilter:
		return Equal(orKey(f.field, c.Field), f.value), nil
	case valueFilter:
		if c.Field == "" {
			return nil, ErrEmptyField
		}
		return Equal(c.Field, f.value), nil
	case condFilter:
		if f.cond == nil {
			return nil, fmt.Errorf("%w: nil condition", ErrUnsupportedFilter)
		}
		return f.cond, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedFilter, c.Spec)
	}
}

func orKey(field, key string) string {
	if field != "" {
		return field
	}
	return key
}

// FromMap converts an untyped map into Criteria, ordered by key. Values are
// classified as follows:
//
//	Filter                           used as is
//	Func, func(*bun.SelectQuery) ... Closure
//	Condition                        Cond
//	[]interface{}{field, op, value}  Triple, op parsed with ParseOperator
//	[]interface{}{field, value}      Pair
//	[]interface{}{op, value}         Triple on the key, when op parses
//	other slices except []byte       Cond(In(key, value))
//	nil, scalars, structs            Value
//
// Any other shape, including []interface{} of another length, maps,
// channels and funcs of other signatures, fails with ErrUnsupportedFilter.
func FromMap(m map[string]interface{}) (Criteria, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(Criteria, 0, len(keys))
	for _, k := range keys {
		spec, err := classify(k, m[k])
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		out = append(out, Where(k, spec))
	}
	return out, nil
}

func classify(key string, v interface{}) (Filter, error) {
	switch x := v.(type) {
	case nil:
		return Value(nil), nil
	case Filter:
		return x, nil
	case Func:
		return Closure(x), nil
	case func(*bun.SelectQuery) *bun.SelectQuery:
		return Closure(x), nil
	case Condition:
		return Cond(x), nil
	case []byte:
		return Value(x), nil
	case []interface{}:
		return classifyTuple(key, x)
	}

	switch reflect.TypeOf(v).Kind() {
	case reflect.Slice:
		return Cond(In(key, v)), nil
	case reflect.Array, reflect.Map, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedFilter, v)
	default:
		return Value(v), nil
	}
}

func classifyTuple(key string, t []interface{}) (Filter, error) {
	switch len(t) {
	case 3:
		field, ok := t[0].(string)
		if !ok {
			return nil, fmt.Errorf("%w: tuple field must be a string, got %T", ErrUnsupportedFilter, t[0])
		}
		var op Operator
		var err error
		switch o := t[1].(type) {
		case Operator:
			op, err = ParseOperator(string(o))
		case string:
			op, err = ParseOperator(o)
		default:
			err = fmt.Errorf("%w: %T", ErrUnsupportedOperator, t[1])
		}
		if err != nil {
			return nil, err
		}
		return Triple(field, op, t[2]), nil
	case 2:
		if op, ok := leadingOperator(t[0]); ok {
			return Triple(key, op, t[1]), nil
		}
		field, ok := t[0].(string)
		if !ok {
			return nil, fmt.Errorf("%w: tuple field must be a string, got %T", ErrUnsupportedFilter, t[0])
		}
		return Pair(field, t[1]), nil
	default:
		return nil, fmt.Errorf("%w: tuple of length %d", ErrUnsupportedFilter, len(t))
	}
}

// leadingOperator reports whether v, the first element of a pair, is an
// operator rather than a field name.
func leadingOperator(v interface{}) (Operator, bool) {
	var s string
	switch o := v.(type) {
	case Operator:
		s = string(o)
	case string:
		s = o
	default:
		return "", false
	}
	op, err := ParseOperator(s)
	return op, err == nil
}
