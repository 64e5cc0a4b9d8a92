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

// Package condition composes reusable WHERE clauses for Bun select queries.
//
// A Condition adds exactly one predicate, or one parenthesised group, to a
// *bun.SelectQuery:
//
//	adults := condition.Compare("age", condition.OpGte, 18)
//	named := condition.Any(condition.Equal("name", "ann"), condition.Equal("name", "bob"))
//	q = condition.All(adults, named).ApplyTo(q)
//	// WHERE ("user"."age" >= 18 AND ("user"."name" = 'ann' OR "user"."name" = 'bob'))
//
// Unqualified field names are prefixed with the model's table alias so that
// joins added by eager loading stay unambiguous. Dotted names are quoted per
// segment and used as given.
//
// Criteria carry the mixed filter shapes accepted by repository lookups;
// FromMap builds them from an untyped map.
package condition
