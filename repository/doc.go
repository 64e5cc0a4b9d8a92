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

// Package repository provides a generic repository over Bun models.
//
// A Repository[T] is an immutable value. Configuration calls such as
// SetConditions, SetOrder and With return a new repository carrying one
// more directive and leave the receiver untouched, so a base repository can
// be shared and specialised freely:
//
//	users := repository.MustNewRepository[User](db)
//	adults := users.SetConditions(condition.Compare("age", condition.OpGte, 18)).Latest("created_at")
//	page, err := adults.With("Profile").Paginate(ctx, 1, 20)
//
// Terminal calls (All, Find, Paginate, Create, Update, Delete, ...) build a
// fresh Bun query from the accumulated directives and execute it.
//
// Mutations notify an Observer before they run.
package repository
