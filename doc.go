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

// Package bunrepo provides Service, a thin facade that binds a generic
// repository.Repository to the process-wide database from the database
// package.
//
//	db, err := database.InitDBFromFile("config.yaml")
//	...
//	users := bunrepo.NewService[User]()
//	u, err := users.Get(ctx, 1)
//	adults, err := users.Repository().
//		SetConditions(condition.Compare("age", condition.OpGte, 18)).
//		Latest("").
//		All(ctx)
package bunrepo
