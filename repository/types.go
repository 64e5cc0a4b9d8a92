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

package repository

import (
	"context"

	"github.com/tomoncle/bunrepo/condition"
	"github.com/tomoncle/bunrepo/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

// QueryRepository reads entities through the accumulated directives.
// Single-entity lookups return nil, nil when nothing matches. columns
// restricts the projection; none or "*" selects every column.
type QueryRepository[T any] interface {
	All(ctx context.Context, columns ...string) ([]*T, error)

	First(ctx context.Context, columns ...string) (*T, error)

	Find(ctx context.Context, id any, columns ...string) (*T, error)

	FindBy(ctx context.Context, field string, value any, columns ...string) (*T, error)

	FindAllBy(ctx context.Context, field string, value any, columns ...string) ([]*T, error)

	// FindWhere joins every criterion with AND, or OR when useOr is set.
	FindWhere(ctx context.Context, criteria condition.Criteria, useOr bool, columns ...string) ([]*T, error)

	// Query runs raw SQL and scans the rows into T. Directives are ignored.
	Query(ctx context.Context, query string, args ...interface{}) ([]*T, error)

	Count(ctx context.Context) (int, error)

	Exists(ctx context.Context) (bool, error)

	// Lists returns one column of every matching row.
	Lists(ctx context.Context, value string) ([]any, error)

	// ListsKeyed returns value indexed by key. Later rows win on duplicate keys.
	ListsKeyed(ctx context.Context, value, key string) (map[string]any, error)
}

// PageQueryRepository defines pagination functionality for listing entities.
type PageQueryRepository[T any] interface {
	Paginate(ctx context.Context, page, perPage int, columns ...string) (*types.Pagination[T], error)

	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error)
}

// CrudRepository mutates entities. Create, Update and Delete notify the
// observer before touching the database. Update and Delete only reach rows
// visible through the accumulated conditions.
type CrudRepository[T any] interface {
	Create(ctx context.Context, entity *T) (*T, error)

	// Update sets data on the row whose primary key equals id.
	Update(ctx context.Context, data map[string]any, id any) (int64, error)

	// UpdateBy sets data on rows where attribute equals id. An empty
	// attribute means the primary key.
	UpdateBy(ctx context.Context, data map[string]any, attribute string, id any) (int64, error)

	// Delete reports false when no entity with id is visible.
	Delete(ctx context.Context, id any) (bool, error)

	// Upsert inserts entities, updating fields on conflict with conflictKeys
	// (the primary key when empty).
	Upsert(ctx context.Context, fields []string, conflictKeys []string, entities ...*T) error
}

// ScopedRepository accumulates query directives. Every method returns a new
// repository; the receiver is never modified.
type ScopedRepository[T any] interface {
	// SetConditions skips nil conditions.
	SetConditions(conds ...condition.Condition) Repository[T]

	Scope(fn condition.Func) Repository[T]

	// SetOrder is a no-op for an empty column. direction is "asc" (default)
	// or "desc" in any case; anything else fails the terminal call with
	// ErrInvalidDirection.
	SetOrder(column, direction string) Repository[T]

	OrderBy(column, direction string) Repository[T]

	// Latest orders by column descending. An empty column is a no-op.
	Latest(column string) Repository[T]

	// Oldest orders by column ascending. An empty column is a no-op.
	Oldest(column string) Repository[T]

	// SetEagerLoads replaces the relations to load.
	SetEagerLoads(relations []string) Repository[T]

	// With appends relations to load.
	With(relations ...string) Repository[T]

	EagerLoads() []string
}

// TransactionRepository binds a repository to a caller-owned transaction.
type TransactionRepository[T any] interface {
	WithTx(tx bun.Tx) Repository[T]
}

// Repository combines every operation and exposes Bun query builders for
// advanced use cases.
type Repository[T any] interface {
	QueryRepository[T]
	PageQueryRepository[T]
	CrudRepository[T]
	ScopedRepository[T]
	TransactionRepository[T]

	DB() bun.IDB
	Dialect() schema.Dialect
	Table() *schema.Table

	// NewSelect returns a select on T with every directive applied,
	// eager loads included.
	NewSelect() *bun.SelectQuery

	// Builder is NewSelect without eager loads.
	Builder() *bun.SelectQuery
}
