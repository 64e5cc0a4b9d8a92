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
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/tomoncle/bunrepo/condition"
	"github.com/tomoncle/bunrepo/database"
	"github.com/tomoncle/bunrepo/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/feature"
	"github.com/uptrace/bun/schema"
)

type baseRepositoryImpl[T any] struct {
	db         bun.IDB
	table      *schema.Table
	observer   Observer
	logger     database.Logger
	scopes     []condition.Func
	eagerLoads []string
}

// NewRepository returns a generic repository backed by the provided Bun DB.
// T must be a struct type Bun can map to a table with a primary key.
func NewRepository[T any](db *bun.DB, opts ...Option) (Repository[T], error) {
	if db == nil {
		return nil, fmt.Errorf("%w: nil database", ErrInvalidModel)
	}
	typ := reflect.TypeOf((*T)(nil)).Elem()
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s is not a struct", ErrInvalidModel, typ)
	}
	table, err := resolveTable(db, typ)
	if err != nil {
		return nil, err
	}
	if len(table.PKs) == 0 {
		return nil, fmt.Errorf("%w: %s has no primary key", ErrInvalidModel, typ)
	}
	o := newOptions(opts)
	return &baseRepositoryImpl[T]{
		db:       db,
		table:    table,
		observer: o.observer,
		logger:   o.logger,
	}, nil
}

// MustNewRepository is like NewRepository but panics on error.
func MustNewRepository[T any](db *bun.DB, opts ...Option) Repository[T] {
	repo, err := NewRepository[T](db, opts...)
	if err != nil {
		panic(err)
	}
	return repo
}

func resolveTable(db *bun.DB, typ reflect.Type) (table *schema.Table, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrInvalidModel, rec)
		}
	}()
	return db.Table(typ), nil
}

func (r *baseRepositoryImpl[T]) clone() *baseRepositoryImpl[T] {
	c := *r
	c.scopes = r.scopes[:len(r.scopes):len(r.scopes)]
	c.eagerLoads = r.eagerLoads[:len(r.eagerLoads):len(r.eagerLoads)]
	return &c
}

func (r *baseRepositoryImpl[T]) withScope(fn condition.Func) *baseRepositoryImpl[T] {
	c := r.clone()
	c.scopes = append(c.scopes, fn)
	return c
}

func (r *baseRepositoryImpl[T]) DB() bun.IDB { return r.db }

func (r *baseRepositoryImpl[T]) Dialect() schema.Dialect { return r.db.Dialect() }

func (r *baseRepositoryImpl[T]) Table() *schema.Table { return r.table }

func (r *baseRepositoryImpl[T]) NewSelect() *bun.SelectQuery {
	return r.selectQuery((*T)(nil), true, nil)
}

func (r *baseRepositoryImpl[T]) Builder() *bun.SelectQuery {
	return r.selectQuery((*T)(nil), false, nil)
}

func (r *baseRepositoryImpl[T]) WithTx(tx bun.Tx) Repository[T] {
	c := r.clone()
	c.db = tx
	return c
}

func (r *baseRepositoryImpl[T]) SetConditions(conds ...condition.Condition) Repository[T] {
	c := r.clone()
	for i, cond := range conds {
		if cond == nil {
			r.logger.Warn("Skipping nil condition", "model", r.table.Type.Name(), "index", i)
			continue
		}
		c.scopes = append(c.scopes, cond.ApplyTo)
	}
	return c
}

func (r *baseRepositoryImpl[T]) Scope(fn condition.Func) Repository[T] {
	if fn == nil {
		return r
	}
	return r.withScope(fn)
}

func (r *baseRepositoryImpl[T]) SetOrder(column, direction string) Repository[T] {
	if strings.TrimSpace(column) == "" {
		return r
	}
	dir, err := types.ParseDirection(direction)
	if err != nil {
		return r.withScope(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Err(fmt.Errorf("%w: %v", ErrInvalidDirection, err))
		})
	}
	col, args := condition.Qualify(column)
	return r.withScope(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.OrderExpr(col+" "+dir.String(), args...)
	})
}

func (r *baseRepositoryImpl[T]) OrderBy(column, direction string) Repository[T] {
	return r.SetOrder(column, direction)
}

func (r *baseRepositoryImpl[T]) Latest(column string) Repository[T] {
	return r.SetOrder(column, string(types.Desc))
}

func (r *baseRepositoryImpl[T]) Oldest(column string) Repository[T] {
	return r.SetOrder(column, string(types.Asc))
}

func (r *baseRepositoryImpl[T]) SetEagerLoads(relations []string) Repository[T] {
	c := r.clone()
	c.eagerLoads = append([]string(nil), relations...)
	return c
}

func (r *baseRepositoryImpl[T]) With(relations ...string) Repository[T] {
	c := r.clone()
	c.eagerLoads = append(c.eagerLoads, relations...)
	return c
}

func (r *baseRepositoryImpl[T]) EagerLoads() []string {
	return append([]string{}, r.eagerLoads...)
}

// selectQuery binds model, projects columns, then applies scopes in the
// order they were added and finally the eager loads.
func (r *baseRepositoryImpl[T]) selectQuery(model interface{}, eager bool, columns []string) *bun.SelectQuery {
	q := r.db.NewSelect().Model(model)
	if !allColumns(columns) {
		for _, col := range columns {
			query, args := condition.Qualify(col)
			q = q.ColumnExpr(query, args...)
		}
	}
	for _, scope := range r.scopes {
		q = scope.ApplyTo(q)
	}
	if eager {
		for _, rel := range r.eagerLoads {
			q = q.Relation(rel)
		}
	}
	return q
}

func allColumns(columns []string) bool {
	if len(columns) == 0 {
		return true
	}
	for _, col := range columns {
		if strings.TrimSpace(col) == "*" {
			return true
		}
	}
	return false
}

func (r *baseRepositoryImpl[T]) pk() string {
	return r.table.PKs[0].Name
}

func (r *baseRepositoryImpl[T]) wherePK(q *bun.SelectQuery, id any) *bun.SelectQuery {
	col, args := condition.Qualify(r.pk())
	return q.Where(col+" = ?", append(args, id)...)
}

func (r *baseRepositoryImpl[T]) first(ctx context.Context, q *bun.SelectQuery, entity *T) (*T, error) {
	if err := q.Limit(1).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return entity, nil
}

func (r *baseRepositoryImpl[T]) All(ctx context.Context, columns ...string) ([]*T, error) {
	entities := make([]*T, 0)
	if err := r.selectQuery(&entities, true, columns).Scan(ctx); err != nil {
		return nil, err
	}
	return entities, nil
}

func (r *baseRepositoryImpl[T]) First(ctx context.Context, columns ...string) (*T, error) {
	entity := new(T)
	return r.first(ctx, r.selectQuery(entity, true, columns), entity)
}

func (r *baseRepositoryImpl[T]) Find(ctx context.Context, id any, columns ...string) (*T, error) {
	entity := new(T)
	return r.first(ctx, r.wherePK(r.selectQuery(entity, true, columns), id), entity)
}

func (r *baseRepositoryImpl[T]) FindBy(ctx context.Context, field string, value any, columns ...string) (*T, error) {
	entity := new(T)
	q := condition.Equal(field, value).ApplyTo(r.selectQuery(entity, true, columns))
	return r.first(ctx, q, entity)
}

func (r *baseRepositoryImpl[T]) FindAllBy(ctx context.Context, field string, value any, columns ...string) ([]*T, error) {
	return r.SetConditions(condition.Equal(field, value)).All(ctx, columns...)
}

func (r *baseRepositoryImpl[T]) FindWhere(ctx context.Context, criteria condition.Criteria, useOr bool, columns ...string) ([]*T, error) {
	cond, err := criteria.Build(useOr)
	if err != nil {
		return nil, err
	}
	return r.SetConditions(cond).All(ctx, columns...)
}

func (r *baseRepositoryImpl[T]) Query(ctx context.Context, query string, args ...interface{}) ([]*T, error) {
	entities := make([]*T, 0)
	if err := r.db.NewRaw(query, args...).Scan(ctx, &entities); err != nil {
		return nil, err
	}
	return entities, nil
}

func (r *baseRepositoryImpl[T]) Count(ctx context.Context) (int, error) {
	return r.selectQuery((*T)(nil), true, nil).Count(ctx)
}

func (r *baseRepositoryImpl[T]) Exists(ctx context.Context) (bool, error) {
	return r.selectQuery((*T)(nil), true, nil).Exists(ctx)
}

func (r *baseRepositoryImpl[T]) Lists(ctx context.Context, value string) ([]any, error) {
	rows, err := r.selectQuery((*T)(nil), true, []string{value}).Rows(ctx)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := make([]any, 0)
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		values = append(values, row[0])
	}
	return values, rows.Err()
}

func (r *baseRepositoryImpl[T]) ListsKeyed(ctx context.Context, value, key string) (map[string]any, error) {
	rows, err := r.selectQuery((*T)(nil), true, []string{value, key}).Rows(ctx)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := make(map[string]any)
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		values[fmt.Sprint(row[1])] = row[0]
	}
	return values, rows.Err()
}

// scanRow reads every column of the current row. Eager loaded has-one
// relations append their own columns after the requested ones.
func scanRow(rows *sql.Rows) ([]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	row := make([]any, len(cols))
	dest := make([]any, len(cols))
	for i := range row {
		dest[i] = &row[i]
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}
	for i, v := range row {
		row[i] = plain(v)
	}
	return row, nil
}

// plain converts driver byte slices to strings.
func plain(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func (r *baseRepositoryImpl[T]) Paginate(ctx context.Context, page, perPage int, columns ...string) (*types.Pagination[T], error) {
	if page < 1 {
		page = types.DefaultPage
	}
	if perPage < 1 {
		perPage = types.DefaultPageSize
	}
	pagination := types.NewDefaultPagination[T](page, perPage)
	total, err := r.Count(ctx)
	if err != nil {
		return nil, err
	}
	pagination.SetTotal(total)
	if total == 0 {
		return pagination, nil
	}

	entities := make([]*T, 0, perPage)
	err = r.selectQuery(&entities, true, columns).
		Offset((page - 1) * perPage).
		Limit(perPage).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	pagination.Items = entities
	return pagination, nil
}

// Page applies the request's filter and "column [ASC|DESC]" orders on top of
// the accumulated directives.
func (r *baseRepositoryImpl[T]) Page(ctx context.Context, pageRequest *types.PageRequest) (*types.Pagination[T], error) {
	if pageRequest == nil {
		pageRequest = types.NewDefaultPageRequest(types.DefaultPage, types.DefaultPageSize)
	}
	repo := r.SetConditions(condition.FromFilter(pageRequest.GetFilter()))
	for _, order := range pageRequest.GetOrders() {
		parts := strings.Fields(order)
		switch len(parts) {
		case 0:
		case 1:
			repo = repo.SetOrder(parts[0], "")
		default:
			repo = repo.SetOrder(parts[0], parts[1])
		}
	}
	return repo.Paginate(ctx, pageRequest.GetPage(), pageRequest.GetPageSize())
}

func (r *baseRepositoryImpl[T]) Create(ctx context.Context, entity *T) (*T, error) {
	if entity == nil {
		return nil, ErrNilEntity
	}
	r.observer.Notify(ctx, PhaseCreating, entity)
	if _, err := r.db.NewInsert().Model(entity).Exec(ctx); err != nil {
		return nil, err
	}
	return entity, nil
}

func (r *baseRepositoryImpl[T]) Update(ctx context.Context, data map[string]any, id any) (int64, error) {
	return r.UpdateBy(ctx, data, "", id)
}

func (r *baseRepositoryImpl[T]) UpdateBy(ctx context.Context, data map[string]any, attribute string, id any) (int64, error) {
	if len(data) == 0 {
		return 0, nil
	}
	if attribute == "" {
		attribute = r.pk()
	}
	q := r.db.NewUpdate().Model((*T)(nil)).Where("? = ?", bun.Ident(attribute), id)
	if len(r.scopes) > 0 {
		q = q.Where("? IN (?)", bun.Ident(r.pk()), r.scopedKeys())
	}
	r.observer.Notify(ctx, PhaseUpdating, q)

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		q = q.Set("? = ?", bun.Ident(k), data[k])
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// scopedKeys selects the primary keys visible through the accumulated
// directives, wrapped in a derived table so MySQL accepts it inside an UPDATE
// of the same table.
func (r *baseRepositoryImpl[T]) scopedKeys() *bun.SelectQuery {
	col, args := condition.Qualify(r.pk())
	visible := r.selectQuery((*T)(nil), true, nil).ColumnExpr(col, args...)
	return r.db.NewSelect().
		TableExpr("(?) AS ?", visible, bun.Ident("scoped")).
		ColumnExpr("?.?", bun.Ident("scoped"), bun.Ident(r.pk()))
}

func (r *baseRepositoryImpl[T]) Delete(ctx context.Context, id any) (bool, error) {
	entity := new(T)
	found, err := r.first(ctx, r.wherePK(r.selectQuery(entity, true, nil), id), entity)
	if err != nil {
		return false, err
	}
	if found == nil {
		r.logger.Debug("Nothing to delete", "model", r.table.Type.Name(), "id", id)
		return false, nil
	}
	r.observer.Notify(ctx, PhaseDeleting, found)

	res, err := r.db.NewDelete().Model(found).WherePK().Exec(ctx)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *baseRepositoryImpl[T]) Upsert(ctx context.Context, fields []string, conflictKeys []string, entities ...*T) error {
	if len(entities) == 0 {
		return nil
	}
	if len(fields) == 0 {
		return fmt.Errorf("fields cannot be empty")
	}
	for _, e := range entities {
		if e == nil {
			return ErrNilEntity
		}
	}
	if len(conflictKeys) == 0 {
		conflictKeys = []string{r.pk()}
	}

	features := r.db.Dialect().Features()
	switch {
	case features.Has(feature.InsertOnConflict):
		return r.upsertOnConflict(ctx, fields, conflictKeys, entities)
	case features.Has(feature.InsertOnDuplicateKey):
		return r.upsertOnDuplicateKey(ctx, fields, entities)
	default:
		return r.upsertFallback(ctx, fields, entities)
	}
}

func (r *baseRepositoryImpl[T]) upsertOnConflict(ctx context.Context, fields, conflictKeys []string, entities []*T) error {
	keys := make([]bun.Ident, len(conflictKeys))
	for i, k := range conflictKeys {
		keys[i] = bun.Ident(k)
	}
	q := r.db.NewInsert().Model(&entities).On("CONFLICT (?) DO UPDATE", bun.In(keys))
	for _, field := range fields {
		q = q.Set("? = EXCLUDED.?", bun.Ident(field), bun.Ident(field))
	}
	_, err := q.Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) upsertOnDuplicateKey(ctx context.Context, fields []string, entities []*T) error {
	q := r.db.NewInsert().Model(&entities).On("DUPLICATE KEY UPDATE")
	for _, field := range fields {
		q = q.Set("? = VALUES(?)", bun.Ident(field), bun.Ident(field))
	}
	_, err := q.Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) upsertFallback(ctx context.Context, fields []string, entities []*T) error {
	for _, entity := range entities {
		_, err := r.db.NewInsert().Model(entity).Exec(ctx)
		if err == nil {
			continue
		}
		if _, updateErr := r.db.NewUpdate().Model(entity).Column(fields...).WherePK().Exec(ctx); updateErr != nil {
			return fmt.Errorf("upsert failed for entity: insert error: %v, update error: %w", err, updateErr)
		}
	}
	return nil
}
