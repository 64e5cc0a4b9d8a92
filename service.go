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

package bunrepo

import (
	"context"
	"errors"
	"sync"

	"github.com/tomoncle/bunrepo/condition"
	"github.com/tomoncle/bunrepo/database"
	"github.com/tomoncle/bunrepo/repository"
	"github.com/tomoncle/bunrepo/types"
	"github.com/uptrace/bun"
)

// ErrNilTx is returned by the *WithTx methods when tx is nil.
var ErrNilTx = errors.New("bunrepo: nil transaction")

type Service[T any] interface {
	// Get returns a single entity by its identifier, or nil when missing.
	Get(ctx context.Context, id any) (*T, error)

	// All returns all entities.
	All(ctx context.Context) ([]*T, error)

	// List returns entities that match the provided filter.
	List(ctx context.Context, filter *types.QueryFilter) ([]*T, error)

	// Query executes a raw query and maps the results to entities.
	Query(ctx context.Context, query string, args ...interface{}) ([]*T, error)

	// Page returns a paginated list of entities.
	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error)

	// Update sets data on the entity identified by id.
	Update(ctx context.Context, data map[string]any, id any) (int64, error)

	// Delete removes an entity by its identifier.
	Delete(ctx context.Context, id any) (bool, error)

	// Save inserts one or more new entities.
	Save(ctx context.Context, model ...*T) error

	// SaveOrUpdate upserts entities based on fields and duplicate keys.
	SaveOrUpdate(ctx context.Context, fields []string, duplicateKeys []string, model ...*T) error

	// SaveWithTx inserts entities within an existing transaction.
	SaveWithTx(ctx context.Context, tx *bun.Tx, model ...*T) error

	// SaveOrUpdateWithTx upserts entities within a transaction.
	SaveOrUpdateWithTx(ctx context.Context, tx *bun.Tx, fields []string, duplicateKeys []string, model ...*T) error

	// UpdateWithTx updates an entity within a transaction.
	UpdateWithTx(ctx context.Context, tx *bun.Tx, data map[string]any, id any) (int64, error)

	// DeleteWithTx removes an entity within a transaction.
	DeleteWithTx(ctx context.Context, tx *bun.Tx, id any) (bool, error)

	// SelectBuilder returns a Bun select query builder bound to the entity.
	SelectBuilder() *bun.SelectQuery

	// InsertBuilder returns a Bun insert query builder.
	InsertBuilder() *bun.InsertQuery

	// UpdateBuilder returns a Bun update query builder bound to the entity.
	UpdateBuilder() *bun.UpdateQuery

	// DeleteBuilder returns a Bun delete query builder bound to the entity.
	DeleteBuilder() *bun.DeleteQuery

	// Repository exposes the query-shaping API. It panics when the global
	// database is not initialized or T is not a valid model.
	Repository() repository.Repository[T]
}

type baseServiceImpl[T any] struct {
	opts []repository.Option
	repo repository.Repository[T]
	err  error
	once sync.Once
}

// NewService returns a default Service implementation using the generic
// repository backed by the global database connection. The repository is
// built on first use, so the database may be initialized afterwards.
func NewService[T any](opts ...repository.Option) Service[T] {
	return newBaseServiceImpl[T](opts)
}

func newBaseServiceImpl[T any](opts []repository.Option) *baseServiceImpl[T] {
	return &baseServiceImpl[T]{opts: opts}
}

func (s *baseServiceImpl[T]) baseRepo() (repository.Repository[T], error) {
	s.once.Do(func() { s.repo, s.err = repository.NewRepository[T](database.GetDB(), s.opts...) })
	return s.repo, s.err
}

func (s *baseServiceImpl[T]) txRepo(tx *bun.Tx) (repository.Repository[T], error) {
	if tx == nil {
		return nil, ErrNilTx
	}
	repo, err := s.baseRepo()
	if err != nil {
		return nil, err
	}
	return repo.WithTx(*tx), nil
}

func (s *baseServiceImpl[T]) Repository() repository.Repository[T] {
	repo, err := s.baseRepo()
	if err != nil {
		panic(err)
	}
	return repo
}

func (s *baseServiceImpl[T]) Save(ctx context.Context, model ...*T) error {
	repo, err := s.baseRepo()
	if err != nil {
		return err
	}
	return save(ctx, repo, model)
}

func save[T any](ctx context.Context, repo repository.Repository[T], models []*T) error {
	for _, m := range models {
		if _, err := repo.Create(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (s *baseServiceImpl[T]) SaveOrUpdate(ctx context.Context, fields []string, duplicateKeys []string, model ...*T) error {
	repo, err := s.baseRepo()
	if err != nil {
		return err
	}
	return repo.Upsert(ctx, fields, duplicateKeys, model...)
}

func (s *baseServiceImpl[T]) Get(ctx context.Context, id any) (*T, error) {
	repo, err := s.baseRepo()
	if err != nil {
		return nil, err
	}
	return repo.Find(ctx, id)
}

func (s *baseServiceImpl[T]) All(ctx context.Context) ([]*T, error) {
	repo, err := s.baseRepo()
	if err != nil {
		return nil, err
	}
	return repo.All(ctx)
}

func (s *baseServiceImpl[T]) List(ctx context.Context, filter *types.QueryFilter) ([]*T, error) {
	repo, err := s.baseRepo()
	if err != nil {
		return nil, err
	}
	return repo.SetConditions(condition.FromFilter(filter)).All(ctx)
}

func (s *baseServiceImpl[T]) Query(ctx context.Context, query string, args ...interface{}) ([]*T, error) {
	repo, err := s.baseRepo()
	if err != nil {
		return nil, err
	}
	return repo.Query(ctx, query, args...)
}

func (s *baseServiceImpl[T]) Update(ctx context.Context, data map[string]any, id any) (int64, error) {
	repo, err := s.baseRepo()
	if err != nil {
		return 0, err
	}
	return repo.Update(ctx, data, id)
}

func (s *baseServiceImpl[T]) Delete(ctx context.Context, id any) (bool, error) {
	repo, err := s.baseRepo()
	if err != nil {
		return false, err
	}
	return repo.Delete(ctx, id)
}

func (s *baseServiceImpl[T]) Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error) {
	repo, err := s.baseRepo()
	if err != nil {
		return nil, err
	}
	return repo.Page(ctx, page)
}

func (s *baseServiceImpl[T]) SaveWithTx(ctx context.Context, tx *bun.Tx, model ...*T) error {
	repo, err := s.txRepo(tx)
	if err != nil {
		return err
	}
	return save(ctx, repo, model)
}

func (s *baseServiceImpl[T]) SaveOrUpdateWithTx(ctx context.Context, tx *bun.Tx, fields []string, duplicateKeys []string, model ...*T) error {
	repo, err := s.txRepo(tx)
	if err != nil {
		return err
	}
	return repo.Upsert(ctx, fields, duplicateKeys, model...)
}

func (s *baseServiceImpl[T]) UpdateWithTx(ctx context.Context, tx *bun.Tx, data map[string]any, id any) (int64, error) {
	repo, err := s.txRepo(tx)
	if err != nil {
		return 0, err
	}
	return repo.Update(ctx, data, id)
}

func (s *baseServiceImpl[T]) DeleteWithTx(ctx context.Context, tx *bun.Tx, id any) (bool, error) {
	repo, err := s.txRepo(tx)
	if err != nil {
		return false, err
	}
	return repo.Delete(ctx, id)
}

func (s *baseServiceImpl[T]) SelectBuilder() *bun.SelectQuery {
	return s.Repository().NewSelect()
}

func (s *baseServiceImpl[T]) InsertBuilder() *bun.InsertQuery {
	return s.Repository().DB().NewInsert()
}

func (s *baseServiceImpl[T]) UpdateBuilder() *bun.UpdateQuery {
	return s.Repository().DB().NewUpdate().Model((*T)(nil))
}

func (s *baseServiceImpl[T]) DeleteBuilder() *bun.DeleteQuery {
	return s.Repository().DB().NewDelete().Model((*T)(nil))
}
