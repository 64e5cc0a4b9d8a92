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

package condition_test

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type user struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID    int64   `bun:",pk,autoincrement"`
	Name  string  `bun:",notnull"`
	Age   int     `bun:",notnull"`
	Email *string `bun:","`
}

func strptr(s string) *string { return &s }

// seedDB returns an in-memory database holding ann(30), bob(17), cid(45,
// no email) and dee(22).
func seedDB(t *testing.T) *bun.DB {
	t.Helper()
	ctx := context.Background()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	sqlDB, err := sql.Open(sqliteshim.ShimName, fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	db := bun.NewDB(sqlDB, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.NewCreateTable().Model((*user)(nil)).Exec(ctx)
	require.NoError(t, err)

	users := []*user{
		{Name: "ann", Age: 30, Email: strptr("ann@example.com")},
		{Name: "bob", Age: 17, Email: strptr("bob@example.com")},
		{Name: "cid", Age: 45},
		{Name: "dee", Age: 22, Email: strptr("dee@example.org")},
	}
	_, err = db.NewInsert().Model(&users).Exec(ctx)
	require.NoError(t, err)
	return db
}

func selectUsers(db *bun.DB) *bun.SelectQuery {
	return db.NewSelect().Model((*user)(nil))
}

// names runs q ordered by id and returns the matching names.
func names(t *testing.T, q *bun.SelectQuery) []string {
	t.Helper()
	var out []string
	err := q.Column("name").OrderExpr("?TableAlias.id ASC").Scan(context.Background(), &out)
	require.NoError(t, err)
	return out
}
