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

package repository_test

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tomoncle/bunrepo/database"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        int64     `bun:",pk,autoincrement"`
	Name      string    `bun:",notnull,unique"`
	Age       int       `bun:",notnull"`
	Email     *string   `bun:","`
	CreatedAt time.Time `bun:",notnull"`

	Profile *Profile `bun:"rel:has-one,join:id=user_id"`
	Posts   []*Post  `bun:"rel:has-many,join:id=user_id"`
}

type Profile struct {
	bun.BaseModel `bun:"table:profiles,alias:p"`

	ID     int64  `bun:",pk,autoincrement"`
	UserID int64  `bun:",notnull"`
	City   string `bun:",notnull"`
}

type Post struct {
	bun.BaseModel `bun:"table:posts,alias:po"`

	ID     int64  `bun:",pk,autoincrement"`
	UserID int64  `bun:",notnull"`
	Title  string `bun:",notnull"`
}

func day(month int) time.Time {
	return time.Date(2024, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
}

func strptr(s string) *string { return &s }

// seedDB returns an in-memory database holding
//
//	1 ann 30 2024-01-01 profile Oslo, two posts
//	2 bob 17 2024-03-01 profile Paris
//	3 cid 45 2024-02-01 one post, no email
//	4 dee 22 2024-04-01
func seedDB(t *testing.T) *bun.DB {
	t.Helper()
	ctx := context.Background()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	sqlDB, err := sql.Open(sqliteshim.ShimName, fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	db := bun.NewDB(sqlDB, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	for _, model := range []interface{}{(*User)(nil), (*Profile)(nil), (*Post)(nil)} {
		_, err = db.NewCreateTable().Model(model).Exec(ctx)
		require.NoError(t, err)
	}

	users := []*User{
		{Name: "ann", Age: 30, Email: strptr("ann@example.com"), CreatedAt: day(1)},
		{Name: "bob", Age: 17, Email: strptr("bob@example.com"), CreatedAt: day(3)},
		{Name: "cid", Age: 45, CreatedAt: day(2)},
		{Name: "dee", Age: 22, Email: strptr("dee@example.org"), CreatedAt: day(4)},
	}
	_, err = db.NewInsert().Model(&users).Exec(ctx)
	require.NoError(t, err)

	profiles := []*Profile{{UserID: 1, City: "Oslo"}, {UserID: 2, City: "Paris"}}
	_, err = db.NewInsert().Model(&profiles).Exec(ctx)
	require.NoError(t, err)

	posts := []*Post{{UserID: 1, Title: "hello"}, {UserID: 1, Title: "again"}, {UserID: 3, Title: "first"}}
	_, err = db.NewInsert().Model(&posts).Exec(ctx)
	require.NoError(t, err)
	return db
}

func userNames(users []*User) []string {
	out := make([]string, len(users))
	for i, u := range users {
		out[i] = u.Name
	}
	return out
}

type logEntry struct {
	level  database.LogLevel
	msg    string
	fields []interface{}
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) record(level database.LogLevel, msg string, fields []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, fields: fields})
}

func (l *recordingLogger) messages(level database.LogLevel) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, e := range l.entries {
		if e.level == level {
			out = append(out, e.msg)
		}
	}
	return out
}

func (l *recordingLogger) SetLevel(database.LogLevel) {}

func (l *recordingLogger) Debug(msg string, fields ...interface{}) {
	l.record(database.LogLevelDebug, msg, fields)
}

func (l *recordingLogger) Info(msg string, fields ...interface{}) {
	l.record(database.LogLevelInfo, msg, fields)
}

func (l *recordingLogger) Warn(msg string, fields ...interface{}) {
	l.record(database.LogLevelWarn, msg, fields)
}

func (l *recordingLogger) Error(msg string, fields ...interface{}) {
	l.record(database.LogLevelError, msg, fields)
}
