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

package database

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestQueryHook(t *testing.T) {
	ctx := context.Background()

	t.Run("verbose prints every query", func(t *testing.T) {
		t.Setenv(QueryDebugEnv, "2")
		db := openTestDB(t)
		var buf bytes.Buffer
		db.AddQueryHook(NewQueryHook(&buf, false))

		_, err := db.NewSelect().Model((*widget)(nil)).Count(ctx)
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "[BUN]")
		assert.Contains(t, buf.String(), `FROM "widgets"`)
	})

	t.Run("quiet mode prints failures only", func(t *testing.T) {
		t.Setenv(QueryDebugEnv, "1")
		db := openTestDB(t)
		var buf bytes.Buffer
		db.AddQueryHook(NewQueryHook(&buf, true))

		_, err := db.NewSelect().Model((*widget)(nil)).Count(ctx)
		require.NoError(t, err)
		assert.Empty(t, buf.String())

		var ids []int64
		err = db.NewSelect().Table("gadgets").Column("id").Scan(ctx, &ids)
		require.Error(t, err)
		assert.Contains(t, buf.String(), "gadgets")
	})

	t.Run("disabled from env", func(t *testing.T) {
		t.Setenv(QueryDebugEnv, "0")
		db := openTestDB(t)
		var buf bytes.Buffer
		db.AddQueryHook(NewQueryHook(&buf, true))

		var ids []int64
		_ = db.NewSelect().Table("gadgets").Column("id").Scan(ctx, &ids)
		assert.Empty(t, buf.String())
	})
}

func TestSlowQueryHook(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	slow := &recordingLogger{}
	fast := &recordingLogger{}
	db.AddQueryHook(NewSlowQueryHook(time.Nanosecond, slow))
	db.AddQueryHook(NewSlowQueryHook(time.Hour, fast))

	_, err := db.NewSelect().Model((*widget)(nil)).Count(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"Database slow query detected"}, slow.messages(LogLevelWarn))
	assert.Empty(t, fast.messages(LogLevelWarn))
}

func TestMetricsHook(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	reg := prometheus.NewRegistry()
	hook := NewMetricsHook(reg, "test")
	db.AddQueryHook(hook)

	_, err := db.NewSelect().Model((*widget)(nil)).Count(ctx)
	require.NoError(t, err)

	w := new(widget)
	err = db.NewSelect().Model(w).Where("id = ?", 42).Scan(ctx)
	require.Error(t, err)

	var ids []int64
	err = db.NewSelect().Table("gadgets").Column("id").Scan(ctx, &ids)
	require.Error(t, err)

	assert.Equal(t, float64(2), testutil.ToFloat64(hook.queries.WithLabelValues("SELECT", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(hook.queries.WithLabelValues("SELECT", "error")))
	assert.Equal(t, 2, testutil.CollectAndCount(hook.duration))

	n, err := testutil.GatherAndCount(reg, "test_db_queries_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestTracingHook(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	db.AddQueryHook(NewTracingHook(tp, "sqlite"))

	_, err := db.NewInsert().Model(&widget{Name: "gear"}).Exec(ctx)
	require.NoError(t, err)
	var ids []int64
	err = db.NewSelect().Table("gadgets").Column("id").Scan(ctx, &ids)
	require.Error(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 2)

	insert := spans[0]
	assert.Equal(t, "INSERT", insert.Name())
	assert.Equal(t, trace.SpanKindClient, insert.SpanKind())
	assert.Contains(t, insert.Attributes(), attribute.String("db.system", "sqlite"))
	assert.Contains(t, insert.Attributes(), attribute.String("db.operation", "INSERT"))
	assert.Equal(t, codes.Unset, insert.Status().Code)

	failed := spans[1]
	assert.Equal(t, "SELECT", failed.Name())
	assert.Equal(t, codes.Error, failed.Status().Code)
	require.NotEmpty(t, failed.Events())
	assert.Equal(t, "exception", failed.Events()[0].Name)
}
