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
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/uptrace/bun"
)

const defaultMetricsNamespace = "bunrepo"

// MetricsHook counts queries and observes their latency, labelled by SQL
// operation and outcome.
type MetricsHook struct {
	queries  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var _ bun.QueryHook = (*MetricsHook)(nil)

var (
	defaultMetricsOnce sync.Once
	defaultMetrics     *MetricsHook
)

// NewMetricsHook registers its collectors with reg. A nil reg creates
// unregistered collectors.
func NewMetricsHook(reg prometheus.Registerer, namespace string) *MetricsHook {
	if namespace == "" {
		namespace = defaultMetricsNamespace
	}
	factory := promauto.With(reg)
	return &MetricsHook{
		queries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "queries_total",
			Help:      "Number of SQL queries executed",
		}, []string{"operation", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "SQL query latency",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"operation", "status"}),
	}
}

// DefaultMetricsHook returns the hook registered with
// prometheus.DefaultRegisterer, shared by every connection.
func DefaultMetricsHook() *MetricsHook {
	defaultMetricsOnce.Do(func() {
		defaultMetrics = NewMetricsHook(prometheus.DefaultRegisterer, defaultMetricsNamespace)
	})
	return defaultMetrics
}

func (h *MetricsHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *MetricsHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	status := "ok"
	if event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows) {
		status = "error"
	}
	op := event.Operation()
	h.queries.WithLabelValues(op, status).Inc()
	h.duration.WithLabelValues(op, status).Observe(time.Since(event.StartTime).Seconds())
}
