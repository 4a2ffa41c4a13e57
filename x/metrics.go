/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package x

import (
	"context"
	"sync"

	ocprom "contrib.go.opencensus.io/exporter/prometheus"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

var (
	// Cumulative metrics.
	NumRequests = stats.Int64("graphql_requests_total",
		"Total number of GraphQL HTTP requests", stats.UnitDimensionless)
	NumDocumentCacheHits = stats.Int64("graphql_document_cache_hits_total",
		"Number of requests whose parsed document came from the cache", stats.UnitDimensionless)
	LatencyMs = stats.Float64("graphql_latency",
		"Latency of GraphQL HTTP requests", stats.UnitMilliseconds)
	BodyBytes = stats.Int64("graphql_response_bytes",
		"Size of complete GraphQL response bodies", stats.UnitBytes)

	// Point-in-time metrics.
	PendingRequests = stats.Int64("graphql_pending_requests_total",
		"Number of requests being processed", stats.UnitDimensionless)

	// Tag keys here
	KeyStatus, _ = tag.NewKey("status")
	KeyMethod, _ = tag.NewKey("method")

	defaultLatencyMsDistribution = view.Distribution(
		0, 0.01, 0.05, 0.1, 0.3, 0.6, 0.8, 1, 2, 3, 4, 5, 6, 8, 10, 13, 16,
		20, 25, 30, 40, 50, 65, 80, 100, 130, 160, 200, 250, 300, 400, 500,
		650, 800, 1000, 2000, 5000, 10000, 20000, 50000, 100000)

	defaultBytesDistribution = view.Distribution(
		0, 64, 256, 1<<10, 4<<10, 16<<10, 64<<10, 256<<10, 1<<20, 4<<20, 16<<20)

	allTagKeys = []tag.Key{
		KeyStatus, KeyMethod,
	}

	allViews = []*view.View{
		{
			Name:        LatencyMs.Name(),
			Measure:     LatencyMs,
			Description: LatencyMs.Description(),
			Aggregation: defaultLatencyMsDistribution,
			TagKeys:     allTagKeys,
		},
		{
			Name:        NumRequests.Name(),
			Measure:     NumRequests,
			Description: NumRequests.Description(),
			Aggregation: view.Count(),
			TagKeys:     allTagKeys,
		},
		{
			Name:        NumDocumentCacheHits.Name(),
			Measure:     NumDocumentCacheHits,
			Description: NumDocumentCacheHits.Description(),
			Aggregation: view.Count(),
		},
		{
			Name:        BodyBytes.Name(),
			Measure:     BodyBytes,
			Description: BodyBytes.Description(),
			Aggregation: defaultBytesDistribution,
			TagKeys:     allTagKeys,
		},

		// Recorded as +1 and -1, so the sum is the current value.
		{
			Name:        PendingRequests.Name(),
			Measure:     PendingRequests,
			Description: PendingRequests.Description(),
			Aggregation: view.Sum(),
		},
	}

	registerViews sync.Once
	viewsErr      error
)

// NewMetricsExporter registers the request views and returns an exporter that
// publishes them, together with Go runtime metrics, in the Prometheus text
// format. The exporter is an http.Handler. namespace prefixes every metric.
func NewMetricsExporter(namespace string) (*ocprom.Exporter, error) {
	registerViews.Do(func() {
		viewsErr = view.Register(allViews...)
	})
	if viewsErr != nil {
		return nil, errors.Wrap(viewsErr, "while registering metric views")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	pe, err := ocprom.NewExporter(ocprom.Options{
		Namespace: namespace,
		Registry:  registry,
		OnError:   func(err error) { NewLogger().Errorf("%v", err) },
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create OpenCensus Prometheus exporter")
	}
	view.RegisterExporter(pe)
	return pe, nil
}

// WithMethod returns a new updated context with the tag KeyMethod set to the given value.
func WithMethod(parent context.Context, method string) context.Context {
	ctx, err := tag.New(parent, tag.Upsert(KeyMethod, method))
	Check(err)
	return ctx
}

// WithStatus returns a new updated context with the tag KeyStatus set to the given value.
func WithStatus(parent context.Context, status string) context.Context {
	ctx, err := tag.New(parent, tag.Upsert(KeyStatus, status))
	Check(err)
	return ctx
}
