/*
Copyright 2023 Alexander Bartolomey (github@alexanderbartolomey.de)

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cio

import "github.com/prometheus/client_golang/prometheus"

var (
	SendTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cio_pipeline_send_total",
		Help: "Total number of pipeline send() calls per method",
	}, []string{"method"})

	SendDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cio_pipeline_send_duration_seconds",
		Help:    "Duration of a full pipeline send() pass per method",
		Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"method"})

	NodesProcessedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cio_pipeline_nodes_processed_total",
		Help: "Total number of nodes carried through a pipeline send() per method",
	}, []string{"method"})

	FlushBatchSize = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cio_pipeline_flush_batch_size",
		Help:    "Number of distinct initial URIs coalesced into one flush()",
		Buckets: []float64{1, 2, 4, 8, 16, 32, 64, 128, 256},
	}, []string{"method"})
)

var (
	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cio_cache_hits_total",
		Help: "Total number of cache hits in CachePipe.get_request",
	})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cio_cache_misses_total",
		Help: "Total number of cache misses in CachePipe.get_request",
	})
)

var (
	StorageLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cio_storage_backend_latency_seconds",
		Help:    "Latency of a StorageBackend call per operation",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"op"})
	StorageErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cio_storage_backend_errors_total",
		Help: "Total number of StorageBackend errors per operation",
	}, []string{"op"})
)
