// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package mdpack

import (
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tidemark/mdpack/binser"
)

// Metrics holds the counters of a Store. Every counter is labeled with the
// data kind.
type Metrics struct {
	RecordsAppended *prometheus.CounterVec
	BytesWritten    *prometheus.CounterVec
	BlobsRead       *prometheus.CounterVec
	Errors          *prometheus.CounterVec
}

func newMetrics() *Metrics {
	return &Metrics{
		RecordsAppended: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mdpack",
			Name:      "records_appended_total",
			Help:      "Records appended to day blobs.",
		}, []string{"kind"}),
		BytesWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mdpack",
			Name:      "blob_bytes_written_total",
			Help:      "Compressed day blob bytes written.",
		}, []string{"kind"}),
		BlobsRead: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mdpack",
			Name:      "blobs_read_total",
			Help:      "Day blobs loaded.",
		}, []string{"kind"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mdpack",
			Name:      "errors_total",
			Help:      "Failed store operations by cause.",
		}, []string{"kind", "cause"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.RecordsAppended, m.BytesWritten, m.BlobsRead, m.Errors}
}

func (m *Metrics) register(r prometheus.Registerer) error {
	for _, c := range m.collectors() {
		if err := r.Register(c); err != nil {
			return errors.Wrap(err, "registering store metrics")
		}
	}
	return nil
}

var errorCauses = []struct {
	err   error
	cause string
}{
	{binser.ErrCorruption, "corruption"},
	{binser.ErrUnsupportedVersion, "unsupported_version"},
	{binser.ErrPrecisionLoss, "precision_loss"},
	{binser.ErrRangeOverflow, "range_overflow"},
	{binser.ErrInvalidPrice, "invalid_price"},
	{binser.ErrUnsupportedValue, "unsupported_value"},
	{binser.ErrInvalidDomainState, "invalid_domain_state"},
	{binser.ErrUnknownField, "unknown_field"},
	{binser.ErrEndOfStream, "end_of_stream"},
	{ErrNotFound, "not_found"},
}

// causeOf classifies err for the errors counter.
func causeOf(err error) string {
	for _, c := range errorCauses {
		if errors.Is(err, c.err) {
			return c.cause
		}
	}
	return "other"
}

func (m *Metrics) recordError(k Kind, err error) {
	m.Errors.WithLabelValues(k.String(), causeOf(err)).Inc()
}
