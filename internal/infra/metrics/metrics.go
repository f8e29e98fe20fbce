package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Run holds the counters for a single extraction run. Each run gets its own
// registry so nothing leaks between runs in the same process.
type Run struct {
	registry *prometheus.Registry

	MessagesRead    prometheus.Counter
	RecordsEnriched prometheus.Counter
	RowsDropped     prometheus.Counter
	RowsSkipped     prometheus.Counter
	RowsInserted    prometheus.Counter
	CSVRows         prometheus.Counter
	Duration        prometheus.Gauge
	LastSuccess     prometheus.Gauge

	started time.Time
}

// NewRun creates and registers the run metrics.
func NewRun() *Run {
	r := &Run{
		registry: prometheus.NewRegistry(),
		MessagesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wa_extract_messages_read_total",
			Help: "Messages read from the message store",
		}),
		RecordsEnriched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wa_extract_records_enriched_total",
			Help: "Records produced by enrichment",
		}),
		RowsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wa_extract_rows_dropped_total",
			Help: "Messages dropped because they carry no text",
		}),
		RowsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wa_extract_rows_skipped_total",
			Help: "Messages skipped because a required field could not be converted",
		}),
		RowsInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wa_extract_rows_inserted_total",
			Help: "Rows inserted into the relational table",
		}),
		CSVRows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wa_extract_csv_rows_total",
			Help: "Rows written to the CSV file",
		}),
		Duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wa_extract_run_duration_seconds",
			Help: "Wall time of the last run",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wa_extract_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run",
		}),
		started: time.Now(),
	}

	r.registry.MustRegister(
		r.MessagesRead,
		r.RecordsEnriched,
		r.RowsDropped,
		r.RowsSkipped,
		r.RowsInserted,
		r.CSVRows,
		r.Duration,
		r.LastSuccess,
	)
	return r
}

// Gatherer exposes the run registry.
func (r *Run) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Finish records the run duration and, on success, the completion time.
func (r *Run) Finish(ok bool) {
	now := time.Now()
	r.Duration.Set(now.Sub(r.started).Seconds())
	if ok {
		r.LastSuccess.Set(float64(now.Unix()))
	}
}

// Push sends the run metrics to a Pushgateway, grouped by run ID.
// An empty url disables pushing.
func (r *Run) Push(ctx context.Context, url, job, runID string) error {
	if url == "" {
		return nil
	}
	if err := push.New(url, job).
		Gatherer(r.registry).
		Grouping("run_id", runID).
		PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", url, err)
	}
	return nil
}
