// Package metrics records run counters and pushes them to a Prometheus
// Pushgateway once a load finishes.
//
// A load is a short-lived batch job, so there is nothing to scrape; the
// Pushgateway holds the last run's values instead. Without a gateway URL the
// recorder still counts but Push is a no-op.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// DefaultJob is the Pushgateway job name when none is configured.
const DefaultJob = "salesloader"

// Recorder holds the metrics of one run.
type Recorder struct {
	url string
	job string
	reg *prometheus.Registry

	rows          prometheus.Counter
	batches       prometheus.Counter
	sheetsSkipped prometheus.Counter
	duration      prometheus.Gauge
	lastSuccess   prometheus.Gauge
}

// New creates a recorder. url may be empty to disable pushing.
func New(url, job string) *Recorder {
	if job == "" {
		job = DefaultJob
	}

	r := &Recorder{
		url: url,
		job: job,
		reg: prometheus.NewRegistry(),
		rows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "salesloader_rows_inserted_total",
			Help: "Rows inserted in committed batches.",
		}),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "salesloader_batches_committed_total",
			Help: "Batches committed to the target table.",
		}),
		sheetsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "salesloader_sheets_skipped_total",
			Help: "Sheets skipped because required columns were missing.",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "salesloader_last_run_duration_seconds",
			Help: "Wall time of the last load run.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "salesloader_last_success_timestamp_seconds",
			Help: "Unix time of the last successful load run.",
		}),
	}
	r.reg.MustRegister(r.rows, r.batches, r.sheetsSkipped, r.duration, r.lastSuccess)
	return r
}

// Enabled reports whether Push will contact a gateway.
func (r *Recorder) Enabled() bool {
	return r.url != ""
}

// BatchCommitted implements loader.Observer.
func (r *Recorder) BatchCommitted(rows int) {
	r.rows.Add(float64(rows))
	r.batches.Inc()
}

// SheetsSkipped adds n skipped sheets.
func (r *Recorder) SheetsSkipped(n int) {
	r.sheetsSkipped.Add(float64(n))
}

// RunFinished records the run time, and the completion time when ok.
func (r *Recorder) RunFinished(d time.Duration, ok bool) {
	r.duration.Set(d.Seconds())
	if ok {
		r.lastSuccess.SetToCurrentTime()
	}
}

// Push replaces the job's metrics on the gateway.
func (r *Recorder) Push(ctx context.Context, runID string) error {
	if !r.Enabled() {
		return nil
	}

	p := push.New(r.url, r.job).Gatherer(r.reg)
	if runID != "" {
		p = p.Grouping("instance", runID)
	}
	if err := p.PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", r.url, err)
	}
	return nil
}
