package loader

import (
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
)

// progress logs a throughput line every `every` records.
type progress struct {
	log   *slog.Logger
	every int64
	next  int64
	start time.Time
}

func newProgress(log *slog.Logger, every int, start time.Time) *progress {
	return &progress{log: log, every: int64(every), next: int64(every), start: start}
}

// record is called after each record with the running totals.
func (p *progress) record(rows int64, batches int) {
	if rows < p.next {
		return
	}
	p.next += p.every
	p.log.Info("loading "+humanize.Comma(rows)+" rows",
		"rows", rows,
		"batches", batches,
		"rows_per_sec", p.rate(rows),
	)
}

func (p *progress) done(rows int64, batches int) {
	p.log.Info("load complete",
		"rows", rows,
		"batches", batches,
		"rows_per_sec", p.rate(rows),
		"elapsed", time.Since(p.start).Round(time.Millisecond).String(),
	)
}

func (p *progress) rate(rows int64) int64 {
	secs := time.Since(p.start).Seconds()
	if secs <= 0 {
		return 0
	}
	return int64(float64(rows) / secs)
}
