// Package stats provides a unified interface for collecting job metrics.
package stats

// Metric names recorded by the pipeline.
const (
	// Job metrics.
	MetricJobs        = "crate_jobs_total"
	MetricJobFailures = "crate_job_failures_total"
	MetricJobDuration = "crate_job_duration_seconds"

	// Byte counts at the job boundary.
	MetricBytesIn  = "crate_bytes_in_total"
	MetricBytesOut = "crate_bytes_out_total"

	// MetricRatio is output bytes over input bytes of the last job.
	MetricRatio = "crate_compression_ratio"

	// MetricEntries is the number of container entries of the last job.
	MetricEntries = "crate_entries"
)

// Help returns the description for a metric name, or the name itself for
// metrics not listed above.
func Help(name string) string {
	if h, ok := help[name]; ok {
		return h
	}
	return name
}

var help = map[string]string{
	MetricJobs:        "Archive and extract jobs started.",
	MetricJobFailures: "Jobs that ended in the failed state.",
	MetricJobDuration: "Wall time from job start to completion.",
	MetricBytesIn:     "Bytes read from the job input.",
	MetricBytesOut:    "Bytes written to the job output.",
	MetricRatio:       "Output bytes over input bytes of the most recent job.",
	MetricEntries:     "Container entries processed by the most recent job.",
}

// Collector defines the interface for collecting metrics.
type Collector interface {
	// IncCounter increments a counter metric by delta.
	IncCounter(name string, delta int64)

	// SetGauge sets a gauge metric to value.
	SetGauge(name string, value float64)

	// ObserveHistogram records a value in a histogram metric.
	ObserveHistogram(name string, value float64)
}
