package stats

// Noop discards all metrics. The pipeline uses it when no collector is set.
type Noop struct{}

var _ Collector = (*Noop)(nil)

// NewNoop creates a new no-op collector.
func NewNoop() *Noop {
	return &Noop{}
}

func (n *Noop) IncCounter(name string, delta int64)         {}
func (n *Noop) SetGauge(name string, value float64)         {}
func (n *Noop) ObserveHistogram(name string, value float64) {}
