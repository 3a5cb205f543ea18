package ledger

import "time"

// Metrics records ledger activity. The Prometheus recorder in
// infrastructure/metrics implements it.
type Metrics interface {
	ObservePosting(journal string, lines int, err error)
	ObserveExport(format string, elapsed time.Duration, err error)
}

type noopMetrics struct{}

func (noopMetrics) ObservePosting(string, int, error)          {}
func (noopMetrics) ObserveExport(string, time.Duration, error) {}
