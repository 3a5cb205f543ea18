package invoicing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// InvoiceLocker serializes work on one invoice across goroutines or processes.
// The returned function releases the lock and is safe to call once.
type InvoiceLocker interface {
	Lock(ctx context.Context, invoiceID uuid.UUID) (unlock func(), err error)
}

// Metrics records reconciliation activity
type Metrics interface {
	ObservePayment(kind string, err error)
	ObserveRecompute(outcome string, elapsed time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) ObservePayment(string, error)           {}
func (noopMetrics) ObserveRecompute(string, time.Duration) {}
