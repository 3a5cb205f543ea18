package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	appinvoicing "github.com/erp/ledger/internal/application/invoicing"
	"github.com/erp/ledger/internal/domain/invoicing"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "ledger:lock:invoice:"

// Options tunes the Redis mutex
type Options struct {
	Expiry     time.Duration
	RetryDelay time.Duration
	Tries      int
}

// DefaultOptions returns the settings used for invoice recomputes
func DefaultOptions() Options {
	return Options{
		Expiry:     10 * time.Second,
		RetryDelay: 50 * time.Millisecond,
		Tries:      64,
	}
}

// RedisLocker holds one redsync mutex per invoice so several replicas can share a database
type RedisLocker struct {
	rs     *redsync.Redsync
	opts   Options
	logger *zap.Logger
}

// NewRedisLocker creates a RedisLocker on top of an existing go-redis client
func NewRedisLocker(client redis.UniversalClient, opts Options, logger *zap.Logger) *RedisLocker {
	defaults := DefaultOptions()
	if opts.Expiry <= 0 {
		opts.Expiry = defaults.Expiry
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaults.RetryDelay
	}
	if opts.Tries < 1 {
		opts.Tries = defaults.Tries
	}
	return &RedisLocker{
		rs:     redsync.New(goredis.NewPool(client)),
		opts:   opts,
		logger: logger,
	}
}

// Lock acquires the invoice mutex, retrying up to Options.Tries times
func (l *RedisLocker) Lock(ctx context.Context, invoiceID uuid.UUID) (func(), error) {
	key := keyPrefix + invoiceID.String()
	mutex := l.rs.NewMutex(key,
		redsync.WithExpiry(l.opts.Expiry),
		redsync.WithTries(l.opts.Tries),
		redsync.WithRetryDelay(l.opts.RetryDelay),
	)

	if err := mutex.LockContext(ctx); err != nil {
		var taken *redsync.ErrTaken
		if errors.Is(err, redsync.ErrFailed) || errors.As(err, &taken) || ctx.Err() != nil {
			return nil, invoicing.ErrInvoiceLocked.Withf("invoice %s is locked", invoiceID).WithCause(err)
		}
		return nil, fmt.Errorf("acquire invoice lock %s: %w", key, err)
	}

	return func() {
		// The caller's context may already be cancelled; the release must still reach Redis.
		ok, err := mutex.UnlockContext(context.WithoutCancel(ctx))
		if err != nil || !ok {
			l.logger.Warn("failed to release invoice lock",
				zap.String("invoice_id", invoiceID.String()),
				zap.Bool("unlock_ok", ok),
				zap.Error(err),
			)
		}
	}, nil
}

var _ appinvoicing.InvoiceLocker = (*RedisLocker)(nil)
