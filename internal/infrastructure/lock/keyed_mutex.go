// Package lock serializes work on a single invoice, either inside one process
// or across replicas through Redis.
package lock

import (
	"context"
	"sync"

	appinvoicing "github.com/erp/ledger/internal/application/invoicing"
	"github.com/erp/ledger/internal/domain/invoicing"
	"github.com/google/uuid"
)

// KeyedMutex is an in-process lock per invoice id. Entries are dropped once
// no goroutine holds or waits for them.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

// NewKeyedMutex creates an empty KeyedMutex
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[uuid.UUID]*keyLock)}
}

// Lock blocks until the invoice is free or ctx is done
func (m *KeyedMutex) Lock(ctx context.Context, invoiceID uuid.UUID) (func(), error) {
	m.mu.Lock()
	l, ok := m.locks[invoiceID]
	if !ok {
		l = &keyLock{ch: make(chan struct{}, 1)}
		m.locks[invoiceID] = l
	}
	l.refs++
	m.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
	case <-ctx.Done():
		m.release(invoiceID, l)
		return nil, invoicing.ErrInvoiceLocked.
			Withf("invoice %s: %v", invoiceID, ctx.Err()).
			WithCause(ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-l.ch
			m.release(invoiceID, l)
		})
	}, nil
}

func (m *KeyedMutex) release(invoiceID uuid.UUID, l *keyLock) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(m.locks, invoiceID)
	}
}

// size returns the number of tracked keys
func (m *KeyedMutex) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}

var _ appinvoicing.InvoiceLocker = (*KeyedMutex)(nil)
