package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity holds identity and timestamps
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Touch bumps UpdatedAt
func (e *BaseEntity) Touch() {
	e.UpdatedAt = time.Now()
}

// TenantAggregateRoot is a tenant-scoped aggregate with an optimistic-lock
// version and the events raised since it was loaded.
type TenantAggregateRoot struct {
	BaseEntity
	TenantID     uuid.UUID
	Version      int
	domainEvents []DomainEvent
}

// NewTenantAggregateRoot starts a new aggregate at version 1
func NewTenantAggregateRoot(tenantID uuid.UUID) TenantAggregateRoot {
	now := time.Now()
	return TenantAggregateRoot{
		BaseEntity: BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		TenantID:   tenantID,
		Version:    1,
	}
}

// IncrementVersion is called once per successful save
func (a *TenantAggregateRoot) IncrementVersion() {
	a.Version++
}

// AddDomainEvent queues an event for publication after commit
func (a *TenantAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// GetDomainEvents returns the queued events
func (a *TenantAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.domainEvents
}

// ClearDomainEvents drops the queued events once published
func (a *TenantAggregateRoot) ClearDomainEvents() {
	a.domainEvents = nil
}
