package domain

import (
	"context"
	"time"
)

const (
	AuditActionCreate = "CREATE"
	AuditActionUpdate = "UPDATE"
	AuditActionDelete = "DELETE"

	AuditActorAdmin  = "ADMIN"
	AuditActorUser   = "USER"
	AuditActorSystem = "SYSTEM"
)

type AuditEntry struct {
	ID         int64
	EntityType string
	EntityID   int64
	Action     string
	Actor      string
	Details    string
	CreatedAt  time.Time
}

// AuditSink records what the engine did. Calls are best-effort: a failing
// sink must never affect the outcome of the operation being audited.
type AuditSink interface {
	Record(ctx context.Context, entityType string, entityID int64, action, actor, details string) error
}

// BookingEvent is the fire-and-forget notification published after a
// booking transition commits.
type BookingEvent struct {
	Code       string    `json:"code"`
	SessionID  int64     `json:"session_id"`
	SeatID     int64     `json:"seat_id"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

type EventPublisher interface {
	PublishBookingEvent(ctx context.Context, event BookingEvent) error
}
