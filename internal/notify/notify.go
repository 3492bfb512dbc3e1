// Package notify is the fire-and-forget outbound side of the lifecycle:
// telling other systems that a registration moved. Notifiers run strictly
// after the state change has committed; their failures are logged and never
// surfaced to the operator, because the transition already happened.
package notify

import (
	"context"
	"time"

	"opsdesk/pkg/domain"
)

// Event describes one committed lifecycle change.
type Event struct {
	RegistrationID domain.RegistrationID `json:"registration_id"`
	Number         string                `json:"number"`
	FromStatus     string                `json:"from_status,omitempty"`
	ToStatus       string                `json:"to_status"`
	CustomerID     *domain.CustomerID    `json:"customer_id,omitempty"`
	TicketID       *domain.TicketID      `json:"ticket_id,omitempty"`
	Timestamp      time.Time             `json:"timestamp"`
}

// Notifier delivers one event. Implementations must tolerate being called
// concurrently and must not block the request path for long.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}
