package ticket

import (
	"time"

	"opsdesk/pkg/domain"
)

// Type classifies a work order. Provisioning only ever raises installation
// tickets; repair and relocation belong to the ticketing screens.
type Type string

const (
	TypeInstallation Type = "installation"
	TypeRepair       Type = "repair"
	TypeRelocation   Type = "relocation"
)

// Status of a work order. New tickets always start open.
type Status string

const (
	StatusOpen       Status = "open"
	StatusAssigned   Status = "assigned"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// Ticket is an installation work order raised for a freshly provisioned
// customer. Ownership passes to the ticketing subsystem once created.
type Ticket struct {
	ID         domain.TicketID   `json:"id"`
	CustomerID domain.CustomerID `json:"customer_id"`
	Type       Type              `json:"type"`
	Status     Status            `json:"status"`
	Subject    string            `json:"subject"`
	Address    string            `json:"address"`
	Window     string            `json:"window,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}
