package customer

import (
	"time"

	"opsdesk/pkg/domain"
)

// Status of a customer account. Provisioning always creates active accounts;
// the other values belong to the customer-management screens that own the
// record afterwards.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusClosed    Status = "closed"
)

// Customer is a live subscriber account. This subsystem only ever creates
// one, copying contact and service fields from an approved registration.
type Customer struct {
	ID             domain.CustomerID     `json:"id"`
	RegistrationID domain.RegistrationID `json:"registration_id"`
	Name           string                `json:"name"`
	Phone          string                `json:"phone"`
	Email          string                `json:"email,omitempty"`
	Address        string                `json:"address"`
	City           string                `json:"city,omitempty"`
	District       string                `json:"district,omitempty"`
	PostalCode     string                `json:"postal_code,omitempty"`

	PackageID    string  `json:"package_id"`
	PackageName  string  `json:"package_name"`
	PackageType  string  `json:"package_type"`
	SpeedMbps    int     `json:"speed_mbps"`
	MonthlyPrice float64 `json:"monthly_price"`

	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
