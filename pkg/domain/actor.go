package domain

// Role is the staff role carried by an authenticated actor. The transition
// guard decides per transition which roles may act; everything outside the
// known set is treated as unprivileged.
type Role string

const (
	RoleAdmin           Role = "admin"
	RoleSupervisor      Role = "supervisor"
	RoleCustomerService Role = "customer_service"
	RoleTechnician      Role = "technician"
	RoleFinance         Role = "finance"
)

// Known reports whether the role is one this system recognizes at all.
// Unknown roles still authenticate but never pass the transition guard.
func (r Role) Known() bool {
	switch r {
	case RoleAdmin, RoleSupervisor, RoleCustomerService, RoleTechnician, RoleFinance:
		return true
	}
	return false
}

// Actor is the authenticated staff identity attempting an operation. It is
// resolved by the auth middleware from the incoming token; this subsystem
// consumes it as an external fact and never stores it.
type Actor struct {
	ID   ActorID
	Name string
	Role Role
}
