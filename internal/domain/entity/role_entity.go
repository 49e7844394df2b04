package entity

// Role represents an authorization role.
// Customers run the simulator, analysts review submitted applications.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAnalyst  Role = "analyst"
)

func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleAnalyst
}
