package domain

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleSales     Role = "sales"
	RolePurchaser Role = "purchaser"
)

// Principal is the authenticated caller.
type Principal struct {
	UserID   int64
	Username string
	Role     Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
