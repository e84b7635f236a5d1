package identity

const (
	RoleOwner        = "owner"
	RoleAdmin        = "admin"
	RoleProfessional = "professional"
)

// Principal is the authenticated caller. It is built once per request by the
// transport layer and passed explicitly into every use case.
type Principal struct {
	UserID    uint
	AccountID uint
	Role      string
}

func (p Principal) Privileged() bool {
	return p.Role == RoleOwner || p.Role == RoleAdmin
}

// Target resolves which professional an operation acts on. A zero requested
// id means the caller themself.
func (p Principal) Target(requested uint) uint {
	if requested == 0 {
		return p.UserID
	}
	return requested
}
