package identity

// Role names an actor's position in the system.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleSalonAdmin Role = "salon_admin"
	RoleSalonStaff Role = "salon_staff"
	RoleUser       Role = "user"
)

// Claims is the authenticated actor as the rest of the system sees it. The
// core trusts these values as given by the token layer.
type Claims struct {
	UserID  string `json:"user_id"`
	Phone   string `json:"phone"`
	Role    Role   `json:"role"`
	SalonID string `json:"salon_id,omitempty"`
}

// Valid reports whether the claims identify an actor at all.
func (c Claims) Valid() bool {
	return c.UserID != "" && c.Role != ""
}
