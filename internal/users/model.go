package users

import (
	"time"

	"github.com/glowdesk/platform/internal/identity"
)

// User is an account keyed by phone number. Role and salon membership feed
// the access policy via JWT claims.
type User struct {
	ID        string        `json:"id"`
	Phone     string        `json:"phone"`
	Name      string        `json:"name,omitempty"`
	Role      identity.Role `json:"role"`
	SalonID   string        `json:"salon_id,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
