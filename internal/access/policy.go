// Package access holds the pure role-resolution policy used to gate salon
// management and booking lifecycle operations. Staff access subsumes nothing;
// admin access implies staff access; a super admin satisfies every check.
package access

import "github.com/glowdesk/platform/internal/identity"

// IsSuperAdmin reports whether the actor is a platform super admin.
func IsSuperAdmin(c identity.Claims) bool {
	return c.Role == identity.RoleSuperAdmin
}

// IsSalonAdmin reports whether the actor administers the given salon.
func IsSalonAdmin(c identity.Claims, salonID string) bool {
	if IsSuperAdmin(c) {
		return true
	}
	return c.Role == identity.RoleSalonAdmin && salonID != "" && c.SalonID == salonID
}

// IsSalonStaff reports whether the actor works at the given salon. Admins
// count as staff of their own salon.
func IsSalonStaff(c identity.Claims, salonID string) bool {
	if IsSalonAdmin(c, salonID) {
		return true
	}
	return c.Role == identity.RoleSalonStaff && salonID != "" && c.SalonID == salonID
}

// CanManageBooking reports whether the actor may drive staff-side booking
// transitions (start, complete, no-show, reschedule) for the salon.
func CanManageBooking(c identity.Claims, salonID string) bool {
	return IsSalonStaff(c, salonID)
}

// CanCancelBooking reports whether the actor may cancel a booking owned by
// ownerID at the given salon.
func CanCancelBooking(c identity.Claims, salonID, ownerID string) bool {
	if c.UserID != "" && c.UserID == ownerID {
		return true
	}
	return IsSalonStaff(c, salonID)
}
