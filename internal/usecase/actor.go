package usecase

import "room-reservation/internal/data/entity"

// Actor is the caller of an operation as resolved by the session middleware.
type Actor struct {
	UserID int64
	Role   entity.UserRole
}

func (a Actor) IsAdmin() bool {
	return a.UserID > 0 && a.Role == entity.RoleAdmin
}

func (a Actor) IsGuest() bool {
	switch a.Role {
	case entity.RoleUser, entity.RoleAdmin:
		return a.UserID <= 0
	case entity.RoleGuest:
		return true
	default:
		return true
	}
}

// CanManage reports whether the actor may modify something owned by ownerID.
func (a Actor) CanManage(ownerID int64) bool {
	if a.IsGuest() {
		return false
	}
	return a.IsAdmin() || a.UserID == ownerID
}

func requireAdmin(a Actor) error {
	if !a.IsAdmin() {
		return &ForbiddenError{Message: "Admin access required"}
	}
	return nil
}

func requireUser(a Actor) error {
	if a.IsGuest() {
		return &ForbiddenError{Message: "Authentication required"}
	}
	return nil
}
