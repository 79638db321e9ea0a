package domain

import (
	"fmt"
	"strings"
)

// Role is the acting user's function in the audit network.
type Role string

const (
	RoleDOT        Role = "DOT"
	RoleTeamLeader Role = "DOT_TEAM_LEADER"
	RoleAderente   Role = "ADERENTE"
	RoleAmont      Role = "AMONT"
	RoleAdmin      Role = "ADMIN"
)

var allowedRoles = []Role{RoleDOT, RoleTeamLeader, RoleAderente, RoleAmont, RoleAdmin}

// NewRole validates a role name.
func NewRole(value string) (Role, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(value))
	for _, role := range allowedRoles {
		if string(role) == trimmed {
			return role, nil
		}
	}
	return "", fmt.Errorf("invalid role: %s", value)
}

// IsElevated reports roles that may act on audits they do not own.
func (r Role) IsElevated() bool {
	return r == RoleAdmin || r == RoleTeamLeader
}

// Actor is the authenticated user performing an operation.
type Actor struct {
	ID   string
	Name string
	Role Role
}

func (a Actor) is(id string) bool {
	id = strings.TrimSpace(id)
	return id != "" && id == strings.TrimSpace(a.ID)
}

// CanEdit: editable status, and the actor owns or created the audit or holds
// an elevated role.
func CanEdit(status Status, ownerID, creatorID string, actor Actor) bool {
	if !status.IsEditable() {
		return false
	}
	return actor.is(ownerID) || actor.is(creatorID) || actor.Role.IsElevated()
}

// CanSubmit: editable status and the actor is the designated executor.
func CanSubmit(ownerID string, status Status, actor Actor) bool {
	return status.IsEditable() && actor.is(ownerID)
}

// CanDelete: editable status and an elevated role. Cancel and replace follow
// the same rule.
func CanDelete(status Status, actor Actor) bool {
	return status.IsEditable() && actor.Role.IsElevated()
}

// CanApprove: a submitted audit may be ended by the store's Aderente or an
// elevated role.
func CanApprove(status Status, storeAderenteID string, actor Actor) bool {
	if status != StatusSubmitted {
		return false
	}
	return actor.Role.IsElevated() || (actor.Role == RoleAderente && actor.is(storeAderenteID))
}

// CanClose: an ended audit may be closed by AMONT, an admin, or the store's
// Aderente.
func CanClose(status Status, storeAderenteID string, actor Actor) bool {
	if status != StatusEnded {
		return false
	}
	switch actor.Role {
	case RoleAmont, RoleAdmin:
		return true
	case RoleAderente:
		return actor.is(storeAderenteID)
	}
	return false
}

// Permissions bundles every predicate for one actor and audit.
type Permissions struct {
	Edit    bool
	Submit  bool
	Delete  bool
	Approve bool
	Close   bool
}

// PermissionsFor evaluates the gate for display and pre-checks.
func PermissionsFor(audit Audit, storeAderenteID string, actor Actor) Permissions {
	return Permissions{
		Edit:    CanEdit(audit.Status, audit.OwnerID(), audit.CreatedBy, actor),
		Submit:  CanSubmit(audit.OwnerID(), audit.Status, actor),
		Delete:  CanDelete(audit.Status, actor),
		Approve: CanApprove(audit.Status, storeAderenteID, actor),
		Close:   CanClose(audit.Status, storeAderenteID, actor),
	}
}
