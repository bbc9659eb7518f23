package cohost

import "time"

type Permission string

const (
	PermissionFullAccess Permission = "FULL_ACCESS"
	PermissionEditOnly   Permission = "EDIT_ONLY"
	PermissionViewOnly   Permission = "VIEW_ONLY"
)

// CanScore reports whether the permission allows score mutations.
func (p Permission) CanScore() bool {
	return p == PermissionFullAccess || p == PermissionEditOnly
}

// Hosted entity kinds a co-host row can point at.
const (
	EntityMatch      = "MATCH"
	EntityTournament = "TOURNAMENT"
	EntitySeries     = "SERIES"
)

// CoHost joins a user to a hosted entity (match, tournament, series) with a
// permission level. Created and removed independently of the entity.
type CoHost struct {
	ID         string     `json:"coHostId"`
	UserID     string     `json:"userId"`
	EntityID   string     `json:"entityId"`
	EntityType string     `json:"entityType"`
	Permission Permission `json:"permissionLevel"`
	AddedBy    string     `json:"addedBy,omitempty"`
	AddedAt    time.Time  `json:"addedAt,omitempty"`
}
