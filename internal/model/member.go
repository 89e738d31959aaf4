package model

import "time"

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Member is a user belonging to a group. RotationPosition is set only while
// InRotation is true; in-rotation members of a group always hold a compact
// 1..K permutation of positions.
type Member struct {
	ID               int64     `json:"id"`
	GroupID          int64     `json:"group_id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Role             string    `json:"role"`
	InRotation       bool      `json:"in_rotation"`
	RotationPosition *int      `json:"rotation_position"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (m *Member) IsAdmin() bool {
	return m.Role == RoleAdmin
}
