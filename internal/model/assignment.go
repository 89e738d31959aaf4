package model

import (
	"encoding/json"
	"time"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

// PhotoSet is the list of photo evidence paths attached to a completed
// assignment. Empty means no photos.
type PhotoSet []string

// DecodePhotoSet normalizes the stored photo_path column. Historically the
// column held a single bare path; newer rows hold a JSON array. Either form
// decodes to a PhotoSet, and the store always writes the array form back.
func DecodePhotoSet(raw string) PhotoSet {
	if raw == "" {
		return nil
	}
	if raw[0] == '[' {
		var paths []string
		if err := json.Unmarshal([]byte(raw), &paths); err == nil {
			return paths
		}
	}
	return PhotoSet{raw}
}

// Encode returns the JSON array form, or "" when the set is empty.
func (p PhotoSet) Encode() string {
	if len(p) == 0 {
		return ""
	}
	data, err := json.Marshal([]string(p))
	if err != nil {
		return ""
	}
	return string(data)
}

// Assignment records that a member is responsible for a chore during the week
// starting at WeekStart (epoch seconds, Sunday 00:00:00 UTC). ChoreID,
// MemberID, and WeekStart never change after creation; corrections happen by
// delete and recreate.
type Assignment struct {
	ID          int64     `json:"id"`
	ChoreID     int64     `json:"chore_id"`
	MemberID    int64     `json:"member_id"`
	WeekStart   int64     `json:"week_start"`
	Status      string    `json:"status"`
	CompletedAt *int64    `json:"completed_at"`
	Photos      PhotoSet  `json:"photos"`
	CreatedAt   time.Time `json:"created_at"`

	// Joined fields, populated by list queries.
	GroupID       int64  `json:"group_id,omitempty"`
	ChoreName     string `json:"chore_name,omitempty"`
	ChoreOrderNum int    `json:"chore_order_num,omitempty"`
	RequiresPhoto bool   `json:"requires_photo,omitempty"`
	MemberName    string `json:"member_name,omitempty"`
}
