package model

import "time"

const (
	FrequencyDaily    = "daily"
	FrequencyWeekly   = "weekly"
	FrequencyBiweekly = "biweekly"
	FrequencyMonthly  = "monthly"
)

// ValidFrequency reports whether f is one of the supported chore frequencies.
func ValidFrequency(f string) bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly:
		return true
	}
	return false
}

// Chore is a recurring task owned by a group. OrderNum is unique per group
// and defines both display order and the rotation ring; it is strictly
// ordered but not necessarily contiguous after edits.
type Chore struct {
	ID            int64     `json:"id"`
	GroupID       int64     `json:"group_id"`
	Name          string    `json:"name"`
	Frequency     string    `json:"frequency"`
	RequiresPhoto bool      `json:"requires_photo"`
	OrderNum      int       `json:"order_num"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
