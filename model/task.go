package model

import "time"

// TaskID and UserID are opaque identifiers. They are UUID strings under the
// hood but nothing outside the storage boundary may rely on that.
type TaskID string
type UserID string

type TaskStatus string
type RepeatFrequency string

const (
	StatusPending   TaskStatus = "pending"
	StatusCompleted TaskStatus = "completed"
	StatusExpired   TaskStatus = "expired"
	StatusDeleted   TaskStatus = "deleted"

	RepeatNone    RepeatFrequency = "none"
	RepeatDaily   RepeatFrequency = "daily"
	RepeatWeekly  RepeatFrequency = "weekly"
	RepeatMonthly RepeatFrequency = "monthly"
	RepeatYearly  RepeatFrequency = "yearly"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusExpired, StatusDeleted:
		return true
	}
	return false
}

// Priority is the sort rank used when listing tasks: pending first, then
// expired, completed and deleted. Unknown statuses sort last.
func (s TaskStatus) Priority() int {
	switch s {
	case StatusPending:
		return 1
	case StatusExpired:
		return 2
	case StatusCompleted:
		return 3
	case StatusDeleted:
		return 4
	default:
		return 5
	}
}

// Repeats reports whether the frequency describes a recurring series.
func (f RepeatFrequency) Repeats() bool {
	switch f {
	case RepeatDaily, RepeatWeekly, RepeatMonthly, RepeatYearly:
		return true
	}
	return false
}

// Normalize maps any unknown frequency value to RepeatNone.
func (f RepeatFrequency) Normalize() RepeatFrequency {
	if f.Repeats() {
		return f
	}
	return RepeatNone
}

type Task struct {
	TaskID          TaskID          `bson:"_id,omitempty" json:"id"`
	UserID          UserID          `bson:"user_id" json:"user_id"`
	Title           string          `bson:"title" json:"title" binding:"required"`
	Description     string          `bson:"description" json:"description"`
	Deadline        time.Time       `bson:"deadline" json:"deadline"`
	RepeatFrequency RepeatFrequency `bson:"repeat_freq" json:"repeat_freq"`
	ReminderMinutes int             `bson:"reminder_minutes" json:"reminder_minutes"`
	Status          TaskStatus      `bson:"status" json:"status"`
	CreatedAt       time.Time       `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `bson:"updated_at" json:"updated_at"`
}

// TaskStats aggregates the user's non-deleted tasks regardless of the
// filter applied to the current listing.
type TaskStats struct {
	Total     int `bson:"total" json:"total"`
	Completed int `bson:"completed" json:"completed"`
	Expired   int `bson:"expired" json:"expired"`
}
