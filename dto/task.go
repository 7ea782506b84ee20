package dto

import (
	"time"

	"main/model"
)

type TaskResponse struct {
	ID              model.TaskID          `json:"id"`
	Title           string                `json:"title"`
	Description     string                `json:"description"`
	Deadline        time.Time             `json:"deadline"`
	RepeatFrequency model.RepeatFrequency `json:"repeat_freq"`
	ReminderMinutes int                   `json:"reminder_minutes"`
	Status          model.TaskStatus      `json:"status"`
	IsOverdue       bool                  `json:"is_overdue"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// Convert model.Task to TaskResponse. A task is overdue when its deadline
// has passed while it is still pending.
func ToTaskResponse(task *model.Task, now time.Time) TaskResponse {
	return TaskResponse{
		ID:              task.TaskID,
		Title:           task.Title,
		Description:     task.Description,
		Deadline:        task.Deadline,
		RepeatFrequency: task.RepeatFrequency,
		ReminderMinutes: task.ReminderMinutes,
		Status:          task.Status,
		IsOverdue:       task.Status == model.StatusPending && task.Deadline.Before(now),
		CreatedAt:       task.CreatedAt,
		UpdatedAt:       task.UpdatedAt,
	}
}

// Convert slice of model.Task to slice of TaskResponse
func ToTaskResponses(tasks []*model.Task, now time.Time) []TaskResponse {
	responses := make([]TaskResponse, len(tasks))
	for i, task := range tasks {
		responses[i] = ToTaskResponse(task, now)
	}
	return responses
}

// TaskListResponse pairs the filtered listing with the unfiltered aggregate
// counts shown in the dashboard header.
type TaskListResponse struct {
	Tasks []TaskResponse   `json:"tasks"`
	Stats *model.TaskStats `json:"stats"`
}

// CalendarResponse carries the flat list of occurrence dates for calendar
// rendering.
type CalendarResponse struct {
	Dates []string `json:"dates"`
}
