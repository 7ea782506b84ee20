package handler

import (
	"errors"
	"time"

	"main/dto"
	"main/middleware"
	"main/model"
	"main/usecase"
	"main/utils"

	"github.com/gin-gonic/gin"
)

type TaskHandler struct {
	service *usecase.TaskService
}

func NewTaskHandler(service *usecase.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

func authedUser(c *gin.Context) (model.UserID, bool) {
	value, exists := c.Get(middleware.UserIDKey)
	if !exists {
		return "", false
	}
	userID, ok := value.(model.UserID)
	return userID, ok
}

// ListTasks handles GET /api/tasks?filter=&q=&date=
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, ok := authedUser(c)
	if !ok {
		utils.Unauthorized(c, "Missing user ID")
		return
	}

	filter := c.DefaultQuery("filter", usecase.FilterAll)
	search := c.Query("q")

	var queryDate *time.Time
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			utils.BadRequest(c, "Invalid date, expected YYYY-MM-DD")
			return
		}
		queryDate = &parsed
	}

	list, err := h.service.ListTasks(c.Request.Context(), userID, filter, search, queryDate)
	if err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	utils.Success(c, dto.TaskListResponse{
		Tasks: dto.ToTaskResponses(list.Tasks, time.Now()),
		Stats: list.Stats,
	})
}

// CreateTask handles POST /api/tasks
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, ok := authedUser(c)
	if !ok {
		utils.Unauthorized(c, "Missing user ID")
		return
	}

	var req struct {
		Title           string                `json:"title" binding:"required"`
		Description     string                `json:"description"`
		Deadline        time.Time             `json:"deadline" binding:"required"`
		RepeatFrequency model.RepeatFrequency `json:"repeat_freq"`
		ReminderMinutes int                   `json:"reminder_minutes"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if req.ReminderMinutes < 0 {
		utils.BadRequest(c, "Reminder minutes cannot be negative")
		return
	}

	task := &model.Task{
		UserID:          userID,
		Title:           req.Title,
		Description:     req.Description,
		Deadline:        req.Deadline,
		RepeatFrequency: req.RepeatFrequency,
		ReminderMinutes: req.ReminderMinutes,
	}

	if err := h.service.CreateTask(c.Request.Context(), task); err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	utils.Created(c, dto.ToTaskResponse(task, time.Now()))
}

// ToggleTask handles POST /api/tasks/:id/toggle
func (h *TaskHandler) ToggleTask(c *gin.Context) {
	userID, ok := authedUser(c)
	if !ok {
		utils.Unauthorized(c, "Missing user ID")
		return
	}

	taskID := model.TaskID(c.Param("id"))
	if taskID == "" {
		utils.BadRequest(c, "Missing task ID")
		return
	}

	result, err := h.service.ToggleTask(c.Request.Context(), userID, taskID)
	if err != nil {
		if errors.Is(err, usecase.ErrTaskNotFound) {
			utils.NotFound(c, "Task not found")
			return
		}
		utils.InternalError(c, err.Error())
		return
	}

	response := gin.H{"status": result.Status}
	if result.Successor != nil {
		response["successor"] = dto.ToTaskResponse(result.Successor, time.Now())
	}
	utils.Success(c, response)
}

// DeleteTask handles DELETE /api/tasks/:id. Deletion is a soft tombstone;
// the task stays queryable under filter=deleted.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, ok := authedUser(c)
	if !ok {
		utils.Unauthorized(c, "Missing user ID")
		return
	}

	taskID := model.TaskID(c.Param("id"))
	if taskID == "" {
		utils.BadRequest(c, "Missing task ID")
		return
	}

	if err := h.service.DeleteTask(c.Request.Context(), userID, taskID); err != nil {
		if errors.Is(err, usecase.ErrTaskNotFound) {
			utils.NotFound(c, "Task not found")
			return
		}
		utils.InternalError(c, err.Error())
		return
	}

	utils.Success(c, gin.H{"message": "Task deleted successfully"})
}

// ModifyTask handles PUT /api/tasks/:id
func (h *TaskHandler) ModifyTask(c *gin.Context) {
	userID, ok := authedUser(c)
	if !ok {
		utils.Unauthorized(c, "Missing user ID")
		return
	}

	taskID := model.TaskID(c.Param("id"))
	if taskID == "" {
		utils.BadRequest(c, "Missing task ID")
		return
	}

	var req struct {
		Title           string                `json:"title" binding:"required"`
		Description     string                `json:"description"`
		Deadline        time.Time             `json:"deadline" binding:"required"`
		RepeatFrequency model.RepeatFrequency `json:"repeat_freq"`
		ReminderMinutes int                   `json:"reminder_minutes"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if req.ReminderMinutes < 0 {
		utils.BadRequest(c, "Reminder minutes cannot be negative")
		return
	}

	updates := &model.Task{
		Title:           req.Title,
		Description:     req.Description,
		Deadline:        req.Deadline,
		RepeatFrequency: req.RepeatFrequency,
		ReminderMinutes: req.ReminderMinutes,
	}

	status, err := h.service.ModifyTask(c.Request.Context(), userID, taskID, updates)
	if err != nil {
		if errors.Is(err, usecase.ErrTaskNotFound) {
			utils.NotFound(c, "Task not found")
			return
		}
		utils.InternalError(c, err.Error())
		return
	}

	utils.Success(c, gin.H{"status": status})
}

// Calendar handles GET /api/tasks/calendar?filter=&q= and returns the flat
// list of occurrence dates for the matching tasks, projected to the horizon.
func (h *TaskHandler) Calendar(c *gin.Context) {
	userID, ok := authedUser(c)
	if !ok {
		utils.Unauthorized(c, "Missing user ID")
		return
	}

	filter := c.DefaultQuery("filter", usecase.FilterAll)
	search := c.Query("q")

	list, err := h.service.ListTasks(c.Request.Context(), userID, filter, search, nil)
	if err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	utils.Success(c, dto.CalendarResponse{Dates: h.service.CalendarDates(list.Tasks)})
}

// GetTaskStats handles GET /api/tasks/stats
func (h *TaskHandler) GetTaskStats(c *gin.Context) {
	userID, ok := authedUser(c)
	if !ok {
		utils.Unauthorized(c, "Missing user ID")
		return
	}

	stats, err := h.service.GetTaskStats(c.Request.Context(), userID)
	if err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	utils.Success(c, stats)
}
