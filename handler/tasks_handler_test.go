package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"main/middleware"
	"main/model"
	"main/usecase"

	"github.com/gin-gonic/gin"
)

// memStore is a minimal in-memory usecase.TaskStore for handler tests.
type memStore struct {
	tasks []*model.Task
}

func (m *memStore) Insert(_ context.Context, task *model.Task) error {
	clone := *task
	m.tasks = append(m.tasks, &clone)
	return nil
}

func (m *memStore) GetTask(_ context.Context, userID model.UserID, taskID model.TaskID) (*model.Task, error) {
	for _, t := range m.tasks {
		if t.UserID == userID && t.TaskID == taskID {
			clone := *t
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *memStore) FindByOwner(_ context.Context, userID model.UserID, status model.TaskStatus, _ string) ([]*model.Task, error) {
	var out []*model.Task
	for _, t := range m.tasks {
		if t.UserID != userID {
			continue
		}
		if status == "" && t.Status == model.StatusDeleted {
			continue
		}
		if status != "" && t.Status != status {
			continue
		}
		clone := *t
		out = append(out, &clone)
	}
	return out, nil
}

func (m *memStore) UpdateStatus(_ context.Context, userID model.UserID, taskID model.TaskID, status model.TaskStatus) (bool, error) {
	for _, t := range m.tasks {
		if t.UserID == userID && t.TaskID == taskID {
			t.Status = status
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) CompletePending(ctx context.Context, userID model.UserID, taskID model.TaskID) (bool, error) {
	for _, t := range m.tasks {
		if t.UserID == userID && t.TaskID == taskID && t.Status == model.StatusPending {
			t.Status = model.StatusCompleted
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) UpdateFields(_ context.Context, userID model.UserID, taskID model.TaskID, updates *model.Task) error {
	for _, t := range m.tasks {
		if t.UserID == userID && t.TaskID == taskID {
			t.Title = updates.Title
			t.Description = updates.Description
			t.Deadline = updates.Deadline
			t.RepeatFrequency = updates.RepeatFrequency
			t.ReminderMinutes = updates.ReminderMinutes
			t.Status = updates.Status
		}
	}
	return nil
}

func (m *memStore) SweepExpired(_ context.Context, now time.Time) (int64, error) {
	var count int64
	for _, t := range m.tasks {
		if t.Status == model.StatusPending && t.Deadline.Before(now) {
			t.Status = model.StatusExpired
			count++
		}
	}
	return count, nil
}

func (m *memStore) CountByStatus(_ context.Context, userID model.UserID) (*model.TaskStats, error) {
	stats := &model.TaskStats{}
	for _, t := range m.tasks {
		if t.UserID != userID || t.Status == model.StatusDeleted {
			continue
		}
		stats.Total++
		switch t.Status {
		case model.StatusCompleted:
			stats.Completed++
		case model.StatusExpired:
			stats.Expired++
		}
	}
	return stats, nil
}

func newTestRouter(store *memStore) *gin.Engine {
	gin.SetMode(gin.TestMode)

	h := NewTaskHandler(usecase.NewTaskService(store))

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.UserIDKey, model.UserID("user-1"))
	})

	tasks := router.Group("/api/tasks")
	{
		tasks.GET("", h.ListTasks)
		tasks.POST("", h.CreateTask)
		tasks.GET("/calendar", h.Calendar)
		tasks.GET("/stats", h.GetTaskStats)
		tasks.POST("/:id/toggle", h.ToggleTask)
		tasks.PUT("/:id", h.ModifyTask)
		tasks.DELETE("/:id", h.DeleteTask)
	}
	return router
}

func perform(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateTaskHandler(t *testing.T) {
	store := &memStore{}
	router := newTestRouter(store)

	t.Run("creates pending task", func(t *testing.T) {
		w := perform(router, http.MethodPost, "/api/tasks", gin.H{
			"title":       "water plants",
			"deadline":    "2030-06-01T09:00:00Z",
			"repeat_freq": "weekly",
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
		}
		if len(store.tasks) != 1 {
			t.Fatalf("store has %d tasks, want 1", len(store.tasks))
		}
		if store.tasks[0].Status != model.StatusPending {
			t.Errorf("status = %q, want pending", store.tasks[0].Status)
		}
	})

	t.Run("rejects missing title", func(t *testing.T) {
		w := perform(router, http.MethodPost, "/api/tasks", gin.H{
			"deadline": "2030-06-01T09:00:00Z",
		})
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("rejects negative reminder", func(t *testing.T) {
		w := perform(router, http.MethodPost, "/api/tasks", gin.H{
			"title":            "x",
			"deadline":         "2030-06-01T09:00:00Z",
			"reminder_minutes": -1,
		})
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}

func TestListTasksHandler(t *testing.T) {
	store := &memStore{}
	store.tasks = append(store.tasks, &model.Task{
		TaskID:   "t1",
		UserID:   "user-1",
		Title:    "future task",
		Deadline: time.Now().Add(48 * time.Hour),
		Status:   model.StatusPending,
	})
	router := newTestRouter(store)

	t.Run("returns tasks and stats", func(t *testing.T) {
		w := perform(router, http.MethodGet, "/api/tasks", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
		}

		var envelope struct {
			Data struct {
				Tasks []struct {
					ID        string `json:"id"`
					IsOverdue bool   `json:"is_overdue"`
				} `json:"tasks"`
				Stats model.TaskStats `json:"stats"`
			} `json:"data"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if len(envelope.Data.Tasks) != 1 || envelope.Data.Tasks[0].ID != "t1" {
			t.Fatalf("unexpected task list: %s", w.Body.String())
		}
		if envelope.Data.Tasks[0].IsOverdue {
			t.Error("future task flagged overdue")
		}
		if envelope.Data.Stats.Total != 1 {
			t.Errorf("stats.Total = %d, want 1", envelope.Data.Stats.Total)
		}
	})

	t.Run("rejects malformed date", func(t *testing.T) {
		w := perform(router, http.MethodGet, "/api/tasks?date=01-02-2024", nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}

func TestToggleTaskHandler(t *testing.T) {
	store := &memStore{}
	store.tasks = append(store.tasks, &model.Task{
		TaskID:          "t1",
		UserID:          "user-1",
		Title:           "stretch",
		Deadline:        time.Now().Add(24 * time.Hour),
		RepeatFrequency: model.RepeatDaily,
		Status:          model.StatusPending,
	})
	router := newTestRouter(store)

	w := perform(router, http.MethodPost, "/api/tasks/t1/toggle", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var envelope struct {
		Data struct {
			Status    model.TaskStatus `json:"status"`
			Successor *struct {
				ID string `json:"id"`
			} `json:"successor"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Status != model.StatusCompleted {
		t.Errorf("status = %q, want completed", envelope.Data.Status)
	}
	if envelope.Data.Successor == nil || envelope.Data.Successor.ID == "" {
		t.Error("expected a successor in the response")
	}

	w = perform(router, http.MethodPost, "/api/tasks/missing/toggle", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestDeleteTaskHandler(t *testing.T) {
	store := &memStore{}
	store.tasks = append(store.tasks, &model.Task{
		TaskID:   "t1",
		UserID:   "user-1",
		Title:    "old",
		Deadline: time.Now().Add(24 * time.Hour),
		Status:   model.StatusPending,
	})
	router := newTestRouter(store)

	w := perform(router, http.MethodDelete, "/api/tasks/t1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if store.tasks[0].Status != model.StatusDeleted {
		t.Errorf("status = %q, want deleted", store.tasks[0].Status)
	}

	w = perform(router, http.MethodDelete, "/api/tasks/t1", nil)
	if w.Code != http.StatusOK {
		t.Errorf("repeat delete status = %d, want 200 (idempotent tombstone)", w.Code)
	}
}
