package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"main/model"
)

// fakeTaskStore is an in-memory TaskStore with the same visible semantics as
// the Mongo repository: soft-deleted rows stay, reads copy, the guarded
// complete only wins from pending.
type fakeTaskStore struct {
	tasks []*model.Task
}

func (f *fakeTaskStore) find(userID model.UserID, taskID model.TaskID) *model.Task {
	for _, t := range f.tasks {
		if t.UserID == userID && t.TaskID == taskID {
			return t
		}
	}
	return nil
}

func (f *fakeTaskStore) Insert(_ context.Context, task *model.Task) error {
	if task.UserID == "" || task.Title == "" {
		return errors.New("missing required fields")
	}
	clone := *task
	f.tasks = append(f.tasks, &clone)
	return nil
}

func (f *fakeTaskStore) GetTask(_ context.Context, userID model.UserID, taskID model.TaskID) (*model.Task, error) {
	t := f.find(userID, taskID)
	if t == nil {
		return nil, nil
	}
	clone := *t
	return &clone, nil
}

func (f *fakeTaskStore) FindByOwner(_ context.Context, userID model.UserID, status model.TaskStatus, search string) ([]*model.Task, error) {
	var out []*model.Task
	needle := strings.ToLower(search)
	for _, t := range f.tasks {
		if t.UserID != userID {
			continue
		}
		if status == "" {
			if t.Status == model.StatusDeleted {
				continue
			}
		} else if t.Status != status {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(t.Title), needle) &&
			!strings.Contains(strings.ToLower(t.Description), needle) {
			continue
		}
		clone := *t
		out = append(out, &clone)
	}
	return out, nil
}

func (f *fakeTaskStore) UpdateStatus(_ context.Context, userID model.UserID, taskID model.TaskID, status model.TaskStatus) (bool, error) {
	t := f.find(userID, taskID)
	if t == nil {
		return false, nil
	}
	t.Status = status
	return true, nil
}

func (f *fakeTaskStore) CompletePending(_ context.Context, userID model.UserID, taskID model.TaskID) (bool, error) {
	t := f.find(userID, taskID)
	if t == nil || t.Status != model.StatusPending {
		return false, nil
	}
	t.Status = model.StatusCompleted
	return true, nil
}

func (f *fakeTaskStore) UpdateFields(_ context.Context, userID model.UserID, taskID model.TaskID, updates *model.Task) error {
	t := f.find(userID, taskID)
	if t == nil {
		return errors.New("task not found")
	}
	t.Title = updates.Title
	t.Description = updates.Description
	t.Deadline = updates.Deadline
	t.RepeatFrequency = updates.RepeatFrequency
	t.ReminderMinutes = updates.ReminderMinutes
	t.Status = updates.Status
	return nil
}

func (f *fakeTaskStore) SweepExpired(_ context.Context, now time.Time) (int64, error) {
	var count int64
	for _, t := range f.tasks {
		if t.Status == model.StatusPending && t.Deadline.Before(now) {
			t.Status = model.StatusExpired
			count++
		}
	}
	return count, nil
}

func (f *fakeTaskStore) CountByStatus(_ context.Context, userID model.UserID) (*model.TaskStats, error) {
	stats := &model.TaskStats{}
	for _, t := range f.tasks {
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

var testNow = time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC)

func newTestService(store TaskStore) *TaskService {
	svc := NewTaskService(store)
	svc.now = func() time.Time { return testNow }
	return svc
}

func day(d int) time.Time {
	return time.Date(2024, time.January, d, 9, 0, 0, 0, time.UTC)
}

func seedTask(store *fakeTaskStore, id string, status model.TaskStatus, deadline time.Time) *model.Task {
	task := &model.Task{
		TaskID:          model.TaskID(id),
		UserID:          "user-1",
		Title:           "task " + id,
		Deadline:        deadline,
		RepeatFrequency: model.RepeatNone,
		Status:          status,
	}
	store.tasks = append(store.tasks, task)
	return task
}

func TestCreateTask(t *testing.T) {
	store := &fakeTaskStore{}
	svc := newTestService(store)

	t.Run("defaults", func(t *testing.T) {
		task := &model.Task{
			UserID:          "user-1",
			Title:           "water plants",
			Deadline:        day(20),
			RepeatFrequency: "fortnightly",
		}
		if err := svc.CreateTask(context.Background(), task); err != nil {
			t.Fatalf("CreateTask: %v", err)
		}
		if task.Status != model.StatusPending {
			t.Errorf("status = %q, want pending", task.Status)
		}
		if task.RepeatFrequency != model.RepeatNone {
			t.Errorf("unknown frequency normalized to %q, want none", task.RepeatFrequency)
		}
		if task.TaskID == "" {
			t.Error("expected generated task id")
		}
		if !task.CreatedAt.Equal(testNow) || !task.UpdatedAt.Equal(testNow) {
			t.Errorf("timestamps = %v/%v, want %v", task.CreatedAt, task.UpdatedAt, testNow)
		}
	})

	invalid := []struct {
		name string
		task model.Task
	}{
		{"missing user", model.Task{Title: "x", Deadline: day(1)}},
		{"missing title", model.Task{UserID: "user-1", Deadline: day(1)}},
		{"missing deadline", model.Task{UserID: "user-1", Title: "x"}},
		{"negative reminder", model.Task{UserID: "user-1", Title: "x", Deadline: day(1), ReminderMinutes: -5}},
	}
	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			task := tc.task
			if err := svc.CreateTask(context.Background(), &task); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestListTasksOrdering(t *testing.T) {
	store := &fakeTaskStore{}
	seedTask(store, "c-late", model.StatusCompleted, day(25))
	seedTask(store, "p-late", model.StatusPending, day(22))
	seedTask(store, "e-mid", model.StatusExpired, day(5))
	seedTask(store, "p-early", model.StatusPending, day(20))
	seedTask(store, "p-tie-b", model.StatusPending, day(21))
	seedTask(store, "p-tie-a", model.StatusPending, day(21))

	svc := newTestService(store)
	list, err := svc.ListTasks(context.Background(), "user-1", FilterAll, "", nil)
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}

	want := []model.TaskID{"p-early", "p-tie-a", "p-tie-b", "p-late", "e-mid", "c-late"}
	if len(list.Tasks) != len(want) {
		t.Fatalf("got %d tasks, want %d", len(list.Tasks), len(want))
	}
	for i, id := range want {
		if list.Tasks[i].TaskID != id {
			t.Errorf("position %d: got %q, want %q", i, list.Tasks[i].TaskID, id)
		}
	}
}

func TestListTasksSweepsBeforeRead(t *testing.T) {
	store := &fakeTaskStore{}
	seedTask(store, "overdue", model.StatusPending, day(10))
	seedTask(store, "future", model.StatusPending, day(20))

	svc := newTestService(store)
	list, err := svc.ListTasks(context.Background(), "user-1", FilterAll, "", nil)
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}

	byID := map[model.TaskID]model.TaskStatus{}
	for _, task := range list.Tasks {
		byID[task.TaskID] = task.Status
	}
	if byID["overdue"] != model.StatusExpired {
		t.Errorf("overdue task status = %q, want expired", byID["overdue"])
	}
	if byID["future"] != model.StatusPending {
		t.Errorf("future task status = %q, want pending", byID["future"])
	}
	if list.Stats.Expired != 1 {
		t.Errorf("stats.Expired = %d, want 1", list.Stats.Expired)
	}

	// Sweeping again must not move anything else.
	count, err := svc.SweepNow(context.Background())
	if err != nil {
		t.Fatalf("SweepNow: %v", err)
	}
	if count != 0 {
		t.Errorf("second sweep moved %d tasks, want 0", count)
	}
}

func TestListTasksSearch(t *testing.T) {
	store := &fakeTaskStore{}
	groceries := seedTask(store, "t1", model.StatusPending, day(20))
	groceries.Title = "Groceries"
	groceries.Description = "buy MILK and eggs"
	other := seedTask(store, "t2", model.StatusPending, day(21))
	other.Title = "Laundry"

	svc := newTestService(store)
	list, err := svc.ListTasks(context.Background(), "user-1", FilterAll, "milk", nil)
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(list.Tasks) != 1 || list.Tasks[0].TaskID != "t1" {
		t.Fatalf("search matched %d tasks, want only t1", len(list.Tasks))
	}
}

func TestListTasksDeletedVisibility(t *testing.T) {
	store := &fakeTaskStore{}
	seedTask(store, "live", model.StatusPending, day(20))
	seedTask(store, "gone", model.StatusDeleted, day(21))

	svc := newTestService(store)

	t.Run("hidden by default", func(t *testing.T) {
		list, err := svc.ListTasks(context.Background(), "user-1", FilterAll, "", nil)
		if err != nil {
			t.Fatalf("ListTasks: %v", err)
		}
		if len(list.Tasks) != 1 || list.Tasks[0].TaskID != "live" {
			t.Fatalf("default listing returned %d tasks, want only live", len(list.Tasks))
		}
		if list.Stats.Total != 1 {
			t.Errorf("stats.Total = %d, want 1 (deleted excluded)", list.Stats.Total)
		}
	})

	t.Run("visible under deleted filter", func(t *testing.T) {
		list, err := svc.ListTasks(context.Background(), "user-1", FilterDeleted, "", nil)
		if err != nil {
			t.Fatalf("ListTasks: %v", err)
		}
		if len(list.Tasks) != 1 || list.Tasks[0].TaskID != "gone" {
			t.Fatalf("deleted filter returned %d tasks, want only gone", len(list.Tasks))
		}
	})
}

func TestListTasksQueryDate(t *testing.T) {
	store := &fakeTaskStore{}
	weekly := seedTask(store, "weekly", model.StatusPending, day(17))
	weekly.RepeatFrequency = model.RepeatWeekly
	seedTask(store, "oneoff", model.StatusPending, day(18))

	svc := newTestService(store)

	queryDate := day(31) // two weeks after the weekly anchor
	list, err := svc.ListTasks(context.Background(), "user-1", FilterAll, "", &queryDate)
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(list.Tasks) != 1 || list.Tasks[0].TaskID != "weekly" {
		t.Fatalf("query date matched %d tasks, want only weekly", len(list.Tasks))
	}

	offDay := day(30)
	list, err = svc.ListTasks(context.Background(), "user-1", FilterAll, "", &offDay)
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(list.Tasks) != 0 {
		t.Fatalf("off-cycle date matched %d tasks, want 0", len(list.Tasks))
	}
}

func TestToggleTask(t *testing.T) {
	t.Run("non repeating completes without successor", func(t *testing.T) {
		store := &fakeTaskStore{}
		seedTask(store, "t1", model.StatusPending, day(20))
		svc := newTestService(store)

		result, err := svc.ToggleTask(context.Background(), "user-1", "t1")
		if err != nil {
			t.Fatalf("ToggleTask: %v", err)
		}
		if result.Status != model.StatusCompleted || result.Successor != nil {
			t.Errorf("got status %q successor %v, want completed and no successor", result.Status, result.Successor)
		}
		if len(store.tasks) != 1 {
			t.Errorf("store has %d tasks, want 1", len(store.tasks))
		}
	})

	t.Run("repeating spawns exactly one successor", func(t *testing.T) {
		store := &fakeTaskStore{}
		daily := seedTask(store, "t1", model.StatusPending, time.Date(2024, time.January, 10, 9, 0, 0, 0, time.UTC))
		daily.RepeatFrequency = model.RepeatDaily
		daily.Description = "stretch"
		daily.ReminderMinutes = 15
		svc := newTestService(store)

		result, err := svc.ToggleTask(context.Background(), "user-1", "t1")
		if err != nil {
			t.Fatalf("ToggleTask: %v", err)
		}
		if result.Successor == nil {
			t.Fatal("expected a successor")
		}
		wantDeadline := time.Date(2024, time.January, 11, 9, 0, 0, 0, time.UTC)
		succ := result.Successor
		if !succ.Deadline.Equal(wantDeadline) {
			t.Errorf("successor deadline = %v, want %v", succ.Deadline, wantDeadline)
		}
		if succ.TaskID == daily.TaskID {
			t.Error("successor must have a fresh identity")
		}
		if succ.Status != model.StatusPending {
			t.Errorf("successor status = %q, want pending", succ.Status)
		}
		if succ.Title != daily.Title || succ.Description != "stretch" || succ.ReminderMinutes != 15 {
			t.Error("successor must carry the task content")
		}
		if len(store.tasks) != 2 {
			t.Fatalf("store has %d tasks, want 2", len(store.tasks))
		}
		if store.tasks[0].Status != model.StatusCompleted {
			t.Errorf("original status = %q, want completed", store.tasks[0].Status)
		}
	})

	t.Run("toggle back to pending adds nothing", func(t *testing.T) {
		store := &fakeTaskStore{}
		seedTask(store, "t1", model.StatusPending, day(20))
		svc := newTestService(store)

		if _, err := svc.ToggleTask(context.Background(), "user-1", "t1"); err != nil {
			t.Fatalf("first toggle: %v", err)
		}
		result, err := svc.ToggleTask(context.Background(), "user-1", "t1")
		if err != nil {
			t.Fatalf("second toggle: %v", err)
		}
		if result.Status != model.StatusPending {
			t.Errorf("status = %q, want pending", result.Status)
		}
		if len(store.tasks) != 1 {
			t.Errorf("store has %d tasks, want 1", len(store.tasks))
		}
	})

	t.Run("expired toggles back to pending", func(t *testing.T) {
		store := &fakeTaskStore{}
		expired := seedTask(store, "t1", model.StatusExpired, day(10))
		expired.RepeatFrequency = model.RepeatDaily
		svc := newTestService(store)

		result, err := svc.ToggleTask(context.Background(), "user-1", "t1")
		if err != nil {
			t.Fatalf("ToggleTask: %v", err)
		}
		if result.Status != model.StatusPending || result.Successor != nil {
			t.Errorf("got status %q successor %v, want pending and no successor", result.Status, result.Successor)
		}
		if len(store.tasks) != 1 {
			t.Errorf("store has %d tasks, want 1", len(store.tasks))
		}
	})

	t.Run("deleted is unreachable", func(t *testing.T) {
		store := &fakeTaskStore{}
		seedTask(store, "t1", model.StatusDeleted, day(20))
		svc := newTestService(store)

		if _, err := svc.ToggleTask(context.Background(), "user-1", "t1"); !errors.Is(err, ErrTaskNotFound) {
			t.Errorf("err = %v, want ErrTaskNotFound", err)
		}
	})

	t.Run("missing task", func(t *testing.T) {
		svc := newTestService(&fakeTaskStore{})
		if _, err := svc.ToggleTask(context.Background(), "user-1", "nope"); !errors.Is(err, ErrTaskNotFound) {
			t.Errorf("err = %v, want ErrTaskNotFound", err)
		}
	})
}

// lostRaceStore simulates a concurrent toggle winning the guarded update
// between the read and the completion attempt.
type lostRaceStore struct {
	fakeTaskStore
}

func (s *lostRaceStore) CompletePending(context.Context, model.UserID, model.TaskID) (bool, error) {
	return false, nil
}

func TestToggleLostRaceSpawnsNothing(t *testing.T) {
	store := &lostRaceStore{}
	daily := seedTask(&store.fakeTaskStore, "t1", model.StatusPending, day(20))
	daily.RepeatFrequency = model.RepeatDaily
	svc := newTestService(store)

	result, err := svc.ToggleTask(context.Background(), "user-1", "t1")
	if err != nil {
		t.Fatalf("ToggleTask: %v", err)
	}
	if result.Status != model.StatusCompleted {
		t.Errorf("status = %q, want completed", result.Status)
	}
	if result.Successor != nil {
		t.Error("loser of the race must not spawn a successor")
	}
	if len(store.tasks) != 1 {
		t.Errorf("store has %d tasks, want 1", len(store.tasks))
	}
}

func TestDeleteTask(t *testing.T) {
	store := &fakeTaskStore{}
	seedTask(store, "t1", model.StatusCompleted, day(20))
	svc := newTestService(store)

	if err := svc.DeleteTask(context.Background(), "user-1", "t1"); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if store.tasks[0].Status != model.StatusDeleted {
		t.Errorf("status = %q, want deleted", store.tasks[0].Status)
	}
	if len(store.tasks) != 1 {
		t.Error("delete must keep the row as a tombstone")
	}

	stats, err := svc.GetTaskStats(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetTaskStats: %v", err)
	}
	if stats.Total != 0 {
		t.Errorf("stats.Total = %d, want 0 after delete", stats.Total)
	}

	if err := svc.DeleteTask(context.Background(), "user-1", "nope"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("err = %v, want ErrTaskNotFound", err)
	}
}

func TestModifyTask(t *testing.T) {
	t.Run("revives expired", func(t *testing.T) {
		store := &fakeTaskStore{}
		seedTask(store, "t1", model.StatusExpired, day(10))
		svc := newTestService(store)

		status, err := svc.ModifyTask(context.Background(), "user-1", "t1", &model.Task{
			Title:    "rescheduled",
			Deadline: day(25),
		})
		if err != nil {
			t.Fatalf("ModifyTask: %v", err)
		}
		if status != model.StatusPending {
			t.Errorf("status = %q, want pending", status)
		}
		if store.tasks[0].Title != "rescheduled" || !store.tasks[0].Deadline.Equal(day(25)) {
			t.Error("fields not overwritten")
		}
	})

	t.Run("keeps completed status", func(t *testing.T) {
		store := &fakeTaskStore{}
		seedTask(store, "t1", model.StatusCompleted, day(10))
		svc := newTestService(store)

		status, err := svc.ModifyTask(context.Background(), "user-1", "t1", &model.Task{
			Title:    "renamed",
			Deadline: day(25),
		})
		if err != nil {
			t.Fatalf("ModifyTask: %v", err)
		}
		if status != model.StatusCompleted {
			t.Errorf("status = %q, want completed", status)
		}
	})

	t.Run("validation", func(t *testing.T) {
		store := &fakeTaskStore{}
		seedTask(store, "t1", model.StatusPending, day(10))
		svc := newTestService(store)

		if _, err := svc.ModifyTask(context.Background(), "user-1", "t1", &model.Task{Deadline: day(25)}); err == nil {
			t.Error("expected error for empty title")
		}
		if _, err := svc.ModifyTask(context.Background(), "user-1", "t1", &model.Task{Title: "x"}); err == nil {
			t.Error("expected error for zero deadline")
		}
	})

	t.Run("missing task", func(t *testing.T) {
		svc := newTestService(&fakeTaskStore{})
		if _, err := svc.ModifyTask(context.Background(), "user-1", "nope", &model.Task{Title: "x", Deadline: day(25)}); !errors.Is(err, ErrTaskNotFound) {
			t.Errorf("err = %v, want ErrTaskNotFound", err)
		}
	})
}

func TestCalendarDates(t *testing.T) {
	svc := newTestService(&fakeTaskStore{})

	oneOff := &model.Task{Deadline: day(20), RepeatFrequency: model.RepeatNone}
	yearly := &model.Task{Deadline: time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC), RepeatFrequency: model.RepeatYearly}

	dates := svc.CalendarDates([]*model.Task{oneOff, yearly})

	// 2024 through the 2029 horizon gives six yearly occurrences.
	want := []string{
		"2024-01-20",
		"2024-03-01", "2025-03-01", "2026-03-01",
		"2027-03-01", "2028-03-01", "2029-03-01",
	}
	if len(dates) != len(want) {
		t.Fatalf("got %d dates %v, want %d", len(dates), dates, len(want))
	}
	for i, d := range want {
		if dates[i] != d {
			t.Errorf("position %d: got %q, want %q", i, dates[i], d)
		}
	}
}

func TestIsOverdue(t *testing.T) {
	svc := newTestService(&fakeTaskStore{})

	cases := []struct {
		name string
		task model.Task
		want bool
	}{
		{"pending past deadline", model.Task{Status: model.StatusPending, Deadline: day(10)}, true},
		{"pending future deadline", model.Task{Status: model.StatusPending, Deadline: day(20)}, false},
		{"completed past deadline", model.Task{Status: model.StatusCompleted, Deadline: day(10)}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := svc.IsOverdue(&tc.task); got != tc.want {
				t.Errorf("IsOverdue = %v, want %v", got, tc.want)
			}
		})
	}
}
