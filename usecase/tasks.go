package usecase

import (
	"context"
	"errors"
	"log"
	"sort"
	"time"

	"main/model"
	"main/recurrence"
	"main/utils"

	"github.com/google/uuid"
)

// ErrTaskNotFound is returned for actions on tasks that do not exist for the
// user. Deleted tasks are not reachable through toggle either.
var ErrTaskNotFound = errors.New("task not found")

// List filters. Anything else falls back to FilterAll.
const (
	FilterAll       = "all"
	FilterCompleted = "completed"
	FilterExpired   = "expired"
	FilterDeleted   = "deleted"
)

// TaskStore is the persistence collaborator for tasks.
type TaskStore interface {
	Insert(ctx context.Context, task *model.Task) error
	GetTask(ctx context.Context, userID model.UserID, taskID model.TaskID) (*model.Task, error)
	FindByOwner(ctx context.Context, userID model.UserID, status model.TaskStatus, search string) ([]*model.Task, error)
	UpdateStatus(ctx context.Context, userID model.UserID, taskID model.TaskID, status model.TaskStatus) (bool, error)
	CompletePending(ctx context.Context, userID model.UserID, taskID model.TaskID) (bool, error)
	UpdateFields(ctx context.Context, userID model.UserID, taskID model.TaskID, updates *model.Task) error
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
	CountByStatus(ctx context.Context, userID model.UserID) (*model.TaskStats, error)
}

type TaskService struct {
	store TaskStore
	now   func() time.Time
}

func NewTaskService(store TaskStore) *TaskService {
	return &TaskService{store: store, now: time.Now}
}

// TaskList is the result of a dashboard query: the ordered, filtered tasks
// plus aggregate counts over the whole non-deleted owned set.
type TaskList struct {
	Tasks []*model.Task
	Stats *model.TaskStats
}

// ListTasks runs the expiry sweep, then fetches, orders and filters the
// user's tasks. filter narrows by status (completed/expired/deleted exact;
// anything else hides deleted tasks only). search requires a
// case-insensitive substring match on title or description. queryDate, if
// non-nil, keeps only tasks whose occurrence set includes that day.
func (svc *TaskService) ListTasks(ctx context.Context, userID model.UserID, filter, search string, queryDate *time.Time) (*TaskList, error) {
	// Statuses must be fresh before they are reported; a failed sweep is a
	// warning, not a failed read.
	if count, err := svc.store.SweepExpired(ctx, svc.now()); err != nil {
		log.Printf("Warning: expiry sweep failed, statuses may be stale: %v", err)
	} else if count > 0 {
		utils.TrackSweep(count)
	}

	tasks, err := svc.store.FindByOwner(ctx, userID, statusForFilter(filter), search)
	if err != nil {
		return nil, err
	}

	sortTasks(tasks)

	if queryDate != nil {
		matched := tasks[:0]
		for _, task := range tasks {
			if recurrence.Matches(task.Deadline, task.RepeatFrequency.Normalize(), *queryDate) {
				matched = append(matched, task)
			}
		}
		tasks = matched
	}

	stats, err := svc.store.CountByStatus(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &TaskList{Tasks: tasks, Stats: stats}, nil
}

// sortTasks orders by status priority, then deadline ascending, then task id
// so equal deadlines still sort deterministically.
func sortTasks(tasks []*model.Task) {
	sort.Slice(tasks, func(i, j int) bool {
		pi, pj := tasks[i].Status.Priority(), tasks[j].Status.Priority()
		if pi != pj {
			return pi < pj
		}
		if !tasks[i].Deadline.Equal(tasks[j].Deadline) {
			return tasks[i].Deadline.Before(tasks[j].Deadline)
		}
		return tasks[i].TaskID < tasks[j].TaskID
	})
}

// CreateTask validates and stores a new pending task.
func (svc *TaskService) CreateTask(ctx context.Context, task *model.Task) error {
	if task.UserID == "" {
		return errors.New("user ID is required")
	}
	if task.Title == "" {
		return errors.New("task title is required")
	}
	if task.Deadline.IsZero() {
		return errors.New("deadline is required")
	}
	if task.ReminderMinutes < 0 {
		return errors.New("reminder minutes cannot be negative")
	}

	task.RepeatFrequency = task.RepeatFrequency.Normalize()
	task.Status = model.StatusPending
	if task.TaskID == "" {
		task.TaskID = model.TaskID(uuid.New().String())
	}
	now := svc.now()
	task.CreatedAt = now
	task.UpdatedAt = now

	if err := svc.store.Insert(ctx, task); err != nil {
		return err
	}
	utils.TrackTaskOperation("create")
	return nil
}

// ToggleResult reports the outcome of a toggle action.
type ToggleResult struct {
	Status    model.TaskStatus
	Successor *model.Task // non-nil when completing spawned the next occurrence
}

// ToggleTask flips a task between pending and completed. Completing a
// recurring task spawns exactly one successor with the deadline advanced by
// one period. An expired task toggles back to pending; a deleted task is not
// reachable here.
func (svc *TaskService) ToggleTask(ctx context.Context, userID model.UserID, taskID model.TaskID) (*ToggleResult, error) {
	task, err := svc.store.GetTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil || task.Status == model.StatusDeleted {
		return nil, ErrTaskNotFound
	}

	utils.TrackTaskOperation("toggle")

	switch task.Status {
	case model.StatusPending:
		// The guarded update wins or loses atomically, so two concurrent
		// toggles complete the task once and spawn at most one successor.
		won, err := svc.store.CompletePending(ctx, userID, taskID)
		if err != nil {
			return nil, err
		}
		if !won {
			return &ToggleResult{Status: model.StatusCompleted}, nil
		}
		utils.TrackTaskCompletion()

		if !task.RepeatFrequency.Repeats() {
			return &ToggleResult{Status: model.StatusCompleted}, nil
		}

		successor := svc.spawnSuccessor(task)
		if err := svc.store.Insert(ctx, successor); err != nil {
			return nil, err
		}
		utils.TrackSuccessorSpawned()
		return &ToggleResult{Status: model.StatusCompleted, Successor: successor}, nil

	default: // completed or expired toggle back to pending
		if _, err := svc.store.UpdateStatus(ctx, userID, taskID, model.StatusPending); err != nil {
			return nil, err
		}
		return &ToggleResult{Status: model.StatusPending}, nil
	}
}

// spawnSuccessor builds the next occurrence of a recurring task: same
// content, deadline advanced by one period, fresh identity, pending status.
// The original row is never rewritten.
func (svc *TaskService) spawnSuccessor(task *model.Task) *model.Task {
	now := svc.now()
	return &model.Task{
		TaskID:          model.TaskID(uuid.New().String()),
		UserID:          task.UserID,
		Title:           task.Title,
		Description:     task.Description,
		Deadline:        recurrence.Advance(task.Deadline, task.RepeatFrequency),
		RepeatFrequency: task.RepeatFrequency,
		ReminderMinutes: task.ReminderMinutes,
		Status:          model.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// DeleteTask soft-deletes a task of any status. The row stays in the store
// as a tombstone, hidden from default listings and counts.
func (svc *TaskService) DeleteTask(ctx context.Context, userID model.UserID, taskID model.TaskID) error {
	matched, err := svc.store.UpdateStatus(ctx, userID, taskID, model.StatusDeleted)
	if err != nil {
		return err
	}
	if !matched {
		return ErrTaskNotFound
	}
	utils.TrackTaskOperation("delete")
	return nil
}

// ModifyTask overwrites a task's editable fields. Editing an expired task
// revives it to pending; every other status is left as is. Returns the
// task's resulting status.
func (svc *TaskService) ModifyTask(ctx context.Context, userID model.UserID, taskID model.TaskID, updates *model.Task) (model.TaskStatus, error) {
	existing, err := svc.store.GetTask(ctx, userID, taskID)
	if err != nil {
		return "", err
	}
	if existing == nil {
		return "", ErrTaskNotFound
	}

	if updates.Title == "" {
		return "", errors.New("task title is required")
	}
	if updates.Deadline.IsZero() {
		return "", errors.New("deadline is required")
	}
	if updates.ReminderMinutes < 0 {
		return "", errors.New("reminder minutes cannot be negative")
	}

	existing.Title = updates.Title
	existing.Description = updates.Description
	existing.Deadline = updates.Deadline
	existing.RepeatFrequency = updates.RepeatFrequency.Normalize()
	existing.ReminderMinutes = updates.ReminderMinutes
	if existing.Status == model.StatusExpired {
		existing.Status = model.StatusPending
	}

	if err := svc.store.UpdateFields(ctx, userID, taskID, existing); err != nil {
		return "", err
	}
	utils.TrackTaskOperation("modify")
	return existing.Status, nil
}

// CalendarDates projects the occurrence sets of the given tasks onto the
// calendar and returns the union of their dates as sorted YYYY-MM-DD
// strings. The horizon follows the current clock, not the task anchors.
func (svc *TaskService) CalendarDates(tasks []*model.Task) []string {
	horizon := recurrence.Horizon(svc.now())
	seen := make(map[string]struct{})
	for _, task := range tasks {
		freq := task.RepeatFrequency.Normalize()
		for _, occ := range recurrence.Project(task.Deadline, freq, horizon) {
			seen[occ.Format("2006-01-02")] = struct{}{}
		}
	}

	dates := make([]string, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// SweepNow runs the expiry sweep once, for the background job.
func (svc *TaskService) SweepNow(ctx context.Context) (int64, error) {
	count, err := svc.store.SweepExpired(ctx, svc.now())
	if err != nil {
		return 0, err
	}
	if count > 0 {
		utils.TrackSweep(count)
	}
	return count, nil
}

// GetTaskStats returns the user's aggregate counts regardless of any
// listing filter.
func (svc *TaskService) GetTaskStats(ctx context.Context, userID model.UserID) (*model.TaskStats, error) {
	return svc.store.CountByStatus(ctx, userID)
}

// IsOverdue reports whether a task's deadline has passed while it is still
// pending, for presentation.
func (svc *TaskService) IsOverdue(task *model.Task) bool {
	return task.Status == model.StatusPending && task.Deadline.Before(svc.now())
}

func statusForFilter(filter string) model.TaskStatus {
	switch filter {
	case FilterCompleted:
		return model.StatusCompleted
	case FilterExpired:
		return model.StatusExpired
	case FilterDeleted:
		return model.StatusDeleted
	default:
		return "" // all statuses except deleted
	}
}
