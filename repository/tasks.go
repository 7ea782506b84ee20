package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"main/model"
	"main/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type TasksRepo struct {
	MongoCollection *mongo.Collection
}

// Retrieves MongoDB collection for tasks
func GetTasksRepo(client *mongo.Client, dbName string) *TasksRepo {
	collectionName := utils.GetEnvAsString("TASKS_COLLECTION", "tasks")
	return &TasksRepo{
		MongoCollection: client.Database(dbName).Collection(collectionName),
	}
}

// Insert adds a new task row. Tasks are only ever created here; recurrence
// never mutates an existing row's deadline.
func (r *TasksRepo) Insert(ctx context.Context, task *model.Task) error {
	timer := utils.TrackDBOperation("insert", "tasks")
	defer timer.ObserveDuration()

	if task.UserID == "" {
		utils.TrackError("database", "missing_user_id")
		return errors.New("user ID is required")
	}
	if task.Title == "" {
		utils.TrackError("database", "missing_title")
		return errors.New("task title is required")
	}

	if _, err := r.MongoCollection.InsertOne(ctx, task); err != nil {
		utils.TrackError("database", "task_creation_failed")
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

// GetTask fetches a single task owned by the user. Returns nil, nil when the
// task does not exist.
func (r *TasksRepo) GetTask(ctx context.Context, userID model.UserID, taskID model.TaskID) (*model.Task, error) {
	timer := utils.TrackDBOperation("find", "tasks")
	defer timer.ObserveDuration()

	filter := bson.M{
		"_id":     taskID,
		"user_id": userID,
	}

	var task model.Task
	err := r.MongoCollection.FindOne(ctx, filter).Decode(&task)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		utils.TrackError("database", "task_fetch_failed")
		return nil, fmt.Errorf("failed to fetch task: %w", err)
	}
	return &task, nil
}

// FindByOwner retrieves the user's tasks, optionally narrowed to one status
// and a case-insensitive substring search over title and description. An
// empty status selects everything except deleted tasks.
func (r *TasksRepo) FindByOwner(ctx context.Context, userID model.UserID, status model.TaskStatus, search string) ([]*model.Task, error) {
	timer := utils.TrackDBOperation("find", "tasks")
	defer timer.ObserveDuration()

	filter := bson.M{"user_id": userID}
	if status != "" {
		filter["status"] = status
	} else {
		filter["status"] = bson.M{"$ne": model.StatusDeleted}
	}

	if search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"description": pattern},
		}
	}

	cursor, err := r.MongoCollection.Find(ctx, filter)
	if err != nil {
		utils.TrackError("database", "task_fetch_failed")
		return nil, fmt.Errorf("failed to fetch tasks: %w", err)
	}
	defer cursor.Close(ctx)

	var tasks []*model.Task
	if err = cursor.All(ctx, &tasks); err != nil {
		utils.TrackError("database", "task_decode_failed")
		return nil, fmt.Errorf("failed to decode tasks: %w", err)
	}
	return tasks, nil
}

// UpdateStatus sets a task's status unconditionally. Returns false when the
// task does not exist for this user.
func (r *TasksRepo) UpdateStatus(ctx context.Context, userID model.UserID, taskID model.TaskID, status model.TaskStatus) (bool, error) {
	timer := utils.TrackDBOperation("update", "tasks")
	defer timer.ObserveDuration()

	filter := bson.M{
		"_id":     taskID,
		"user_id": userID,
	}
	update := bson.M{
		"$set": bson.M{
			"status":     status,
			"updated_at": time.Now(),
		},
	}

	result, err := r.MongoCollection.UpdateOne(ctx, filter, update)
	if err != nil {
		utils.TrackError("database", "task_update_failed")
		return false, fmt.Errorf("failed to update task status: %w", err)
	}
	return result.MatchedCount > 0, nil
}

// CompletePending marks a pending task completed. The status guard in the
// filter makes the transition first-writer-wins, so a recurring task spawns
// its successor at most once under concurrent toggles.
func (r *TasksRepo) CompletePending(ctx context.Context, userID model.UserID, taskID model.TaskID) (bool, error) {
	timer := utils.TrackDBOperation("update", "tasks")
	defer timer.ObserveDuration()

	filter := bson.M{
		"_id":     taskID,
		"user_id": userID,
		"status":  model.StatusPending,
	}
	update := bson.M{
		"$set": bson.M{
			"status":     model.StatusCompleted,
			"updated_at": time.Now(),
		},
	}

	result, err := r.MongoCollection.UpdateOne(ctx, filter, update)
	if err != nil {
		utils.TrackError("database", "task_update_failed")
		return false, fmt.Errorf("failed to complete task: %w", err)
	}
	return result.ModifiedCount > 0, nil
}

// UpdateFields rewrites a task's editable fields. Status is included because
// modifying an expired task revives it to pending.
func (r *TasksRepo) UpdateFields(ctx context.Context, userID model.UserID, taskID model.TaskID, updates *model.Task) error {
	timer := utils.TrackDBOperation("update", "tasks")
	defer timer.ObserveDuration()

	filter := bson.M{
		"_id":     taskID,
		"user_id": userID,
	}
	update := bson.M{
		"$set": bson.M{
			"title":            updates.Title,
			"description":      updates.Description,
			"deadline":         updates.Deadline,
			"repeat_freq":      updates.RepeatFrequency,
			"reminder_minutes": updates.ReminderMinutes,
			"status":           updates.Status,
			"updated_at":       time.Now(),
		},
	}

	result, err := r.MongoCollection.UpdateOne(ctx, filter, update)
	if err != nil {
		utils.TrackError("database", "task_update_failed")
		return fmt.Errorf("failed to update task: %w", err)
	}
	if result.MatchedCount == 0 {
		utils.TrackError("database", "task_not_found")
		return errors.New("task not found")
	}
	return nil
}

// SweepExpired bulk-expires pending tasks whose deadline has passed. The
// filter makes the operation idempotent: completed and deleted tasks are
// never downgraded, and a second run over the same rows matches nothing.
func (r *TasksRepo) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	timer := utils.TrackDBOperation("update", "tasks")
	defer timer.ObserveDuration()

	filter := bson.M{
		"status":   model.StatusPending,
		"deadline": bson.M{"$lt": now},
	}
	update := bson.M{
		"$set": bson.M{
			"status":     model.StatusExpired,
			"updated_at": now,
		},
	}

	result, err := r.MongoCollection.UpdateMany(ctx, filter, update)
	if err != nil {
		utils.TrackError("database", "sweep_failed")
		return 0, fmt.Errorf("failed to sweep expired tasks: %w", err)
	}
	return result.ModifiedCount, nil
}

// CountByStatus aggregates the user's non-deleted tasks for the dashboard
// header, independent of any listing filter.
func (r *TasksRepo) CountByStatus(ctx context.Context, userID model.UserID) (*model.TaskStats, error) {
	timer := utils.TrackDBOperation("count", "tasks")
	defer timer.ObserveDuration()

	total, err := r.MongoCollection.CountDocuments(ctx, bson.M{
		"user_id": userID,
		"status":  bson.M{"$ne": model.StatusDeleted},
	})
	if err != nil {
		utils.TrackError("database", "task_count_failed")
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}

	completed, err := r.MongoCollection.CountDocuments(ctx, bson.M{
		"user_id": userID,
		"status":  model.StatusCompleted,
	})
	if err != nil {
		utils.TrackError("database", "task_count_failed")
		return nil, fmt.Errorf("failed to count completed tasks: %w", err)
	}

	expired, err := r.MongoCollection.CountDocuments(ctx, bson.M{
		"user_id": userID,
		"status":  model.StatusExpired,
	})
	if err != nil {
		utils.TrackError("database", "task_count_failed")
		return nil, fmt.Errorf("failed to count expired tasks: %w", err)
	}

	return &model.TaskStats{
		Total:     int(total),
		Completed: int(completed),
		Expired:   int(expired),
	}, nil
}

