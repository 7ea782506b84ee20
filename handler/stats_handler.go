package handler

import (
	"log"
	"time"

	"main/repository"
	"main/usecase"
	"main/utils"

	"github.com/gin-gonic/gin"
)

type StatsHandler struct {
	users    *usecase.UserService
	tasks    *usecase.TaskService
	sessions *repository.SessionRepo
}

func NewStatsHandler(users *usecase.UserService, tasks *usecase.TaskService, sessions *repository.SessionRepo) *StatsHandler {
	return &StatsHandler{users: users, tasks: tasks, sessions: sessions}
}

// GetUserStats combines the task counts with account and session activity
// for the account overview page.
func (h *StatsHandler) GetUserStats(c *gin.Context) {
	userID, ok := authedUser(c)
	if !ok {
		utils.Unauthorized(c, "Missing or invalid token")
		return
	}

	user, err := h.users.FindUser(c.Request.Context(), userID)
	if err != nil {
		log.Printf("Error fetching user %s: %v", userID, err)
		utils.InternalError(c, "Failed to fetch user details")
		return
	}
	if user == nil {
		utils.NotFound(c, "User not found")
		return
	}

	taskStats, err := h.tasks.GetTaskStats(c.Request.Context(), userID)
	if err != nil {
		log.Printf("Error counting tasks: %v", err)
		utils.InternalError(c, "Failed to count tasks")
		return
	}

	sessions, err := h.sessions.GetUserActiveSessions(userID)
	if err != nil {
		log.Printf("Error getting sessions: %v", err)
		utils.InternalError(c, "Failed to get sessions")
		return
	}

	var lastActive time.Time
	if len(sessions) > 0 {
		lastActive = sessions[0].LastActivityAt
		for _, s := range sessions[1:] {
			if s.LastActivityAt.After(lastActive) {
				lastActive = s.LastActivityAt
			}
		}
	}

	utils.Success(c, gin.H{
		"tasks": taskStats,
		"activity": gin.H{
			"account_created": user.CreatedAt,
			"active_sessions": len(sessions),
			"last_active":     lastActive,
		},
	})
}
