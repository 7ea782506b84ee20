package handler

import (
	"main/repository"
	"main/utils"

	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	sessions *repository.SessionRepo
}

func NewSessionHandler(sessions *repository.SessionRepo) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

func (h *SessionHandler) GetActiveSessions(c *gin.Context) {
	userID, ok := authedUser(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	sessions, err := h.sessions.GetUserActiveSessions(userID)
	if err != nil {
		utils.InternalError(c, "Failed to fetch sessions")
		return
	}

	utils.Success(c, gin.H{"sessions": sessions})
}

func (h *SessionHandler) LogoutAllSessions(c *gin.Context) {
	userID, ok := authedUser(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	if err := h.sessions.EndAllUserSessions(userID); err != nil {
		utils.InternalError(c, "Failed to end all sessions")
		return
	}

	c.SetCookie("session_id", "", -1, "/", "", true, true)

	utils.Success(c, gin.H{"message": "Successfully logged out of all sessions"})
}
