package handler

import (
	"main/model"
	"main/services"
	"main/utils"

	"github.com/gin-gonic/gin"
)

func (h *AuthHandler) Register(c *gin.Context) {
	var user model.User

	if err := c.ShouldBindJSON(&user); err != nil {
		utils.BadRequest(c, "Invalid request")
		return
	}

	if err := h.users.CreateUser(c.Request.Context(), &user); err != nil {
		switch err.Error() {
		case "username already exists", "email already exists":
			utils.Conflict(c, err.Error())
		default:
			utils.BadRequest(c, "Invalid request")
		}
		return
	}

	token, err := services.GenerateToken(user.UserID)
	if err != nil {
		utils.InternalError(c, "Failed to generate token")
		return
	}
	utils.TokenUsage.WithLabelValues("access", "generated").Inc()

	refreshToken, err := services.GenerateRefreshToken(user.UserID)
	if err != nil {
		utils.InternalError(c, "Failed to generate refresh token")
		return
	}
	utils.TokenUsage.WithLabelValues("refresh", "generated").Inc()

	utils.TrackAuthAttempt("success", "registration")

	utils.Created(c, gin.H{
		"message": "User registered successfully",
		"token":   token,
		"refresh": refreshToken,
		"user": gin.H{
			"id":       user.UserID,
			"username": user.Username,
			"email":    user.Email,
		},
	})
}
