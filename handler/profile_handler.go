package handler

import (
	"main/dto"
	"main/utils"

	"github.com/gin-gonic/gin"
)

func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, ok := authedUser(c)
	if !ok {
		utils.Unauthorized(c, "Missing user ID")
		return
	}

	user, err := h.users.FindUser(c.Request.Context(), userID)
	if err != nil {
		utils.InternalError(c, "Could not fetch user details")
		return
	}
	if user == nil {
		utils.NotFound(c, "User not found")
		return
	}

	utils.Success(c, dto.ToUserProfileResponse(user))
}
