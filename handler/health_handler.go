package handler

import (
	"time"

	"main/repository"
	"main/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
)

type HealthHandler struct {
	client *mongo.Client
}

func NewHealthHandler(client *mongo.Client) *HealthHandler {
	return &HealthHandler{client: client}
}

func (h *HealthHandler) Check(c *gin.Context) {
	if err := repository.Ping(c.Request.Context(), h.client); err != nil {
		utils.ServiceUnavailable(c, "Database unreachable")
		return
	}

	utils.Success(c, gin.H{
		"status":    "ok",
		"time":      time.Now().UTC().Format(time.RFC3339),
		"cpu_usage": utils.GetCPUUsage(),
	})
}
