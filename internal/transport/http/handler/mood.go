package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"mochi-server/internal/app"
	"mochi-server/internal/model"
	"mochi-server/internal/transport/http/middleware"
	"mochi-server/internal/transport/http/response"
)

type MoodHandler struct {
	moodService *app.MoodService
}

type LogMoodRequest struct {
	Score *int `json:"score" binding:"required"`
}

func NewMoodHandler(moodService *app.MoodService) *MoodHandler {
	return &MoodHandler{moodService: moodService}
}

// Log answers POST /log-mood.
func (h *MoodHandler) Log(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req LogMoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	entry, err := h.moodService.Log(c.Request.Context(), userID, *req.Score)
	if err != nil {
		writeError(c, err, "log mood failed")
		return
	}
	response.OK(c, gin.H{
		"status": "success",
		"log_id": entry.ID,
	})
}

// List answers GET /moods?limit=.
func (h *MoodHandler) List(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	logs, err := h.moodService.List(c.Request.Context(), userID, limit)
	if err != nil {
		writeError(c, err, "list moods failed")
		return
	}
	if logs == nil {
		logs = []model.MoodLog{}
	}
	response.OK(c, logs)
}
