package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"mochi-server/internal/bootstrap"
	mysqlClient "mochi-server/internal/platform/mysql"
	rabbitmqClient "mochi-server/internal/platform/rabbitmq"
	redisClient "mochi-server/internal/platform/redis"
)

type HealthHandler struct {
	app *bootstrap.App
}

type dependencyStatus struct {
	OK       bool   `json:"ok"`
	Disabled bool   `json:"disabled,omitempty"`
	Message  string `json:"message,omitempty"`
}

func NewHealthHandler(app *bootstrap.App) *HealthHandler {
	return &HealthHandler{app: app}
}

// Check pings every configured dependency concurrently.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	var mysqlStatus, redisStatus, rmqStatus dependencyStatus
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		mysqlStatus = toStatus(mysqlClient.Ping(gctx, h.app.MySQL))
		return nil
	})
	g.Go(func() error {
		if h.app.Redis == nil {
			redisStatus = dependencyStatus{OK: true, Disabled: true}
			return nil
		}
		redisStatus = toStatus(redisClient.Ping(gctx, h.app.Redis))
		return nil
	})
	g.Go(func() error {
		if h.app.MQConn == nil {
			rmqStatus = dependencyStatus{OK: true, Disabled: true}
			return nil
		}
		rmqStatus = toStatus(rabbitmqClient.Ping(gctx, h.app.MQConn))
		return nil
	})
	_ = g.Wait()

	allOK := mysqlStatus.OK && redisStatus.OK && rmqStatus.OK
	statusCode := http.StatusOK
	if !allOK {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, gin.H{
		"app":        h.app.Config.App.Name,
		"env":        h.app.Config.App.Env,
		"uptime_sec": int(time.Since(h.app.StartedAt).Seconds()),
		"dependencies": gin.H{
			"mysql":    mysqlStatus,
			"redis":    redisStatus,
			"rabbitmq": rmqStatus,
		},
	})
}

func toStatus(err error) dependencyStatus {
	if err != nil {
		return dependencyStatus{OK: false, Message: err.Error()}
	}
	return dependencyStatus{OK: true}
}
