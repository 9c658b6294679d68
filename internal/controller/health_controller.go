package controller

import (
	"context"
	"net/http"
	"time"

	"skillwise_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// Pinger 可探活的依赖
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthController struct {
	Store Pinger
}

func NewHealthController(store Pinger) *HealthController {
	return &HealthController{Store: store}
}

// @Summary 健康检查
// @Description 检查服务状态
// @Tags 系统
// @Produce json
// @Success 200 {object} util.Response
// @Router /health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	if err := c.Store.Ping(pingCtx); err != nil {
		util.Error(ctx, http.StatusServiceUnavailable, util.CodePersistenceFailure, "Database unavailable")
		return
	}

	util.Success(ctx, gin.H{
		"status": "ok",
		"components": gin.H{
			"database": "up",
		},
	})
}
