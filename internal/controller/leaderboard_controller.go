package controller

import (
	"skillwise_backend/internal/model"
	"skillwise_backend/internal/service"
	"skillwise_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type LeaderboardController struct {
	LeaderboardService *service.LeaderboardService
}

func NewLeaderboardController(leaderboardService *service.LeaderboardService) *LeaderboardController {
	return &LeaderboardController{LeaderboardService: leaderboardService}
}

// @Summary 获取排行榜
// @Description 按总积分和完成挑战数排序的 dense rank，附带当前用户名次
// @Tags 排行榜
// @Produce json
// @Security ApiKeyAuth
// @Param timeframe query string false "all/weekly/monthly" default(all)
// @Param limit query int false "返回数量" default(10)
// @Success 200 {object} util.Response{data=service.LeaderboardOverview}
// @Router /leaderboard [get]
func (c *LeaderboardController) GetLeaderboard(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	timeframe := model.Timeframe(ctx.DefaultQuery("timeframe", string(model.TimeframeAll)))
	limit := util.QueryInt(ctx.Query("limit"), 0)

	overview, err := c.LeaderboardService.Overview(ctx.Request.Context(), user.UserID, timeframe, limit)
	if err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, overview)
}
