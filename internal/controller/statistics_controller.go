package controller

import (
	"skillwise_backend/internal/service"
	"skillwise_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type StatisticsController struct {
	Ledger *service.Ledger
}

func NewStatisticsController(ledger *service.Ledger) *StatisticsController {
	return &StatisticsController{Ledger: ledger}
}

// @Summary 获取我的学习统计
// @Description 积分、完成数、评审数与连续活跃天数
// @Tags 学习统计
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.UserStatistics}
// @Router /statistics/me [get]
func (c *StatisticsController) GetMyStatistics(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	stats, err := c.Ledger.Statistics(ctx.Request.Context(), user.UserID)
	if err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, stats)
}

// @Summary 获取用户学习统计
// @Tags 学习统计
// @Produce json
// @Security ApiKeyAuth
// @Param userId path int true "用户ID"
// @Success 200 {object} util.Response{data=model.UserStatistics}
// @Router /statistics/{userId} [get]
func (c *StatisticsController) GetUserStatistics(ctx *gin.Context) {
	userID, err := util.ParseID(ctx.Param("userId"))
	if err != nil {
		util.Fail(ctx, err)
		return
	}

	stats, err := c.Ledger.Statistics(ctx.Request.Context(), userID)
	if err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, stats)
}
