package controller

import (
	"skillwise_backend/internal/service"
	"skillwise_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ReviewController struct {
	ReviewService *service.ReviewService
	QueueService  *service.QueueService
}

func NewReviewController(reviewService *service.ReviewService, queueService *service.QueueService) *ReviewController {
	return &ReviewController{
		ReviewService: reviewService,
		QueueService:  queueService,
	}
}

// @Summary 获取待评审队列
// @Description 返回当前用户仍可评审的提交，按提交时间倒序
// @Tags 同伴评审
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(10)
// @Param category query string false "挑战分类"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /reviews/queue [get]
func (c *ReviewController) GetQueue(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	page, err := c.QueueService.Queue(ctx.Request.Context(), user.UserID, service.QueueOptions{
		Page:     util.QueryInt(ctx.Query("page"), util.DefaultPage),
		Limit:    util.QueryInt(ctx.Query("limit"), 0),
		Category: ctx.Query("category"),
	})
	if err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  page.Submissions,
		Total: page.Total,
		Page:  page.Page,
		Limit: page.Limit,
	})
}

// @Summary 提交同伴评审
// @Description 评审一次提交；第三个评审完成后计算最终得分
// @Tags 同伴评审
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "提交ID"
// @Param review body service.ReviewInput true "评审内容"
// @Success 201 {object} util.Response{data=service.ReviewOutcome}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /submissions/{id}/reviews [post]
func (c *ReviewController) SubmitReview(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	submissionID, err := util.ParseID(ctx.Param("id"))
	if err != nil {
		util.Fail(ctx, err)
		return
	}

	var req service.ReviewInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	outcome, err := c.ReviewService.SubmitReview(ctx.Request.Context(), user.UserID, submissionID, req)
	if err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Created(ctx, outcome)
}

// @Summary 获取提交详情
// @Tags 同伴评审
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "提交ID"
// @Success 200 {object} util.Response{data=model.Submission}
// @Router /submissions/{id} [get]
func (c *ReviewController) GetSubmission(ctx *gin.Context) {
	submissionID, err := util.ParseID(ctx.Param("id"))
	if err != nil {
		util.Fail(ctx, err)
		return
	}

	submission, err := c.ReviewService.GetSubmission(ctx.Request.Context(), submissionID)
	if err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, submission)
}

// @Summary 获取提交的评审列表
// @Description 匿名评审对其他用户隐藏评审者
// @Tags 同伴评审
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "提交ID"
// @Success 200 {object} util.Response{data=[]model.PeerReview}
// @Router /submissions/{id}/reviews [get]
func (c *ReviewController) ListReviews(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	submissionID, err := util.ParseID(ctx.Param("id"))
	if err != nil {
		util.Fail(ctx, err)
		return
	}

	reviews, err := c.ReviewService.ListReviews(ctx.Request.Context(), submissionID, user.UserID)
	if err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, reviews)
}
