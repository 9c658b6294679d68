package util

import (
	"net/http"

	"skillwise_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Code    ErrorCode   `json:"code,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// PageResponse 分页响应结构
type PageResponse struct {
	List  interface{} `json:"list"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    data,
	})
}

func Error(c *gin.Context, status int, code ErrorCode, message string) {
	c.JSON(status, Response{
		Success: false,
		Message: message,
		Code:    code,
	})
}

func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, CodeUnauthorized, "Unauthorized")
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, CodeInvalidInput, message)
}

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, CodePersistenceFailure, "Internal server error")
}

// Fail 按错误分类输出响应，只有非预期错误才会记录日志
func Fail(c *gin.Context, err error) {
	code := CodeOf(err)
	if code == CodePersistenceFailure {
		LogInternalError(c, err)
		return
	}
	Error(c, HTTPStatus(code), code, err.Error())
}

func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	InternalServerError(c)
}
