package handler

import (
	"net/http"

	"github.com/bitfantasy/ppwr/internal/middleware"
	"github.com/bitfantasy/ppwr/internal/packaging/service"
	"github.com/bitfantasy/ppwr/internal/shared/apperr"
	"github.com/gin-gonic/gin"
)

// Handlers 处理器集合
type Handlers struct {
	Packaging *PackagingHandler
	Document  *DocumentHandler
	User      *UserHandler
}

// NewHandlers 创建处理器集合
func NewHandlers(svc *service.Services) *Handlers {
	registerValidation()
	return &Handlers{
		Packaging: NewPackagingHandler(svc.Packaging),
		Document:  NewDocumentHandler(svc.Document),
		User:      NewUserHandler(svc.User),
	}
}

// Response 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, status int, message string) {
	if status < 100 || status > 599 {
		status = http.StatusInternalServerError
	}
	c.JSON(status, Response{
		Success: false,
		Message: message,
	})
}

// BadRequest 参数错误响应
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// NotFound 资源不存在响应
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

// InternalError 服务器错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}

// RespondError 按错误类别输出响应，未分类错误记录到上下文并返回 500
func RespondError(c *gin.Context, err error) {
	e, ok := apperr.As(err)
	if !ok {
		c.Error(err)
		InternalError(c, "Internal server error")
		return
	}
	status := apperr.HTTPStatus(e.Kind)
	if status >= http.StatusInternalServerError {
		c.Error(err)
	}
	Error(c, status, e.Message)
}

// GetUserID 从上下文获取用户ID
func GetUserID(c *gin.Context) string {
	return c.GetString(middleware.ContextUserID)
}
