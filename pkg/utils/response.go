package utils

import (
	stderrors "errors"
	"net/http"

	"pipedash/pkg/errors"

	"github.com/gin-gonic/gin"
)

// Response 统一响应结构
// Success 为 false 时 Error 携带可直接展示给用户的错误信息
type Response struct {
	Success bool        `json:"success"`
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Error   string      `json:"error,omitempty"`
	Detail  string      `json:"detail,omitempty"` // 详细错误信息（可选）
	Data    interface{} `json:"data,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Code:    errors.CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// SuccessWithMessage 带消息的成功响应
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Code:    errors.CodeSuccess,
		Message: message,
		Data:    data,
	})
}

// Error 错误响应，HTTP 状态码统一为 200，业务错误码在 code 中
// 非 AppError 只返回通用提示，原始错误不暴露给调用方
func Error(c *gin.Context, err error) {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		appErr = errors.ErrInternalError
	}
	c.JSON(http.StatusOK, Response{
		Code:    appErr.Code,
		Message: appErr.Message,
		Error:   appErr.Message,
	})
}

// ErrorWithDetail 带详细信息的错误响应
func ErrorWithDetail(c *gin.Context, code int, message, detail string) {
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
		Error:   message,
		Detail:  detail,
	})
}

// AbortWithStatus 以真实 HTTP 状态码终止请求（webhook 等外部调用方依赖状态码）
func AbortWithStatus(c *gin.Context, status int, err *errors.AppError) {
	c.AbortWithStatusJSON(status, Response{
		Code:    err.Code,
		Message: err.Message,
		Error:   err.Message,
	})
}
