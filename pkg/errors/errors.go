package errors

import (
	stderrors "errors"
	"fmt"
)

// 业务错误码，随统一响应返回；webhook 以外的接口 HTTP 状态码固定为 200
const (
	CodeSuccess         = 200
	CodeBadRequest      = 400
	CodeUnauthorized    = 401
	CodeForbidden       = 403
	CodeNotFound        = 404
	CodeConflict        = 409
	CodeTooManyRequests = 429
	CodeInternalError   = 500
	CodeDatabaseError   = 501 // 镜像库读写失败
	CodeProviderError   = 504 // GitLab 调用失败
)

// AppError 应用错误
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 支持 errors.Is / errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 按错误码比较，使 errors.Is(err, ErrRecordNotFound) 对包装后的错误同样成立
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// New 创建新错误
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装错误
func Wrap(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// CodeOf 提取错误码，非 AppError 一律视为内部错误
func CodeOf(err error) int {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternalError
}

var (
	ErrUnauthorized    = New(CodeUnauthorized, "未登录或会话已过期")
	ErrForbidden       = New(CodeForbidden, "无权执行该操作")
	ErrInternalError   = New(CodeInternalError, "内部服务器错误")
	ErrTooManyRequests = New(CodeTooManyRequests, "请求过于频繁")

	ErrRecordNotFound      = New(CodeNotFound, "记录不存在")
	ErrProjectNotFound     = New(CodeNotFound, "项目不存在")
	ErrProjectExists       = New(CodeConflict, "GitLab 上已存在同名项目")
	ErrInvalidWebhookToken = New(CodeUnauthorized, "Webhook Token 校验失败")
)
