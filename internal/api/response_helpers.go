// internal/api/response_helpers.go
package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/NovaCampus/EduForumHub/internal/errors"
)

// ResponseHelper 响应助手类
type ResponseHelper struct{}

// NewResponseHelper 创建响应助手
func NewResponseHelper() *ResponseHelper {
	return &ResponseHelper{}
}

// Success 成功响应
func (rh *ResponseHelper) Success(c *gin.Context, data interface{}, message ...string) {
	response := &APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
		RequestID: rh.getRequestID(c),
	}

	if len(message) > 0 {
		response.Message = message[0]
	}

	c.JSON(http.StatusOK, response)
}

// Created 创建成功响应
func (rh *ResponseHelper) Created(c *gin.Context, data interface{}, message ...string) {
	response := &APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
		RequestID: rh.getRequestID(c),
	}

	if len(message) > 0 {
		response.Message = message[0]
	} else {
		response.Message = "资源创建成功"
	}

	c.JSON(http.StatusCreated, response)
}

// Error 错误响应
func (rh *ResponseHelper) Error(c *gin.Context, statusCode int, errorCode, message string, details ...string) {
	apiError := &APIError{
		Code:    errorCode,
		Message: message,
	}

	if len(details) > 0 {
		apiError.Details = details[0]
	}

	response := &APIResponse{
		Success:   false,
		Error:     apiError,
		Timestamp: time.Now(),
		RequestID: rh.getRequestID(c),
	}

	c.JSON(statusCode, response)
}

// BadRequest 400错误响应
func (rh *ResponseHelper) BadRequest(c *gin.Context, message string, details ...string) {
	rh.Error(c, http.StatusBadRequest, ErrorBadRequest, message, details...)
}

// NotFound 404错误响应
func (rh *ResponseHelper) NotFound(c *gin.Context, message string, details ...string) {
	rh.Error(c, http.StatusNotFound, rh.getResourceNotFoundCode(message), message, details...)
}

// InternalError 500错误响应
func (rh *ResponseHelper) InternalError(c *gin.Context, message string, details ...string) {
	rh.Error(c, http.StatusInternalServerError, ErrorInternalError, message, details...)
}

// Conflict 409错误响应
func (rh *ResponseHelper) Conflict(c *gin.Context, message string, details ...string) {
	rh.Error(c, http.StatusConflict, ErrorConflict, message, details...)
}

// ValidationFailed 422错误响应，附带逐字段错误
func (rh *ResponseHelper) ValidationFailed(c *gin.Context, message string, fields map[string]string) {
	response := &APIResponse{
		Success: false,
		Error: &APIError{
			Code:    ErrorValidationFailed,
			Message: message,
			Fields:  fields,
		},
		Timestamp: time.Now(),
		RequestID: rh.getRequestID(c),
	}

	c.JSON(http.StatusUnprocessableEntity, response)
}

// ServiceUnavailable 503错误响应
func (rh *ResponseHelper) ServiceUnavailable(c *gin.Context, message string, details ...string) {
	rh.Error(c, http.StatusServiceUnavailable, ErrorStorageUnavailable, message, details...)
}

// AppError 按业务错误类型映射HTTP响应
func (rh *ResponseHelper) AppError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		rh.InternalError(c, err.Error())
		return
	}

	switch appErr.Type {
	case apperrors.ErrorTypeValidation:
		rh.ValidationFailed(c, appErr.Message, appErr.Fields)
	case apperrors.ErrorTypeNotFound:
		rh.NotFound(c, appErr.Message)
	case apperrors.ErrorTypeConflict:
		rh.Error(c, http.StatusConflict, rh.getConflictCode(appErr.Message), appErr.Message)
	case apperrors.ErrorTypeStorageUnavailable:
		rh.ServiceUnavailable(c, appErr.Message)
	default:
		rh.Error(c, http.StatusInternalServerError, rh.getProcessingCode(appErr.Message), appErr.Message)
	}
}

// getResourceNotFoundCode 根据资源类型生成错误代码
func (rh *ResponseHelper) getResourceNotFoundCode(message string) string {
	switch {
	case strings.HasPrefix(message, "问题"):
		return ErrorQuestionNotFound
	case strings.HasPrefix(message, "回答"), strings.HasPrefix(message, "父回答"):
		return ErrorAnswerNotFound
	case strings.HasPrefix(message, "课程"):
		return ErrorCourseNotFound
	case strings.HasPrefix(message, "草稿会话"):
		return ErrorSessionNotFound
	default:
		return ErrorNotFound
	}
}

// getConflictCode 根据冲突类型生成错误代码
func (rh *ResponseHelper) getConflictCode(message string) string {
	if strings.HasPrefix(message, "回复嵌套") {
		return ErrorReplyTooDeep
	}
	return ErrorConflict
}

// getProcessingCode 根据处理失败类型生成错误代码
func (rh *ResponseHelper) getProcessingCode(message string) string {
	if strings.HasPrefix(message, "写入分数账本") {
		return ErrorScoreStoreFailed
	}
	return ErrorInternalError
}

// getRequestID 获取请求ID
func (rh *ResponseHelper) getRequestID(c *gin.Context) string {
	if requestID := c.GetString("request_id"); requestID != "" {
		return requestID
	}
	return ""
}
