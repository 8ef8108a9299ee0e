// internal/errors/errors.go
package errors

import (
	"errors"
	"fmt"
)

// ErrorType 定义错误类型
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation_error"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeError      ErrorType = "processing_error"
	ErrorTypeConflict   ErrorType = "conflict"

	// ErrorTypeStorageUnavailable 存储层不可用（配额、磁盘、权限）
	// 草稿功能遇到该错误时就地降级为"无自动保存"，绝不向用户暴露
	ErrorTypeStorageUnavailable ErrorType = "storage_unavailable"
)

// AppError 应用程序错误结构
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
	Code    string // 用户友好的错误代码

	// Fields 校验错误时按字段附带的错误说明
	Fields map[string]string
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap 实现错误链接
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError 创建新的 AppError
func NewAppError(errType ErrorType, message string, originalError error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     originalError,
		Code:    generateErrorCode(errType),
	}
}

// NewValidationError 创建验证错误
func NewValidationError(message string, fields map[string]string) *AppError {
	e := NewAppError(ErrorTypeValidation, message, nil)
	e.Fields = fields
	return e
}

// NewNotFoundError 创建未找到错误
func NewNotFoundError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeNotFound, message, originalError)
}

// NewProcessingError 创建处理错误
func NewProcessingError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeError, message, originalError)
}

// NewConflictError 创建冲突错误
func NewConflictError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeConflict, message, originalError)
}

// NewStorageUnavailableError 创建存储不可用错误
func NewStorageUnavailableError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeStorageUnavailable, message, originalError)
}

// IsValidationError 检查是否为验证错误
func IsValidationError(err error) bool {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError.Type == ErrorTypeValidation
	}
	return false
}

// IsNotFoundError 检查是否为未找到错误
func IsNotFoundError(err error) bool {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError.Type == ErrorTypeNotFound
	}
	return false
}

// IsConflictError 检查是否为冲突错误
func IsConflictError(err error) bool {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError.Type == ErrorTypeConflict
	}
	return false
}

// IsStorageUnavailable 检查是否为存储不可用错误
func IsStorageUnavailable(err error) bool {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError.Type == ErrorTypeStorageUnavailable
	}
	return false
}

// ValidationFields 取出验证错误携带的字段错误表，非验证错误返回 nil
func ValidationFields(err error) map[string]string {
	var appError *AppError
	if errors.As(err, &appError) && appError.Type == ErrorTypeValidation {
		return appError.Fields
	}
	return nil
}

// generateErrorCode 根据错误类型生成错误代码
func generateErrorCode(errType ErrorType) string {
	switch errType {
	case ErrorTypeValidation:
		return "VALIDATION_ERROR"
	case ErrorTypeNotFound:
		return "NOT_FOUND"
	case ErrorTypeError:
		return "PROCESSING_ERROR"
	case ErrorTypeConflict:
		return "CONFLICT"
	case ErrorTypeStorageUnavailable:
		return "STORAGE_UNAVAILABLE"
	default:
		return "UNKNOWN_ERROR"
	}
}

// WrapError 包装现有错误
func WrapError(err error, message string, errType ErrorType) error {
	if err == nil {
		return nil
	}

	var appError *AppError
	if errors.As(err, &appError) {
		// 如果已经是 AppError，只更新消息
		return &AppError{
			Type:    appError.Type,
			Message: fmt.Sprintf("%s: %s", message, appError.Message),
			Err:     appError,
			Code:    appError.Code,
			Fields:  appError.Fields,
		}
	}

	// 否则创建新的 AppError
	return NewAppError(errType, message, err)
}
