// internal/errors/errors_test.go
package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationErrorCarriesFields(t *testing.T) {
	err := NewValidationError("表单校验失败", map[string]string{
		"title":  "Title cannot be empty.",
		"course": "Please select a course.",
	})

	assert.True(t, IsValidationError(err))
	assert.False(t, IsNotFoundError(err))

	fields := ValidationFields(err)
	require.Len(t, fields, 2)
	assert.Equal(t, "Please select a course.", fields["course"])
}

func TestValidationFieldsOnOtherErrors(t *testing.T) {
	assert.Nil(t, ValidationFields(NewNotFoundError("missing", nil)))
	assert.Nil(t, ValidationFields(errors.New("plain")))
	assert.Nil(t, ValidationFields(nil))
}

func TestStorageUnavailable(t *testing.T) {
	cause := errors.New("disk full")
	err := NewStorageUnavailableError("写入本地草稿失败", cause)

	assert.True(t, IsStorageUnavailable(err))
	assert.ErrorIs(t, err, cause)

	// 包装一层后类型判断仍然成立
	wrapped := fmt.Errorf("autosave: %w", err)
	assert.True(t, IsStorageUnavailable(wrapped))
}

func TestWrapErrorPreservesTypeAndFields(t *testing.T) {
	inner := NewValidationError("bad input", map[string]string{"title": "required"})
	wrapped := WrapError(inner, "提交失败", ErrorTypeError)

	assert.True(t, IsValidationError(wrapped), "包装不改变原始错误类型")
	assert.Equal(t, map[string]string{"title": "required"}, ValidationFields(wrapped))
	assert.Contains(t, wrapped.Error(), "提交失败")
}

func TestWrapPlainError(t *testing.T) {
	wrapped := WrapError(errors.New("io error"), "读取失败", ErrorTypeError)

	var appErr *AppError
	require.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, ErrorTypeError, appErr.Type)

	assert.Nil(t, WrapError(nil, "nothing", ErrorTypeError))
}

func TestErrorCodes(t *testing.T) {
	assert.Equal(t, "VALIDATION_ERROR", NewValidationError("x", nil).Code)
	assert.Equal(t, "NOT_FOUND", NewNotFoundError("x", nil).Code)
	assert.Equal(t, "STORAGE_UNAVAILABLE", NewStorageUnavailableError("x", nil).Code)
}
