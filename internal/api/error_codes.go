// internal/api/error_codes.go
package api

// API错误代码常量
const (
	// 通用错误
	ErrorBadRequest       = "BAD_REQUEST"
	ErrorNotFound         = "NOT_FOUND"
	ErrorInternalError    = "INTERNAL_ERROR"
	ErrorConflict         = "CONFLICT"
	ErrorValidationFailed = "VALIDATION_FAILED"

	// 草稿相关错误
	ErrorSessionNotFound    = "DRAFT_SESSION_NOT_FOUND"
	ErrorStorageUnavailable = "STORAGE_UNAVAILABLE"

	// 论坛相关错误
	ErrorQuestionNotFound = "QUESTION_NOT_FOUND"
	ErrorAnswerNotFound   = "ANSWER_NOT_FOUND"
	ErrorReplyTooDeep     = "REPLY_TOO_DEEP"

	// 目录相关错误
	ErrorCourseNotFound = "COURSE_NOT_FOUND"

	// 分数相关错误
	ErrorScoreStoreFailed = "SCORE_STORE_FAILED"
)
