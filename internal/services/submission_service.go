// internal/services/submission_service.go
package services

import (
	apperrors "github.com/NovaCampus/EduForumHub/internal/errors"
	"github.com/NovaCampus/EduForumHub/internal/models"
	"github.com/NovaCampus/EduForumHub/internal/utils"
)

// SubmissionService 表单提交钩子和清除草稿动作
type SubmissionService struct {
	form       *models.QuestionForm
	local      DraftStore
	backup     DraftStore
	serializer *DraftSerializer
	status     *models.StatusIndicator
	autosave   *AutosaveController
	logger     *utils.Logger
}

// NewSubmissionService 创建提交服务
func NewSubmissionService(form *models.QuestionForm, local, backup DraftStore, serializer *DraftSerializer, status *models.StatusIndicator, autosave *AutosaveController) *SubmissionService {
	return &SubmissionService{
		form:       form,
		local:      local,
		backup:     backup,
		serializer: serializer,
		status:     status,
		autosave:   autosave,
		logger:     utils.GetLogger(),
	}
}

// OnSubmit 提交钩子：快照进备份层，再清掉本地层
//
// 备份写入无条件执行（空载荷也写，旧快照必须被整体覆盖而不是合并）。
// 先备份后清除的顺序保证任意时刻两层不会同时为空又同时有值，
// 不会出现双重恢复。钩子不拦截提交本身，返回快照供后续校验使用。
func (s *SubmissionService) OnSubmit() models.DraftPayload {
	s.autosave.CancelPending()

	payload := s.serializer.Serialize(s.form)

	if err := s.backup.Write(payload); err != nil {
		s.recoverStorageFailure(err)
	}

	if err := s.local.Clear(); err != nil {
		s.recoverStorageFailure(err)
	}

	s.status.Set(models.StatusSubmitting)

	return payload
}

// ClearDraft 用户显式清除草稿
// 两层全清、标题正文置空、课程重置为未选择、
// 章节下拉框只剩未选择项并禁用——这是唯一会禁用章节控件的路径
func (s *SubmissionService) ClearDraft() {
	s.autosave.CancelPending()

	if err := s.local.Clear(); err != nil {
		s.recoverStorageFailure(err)
	}
	if err := s.backup.Clear(); err != nil {
		s.recoverStorageFailure(err)
	}

	s.form.Title = ""
	s.form.Content = ""
	s.form.Course.Selected = ""
	s.form.Chapter.Reset("All chapters")
	s.form.Chapter.Disabled = true

	s.status.Set(models.StatusCleared)
}

// recoverStorageFailure 存储失败就地降级
func (s *SubmissionService) recoverStorageFailure(err error) {
	if apperrors.IsStorageUnavailable(err) {
		s.logger.Warnf("提交钩子存储降级: %v", err)
		return
	}
	s.logger.Errorf("提交钩子存储意外失败: %v", err)
}
