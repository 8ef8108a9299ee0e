// internal/services/recovery_service.go
package services

import (
	"context"

	apperrors "github.com/NovaCampus/EduForumHub/internal/errors"
	"github.com/NovaCampus/EduForumHub/internal/models"
	"github.com/NovaCampus/EduForumHub/internal/utils"
)

// ChapterLoader 章节填充协作方
// 给定课程ID，清空并重建章节下拉框的选项（第一项永远是"全部/未选择"），
// courseID 为空时禁用下拉框；selectedID 命中某个选项时将其选中
type ChapterLoader interface {
	LoadChapters(ctx context.Context, courseID string, sel *models.SelectControl, selectedID string)
}

// RecoveryController 页面加载时决定从哪一层恢复草稿
// 在自动保存控制器挂监听器之前同步跑一次，避免填充动作触发保存
type RecoveryController struct {
	form     *models.QuestionForm
	local    DraftStore
	backup   DraftStore
	chapters ChapterLoader
	status   *models.StatusIndicator
	logger   *utils.Logger
}

// NewRecoveryController 创建恢复控制器
func NewRecoveryController(form *models.QuestionForm, local, backup DraftStore, chapters ChapterLoader, status *models.StatusIndicator) *RecoveryController {
	return &RecoveryController{
		form:     form,
		local:    local,
		backup:   backup,
		chapters: chapters,
		status:   status,
		logger:   utils.GetLogger(),
	}
}

// Run 执行一次恢复决策
//
// 校验失败返回：读备份层恢复，把同一份载荷重新写回本地层，
// 这样连续两次提交失败也不会丢数据；备份消费完即清除，
// 下一次提交钩子会重新落一份快照。
// 干净加载：无条件清掉备份层（陈旧快照已无意义），再看本地层。
// 两层都没有数据时保持服务端渲染的表单原样。
func (r *RecoveryController) Run(ctx context.Context) {
	if r.hasErrors() {
		payload, ok := r.backup.Read()
		if !ok {
			return
		}

		// 备份一经消费就清除
		if err := r.backup.Clear(); err != nil {
			r.recoverStorageFailure(err)
		}

		// 提交钩子对空表单也落备份，但空载荷无可恢复，
		// 更不能以空记录的形式落进本地层
		if payload.IsEmpty() {
			return
		}

		r.hydrate(ctx, payload)

		// 把备份重新落回本地层，防止下一次失败提交后无家可归
		if err := r.local.Write(payload); err != nil {
			r.recoverStorageFailure(err)
		}

		r.status.Set(models.StatusRestoredErrors)
		return
	}

	// 干净加载：上一次提交要么成功要么没发生，备份快照一律作废
	if err := r.backup.Clear(); err != nil {
		r.recoverStorageFailure(err)
	}

	payload, ok := r.local.Read()
	if !ok {
		return
	}

	r.hydrate(ctx, payload)
	r.status.Set(models.StatusRestored)
}

// hasErrors 渲染层给出的校验失败信号
// 隐藏字段为"1"，或表单带有校验错误装饰
func (r *RecoveryController) hasErrors() bool {
	return r.form.ErrorMarker == "1" || r.form.HasErrorDecorations()
}

// hydrate 用载荷填充当前为空的字段
// 用户在控制器跑完之前已经输入的内容绝不覆盖
func (r *RecoveryController) hydrate(ctx context.Context, payload models.DraftPayload) {
	if r.form.Title == "" {
		r.form.Title = payload.Title
	}
	if r.form.Content == "" {
		r.form.Content = payload.Content
	}

	if payload.CourseID == "" {
		return
	}

	if r.form.Course.Value() == "" {
		r.form.Course.Select(payload.CourseID)
	}

	// 章节选中值只有在该课程的选项填充完成之后才能应用，
	// 否则会选中一个还不存在的选项
	if r.form.Course.Value() == payload.CourseID {
		r.chapters.LoadChapters(ctx, payload.CourseID, &r.form.Chapter, payload.ChapterID)
	}
}

// recoverStorageFailure 存储失败就地降级，不打断恢复流程
func (r *RecoveryController) recoverStorageFailure(err error) {
	if apperrors.IsStorageUnavailable(err) {
		r.logger.Warnf("恢复期间存储降级: %v", err)
		return
	}
	r.logger.Errorf("恢复期间存储意外失败: %v", err)
}
