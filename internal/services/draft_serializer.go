// internal/services/draft_serializer.go
package services

import (
	"github.com/NovaCampus/EduForumHub/internal/models"
)

// DraftSerializer 负责表单与草稿载荷之间的转换
type DraftSerializer struct {
	clock Clock
}

// NewDraftSerializer 创建草稿序列化器
func NewDraftSerializer(clock Clock) *DraftSerializer {
	if clock == nil {
		clock = SystemClock()
	}
	return &DraftSerializer{clock: clock}
}

// Serialize 读取四个表单控件的当前值生成草稿载荷，永不失败
// nil 表单映射为全空载荷
func (s *DraftSerializer) Serialize(form *models.QuestionForm) models.DraftPayload {
	payload := models.DraftPayload{
		UpdatedAt: s.clock.Now().UnixMilli(),
	}
	if form == nil {
		return payload
	}

	payload.Title = form.Title
	payload.Content = form.Content
	payload.CourseID = form.Course.Value()
	payload.ChapterID = form.Chapter.Value()

	return payload
}

// IsEmpty 标题和正文去除空白后都为空时草稿视为空
func (s *DraftSerializer) IsEmpty(payload models.DraftPayload) bool {
	return payload.IsEmpty()
}
