// internal/models/draft.go
package models

import "strings"

// DraftPayload 是唯一持久化的草稿实体
// 同一份结构同时写入本地草稿层和会话备份层
type DraftPayload struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	CourseID  string `json:"course_id"`  // 空字符串表示未选择
	ChapterID string `json:"chapter_id"` // 依赖于同一份载荷中的 CourseID
	UpdatedAt int64  `json:"updated_at"` // 毫秒时间戳，仅作展示用途
}

// IsEmpty 判断草稿是否为空载荷
// 标题和正文去除空白后都为空时，草稿视为空，不应落盘
func (p DraftPayload) IsEmpty() bool {
	return strings.TrimSpace(p.Title) == "" && strings.TrimSpace(p.Content) == ""
}
