// internal/models/forum.go
package models

import "time"

// Question 论坛问题，每个问题一个 JSON 文件
type Question struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CourseID  string    `json:"course_id"`
	ChapterID string    `json:"chapter_id,omitempty"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`

	// Upvotes 点赞用户ID列表，一人最多一票
	Upvotes []string `json:"upvotes"`

	Answers []Answer `json:"answers"`
}

// Answer 回答或回复；ParentID 为空表示顶层回答
type Answer struct {
	ID        string    `json:"id"`
	ParentID  string    `json:"parent_id,omitempty"`
	Content   string    `json:"content"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
	Upvotes   []string  `json:"upvotes"`
}

// UpvoteCount 问题的点赞数
func (q *Question) UpvoteCount() int {
	return len(q.Upvotes)
}

// TopAnswerCount 顶层回答数（不含楼中楼回复）
func (q *Question) TopAnswerCount() int {
	n := 0
	for _, a := range q.Answers {
		if a.ParentID == "" {
			n++
		}
	}
	return n
}

// FindAnswer 按ID查找回答，返回索引，未找到时 -1
func (q *Question) FindAnswer(answerID string) int {
	for i := range q.Answers {
		if q.Answers[i].ID == answerID {
			return i
		}
	}
	return -1
}
