// internal/services/forum_service.go
package services

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	apperrors "github.com/NovaCampus/EduForumHub/internal/errors"
	"github.com/NovaCampus/EduForumHub/internal/models"
	"github.com/NovaCampus/EduForumHub/internal/storage"
	"github.com/NovaCampus/EduForumHub/internal/utils"
)

const (
	questionsDir = "forum/questions"

	maxTitleLen   = 255
	maxContentLen = 10000
	maxReplyLen   = 5000

	// 楼中楼回复的最大嵌套深度
	maxReplyDepth = 10
)

// ForumService 论坛问题和回答的业务逻辑
type ForumService struct {
	fs      *storage.FileStorage
	catalog *CatalogService
	logger  *utils.Logger
}

// NewForumService 创建论坛服务
func NewForumService(fs *storage.FileStorage, catalog *CatalogService) *ForumService {
	return &ForumService{
		fs:      fs,
		catalog: catalog,
		logger:  utils.GetLogger(),
	}
}

// cleanText 论坛文本清洗
// 去除首尾空白、拒绝模板标记、按上限截断；清洗后为空返回空字符串
func cleanText(text string, maxLen int) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	// 防止模板标记类内容被意外存储
	if strings.Contains(text, "{%") {
		return ""
	}
	if len(text) > maxLen {
		// 截断点落在多字节字符中间会留下非法UTF-8，回退到字符边界
		cut := maxLen
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		return text[:cut]
	}
	return text
}

// PostQuestion 发布问题
//
// 校验规则：标题和正文清洗后非空；课程必选；
// 选了章节时章节必须属于所选课程。校验失败返回带字段错误表的验证错误，
// 渲染层据此写入错误标记，恢复控制器再据此走备份分支。
func (s *ForumService) PostQuestion(author string, payload models.DraftPayload) (*models.Question, error) {
	fields := make(map[string]string)

	title := cleanText(payload.Title, maxTitleLen)
	content := cleanText(payload.Content, maxContentLen)

	if title == "" {
		fields["title"] = "Title cannot be empty (or contain invalid template tags)."
	}
	if content == "" {
		fields["content"] = "Content cannot be empty (or contain invalid template tags)."
	}
	if payload.CourseID == "" {
		fields["course"] = "Please select a course."
	} else if _, err := s.catalog.Course(payload.CourseID); err != nil {
		fields["course"] = "Unknown course."
	}

	if payload.ChapterID != "" && payload.CourseID != "" {
		if !s.catalog.ChapterBelongsTo(payload.CourseID, payload.ChapterID) {
			fields["chapter"] = "Selected chapter does not belong to that course."
		}
	}

	if len(fields) > 0 {
		return nil, apperrors.NewValidationError("表单校验失败", fields)
	}

	question := &models.Question{
		ID:        fmt.Sprintf("q_%d", time.Now().UnixNano()),
		Title:     title,
		Content:   content,
		CourseID:  payload.CourseID,
		ChapterID: payload.ChapterID,
		Author:    author,
		CreatedAt: time.Now(),
		Upvotes:   []string{},
		Answers:   []models.Answer{},
	}

	if err := s.saveQuestion(question); err != nil {
		return nil, err
	}

	return question, nil
}

// GetQuestion 按ID读取问题
func (s *ForumService) GetQuestion(questionID string) (*models.Question, error) {
	filename := questionID + ".json"
	if !s.fs.FileExists(questionsDir, filename) {
		return nil, apperrors.NewNotFoundError("问题不存在: "+questionID, nil)
	}

	var question models.Question
	if err := s.fs.LoadJSONFile(questionsDir, filename, &question); err != nil {
		return nil, apperrors.NewProcessingError("读取问题失败", err)
	}

	return &question, nil
}

// saveQuestion 保存问题文档
func (s *ForumService) saveQuestion(q *models.Question) error {
	if err := s.fs.SaveJSONFile(questionsDir, q.ID+".json", q); err != nil {
		return apperrors.NewProcessingError("保存问题失败", err)
	}
	return nil
}

// ListQuestions 问题列表
// q 在标题和正文中做子串匹配；sort 支持 new / upvotes / answers
func (s *ForumService) ListQuestions(query, courseID, chapterID, sortBy string) ([]*models.Question, error) {
	files, err := s.fs.ListFiles(questionsDir)
	if err != nil {
		return nil, apperrors.NewProcessingError("读取问题列表失败", err)
	}

	var questions []*models.Question
	for _, f := range files {
		var q models.Question
		if err := s.fs.LoadJSONFile(questionsDir, f, &q); err != nil {
			// 单个损坏文件不拖垮整个列表
			s.logger.Warnf("跳过损坏的问题文件 %s: %v", f, err)
			continue
		}

		if courseID != "" && q.CourseID != courseID {
			continue
		}
		if chapterID != "" && q.ChapterID != chapterID {
			continue
		}
		if query != "" {
			lower := strings.ToLower(query)
			if !strings.Contains(strings.ToLower(q.Title), lower) &&
				!strings.Contains(strings.ToLower(q.Content), lower) {
				continue
			}
		}

		questions = append(questions, &q)
	}

	switch sortBy {
	case "upvotes":
		sort.Slice(questions, func(i, j int) bool {
			if questions[i].UpvoteCount() != questions[j].UpvoteCount() {
				return questions[i].UpvoteCount() > questions[j].UpvoteCount()
			}
			return questions[i].CreatedAt.After(questions[j].CreatedAt)
		})
	case "answers":
		sort.Slice(questions, func(i, j int) bool {
			if questions[i].TopAnswerCount() != questions[j].TopAnswerCount() {
				return questions[i].TopAnswerCount() > questions[j].TopAnswerCount()
			}
			return questions[i].CreatedAt.After(questions[j].CreatedAt)
		})
	default:
		sort.Slice(questions, func(i, j int) bool {
			return questions[i].CreatedAt.After(questions[j].CreatedAt)
		})
	}

	return questions, nil
}

// PostAnswer 发布顶层回答
func (s *ForumService) PostAnswer(questionID, author, content string) (*models.Answer, error) {
	return s.postAnswer(questionID, "", author, content, maxContentLen)
}

// PostReply 发布楼中楼回复，嵌套深度超限时拒绝
func (s *ForumService) PostReply(questionID, parentID, author, content string) (*models.Answer, error) {
	if parentID == "" {
		return nil, apperrors.NewValidationError("缺少父回答", map[string]string{"parent": "required"})
	}
	return s.postAnswer(questionID, parentID, author, content, maxReplyLen)
}

func (s *ForumService) postAnswer(questionID, parentID, author, content string, maxLen int) (*models.Answer, error) {
	cleaned := cleanText(content, maxLen)
	if cleaned == "" {
		return nil, apperrors.NewValidationError("回答内容无效", map[string]string{"content": "invalid content"})
	}

	question, err := s.GetQuestion(questionID)
	if err != nil {
		return nil, err
	}

	if parentID != "" {
		idx := question.FindAnswer(parentID)
		if idx < 0 {
			return nil, apperrors.NewNotFoundError("父回答不存在: "+parentID, nil)
		}
		if s.answerDepth(question, parentID) >= maxReplyDepth {
			return nil, apperrors.NewConflictError(fmt.Sprintf("回复嵌套达到上限 (%d)", maxReplyDepth), nil)
		}
	}

	answer := models.Answer{
		ID:        "a_" + uuid.NewString(),
		ParentID:  parentID,
		Content:   cleaned,
		Author:    author,
		CreatedAt: time.Now(),
		Upvotes:   []string{},
	}

	question.Answers = append(question.Answers, answer)

	if err := s.saveQuestion(question); err != nil {
		return nil, err
	}

	return &answer, nil
}

// answerDepth 回答在回复树中的深度，顶层为0
func (s *ForumService) answerDepth(q *models.Question, answerID string) int {
	depth := 0
	cur := answerID
	for cur != "" && depth < 50 {
		idx := q.FindAnswer(cur)
		if idx < 0 {
			break
		}
		cur = q.Answers[idx].ParentID
		if cur != "" {
			depth++
		}
	}
	return depth
}
