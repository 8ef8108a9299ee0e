// internal/services/draft_session_service.go
package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	apperrors "github.com/NovaCampus/EduForumHub/internal/errors"
	"github.com/NovaCampus/EduForumHub/internal/models"
	"github.com/NovaCampus/EduForumHub/internal/storage"
	"github.com/NovaCampus/EduForumHub/internal/utils"
)

// DraftSession 一个标签页的提问表单生命周期
// 表单、两层存储和三个控制器捆绑在一起；所有请求在会话锁下串行执行，
// 等价于浏览器里的单事件循环，控制器之间不会交错到写操作中间
type DraftSession struct {
	ID       string
	ClientID string

	Form       *models.QuestionForm
	Status     *models.StatusIndicator
	Autosave   *AutosaveController
	Submission *SubmissionService

	local  *LocalDraftStore
	backup *SessionBackupStore

	// lastSubmitErrors 上一次提交失败留下的字段错误，重新渲染时消费
	lastSubmitErrors map[string]string

	mu sync.Mutex
}

// DraftSessionService 管理所有页面会话
// 会话放在 TTL 缓存里，标签页关闭后随过期一起消失
type DraftSessionService struct {
	sessions *cache.Cache
	fs       *storage.FileStorage
	catalog  *CatalogService
	clock    Clock
	logger   *utils.Logger

	quiescence time.Duration
	sessionTTL time.Duration
	localKey   string
	backupKey  string
}

// NewDraftSessionService 创建草稿会话服务
func NewDraftSessionService(fs *storage.FileStorage, catalog *CatalogService, clock Clock, quiescence, sessionTTL time.Duration, localKey, backupKey string) *DraftSessionService {
	if clock == nil {
		clock = SystemClock()
	}
	if sessionTTL <= 0 {
		sessionTTL = 30 * time.Minute
	}

	return &DraftSessionService{
		sessions:   cache.New(sessionTTL, 10*time.Minute),
		fs:         fs,
		catalog:    catalog,
		clock:      clock,
		logger:     utils.GetLogger(),
		quiescence: quiescence,
		sessionTTL: sessionTTL,
		localKey:   localKey,
		backupKey:  backupKey,
	}
}

// OpenSession 页面加载：构建表单、跑恢复控制器、挂自动保存监听器
//
// sessionID 为空表示新标签页；传已有ID则复用该会话的备份层，
// 对应提交后服务端重新渲染的同一标签页。errorMarker 是渲染层
// 写入的隐藏字段值；上一次提交失败留下的字段错误会作为表单装饰被消费。
func (s *DraftSessionService) OpenSession(ctx context.Context, sessionID, clientID, errorMarker string) (*DraftSession, error) {
	if clientID == "" {
		return nil, apperrors.NewValidationError("缺少客户端标识", map[string]string{"client_id": "required"})
	}

	sess, exists := s.get(sessionID)
	if !exists {
		sess = &DraftSession{
			ID:       uuid.NewString(),
			ClientID: clientID,
			backup:   NewSessionBackupStore(s.backupKey, s.sessionTTL),
		}
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	// 每次加载都是一张新渲染的表单
	form := &models.QuestionForm{
		ErrorMarker: errorMarker,
		FieldErrors: sess.lastSubmitErrors,
	}
	sess.lastSubmitErrors = nil

	form.Course.SetOptions(s.catalog.CourseOptions())
	form.Chapter.Reset(chapterUnsetLabel)
	form.Chapter.Disabled = true

	status := &models.StatusIndicator{}
	local := NewLocalDraftStore(s.fs, clientID, s.localKey)
	serializer := NewDraftSerializer(s.clock)

	// 恢复必须先于监听器注册完成
	recovery := NewRecoveryController(form, local, sess.backup, s.catalog, status)
	recovery.Run(ctx)

	autosave := NewAutosaveController(form, local, serializer, status, s.clock, s.quiescence)
	autosave.BindLocker(&sess.mu)
	autosave.Attach()

	if sess.Autosave != nil {
		// 旧表单上可能还挂着一个没到期的定时器
		sess.Autosave.CancelPending()
	}

	sess.Form = form
	sess.Status = status
	sess.local = local
	sess.Autosave = autosave
	sess.Submission = NewSubmissionService(form, local, sess.backup, serializer, status, autosave)

	s.sessions.Set(sess.ID, sess, cache.DefaultExpiration)

	return sess, nil
}

// get 按ID取会话
func (s *DraftSessionService) get(sessionID string) (*DraftSession, bool) {
	if sessionID == "" {
		return nil, false
	}
	if x, found := s.sessions.Get(sessionID); found {
		return x.(*DraftSession), true
	}
	return nil, false
}

// Session 按ID取会话，供处理器使用
func (s *DraftSessionService) Session(sessionID string) (*DraftSession, error) {
	sess, found := s.get(sessionID)
	if !found {
		return nil, apperrors.NewNotFoundError("草稿会话不存在或已过期", nil)
	}

	// 每次访问续期
	s.sessions.Set(sess.ID, sess, cache.DefaultExpiration)

	return sess, nil
}

// FieldChanged 字段变更事件，驱动自动保存的防抖窗口
func (s *DraftSessionService) FieldChanged(sessionID, field, value string) error {
	sess, err := s.Session(sessionID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	switch field {
	case "title":
		sess.Form.SetTitle(value)
	case "content":
		sess.Form.SetContent(value)
	case "course":
		if value == "" {
			sess.Form.Course.Selected = ""
			sess.Form.Chapter.Reset(chapterUnsetLabel)
			sess.Form.Chapter.Disabled = true
			sess.Form.Touch()
			return nil
		}
		if !sess.Form.SelectCourse(value) {
			return apperrors.NewValidationError("未知课程", map[string]string{"course": "unknown course"})
		}
		// 课程变更后章节选项必须重建，旧选中值一律作废
		s.catalog.LoadChapters(context.Background(), value, &sess.Form.Chapter, "")
	case "chapter":
		if value == "" {
			sess.Form.Chapter.Selected = ""
			sess.Form.Touch()
			return nil
		}
		if !sess.Form.SelectChapter(value) {
			// 选了一个不在选项里的值：静默空操作
			return nil
		}
	default:
		return apperrors.NewValidationError("未知字段: "+field, map[string]string{"field": "unknown"})
	}

	return nil
}

// Submit 提交钩子：快照备份、清本地草稿，返回提交时的载荷
func (s *DraftSessionService) Submit(sessionID string) (models.DraftPayload, error) {
	sess, err := s.Session(sessionID)
	if err != nil {
		return models.DraftPayload{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	return sess.Submission.OnSubmit(), nil
}

// RecordSubmitErrors 提交校验失败，错误装饰留给下一次渲染消费
func (s *DraftSessionService) RecordSubmitErrors(sessionID string, fields map[string]string) {
	sess, found := s.get(sessionID)
	if !found {
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastSubmitErrors = fields
}

// ClearDraft 显式清除草稿动作
func (s *DraftSessionService) ClearDraft(sessionID string) error {
	sess, err := s.Session(sessionID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.Submission.ClearDraft()
	return nil
}

// Count 活跃会话数
func (s *DraftSessionService) Count() int {
	return s.sessions.ItemCount()
}

// SelectSnapshot 下拉控件的可序列化快照
type SelectSnapshot struct {
	Options  []models.SelectOption `json:"options"`
	Selected string                `json:"selected"`
	Disabled bool                  `json:"disabled"`
}

// DraftSnapshot 表单当前状态，渲染层直接序列化返回
type DraftSnapshot struct {
	SessionID     string            `json:"session_id"`
	Title         string            `json:"title"`
	Content       string            `json:"content"`
	Course        SelectSnapshot    `json:"course"`
	Chapter       SelectSnapshot    `json:"chapter"`
	Status        string            `json:"status"`
	AutosaveState string            `json:"autosave_state"`
	FieldErrors   map[string]string `json:"field_errors,omitempty"`
}

// Snapshot 在会话锁下读出表单快照
func (sess *DraftSession) Snapshot() DraftSnapshot {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	return DraftSnapshot{
		SessionID: sess.ID,
		Title:     sess.Form.Title,
		Content:   sess.Form.Content,
		Course: SelectSnapshot{
			Options:  sess.Form.Course.Options,
			Selected: sess.Form.Course.Selected,
			Disabled: sess.Form.Course.Disabled,
		},
		Chapter: SelectSnapshot{
			Options:  sess.Form.Chapter.Options,
			Selected: sess.Form.Chapter.Selected,
			Disabled: sess.Form.Chapter.Disabled,
		},
		Status:        string(sess.Status.Text()),
		AutosaveState: sess.Autosave.State().String(),
		FieldErrors:   sess.Form.FieldErrors,
	}
}
