// internal/api/handlers.go
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/NovaCampus/EduForumHub/internal/errors"
	"github.com/NovaCampus/EduForumHub/internal/services"
)

// Handler 处理API请求
type Handler struct {
	// 核心服务
	CatalogService *services.CatalogService      // 课程目录服务
	ForumService   *services.ForumService        // 论坛服务
	VoteService    *services.VoteService         // 点赞服务
	ScoreService   *services.ScoreService        // 分数存储服务
	DraftService   *services.DraftSessionService // 草稿会话服务
	Hub            *NotificationHub              // WebSocket 通知集线器
	Response       *ResponseHelper               // 响应助手
}

// NewHandler 创建API处理器
func NewHandler(
	catalogService *services.CatalogService,
	forumService *services.ForumService,
	voteService *services.VoteService,
	scoreService *services.ScoreService,
	draftService *services.DraftSessionService,
	hub *NotificationHub,
) *Handler {
	return &Handler{
		CatalogService: catalogService,
		ForumService:   forumService,
		VoteService:    voteService,
		ScoreService:   scoreService,
		DraftService:   draftService,
		Hub:            hub,
		Response:       NewResponseHelper(),
	}
}

// APIResponse 标准API响应格式
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"` // 用于调试和追踪
}

// APIError 标准错误格式
type APIError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"` // 校验错误的逐字段说明
}

// ------------------------------------------------
// 提问表单草稿生命周期
// ------------------------------------------------

// AskFieldRequest 表单字段变更的请求结构
type AskFieldRequest struct {
	SessionID string `json:"session_id"` // 会话ID
	Field     string `json:"field"`      // 字段名：title/content/course/chapter
	Value     string `json:"value"`      // 新值
}

// AskSubmitRequest 提交提问的请求结构
type AskSubmitRequest struct {
	SessionID string `json:"session_id"` // 会话ID
	Author    string `json:"author"`     // 提问人
}

// AskSessionRequest 只带会话ID的请求结构
type AskSessionRequest struct {
	SessionID string `json:"session_id"`
}

// GetAskForm 页面加载：打开（或复用）草稿会话并返回渲染好的表单
//
// GET /api/forum/ask/form?session_id=&client_id=&error_marker=
func (h *Handler) GetAskForm(c *gin.Context) {
	sessionID := c.Query("session_id")
	clientID := c.Query("client_id")
	errorMarker := c.Query("error_marker")

	sess, err := h.DraftService.OpenSession(c.Request.Context(), sessionID, clientID, errorMarker)
	if err != nil {
		h.Response.AppError(c, err)
		return
	}

	h.Response.Success(c, sess.Snapshot())
}

// AskFieldChanged 表单字段变更事件
//
// POST /api/forum/ask/field
func (h *Handler) AskFieldChanged(c *gin.Context) {
	var req AskFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "无效的请求格式", err.Error())
		return
	}

	if err := h.DraftService.FieldChanged(req.SessionID, req.Field, req.Value); err != nil {
		h.Response.AppError(c, err)
		return
	}

	sess, err := h.DraftService.Session(req.SessionID)
	if err != nil {
		h.Response.AppError(c, err)
		return
	}

	h.Response.Success(c, sess.Snapshot())
}

// SubmitQuestion 提交提问
//
// 提交钩子先落备份、清本地草稿，再做校验；校验失败时错误留在
// 会话上，下一次 GetAskForm 带 error_marker=1 会从备份恢复
//
// POST /api/forum/ask
func (h *Handler) SubmitQuestion(c *gin.Context) {
	var req AskSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "无效的请求格式", err.Error())
		return
	}

	payload, err := h.DraftService.Submit(req.SessionID)
	if err != nil {
		h.Response.AppError(c, err)
		return
	}

	question, err := h.ForumService.PostQuestion(req.Author, payload)
	if err != nil {
		if fields := apperrors.ValidationFields(err); len(fields) > 0 {
			h.DraftService.RecordSubmitErrors(req.SessionID, fields)
		}
		h.Response.AppError(c, err)
		return
	}

	h.Response.Created(c, question, "提问已发布")
}

// ClearAskDraft 显式清除草稿
//
// POST /api/forum/ask/clear
func (h *Handler) ClearAskDraft(c *gin.Context) {
	var req AskSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "无效的请求格式", err.Error())
		return
	}

	if err := h.DraftService.ClearDraft(req.SessionID); err != nil {
		h.Response.AppError(c, err)
		return
	}

	sess, err := h.DraftService.Session(req.SessionID)
	if err != nil {
		h.Response.AppError(c, err)
		return
	}

	h.Response.Success(c, sess.Snapshot(), "草稿已清除")
}

// ------------------------------------------------
// 论坛问答
// ------------------------------------------------

// PostAnswerRequest 发布回答的请求结构
type PostAnswerRequest struct {
	Author  string `json:"author"`
	Content string `json:"content"`
}

// GetQuestions 检索问题列表
//
// GET /api/forum/questions?query=&course_id=&chapter_id=&sort=
func (h *Handler) GetQuestions(c *gin.Context) {
	questions, err := h.ForumService.ListQuestions(
		c.Query("query"),
		c.Query("course_id"),
		c.Query("chapter_id"),
		c.Query("sort"),
	)
	if err != nil {
		h.Response.AppError(c, err)
		return
	}

	h.Response.Success(c, questions)
}

// GetQuestion 获取单个问题
func (h *Handler) GetQuestion(c *gin.Context) {
	question, err := h.ForumService.GetQuestion(c.Param("question_id"))
	if err != nil {
		h.Response.AppError(c, err)
		return
	}

	h.Response.Success(c, question)
}

// PostAnswer 发布回答
func (h *Handler) PostAnswer(c *gin.Context) {
	var req PostAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "无效的请求格式", err.Error())
		return
	}

	answer, err := h.ForumService.PostAnswer(c.Param("question_id"), req.Author, req.Content)
	if err != nil {
		h.Response.AppError(c, err)
		return
	}

	h.Response.Created(c, answer, "回答已发布")
}

// PostReply 发布楼中楼回复
func (h *Handler) PostReply(c *gin.Context) {
	var req PostAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "无效的请求格式", err.Error())
		return
	}

	reply, err := h.ForumService.PostReply(c.Param("question_id"), c.Param("answer_id"), req.Author, req.Content)
	if err != nil {
		h.Response.AppError(c, err)
		return
	}

	h.Response.Created(c, reply, "回复已发布")
}

// ------------------------------------------------
// 点赞端点（扁平响应，前端按钮直接消费）
// ------------------------------------------------

// voteUserID 点赞人标识，header 优先
func voteUserID(c *gin.Context) string {
	if userID := c.GetHeader("X-User-ID"); userID != "" {
		return userID
	}

	var body struct {
		UserID string `json:"user_id"`
	}
	if err := c.ShouldBindJSON(&body); err == nil {
		return body.UserID
	}
	return ""
}

// ToggleQuestionUpvote 切换问题点赞
//
// POST /api/forum/questions/:question_id/upvote
// 响应是扁平的 {ok, state, count}
func (h *Handler) ToggleQuestionUpvote(c *gin.Context) {
	userID := voteUserID(c)
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "missing user id"})
		return
	}

	result, err := h.VoteService.ToggleQuestionUpvote(c.Param("question_id"), userID)
	if err != nil {
		status := http.StatusInternalServerError
		if apperrors.IsNotFoundError(err) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// ToggleAnswerUpvote 切换回答点赞
//
// POST /api/forum/questions/:question_id/answers/:answer_id/upvote
func (h *Handler) ToggleAnswerUpvote(c *gin.Context) {
	userID := voteUserID(c)
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "missing user id"})
		return
	}

	result, err := h.VoteService.ToggleAnswerUpvote(c.Param("question_id"), c.Param("answer_id"), userID)
	if err != nil {
		status := http.StatusInternalServerError
		if apperrors.IsNotFoundError(err) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// ------------------------------------------------
// 课程目录
// ------------------------------------------------

// GetCourses 获取课程列表
func (h *Handler) GetCourses(c *gin.Context) {
	courses, err := h.CatalogService.Courses()
	if err != nil {
		h.Response.AppError(c, err)
		return
	}

	h.Response.Success(c, courses)
}

// GetChapters 获取课程的章节列表（扁平响应，下拉框直接消费）
//
// GET /api/courses/:course_id/chapters
func (h *Handler) GetChapters(c *gin.Context) {
	chapters, err := h.CatalogService.Chapters(c.Param("course_id"))
	if err != nil {
		status := http.StatusInternalServerError
		if apperrors.IsNotFoundError(err) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "chapters": chapters})
}

// ------------------------------------------------
// 分数存储
// ------------------------------------------------

// StoreScoresRequest 分数入账的请求结构
// 分数是0-100的小数，落盘前乘100转定点整数
type StoreScoresRequest struct {
	UploadID     string  `json:"upload_id"`
	Clarity      float64 `json:"clarity"`
	Coherence    float64 `json:"coherence"`
	Engagement   float64 `json:"engagement"`
	Accuracy     float64 `json:"accuracy"`
	Completeness float64 `json:"completeness"`
}

// StoreScores 存储一次上传的评分
//
// POST /api/scores
func (h *Handler) StoreScores(c *gin.Context) {
	var req StoreScoresRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "无效的请求格式", err.Error())
		return
	}

	if req.UploadID == "" {
		h.Response.BadRequest(c, "缺少上传ID")
		return
	}

	record, err := h.ScoreService.StoreScores(req.UploadID,
		req.Clarity, req.Coherence, req.Engagement, req.Accuracy, req.Completeness)
	if err != nil {
		h.Response.AppError(c, err)
		return
	}

	h.Response.Success(c, record, "分数已入账")
}

// GetScores 查询一次上传的评分，未知ID返回全零记录
func (h *Handler) GetScores(c *gin.Context) {
	record, err := h.ScoreService.GetScores(c.Param("upload_id"))
	if err != nil {
		h.Response.AppError(c, err)
		return
	}

	h.Response.Success(c, record)
}

// ------------------------------------------------
// WebSocket
// ------------------------------------------------

// NotificationsWebSocket 处理通知 WebSocket 连接
func (h *Handler) NotificationsWebSocket(c *gin.Context) {
	h.Hub.HandleConnection(c)
}

// GetWebSocketStatus 获取 WebSocket 连接统计
func (h *Handler) GetWebSocketStatus(c *gin.Context) {
	h.Response.Success(c, h.Hub.Stats())
}

// GetDraftSessionStats 草稿会话统计，调试用
func (h *Handler) GetDraftSessionStats(c *gin.Context) {
	h.Response.Success(c, gin.H{"active_sessions": h.DraftService.Count()})
}
