// internal/api/router.go
package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/NovaCampus/EduForumHub/internal/config"
	"github.com/NovaCampus/EduForumHub/internal/di"
	"github.com/NovaCampus/EduForumHub/internal/services"
)

// SetupRouter 配置HTTP路由
func SetupRouter() (*gin.Engine, error) {
	// 获取配置
	cfg := config.GetCurrentConfig()

	// 获取依赖注入容器
	container := di.GetContainer()

	// 只从容器获取服务，不在这里创建新实例
	catalogService, ok := container.Get("catalog").(*services.CatalogService)
	if !ok {
		return nil, fmt.Errorf("课程目录服务未正确初始化")
	}

	forumService, ok := container.Get("forum").(*services.ForumService)
	if !ok {
		return nil, fmt.Errorf("论坛服务未正确初始化")
	}

	voteService, ok := container.Get("vote").(*services.VoteService)
	if !ok {
		return nil, fmt.Errorf("点赞服务未正确初始化")
	}

	scoreService, ok := container.Get("score").(*services.ScoreService)
	if !ok {
		return nil, fmt.Errorf("分数服务未正确初始化")
	}

	draftService, ok := container.Get("drafts").(*services.DraftSessionService)
	if !ok {
		return nil, fmt.Errorf("草稿会话服务未正确初始化")
	}

	hub, ok := container.Get("hub").(*NotificationHub)
	if !ok {
		return nil, fmt.Errorf("通知集线器未正确初始化")
	}

	// 创建API处理器 - 只传递从容器获取的服务
	handler := NewHandler(
		catalogService,
		forumService,
		voteService,
		scoreService,
		draftService,
		hub,
	)

	// 创建路由
	r := gin.Default()

	// 启用CORS
	r.Use(corsMiddleware())

	// HTTPS重定向（生产环境）
	if !cfg.DebugMode {
		r.Use(func(c *gin.Context) {
			if c.Request.Header.Get("X-Forwarded-Proto") != "https" {
				c.Redirect(http.StatusPermanentRedirect,
					"https://"+c.Request.Host+c.Request.URL.Path)
				return
			}
			c.Next()
		})
	}

	// WebSocket 支持
	r.GET("/ws/notifications", handler.NotificationsWebSocket)

	// ===============================
	// API路由组
	// ===============================
	api := r.Group("/api")
	api.Use(DefaultRateLimit())
	{
		// ===============================
		// 提问表单草稿生命周期
		// ===============================
		askGroup := api.Group("/forum/ask")
		{
			askGroup.GET("/form", handler.GetAskForm)
			askGroup.POST("/field", DraftFieldRateLimit(), handler.AskFieldChanged)
			askGroup.POST("", handler.SubmitQuestion)
			askGroup.POST("/clear", handler.ClearAskDraft)
		}

		// ===============================
		// 论坛问答
		// ===============================
		questionsGroup := api.Group("/forum/questions")
		{
			questionsGroup.GET("", handler.GetQuestions)
			questionsGroup.GET("/:question_id", handler.GetQuestion)
			questionsGroup.POST("/:question_id/answers", handler.PostAnswer)
			questionsGroup.POST("/:question_id/answers/:answer_id/replies", handler.PostReply)

			// 点赞端点
			questionsGroup.POST("/:question_id/upvote", VoteRateLimit(), handler.ToggleQuestionUpvote)
			questionsGroup.POST("/:question_id/answers/:answer_id/upvote", VoteRateLimit(), handler.ToggleAnswerUpvote)
		}

		// ===============================
		// 课程目录
		// ===============================
		coursesGroup := api.Group("/courses")
		{
			coursesGroup.GET("", handler.GetCourses)
			coursesGroup.GET("/:course_id/chapters", handler.GetChapters)
		}

		// ===============================
		// 分数存储
		// ===============================
		scoresGroup := api.Group("/scores")
		{
			scoresGroup.POST("", handler.StoreScores)
			scoresGroup.GET("/:upload_id", handler.GetScores)
		}

		// 调试路由
		wsGroup := api.Group("/ws")
		{
			wsGroup.GET("/status", handler.GetWebSocketStatus)
		}
		api.GET("/drafts/status", handler.GetDraftSessionStats)
	}

	return r, nil
}

// corsMiddleware 实现跨域资源共享
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, X-User-ID, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
