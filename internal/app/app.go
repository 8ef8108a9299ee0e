// internal/app/app.go
package app

import (
	"fmt"
	"path/filepath"

	"github.com/NovaCampus/EduForumHub/internal/api"
	"github.com/NovaCampus/EduForumHub/internal/config"
	"github.com/NovaCampus/EduForumHub/internal/di"
	"github.com/NovaCampus/EduForumHub/internal/services"
	"github.com/NovaCampus/EduForumHub/internal/storage"
	"github.com/NovaCampus/EduForumHub/internal/utils"
)

// InitServices 按依赖顺序初始化所有服务并注册到容器
//
// 顺序：存储 → 目录 → 论坛 → 通知集线器 → 点赞 → 分数 → 草稿会话
func InitServices() error {
	cfg := config.GetCurrentConfig()
	container := di.GetContainer()

	// 日志先于一切服务
	if err := utils.InitLogger(filepath.Join(cfg.LogDir, "app.log")); err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	if cfg.DebugMode {
		utils.GetLogger().SetLogLevel(utils.DEBUG)
	}

	// 1. 文件存储
	fileStorage, err := storage.NewFileStorage(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("初始化文件存储失败: %w", err)
	}
	container.Register("storage", fileStorage)

	// 2. 课程目录
	catalogService := services.NewCatalogService(cfg.DataDir)
	container.Register("catalog", catalogService)

	// 3. 论坛
	forumService := services.NewForumService(fileStorage, catalogService)
	container.Register("forum", forumService)

	// 4. WebSocket 通知集线器
	hub := api.NewNotificationHub()
	container.Register("hub", hub)

	// 5. 点赞（广播到集线器）
	voteService := services.NewVoteService(forumService, hub)
	container.Register("vote", voteService)

	// 6. 分数存储
	scoreService := services.NewScoreService(fileStorage, services.SystemClock(), hub)
	container.Register("score", scoreService)

	// 7. 草稿会话
	draftService := services.NewDraftSessionService(
		fileStorage,
		catalogService,
		services.SystemClock(),
		cfg.Quiescence(),
		cfg.SessionTTL(),
		cfg.Draft.LocalKey,
		cfg.Draft.BackupKey,
	)
	container.Register("drafts", draftService)

	return nil
}

// Cleanup 释放全局资源
func Cleanup() {
	di.GetContainer().Clear()
	utils.GetLogger().Close()
}
