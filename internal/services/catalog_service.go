// internal/services/catalog_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	apperrors "github.com/NovaCampus/EduForumHub/internal/errors"
	"github.com/NovaCampus/EduForumHub/internal/models"
	"github.com/NovaCampus/EduForumHub/internal/storage"
	"github.com/NovaCampus/EduForumHub/internal/utils"
)

const (
	catalogFile = "courses.json"

	// 下拉框第一项的文案
	courseUnsetLabel  = "Select a course"
	chapterUnsetLabel = "All chapters"
)

// CatalogService 课程/章节目录服务
// 目录数据是一个读多写少的 JSON 文件，走带修改检测的文件缓存
type CatalogService struct {
	basePath string
	cache    *storage.FileCacheService
	logger   *utils.Logger
}

// NewCatalogService 创建目录服务
func NewCatalogService(basePath string) *CatalogService {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		fmt.Printf("警告: 创建目录数据目录失败: %v\n", err)
	}

	return &CatalogService{
		basePath: basePath,
		cache:    storage.NewFileCacheService(16, 5*time.Minute),
		logger:   utils.GetLogger(),
	}
}

// Courses 返回全部课程，按课程名、课程代码排序
func (s *CatalogService) Courses() ([]models.Course, error) {
	var courses []models.Course
	path := filepath.Join(s.basePath, catalogFile)

	if err := s.cache.ReadJSON(path, &courses); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, apperrors.NewProcessingError("读取课程目录失败", err)
	}

	sort.Slice(courses, func(i, j int) bool {
		if courses[i].Name != courses[j].Name {
			return courses[i].Name < courses[j].Name
		}
		return courses[i].Code < courses[j].Code
	})

	return courses, nil
}

// Course 按ID查找课程
func (s *CatalogService) Course(courseID string) (*models.Course, error) {
	courses, err := s.Courses()
	if err != nil {
		return nil, err
	}

	for i := range courses {
		if courses[i].ID == courseID {
			return &courses[i], nil
		}
	}

	return nil, apperrors.NewNotFoundError("课程不存在: "+courseID, nil)
}

// Chapters 返回指定课程的章节，按章节号、章节名排序
func (s *CatalogService) Chapters(courseID string) ([]models.Chapter, error) {
	course, err := s.Course(courseID)
	if err != nil {
		return nil, err
	}

	chapters := make([]models.Chapter, len(course.Chapters))
	copy(chapters, course.Chapters)

	sort.Slice(chapters, func(i, j int) bool {
		if chapters[i].Number != chapters[j].Number {
			return chapters[i].Number < chapters[j].Number
		}
		return chapters[i].Name < chapters[j].Name
	})

	return chapters, nil
}

// ChapterBelongsTo 章节是否属于指定课程
func (s *CatalogService) ChapterBelongsTo(courseID, chapterID string) bool {
	chapters, err := s.Chapters(courseID)
	if err != nil {
		return false
	}

	for _, ch := range chapters {
		if ch.ID == chapterID {
			return true
		}
	}
	return false
}

// CourseOptions 课程下拉框的完整选项列表（第一项是未选择）
func (s *CatalogService) CourseOptions() []models.SelectOption {
	opts := []models.SelectOption{models.UnsetOption(courseUnsetLabel)}

	courses, err := s.Courses()
	if err != nil {
		s.logger.Warnf("课程选项加载失败: %v", err)
		return opts
	}

	for _, c := range courses {
		opts = append(opts, models.SelectOption{
			Value: c.ID,
			Label: fmt.Sprintf("%s - %s", c.Code, c.Name),
		})
	}

	return opts
}

// LoadChapters 章节填充协作方的实现
//
// 清空并重建章节下拉框：未选择项永远排第一；courseID 为空时禁用控件；
// selectedID 命中某个选项时预选中。目录读取失败或课程不存在时
// 保持下拉框可用（只剩未选择项），记日志但绝不抛给调用方——
// 观察行为上等同于一个没有章节的课程。
func (s *CatalogService) LoadChapters(ctx context.Context, courseID string, sel *models.SelectControl, selectedID string) {
	sel.Reset(chapterUnsetLabel)

	if courseID == "" {
		sel.Disabled = true
		return
	}
	sel.Disabled = false

	if err := ctx.Err(); err != nil {
		s.logger.Warnf("章节加载被取消: %v", err)
		return
	}

	chapters, err := s.Chapters(courseID)
	if err != nil {
		s.logger.Warnf("章节加载失败 course=%s: %v", courseID, err)
		return
	}

	opts := []models.SelectOption{models.UnsetOption(chapterUnsetLabel)}
	for _, ch := range chapters {
		opts = append(opts, models.SelectOption{
			Value: ch.ID,
			Label: fmt.Sprintf("Ch %d: %s", ch.Number, ch.Name),
		})
	}
	sel.SetOptions(opts)

	if selectedID != "" {
		// 选项里没有这个值时 Select 是静默空操作
		sel.Select(selectedID)
	}
}
