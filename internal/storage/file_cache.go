// internal/storage/file_cache.go
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileCacheService 提供带修改检测的文件内存缓存
// 课程目录这类读多写少的文件走这一层，目录文件被编辑后自动重新加载
type FileCacheService struct {
	cache      map[string]*FileCacheEntry
	mutex      sync.RWMutex
	maxSize    int
	expiration time.Duration
}

// FileCacheEntry 缓存条目
type FileCacheEntry struct {
	Data      []byte
	CreatedAt time.Time
	FileInfo  os.FileInfo // 用于检测文件是否被修改
}

// NewFileCacheService 创建文件缓存服务
func NewFileCacheService(maxSize int, expiration time.Duration) *FileCacheService {
	if maxSize <= 0 {
		maxSize = 100
	}

	if expiration <= 0 {
		expiration = 5 * time.Minute
	}

	return &FileCacheService{
		cache:      make(map[string]*FileCacheEntry),
		maxSize:    maxSize,
		expiration: expiration,
	}
}

// ReadJSON 读取并解析JSON文件，命中缓存且文件未变时不触碰磁盘内容
func (s *FileCacheService) ReadJSON(path string, target interface{}) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("获取文件绝对路径失败: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("读取文件信息失败: %w", err)
	}

	s.mutex.RLock()
	entry, exists := s.cache[absPath]
	s.mutex.RUnlock()

	if exists && s.isFresh(entry, info) {
		return json.Unmarshal(entry.Data, target)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return fmt.Errorf("读取文件失败: %w", err)
	}

	s.mutex.Lock()
	if len(s.cache) >= s.maxSize {
		s.evictOldest()
	}
	s.cache[absPath] = &FileCacheEntry{
		Data:      content,
		CreatedAt: time.Now(),
		FileInfo:  info,
	}
	s.mutex.Unlock()

	return json.Unmarshal(content, target)
}

// Invalidate 清除指定路径的缓存
func (s *FileCacheService) Invalidate(path string) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.cache, absPath)
}

// isFresh 条目未过期且文件未被修改
func (s *FileCacheService) isFresh(entry *FileCacheEntry, info os.FileInfo) bool {
	if time.Since(entry.CreatedAt) > s.expiration {
		return false
	}
	return entry.FileInfo.ModTime().Equal(info.ModTime()) && entry.FileInfo.Size() == info.Size()
}

// evictOldest 删除最老的条目，调用方需持有写锁
func (s *FileCacheService) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range s.cache {
		if oldestKey == "" || entry.CreatedAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.CreatedAt
		}
	}

	if oldestKey != "" {
		delete(s.cache, oldestKey)
	}
}
