// internal/storage/file_storage.go
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// FileStorage 提供文件存储服务
// 本地草稿层、论坛问题和分数账本都落在这一层
type FileStorage struct {
	BaseDir string

	// 文件级别锁 path -> *sync.RWMutex
	fileLocks sync.Map

	// 简单读缓存
	cache        map[string]*cacheEntry
	cacheMutex   sync.RWMutex
	cacheExpiry  time.Duration
	maxCacheSize int
}

type cacheEntry struct {
	data      []byte
	timestamp time.Time
}

// NewFileStorage 创建文件存储服务
func NewFileStorage(baseDir string) (*FileStorage, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("创建存储目录失败: %w", err)
	}

	fs := &FileStorage{
		BaseDir:      baseDir,
		cache:        make(map[string]*cacheEntry),
		cacheExpiry:  5 * time.Minute,
		maxCacheSize: 100,
	}

	fs.startCacheCleanup()

	return fs, nil
}

// 获取文件锁
func (fs *FileStorage) getFileLock(fullPath string) *sync.RWMutex {
	value, _ := fs.fileLocks.LoadOrStore(fullPath, &sync.RWMutex{})
	return value.(*sync.RWMutex)
}

// SaveTextFile 保存文本文件（原子写入）
func (fs *FileStorage) SaveTextFile(dirPath, filename string, content []byte) error {
	fullDirPath := filepath.Join(fs.BaseDir, dirPath)
	fullPath := filepath.Join(fullDirPath, filename)

	lock := fs.getFileLock(fullPath)
	lock.Lock()
	defer lock.Unlock()

	if err := os.MkdirAll(fullDirPath, 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}

	// 先写临时文件再改名，避免写到一半的文件被读到
	tempPath := fullPath + ".tmp"

	if err := os.WriteFile(tempPath, content, 0644); err != nil {
		return fmt.Errorf("保存临时文件失败: %w", err)
	}

	if err := os.Rename(tempPath, fullPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("保存文件失败: %w", err)
	}

	fs.invalidateCache(fullPath)

	return nil
}

// SaveJSONFile 保存JSON文件
func (fs *FileStorage) SaveJSONFile(dirPath, filename string, data interface{}) error {
	content, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化JSON失败: %w", err)
	}

	return fs.SaveTextFile(dirPath, filename, content)
}

// LoadTextFile 读取文本文件
func (fs *FileStorage) LoadTextFile(dirPath, filename string) ([]byte, error) {
	fullPath := filepath.Join(fs.BaseDir, dirPath, filename)

	// 检查缓存
	fs.cacheMutex.RLock()
	if entry, exists := fs.cache[fullPath]; exists {
		if time.Since(entry.timestamp) < fs.cacheExpiry {
			fs.cacheMutex.RUnlock()
			return entry.data, nil
		}
	}
	fs.cacheMutex.RUnlock()

	lock := fs.getFileLock(fullPath)
	lock.RLock()
	defer lock.RUnlock()

	content, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("读取文件失败: %w", err)
	}

	fs.updateCache(fullPath, content)

	return content, nil
}

// LoadJSONFile 读取并解析JSON文件
func (fs *FileStorage) LoadJSONFile(dirPath, filename string, v interface{}) error {
	content, err := fs.LoadTextFile(dirPath, filename)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(content, v); err != nil {
		return fmt.Errorf("解析JSON失败: %w", err)
	}

	return nil
}

// FileExists 检查文件是否存在
func (fs *FileStorage) FileExists(dirPath, filename string) bool {
	fullPath := filepath.Join(fs.BaseDir, dirPath, filename)
	_, err := os.Stat(fullPath)
	return err == nil
}

// DeleteFile 删除文件
func (fs *FileStorage) DeleteFile(dirPath, filename string) error {
	fullPath := filepath.Join(fs.BaseDir, dirPath, filename)

	lock := fs.getFileLock(fullPath)
	lock.Lock()
	defer lock.Unlock()

	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		return fmt.Errorf("文件不存在: %s", fullPath)
	}

	if err := os.Remove(fullPath); err != nil {
		return fmt.Errorf("删除文件失败: %w", err)
	}

	fs.invalidateCache(fullPath)

	return nil
}

// ListFiles 列出目录下的文件名（按名称排序）
func (fs *FileStorage) ListFiles(dirPath string) ([]string, error) {
	fullPath := filepath.Join(fs.BaseDir, dirPath)
	entries, err := os.ReadDir(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("读取目录失败: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && !strings.HasSuffix(entry.Name(), ".tmp") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	return files, nil
}

// 缓存管理
func (fs *FileStorage) updateCache(path string, data []byte) {
	fs.cacheMutex.Lock()
	defer fs.cacheMutex.Unlock()

	fs.cache[path] = &cacheEntry{
		data:      data,
		timestamp: time.Now(),
	}

	// 简单的缓存大小控制：超限时删除最老的条目
	if len(fs.cache) > fs.maxCacheSize {
		var oldestKey string
		var oldestTime time.Time

		for key, entry := range fs.cache {
			if oldestKey == "" || entry.timestamp.Before(oldestTime) {
				oldestKey = key
				oldestTime = entry.timestamp
			}
		}

		if oldestKey != "" {
			delete(fs.cache, oldestKey)
		}
	}
}

// invalidateCache 清除指定路径的缓存
func (fs *FileStorage) invalidateCache(path string) {
	fs.cacheMutex.Lock()
	defer fs.cacheMutex.Unlock()

	delete(fs.cache, path)
}

// 开始缓存清理
func (fs *FileStorage) startCacheCleanup() {
	go func() {
		ticker := time.NewTicker(2 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			fs.cleanupExpiredCache()
		}
	}()
}

// 清理过期缓存
func (fs *FileStorage) cleanupExpiredCache() {
	fs.cacheMutex.Lock()
	defer fs.cacheMutex.Unlock()

	now := time.Now()
	for path, entry := range fs.cache {
		if now.Sub(entry.timestamp) > fs.cacheExpiry {
			delete(fs.cache, path)
		}
	}
}
