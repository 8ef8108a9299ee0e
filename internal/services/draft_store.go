// internal/services/draft_store.go
package services

import (
	"time"

	"github.com/patrickmn/go-cache"

	apperrors "github.com/NovaCampus/EduForumHub/internal/errors"
	"github.com/NovaCampus/EduForumHub/internal/models"
	"github.com/NovaCampus/EduForumHub/internal/storage"
)

// DraftStore 草稿存储层的统一接口
// 两个实现：持久化的本地草稿层和仅在会话内存活的备份层
// Read 对损坏或异构数据一律报告"不存在"，绝不让调用方失败
type DraftStore interface {
	Read() (models.DraftPayload, bool)
	Write(payload models.DraftPayload) error
	Clear() error
}

// ----------------------------------------
// 本地草稿层
// ----------------------------------------

// LocalDraftStore 持久化草稿存储
// 每个客户端一个文件：drafts/<client_id>/<key>.json，跨进程重启存活
type LocalDraftStore struct {
	fs       *storage.FileStorage
	dirPath  string
	filename string
}

// NewLocalDraftStore 创建本地草稿层
// key 是带版本号的固定存储键（如 forum_ask_draft_v1）
func NewLocalDraftStore(fs *storage.FileStorage, clientID, key string) *LocalDraftStore {
	return &LocalDraftStore{
		fs:       fs,
		dirPath:  "drafts/" + clientID,
		filename: key + ".json",
	}
}

// Read 读取草稿；文件缺失或内容损坏都返回"不存在"
func (s *LocalDraftStore) Read() (models.DraftPayload, bool) {
	if !s.fs.FileExists(s.dirPath, s.filename) {
		return models.DraftPayload{}, false
	}

	var payload models.DraftPayload
	if err := s.fs.LoadJSONFile(s.dirPath, s.filename, &payload); err != nil {
		// 损坏的持久化数据等同于不存在
		return models.DraftPayload{}, false
	}

	return payload, true
}

// Write 持久化草稿；底层失败归类为存储不可用
func (s *LocalDraftStore) Write(payload models.DraftPayload) error {
	if err := s.fs.SaveJSONFile(s.dirPath, s.filename, payload); err != nil {
		return apperrors.NewStorageUnavailableError("写入本地草稿失败", err)
	}
	return nil
}

// Clear 删除草稿；本来就不存在不算错误
func (s *LocalDraftStore) Clear() error {
	if !s.fs.FileExists(s.dirPath, s.filename) {
		return nil
	}
	if err := s.fs.DeleteFile(s.dirPath, s.filename); err != nil {
		return apperrors.NewStorageUnavailableError("清除本地草稿失败", err)
	}
	return nil
}

// ----------------------------------------
// 会话备份层
// ----------------------------------------

// SessionBackupStore 会话级备份存储
// 每个页面会话（标签页）持有自己的实例，提交快照只在一次导航往返内有用
// TTL 到期后条目随会话一起消失，绝不跨会话泄漏
type SessionBackupStore struct {
	cache *cache.Cache
	key   string
}

// NewSessionBackupStore 创建会话备份层
func NewSessionBackupStore(key string, ttl time.Duration) *SessionBackupStore {
	c := cache.New(ttl, 10*time.Minute)
	return &SessionBackupStore{
		cache: c,
		key:   key,
	}
}

// Read 读取备份快照
func (s *SessionBackupStore) Read() (models.DraftPayload, bool) {
	x, found := s.cache.Get(s.key)
	if !found {
		return models.DraftPayload{}, false
	}

	payload, ok := x.(models.DraftPayload)
	if !ok {
		// 异构数据等同于不存在
		return models.DraftPayload{}, false
	}

	return payload, true
}

// Write 写入备份快照，总是整体覆盖，不做合并
func (s *SessionBackupStore) Write(payload models.DraftPayload) error {
	s.cache.Set(s.key, payload, cache.DefaultExpiration)
	return nil
}

// Clear 清除备份快照
func (s *SessionBackupStore) Clear() error {
	s.cache.Delete(s.key)
	return nil
}
