// internal/services/score_service.go
package services

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"

	apperrors "github.com/NovaCampus/EduForumHub/internal/errors"
	"github.com/NovaCampus/EduForumHub/internal/models"
	"github.com/NovaCampus/EduForumHub/internal/storage"
	"github.com/NovaCampus/EduForumHub/internal/utils"
)

const scoresDir = "scores"

// ScoreService 评估分数账本
// 按上传ID存一组五维分数：后写覆盖先写，不做版本管理、
// 不做范围校验、不做聚合；每次写入产生回执哈希并发出通知事件
type ScoreService struct {
	fs        *storage.FileStorage
	clock     Clock
	publisher EventPublisher
	logger    *utils.Logger
}

// NewScoreService 创建分数服务
func NewScoreService(fs *storage.FileStorage, clock Clock, publisher EventPublisher) *ScoreService {
	if clock == nil {
		clock = SystemClock()
	}
	return &ScoreService{
		fs:        fs,
		clock:     clock,
		publisher: publisher,
		logger:    utils.GetLogger(),
	}
}

// StoreScores 记录一组分数
// 浮点分数换算为百分定点数（0.87 -> 87）后入账
func (s *ScoreService) StoreScores(uploadID string, clarity, coherence, engagement, accuracy, completeness float64) (*models.ScoreRecord, error) {
	if uploadID == "" {
		return nil, apperrors.NewValidationError("缺少上传ID", map[string]string{"upload_id": "required"})
	}

	now := s.clock.Now()

	record := &models.ScoreRecord{
		UploadID:     uploadID,
		Clarity:      toFixedPoint(clarity),
		Coherence:    toFixedPoint(coherence),
		Engagement:   toFixedPoint(engagement),
		Accuracy:     toFixedPoint(accuracy),
		Completeness: toFixedPoint(completeness),
		StoredAt:     now,
	}
	record.Receipt = receiptHash(record)

	if err := s.fs.SaveJSONFile(scoresDir, uploadID+".json", record); err != nil {
		return nil, apperrors.NewProcessingError("写入分数账本失败", err)
	}

	s.notify(record)

	return record, nil
}

// GetScores 读取分数；从未写入过的上传ID返回全零记录
func (s *ScoreService) GetScores(uploadID string) (*models.ScoreRecord, error) {
	if uploadID == "" {
		return nil, apperrors.NewValidationError("缺少上传ID", map[string]string{"upload_id": "required"})
	}

	if !s.fs.FileExists(scoresDir, uploadID+".json") {
		return &models.ScoreRecord{UploadID: uploadID}, nil
	}

	var record models.ScoreRecord
	if err := s.fs.LoadJSONFile(scoresDir, uploadID+".json", &record); err != nil {
		return nil, apperrors.NewProcessingError("读取分数账本失败", err)
	}

	return &record, nil
}

// notify 发出分数入账通知事件
func (s *ScoreService) notify(record *models.ScoreRecord) {
	if s.publisher == nil {
		return
	}

	s.publisher.Publish("scores", map[string]interface{}{
		"event":     "scores_stored",
		"upload_id": record.UploadID,
		"receipt":   record.Receipt,
		"stored_at": record.StoredAt,
	})
}

// toFixedPoint 浮点分数换算为百分定点数
func toFixedPoint(v float64) int64 {
	return int64(math.Round(v * 100))
}

// receiptHash 写入回执：分数内容加时间戳的哈希
func receiptHash(r *models.ScoreRecord) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%d|%d|%d|%d|%d",
		r.UploadID, r.Clarity, r.Coherence, r.Engagement, r.Accuracy, r.Completeness,
		r.StoredAt.UnixNano())))
	return hex.EncodeToString(sum[:])
}
