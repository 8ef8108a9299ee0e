// internal/models/score.go
package models

import "time"

// ScoreRecord 按上传ID记录的一组评估分数
// 分数以百分定点数存储（0.87 -> 87），后写覆盖先写，不做版本管理
type ScoreRecord struct {
	UploadID     string    `json:"upload_id"`
	Clarity      int64     `json:"clarity"`
	Coherence    int64     `json:"coherence"`
	Engagement   int64     `json:"engagement"`
	Accuracy     int64     `json:"accuracy"`
	Completeness int64     `json:"completeness"`
	StoredAt     time.Time `json:"stored_at"`
	Receipt      string    `json:"receipt"` // 写入回执哈希
}
