// internal/services/vote_service.go
package services

import (
	apperrors "github.com/NovaCampus/EduForumHub/internal/errors"
	"github.com/NovaCampus/EduForumHub/internal/utils"
)

// EventPublisher 通知事件的发布端（WebSocket 集线器实现）
type EventPublisher interface {
	Publish(topic string, payload map[string]interface{})
}

// VoteResult 点赞切换的结果
// 与前端约定的扁平结构：{ok, state, count}
type VoteResult struct {
	OK    bool   `json:"ok"`
	State string `json:"state"` // "added" 或 "removed"
	Count int    `json:"count"`
}

// VoteService 点赞切换
// 同一用户重复点击在加票/撤票之间切换；每次切换把新计数
// 广播给共享同一点赞键的所有订阅方，收不到广播的一侧
// 用响应里的计数回退更新自己
type VoteService struct {
	forum     *ForumService
	publisher EventPublisher
	logger    *utils.Logger
}

// NewVoteService 创建点赞服务
func NewVoteService(forum *ForumService, publisher EventPublisher) *VoteService {
	return &VoteService{
		forum:     forum,
		publisher: publisher,
		logger:    utils.GetLogger(),
	}
}

// ToggleQuestionUpvote 切换问题点赞
func (s *VoteService) ToggleQuestionUpvote(questionID, userID string) (VoteResult, error) {
	question, err := s.forum.GetQuestion(questionID)
	if err != nil {
		return VoteResult{}, err
	}

	var added bool
	question.Upvotes, added = toggleMembership(question.Upvotes, userID)

	state := "removed"
	if added {
		state = "added"
	}

	if err := s.forum.saveQuestion(question); err != nil {
		return VoteResult{}, err
	}

	result := VoteResult{OK: true, State: state, Count: len(question.Upvotes)}
	s.broadcast("question:"+questionID, result)

	return result, nil
}

// ToggleAnswerUpvote 切换回答点赞
func (s *VoteService) ToggleAnswerUpvote(questionID, answerID, userID string) (VoteResult, error) {
	question, err := s.forum.GetQuestion(questionID)
	if err != nil {
		return VoteResult{}, err
	}

	idx := question.FindAnswer(answerID)
	if idx < 0 {
		return VoteResult{}, apperrors.NewNotFoundError("回答不存在: "+answerID, nil)
	}

	var added bool
	question.Answers[idx].Upvotes, added = toggleMembership(question.Answers[idx].Upvotes, userID)

	state := "removed"
	if added {
		state = "added"
	}

	if err := s.forum.saveQuestion(question); err != nil {
		return VoteResult{}, err
	}

	result := VoteResult{OK: true, State: state, Count: len(question.Answers[idx].Upvotes)}
	s.broadcast("answer:"+answerID, result)

	return result, nil
}

// broadcast 把新计数推给共享该点赞键的所有订阅方
func (s *VoteService) broadcast(key string, result VoteResult) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish("upvotes", map[string]interface{}{
		"key":   key,
		"state": result.State,
		"count": result.Count,
	})
}

// toggleMembership 切换成员资格，返回新列表和是否为加入操作
func toggleMembership(members []string, userID string) ([]string, bool) {
	for i, m := range members {
		if m == userID {
			return append(members[:i], members[i+1:]...), false
		}
	}
	return append(members, userID), true
}
