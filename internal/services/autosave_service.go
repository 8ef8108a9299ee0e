// internal/services/autosave_service.go
package services

import (
	"sync"
	"time"

	apperrors "github.com/NovaCampus/EduForumHub/internal/errors"
	"github.com/NovaCampus/EduForumHub/internal/models"
	"github.com/NovaCampus/EduForumHub/internal/utils"
)

// AutosaveState 自动保存控制器的显式状态
type AutosaveState int

const (
	StateIdle AutosaveState = iota
	StateEditing
	StatePendingSave
	StateSaved
)

// String 状态名
func (s AutosaveState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateEditing:
		return "editing"
	case StatePendingSave:
		return "pending_save"
	case StateSaved:
		return "saved"
	default:
		return "unknown"
	}
}

// AutosaveController 监听表单变更并防抖落盘
// 整个字段集共享同一个定时器：窗口内的多次变更合并为一次写入，
// 新变更到达时取消旧的计划保存而不是排队
type AutosaveController struct {
	form       *models.QuestionForm
	store      DraftStore
	serializer *DraftSerializer
	status     *models.StatusIndicator
	clock      Clock
	quiescence time.Duration
	logger     *utils.Logger

	// locker 定时器回调执行保存前先拿的外部锁（通常是会话锁），
	// 保证落盘时读到的表单不处于半更新状态
	locker sync.Locker

	mu    sync.Mutex
	state AutosaveState
	timer Timer
	gen   uint64 // 窗口代号，过期窗口的回调作废
}

type noopLocker struct{}

func (noopLocker) Lock()   {}
func (noopLocker) Unlock() {}

// NewAutosaveController 创建自动保存控制器
func NewAutosaveController(form *models.QuestionForm, store DraftStore, serializer *DraftSerializer, status *models.StatusIndicator, clock Clock, quiescence time.Duration) *AutosaveController {
	if clock == nil {
		clock = SystemClock()
	}
	if quiescence <= 0 {
		quiescence = 700 * time.Millisecond
	}

	return &AutosaveController{
		form:       form,
		store:      store,
		serializer: serializer,
		status:     status,
		clock:      clock,
		quiescence: quiescence,
		logger:     utils.GetLogger(),
		locker:     noopLocker{},
		state:      StateIdle,
	}
}

// BindLocker 绑定外部锁，保存回调在该锁保护下执行
func (c *AutosaveController) BindLocker(l sync.Locker) {
	c.locker = l
}

// Attach 把控制器注册为表单的变更监听器
// 必须在恢复控制器跑完之后调用，否则填充动作会触发一次多余的自动保存
func (c *AutosaveController) Attach() {
	c.form.SetMutationListener(c.OnMutation)
}

// Detach 摘除监听器并取消计划中的保存
func (c *AutosaveController) Detach() {
	c.form.SetMutationListener(nil)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelTimerLocked()
	c.state = StateIdle
}

// State 当前状态
func (c *AutosaveController) State() AutosaveState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// OnMutation 字段发生变更：取消旧定时器，重新开一个静默窗口
func (c *AutosaveController) OnMutation() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = StateEditing
	c.cancelTimerLocked()

	gen := c.gen
	c.timer = c.clock.AfterFunc(c.quiescence, func() { c.flush(gen) })
	c.state = StatePendingSave
}

// CancelPending 取消计划中的保存（提交、清除草稿时调用）
func (c *AutosaveController) CancelPending() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelTimerLocked()
	c.state = StateIdle
}

// flush 静默窗口结束，执行真正的保存
// 定时器回调是 PendingSave -> Saved 的唯一来源
func (c *AutosaveController) flush(gen uint64) {
	c.locker.Lock()
	defer c.locker.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// 窗口已被新变更或取消动作作废
	if gen != c.gen {
		return
	}

	c.timer = nil

	payload := c.serializer.Serialize(c.form)

	if c.serializer.IsEmpty(payload) {
		// 空表单：不写空记录，用"删除"表示没有草稿
		if err := c.store.Clear(); err != nil {
			c.recoverStorageFailure(err)
			return
		}
		c.status.Clear()
		c.state = StateIdle
		return
	}

	if err := c.store.Write(payload); err != nil {
		c.recoverStorageFailure(err)
		return
	}

	c.status.Set(models.StatusSaved)
	c.state = StateSaved
}

// recoverStorageFailure 存储失败的本地恢复分支
// 功能降级为"无自动保存"：记日志、状态栏留空，绝不向上冒泡
func (c *AutosaveController) recoverStorageFailure(err error) {
	if apperrors.IsStorageUnavailable(err) {
		c.logger.Warnf("自动保存降级: %v", err)
	} else {
		c.logger.Errorf("自动保存意外失败: %v", err)
	}
	c.status.Clear()
	c.state = StateIdle
}

func (c *AutosaveController) cancelTimerLocked() {
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
