// internal/models/form.go
package models

// DraftStatus 草稿状态指示文本
type DraftStatus string

const (
	StatusBlank          DraftStatus = ""
	StatusSaved          DraftStatus = "saved"
	StatusRestored       DraftStatus = "restored"
	StatusRestoredErrors DraftStatus = "restored due to errors"
	StatusSubmitting     DraftStatus = "submitting"
	StatusCleared        DraftStatus = "cleared"
)

// StatusIndicator 表单旁边的状态提示
type StatusIndicator struct {
	text DraftStatus
}

// Set 更新状态文本
func (s *StatusIndicator) Set(status DraftStatus) {
	s.text = status
}

// Clear 清空状态文本
func (s *StatusIndicator) Clear() {
	s.text = StatusBlank
}

// Text 返回当前状态文本
func (s *StatusIndicator) Text() DraftStatus {
	return s.text
}

// SelectOption 下拉框选项
type SelectOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// SelectControl 模拟一个下拉选择控件
// 选择一个不在选项列表里的值是静默空操作
type SelectControl struct {
	Options  []SelectOption `json:"options"`
	Selected string         `json:"selected"`
	Disabled bool           `json:"disabled"`
}

// UnsetOption 所有下拉框的第一个"全部/未选择"选项
func UnsetOption(label string) SelectOption {
	return SelectOption{Value: "", Label: label}
}

// SetOptions 替换全部选项；当前选中值不在新选项中时重置为未选择
func (s *SelectControl) SetOptions(opts []SelectOption) {
	s.Options = opts
	if !s.HasOption(s.Selected) {
		s.Selected = ""
	}
}

// HasOption 检查选项列表中是否存在指定值
func (s *SelectControl) HasOption(value string) bool {
	for _, opt := range s.Options {
		if opt.Value == value {
			return true
		}
	}
	return false
}

// Select 选中指定值；值不存在时不做任何事，返回 false
func (s *SelectControl) Select(value string) bool {
	if !s.HasOption(value) {
		return false
	}
	s.Selected = value
	return true
}

// Value 返回当前选中值，空字符串表示未选择
func (s *SelectControl) Value() string {
	return s.Selected
}

// Reset 重置为只含未选择项的状态
func (s *SelectControl) Reset(unsetLabel string) {
	s.Options = []SelectOption{UnsetOption(unsetLabel)}
	s.Selected = ""
}

// QuestionForm 提问表单的服务端状态
// 对应页面上的 title / content / course / chapter 四个控件
type QuestionForm struct {
	Title   string        `json:"title"`
	Content string        `json:"content"`
	Course  SelectControl `json:"course"`
	Chapter SelectControl `json:"chapter"`

	// ErrorMarker 由渲染层写入的隐藏字段，"1" 表示上一次提交校验失败
	ErrorMarker string `json:"error_marker"`

	// FieldErrors 校验失败时附着在表单上的错误装饰
	FieldErrors map[string]string `json:"field_errors,omitempty"`

	onMutation func()
}

// SetMutationListener 注册字段变更监听器（自动保存控制器）
// 恢复控制器必须在监听器注册之前完成填充
func (f *QuestionForm) SetMutationListener(fn func()) {
	f.onMutation = fn
}

func (f *QuestionForm) notify() {
	if f.onMutation != nil {
		f.onMutation()
	}
}

// Touch 显式触发一次变更事件（清空字段这类没有经过 setter 的变更）
func (f *QuestionForm) Touch() {
	f.notify()
}

// SetTitle 更新标题并触发变更事件
func (f *QuestionForm) SetTitle(v string) {
	f.Title = v
	f.notify()
}

// SetContent 更新正文并触发变更事件
func (f *QuestionForm) SetContent(v string) {
	f.Content = v
	f.notify()
}

// SelectCourse 选择课程并触发变更事件
func (f *QuestionForm) SelectCourse(v string) bool {
	ok := f.Course.Select(v)
	if ok {
		f.notify()
	}
	return ok
}

// SelectChapter 选择章节并触发变更事件
func (f *QuestionForm) SelectChapter(v string) bool {
	ok := f.Chapter.Select(v)
	if ok {
		f.notify()
	}
	return ok
}

// HasErrorDecorations 表单是否带有校验错误装饰
func (f *QuestionForm) HasErrorDecorations() bool {
	return len(f.FieldErrors) > 0
}
