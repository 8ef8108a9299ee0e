// internal/services/forum_service_test.go
package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/NovaCampus/EduForumHub/internal/errors"
	"github.com/NovaCampus/EduForumHub/internal/models"
	"github.com/NovaCampus/EduForumHub/internal/storage"
)

// newTestForum 文件存储和课程目录落在同一个临时目录
func newTestForum(t *testing.T) (*ForumService, *CatalogService) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "courses.json"), []byte(testCatalogJSON), 0644))

	fs, err := storage.NewFileStorage(dir)
	require.NoError(t, err)

	catalog := NewCatalogService(dir)
	return NewForumService(fs, catalog), catalog
}

func validDraft() models.DraftPayload {
	return models.DraftPayload{
		Title:    "Photosynthesis basics",
		Content:  "Explain the light-dependent reactions",
		CourseID: "12",
	}
}

func TestPostQuestionSuccess(t *testing.T) {
	forum, _ := newTestForum(t)

	q, err := forum.PostQuestion("alice", validDraft())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(q.ID, "q_"))
	assert.Equal(t, "alice", q.Author)
	assert.Empty(t, q.Upvotes)

	got, err := forum.GetQuestion(q.ID)
	require.NoError(t, err)
	assert.Equal(t, q.Title, got.Title)
}

func TestPostQuestionTrimsWhitespace(t *testing.T) {
	forum, _ := newTestForum(t)

	payload := validDraft()
	payload.Title = "  padded title  "

	q, err := forum.PostQuestion("alice", payload)
	require.NoError(t, err)
	assert.Equal(t, "padded title", q.Title)
}

func TestPostQuestionValidationFields(t *testing.T) {
	forum, _ := newTestForum(t)

	cases := []struct {
		name   string
		mutate func(*models.DraftPayload)
		field  string
	}{
		{"empty title", func(p *models.DraftPayload) { p.Title = "   " }, "title"},
		{"template tag in title", func(p *models.DraftPayload) { p.Title = "{% raw %}" }, "title"},
		{"empty content", func(p *models.DraftPayload) { p.Content = "" }, "content"},
		{"missing course", func(p *models.DraftPayload) { p.CourseID = "" }, "course"},
		{"unknown course", func(p *models.DraftPayload) { p.CourseID = "404" }, "course"},
		{"chapter from other course", func(p *models.DraftPayload) { p.ChapterID = "99" }, "chapter"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload := validDraft()
			tc.mutate(&payload)

			_, err := forum.PostQuestion("alice", payload)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidationError(err))

			fields := apperrors.ValidationFields(err)
			assert.Contains(t, fields, tc.field)
		})
	}
}

func TestPostQuestionTruncatesLongTitle(t *testing.T) {
	forum, _ := newTestForum(t)

	payload := validDraft()
	payload.Title = strings.Repeat("x", 500)

	q, err := forum.PostQuestion("alice", payload)
	require.NoError(t, err)
	assert.Len(t, q.Title, maxTitleLen)
}

func TestListQuestionsFilterAndSort(t *testing.T) {
	forum, _ := newTestForum(t)

	first, err := forum.PostQuestion("alice", validDraft())
	require.NoError(t, err)

	payload := validDraft()
	payload.Title = "Mitosis stages"
	payload.ChapterID = "5"
	second, err := forum.PostQuestion("bob", payload)
	require.NoError(t, err)

	// 第一题两票，第二题零票
	_, err = NewVoteService(forum, nil).ToggleQuestionUpvote(first.ID, "u1")
	require.NoError(t, err)
	_, err = NewVoteService(forum, nil).ToggleQuestionUpvote(first.ID, "u2")
	require.NoError(t, err)

	byVotes, err := forum.ListQuestions("", "", "", "upvotes")
	require.NoError(t, err)
	require.Len(t, byVotes, 2)
	assert.Equal(t, first.ID, byVotes[0].ID)

	byChapter, err := forum.ListQuestions("", "12", "5", "")
	require.NoError(t, err)
	require.Len(t, byChapter, 1)
	assert.Equal(t, second.ID, byChapter[0].ID)

	byQuery, err := forum.ListQuestions("mitosis", "", "", "")
	require.NoError(t, err)
	require.Len(t, byQuery, 1)
	assert.Equal(t, second.ID, byQuery[0].ID)
}

func TestPostAnswerAndReply(t *testing.T) {
	forum, _ := newTestForum(t)

	q, err := forum.PostQuestion("alice", validDraft())
	require.NoError(t, err)

	answer, err := forum.PostAnswer(q.ID, "bob", "Chlorophyll absorbs light.")
	require.NoError(t, err)
	assert.Empty(t, answer.ParentID)

	reply, err := forum.PostReply(q.ID, answer.ID, "carol", "And what about chlorophyll b?")
	require.NoError(t, err)
	assert.Equal(t, answer.ID, reply.ParentID)

	got, err := forum.GetQuestion(q.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TopAnswerCount())
	assert.Len(t, got.Answers, 2)
}

func TestPostReplyDepthLimit(t *testing.T) {
	forum, _ := newTestForum(t)

	q, err := forum.PostQuestion("alice", validDraft())
	require.NoError(t, err)

	answer, err := forum.PostAnswer(q.ID, "bob", "top level")
	require.NoError(t, err)

	parent := answer.ID
	for i := 0; i < maxReplyDepth; i++ {
		reply, err := forum.PostReply(q.ID, parent, "bob", "deeper")
		require.NoError(t, err)
		parent = reply.ID
	}

	// 下一层就到上限了
	_, err = forum.PostReply(q.ID, parent, "bob", "too deep")
	require.Error(t, err)
	assert.True(t, apperrors.IsConflictError(err))
}

func TestPostAnswerUnknownQuestion(t *testing.T) {
	forum, _ := newTestForum(t)

	_, err := forum.PostAnswer("q_missing", "bob", "hello")
	assert.True(t, apperrors.IsNotFoundError(err))
}

func TestPostReplyUnknownParent(t *testing.T) {
	forum, _ := newTestForum(t)

	q, err := forum.PostQuestion("alice", validDraft())
	require.NoError(t, err)

	_, err = forum.PostReply(q.ID, "a_missing", "bob", "hello")
	assert.True(t, apperrors.IsNotFoundError(err))
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "hello", cleanText("  hello  ", 100))
	assert.Equal(t, "", cleanText("   ", 100))
	assert.Equal(t, "", cleanText("{% include %}", 100))
	assert.Equal(t, "abc", cleanText("abcdef", 3))
}

func TestCleanTextTruncatesOnRuneBoundary(t *testing.T) {
	// 截断点落在三字节汉字中间时必须回退到字符边界
	text := "a" + strings.Repeat("光", 100)
	got := cleanText(text, 255)

	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 253, len(got))
	assert.Equal(t, "a"+strings.Repeat("光", 84), got)

	// 边界恰好对齐时原样截断
	aligned := cleanText(strings.Repeat("光", 100), 255)
	assert.True(t, utf8.ValidString(aligned))
	assert.Equal(t, 255, len(aligned))
}
