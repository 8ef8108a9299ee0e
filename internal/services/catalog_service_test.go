// internal/services/catalog_service_test.go
package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NovaCampus/EduForumHub/internal/models"
)

const testCatalogJSON = `[
  {
    "id": "31",
    "code": "CHEM201",
    "name": "Organic Chemistry",
    "chapters": []
  },
  {
    "id": "12",
    "code": "BIO101",
    "name": "Biology",
    "chapters": [
      {"id": "7", "number": 2, "name": "Genetics"},
      {"id": "5", "number": 1, "name": "Cells"}
    ]
  }
]`

// newTestCatalog 在临时目录里放一份课程目录
func newTestCatalog(t *testing.T) *CatalogService {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "courses.json"), []byte(testCatalogJSON), 0644))
	return NewCatalogService(dir)
}

func TestCoursesSortedByName(t *testing.T) {
	catalog := newTestCatalog(t)

	courses, err := catalog.Courses()
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "Biology", courses[0].Name)
	assert.Equal(t, "Organic Chemistry", courses[1].Name)
}

func TestCoursesMissingCatalogIsEmpty(t *testing.T) {
	catalog := NewCatalogService(t.TempDir())

	courses, err := catalog.Courses()
	assert.NoError(t, err)
	assert.Empty(t, courses)
}

func TestChaptersSortedByNumber(t *testing.T) {
	catalog := newTestCatalog(t)

	chapters, err := catalog.Chapters("12")
	require.NoError(t, err)
	require.Len(t, chapters, 2)
	assert.Equal(t, "Cells", chapters[0].Name)
	assert.Equal(t, "Genetics", chapters[1].Name)
}

func TestChapterBelongsTo(t *testing.T) {
	catalog := newTestCatalog(t)

	assert.True(t, catalog.ChapterBelongsTo("12", "5"))
	assert.False(t, catalog.ChapterBelongsTo("12", "99"))
	assert.False(t, catalog.ChapterBelongsTo("31", "5"))
	assert.False(t, catalog.ChapterBelongsTo("nope", "5"))
}

func TestCourseOptionsLeadWithUnset(t *testing.T) {
	catalog := newTestCatalog(t)

	opts := catalog.CourseOptions()
	require.Len(t, opts, 3)
	assert.Equal(t, "", opts[0].Value)
	assert.Equal(t, "BIO101 - Biology", opts[1].Label)
	assert.Equal(t, "12", opts[1].Value)
}

func TestLoadChaptersPopulatesAndSelects(t *testing.T) {
	catalog := newTestCatalog(t)
	var sel models.SelectControl

	catalog.LoadChapters(context.Background(), "12", &sel, "5")

	assert.False(t, sel.Disabled)
	require.Len(t, sel.Options, 3)
	assert.Equal(t, "", sel.Options[0].Value)
	assert.Equal(t, "Ch 1: Cells", sel.Options[1].Label)
	assert.Equal(t, "Ch 2: Genetics", sel.Options[2].Label)
	assert.Equal(t, "5", sel.Value())
}

func TestLoadChaptersMissingSelectionIsSilentNoop(t *testing.T) {
	catalog := newTestCatalog(t)
	var sel models.SelectControl

	catalog.LoadChapters(context.Background(), "12", &sel, "99")

	require.Len(t, sel.Options, 3)
	assert.Empty(t, sel.Value(), "不存在的预选值静默忽略")
}

func TestLoadChaptersEmptyCourseDisables(t *testing.T) {
	catalog := newTestCatalog(t)
	sel := models.SelectControl{Selected: "5"}

	catalog.LoadChapters(context.Background(), "", &sel, "")

	assert.True(t, sel.Disabled)
	require.Len(t, sel.Options, 1)
	assert.Empty(t, sel.Value())
}

func TestLoadChaptersUnknownCourseStaysUsable(t *testing.T) {
	catalog := newTestCatalog(t)
	var sel models.SelectControl

	// 目录里没有这门课：观察行为等同于一门没有章节的课程
	catalog.LoadChapters(context.Background(), "404", &sel, "5")

	assert.False(t, sel.Disabled)
	require.Len(t, sel.Options, 1)
	assert.Empty(t, sel.Value())
}

func TestLoadChaptersCourseWithoutChapters(t *testing.T) {
	catalog := newTestCatalog(t)
	var sel models.SelectControl

	catalog.LoadChapters(context.Background(), "31", &sel, "")

	assert.False(t, sel.Disabled)
	require.Len(t, sel.Options, 1)
}
