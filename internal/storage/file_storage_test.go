// internal/storage/file_storage_test.go
package storage

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestSaveAndLoadJSONFile(t *testing.T) {
	fs, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)

	in := sample{Name: "draft", Count: 3}
	require.NoError(t, fs.SaveJSONFile("drafts/client-1", "forum_ask_draft_v1.json", in))

	var out sample
	require.NoError(t, fs.LoadJSONFile("drafts/client-1", "forum_ask_draft_v1.json", &out))
	assert.Equal(t, in, out)
}

func TestFileExistsAndDelete(t *testing.T) {
	fs, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)

	assert.False(t, fs.FileExists("sub", "a.json"))

	require.NoError(t, fs.SaveJSONFile("sub", "a.json", sample{}))
	assert.True(t, fs.FileExists("sub", "a.json"))

	require.NoError(t, fs.DeleteFile("sub", "a.json"))
	assert.False(t, fs.FileExists("sub", "a.json"))

	assert.Error(t, fs.DeleteFile("sub", "a.json"))
}

func TestLoadMissingFile(t *testing.T) {
	fs, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)

	var out sample
	assert.Error(t, fs.LoadJSONFile("sub", "missing.json", &out))
}

func TestListFilesSkipsDirsAndTempFiles(t *testing.T) {
	fs, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, fs.SaveJSONFile("questions", "b.json", sample{}))
	require.NoError(t, fs.SaveJSONFile("questions", "a.json", sample{}))
	require.NoError(t, os.MkdirAll(filepath.Join(fs.BaseDir, "questions", "nested"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(fs.BaseDir, "questions", "c.json.tmp"), []byte("{}"), 0644))

	files, err := fs.ListFiles("questions")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.json", "b.json"}, files)
}

func TestListFilesMissingDirIsEmpty(t *testing.T) {
	fs, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)

	files, err := fs.ListFiles("never-created")
	assert.NoError(t, err)
	assert.Empty(t, files)
}

func TestSaveIsAtomicOverwrite(t *testing.T) {
	fs, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, fs.SaveJSONFile("sub", "a.json", sample{Name: "v1"}))
	require.NoError(t, fs.SaveJSONFile("sub", "a.json", sample{Name: "v2"}))

	var out sample
	require.NoError(t, fs.LoadJSONFile("sub", "a.json", &out))
	assert.Equal(t, "v2", out.Name)

	// 写入路径上不残留临时文件
	entries, err := os.ReadDir(filepath.Join(fs.BaseDir, "sub"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestConcurrentWritersSameFile(t *testing.T) {
	fs, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = fs.SaveJSONFile("sub", "shared.json", sample{Count: n})
		}(i)
	}
	wg.Wait()

	// 文件级锁保证最终内容是某一次完整写入
	var out sample
	require.NoError(t, fs.LoadJSONFile("sub", "shared.json", &out))
	assert.Equal(t, "", out.Name)
}

func TestFileCacheDetectsModification(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "courses.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name":"old","count":1}`), 0644))

	cache := NewFileCacheService(4, 0)

	var out sample
	require.NoError(t, cache.ReadJSON(path, &out))
	assert.Equal(t, "old", out.Name)

	// 改写文件并确保修改时间可区分
	require.NoError(t, os.WriteFile(path, []byte(`{"name":"new","count":22}`), 0644))

	require.NoError(t, cache.ReadJSON(path, &out))
	assert.Equal(t, "new", out.Name)
}

func TestFileCacheMissingFile(t *testing.T) {
	cache := NewFileCacheService(4, 0)

	var out sample
	err := cache.ReadJSON(filepath.Join(t.TempDir(), "missing.json"), &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
