package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetIndexFlags clears the flag-bound vars, which persist across
// rootCmd executions within the test binary.
func resetIndexFlags() {
	indexDocID = ""
	indexTitle = ""
	indexURL = ""
	indexCategory = ""
	indexTags = nil
	indexStdin = false
}

func TestIndexCmd_Use(t *testing.T) {
	assert.Equal(t, "index [path]", indexCmd.Use)
}

func TestIndexCmd_Short(t *testing.T) {
	assert.Equal(t, "Index a document so it becomes retrievable", indexCmd.Short)
}

func TestIndexCmd_AcceptsMaxOneArg(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"index", "one.md", "two.md"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts at most 1 arg(s)")
}

func TestIndexCmd_RequiresPathOrStdin(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"index"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "provide either a path or --stdin")
}

func TestIndexCmd_RejectsPathCombinedWithStdin(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer resetIndexFlags()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"index", "doc.md", "--stdin"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "provide either a path or --stdin")
}

func TestIndexCmd_IndexesFromStdin(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer resetIndexFlags()
	mock := &mockIndexService{}
	indexService = mock

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetIn(strings.NewReader("Always keep a current backup of the index directory."))
	rootCmd.SetArgs([]string{"index", "--stdin", "--id", "guides/backups", "--title", "Backups"})
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "Indexed guides/backups (4 chunks)")
	require.Len(t, mock.subs, 1)
	assert.Equal(t, "Backups", mock.subs[0].Title)
	assert.Contains(t, mock.subs[0].Text, "current backup")
}

func TestIndexCmd_GeneratesIDForStdinWithoutFlag(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer resetIndexFlags()
	mock := &mockIndexService{}
	indexService = mock

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetIn(strings.NewReader("Some document text."))
	rootCmd.SetArgs([]string{"index", "--stdin"})
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	require.Len(t, mock.subs, 1)
	assert.NotEmpty(t, mock.subs[0].DocID)
	assert.Equal(t, mock.subs[0].DocID, mock.subs[0].Title)
}

func TestIndexCmd_IndexesFile(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	dir := t.TempDir()
	path := filepath.Join(dir, "getting_started.md")
	require.NoError(t, os.WriteFile(path, []byte("# Getting Started\n\nRun the indexer first."), 0o644))

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"index", path})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "Indexed getting-started (4 chunks)")
}

func TestIndexCmd_IndexesDirectory(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "alpha.md"), []byte("# Alpha\n\nFirst guide."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "beta.txt"), []byte("Second guide."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.json"), []byte(`{"skip": true}`), 0o644))

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"index", dir})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "Indexed alpha (4 chunks)")
	assert.Contains(t, buf.String(), "Indexed beta (4 chunks)")
	assert.NotContains(t, buf.String(), "notes")
}

func TestIndexCmd_FlagsOverrideFrontMatter(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer resetIndexFlags()
	mock := &mockIndexService{}
	indexService = mock

	dir := t.TempDir()
	path := filepath.Join(dir, "guide.md")
	content := "---\ntitle: Original Title\ncategory: drafts\n---\n\nBody text here."
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"index", path, "--title", "Overridden Title", "--tags", "setup,intro"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	require.Len(t, mock.subs, 1)
	assert.Equal(t, "Overridden Title", mock.subs[0].Title)
	assert.Equal(t, "drafts", mock.subs[0].Category)
	assert.Equal(t, []string{"setup", "intro"}, mock.subs[0].Tags)
}

func TestIndexCmd_ReportsFailedReceipt(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer resetIndexFlags()
	indexService = &mockIndexService{failWith: "document text is empty"}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs([]string{"index", "--stdin", "--id", "guides/empty"})
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "Failed guides/empty: document text is empty")
}

func TestIndexCmd_ServiceNotConfigured(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer resetIndexFlags()
	indexService = nil

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"index", "--stdin"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "index service not configured")
}
