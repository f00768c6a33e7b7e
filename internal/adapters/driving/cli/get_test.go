package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCmd_Use(t *testing.T) {
	assert.Equal(t, "get [post-id]", getCmd.Use)
}

func TestGetCmd_RequiresExactlyOneArg(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"get"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestGetCmd_InvalidID(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"get", "not-a-number"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid post ID")
}

func TestGetCmd_ShowsDetail(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"get", "1"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "Post #1")
	assert.Contains(t, buf.String(), "Source:  alpha")
	assert.Contains(t, buf.String(), "scenery")
}

func TestGetCmd_NotFound(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"get", "404"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "post 404 not found")
}

func TestGetCmd_ExportJSON(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	dir := t.TempDir()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"get", "1", "--export-json", dir})
	defer func() {
		rootCmd.SetArgs(nil)
		getExportJSON = ""
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Wrote ")
	_, err = os.Stat(filepath.Join(dir, "alpha_1.json"))
	assert.NoError(t, err)
}

func TestGetCmd_Archive(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"get", "1", "--archive"})
	defer func() {
		rootCmd.SetArgs(nil)
		getArchive = false
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Archived Post #1")

	saved, err := postArchive.GetPost(context.Background(), "alpha", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.ID)
}

func TestGetCmd_ArchiveNotConfigured(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	postArchive = nil

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"get", "1", "--archive"})
	defer func() {
		rootCmd.SetArgs(nil)
		getArchive = false
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "archive not configured")
}
