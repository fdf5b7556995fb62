package upload

import (
	"bytes"
	"context"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func makeFileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(int64(len(content)) + 10240)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })
	return form.File["file"][0]
}

func TestSaveAndRemove(t *testing.T) {
	store := NewStore(t.TempDir(), "/static/uploads")
	ctx := context.Background()

	url, err := store.Save(ctx, "claims/42", makeFileHeader(t, "photo.png", pngHeader))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/static/uploads/claims/42/"), url)
	assert.True(t, strings.HasSuffix(url, ".png"), url)

	require.NoError(t, store.Remove(ctx, url))
	err = store.Remove(ctx, url)
	assert.Error(t, err, "removing twice must fail")
}

func TestSave_UniqueNames(t *testing.T) {
	store := NewStore(t.TempDir(), "/static/uploads")
	ctx := context.Background()

	first, err := store.Save(ctx, "claims/1", makeFileHeader(t, "photo.png", pngHeader))
	require.NoError(t, err)
	second, err := store.Save(ctx, "claims/1", makeFileHeader(t, "photo.png", pngHeader))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestSave_RejectsNonImage(t *testing.T) {
	store := NewStore(t.TempDir(), "/static/uploads")

	_, err := store.Save(context.Background(), "claims/1",
		makeFileHeader(t, "notes.txt", []byte("plain text, not an image")))
	assert.ErrorIs(t, err, ErrInvalidMimeType)
}

func TestSave_RejectsEmptyFile(t *testing.T) {
	store := NewStore(t.TempDir(), "/static/uploads")

	_, err := store.Save(context.Background(), "claims/1", makeFileHeader(t, "empty.png", nil))
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestSave_RejectsTraversalPrefix(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, "/static/uploads")

	_, err := store.Save(context.Background(), "../escape", makeFileHeader(t, "photo.png", pngHeader))
	assert.Error(t, err)

	// Nothing escaped the base directory.
	_, statErr := os.Stat(filepath.Join(dir, "..", "escape"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRemove_RejectsForeignURL(t *testing.T) {
	store := NewStore(t.TempDir(), "/static/uploads")

	assert.Error(t, store.Remove(context.Background(), "/etc/passwd"))
	assert.Error(t, store.Remove(context.Background(), "/static/uploads/../../etc/passwd"))
}
