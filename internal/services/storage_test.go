package services

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFileHeader builds a multipart.FileHeader the way an HTTP upload would.
func newFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))

	return req.MultipartForm.File["file"][0]
}

func TestAllowedFile(t *testing.T) {
	tests := map[string]bool{
		"resume.pdf":     true,
		"RESUME.PDF":     true,
		"my.resume.Pdf":  true,
		"resume.docx":    false,
		"resume.pdf.exe": false,
		"resume":         false,
	}

	for name, want := range tests {
		assert.Equal(t, want, AllowedFile(name), name)
	}
}

func TestStorageSaveAndDelete(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	storage := NewStorageService(dir)
	require.NoError(t, storage.EnsureUploadDir())

	filename, path, err := storage.SaveFile(newFileHeader(t, "Jane.PDF", []byte("%PDF-1.4 test")))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(filename, "resume_"))
	assert.True(t, strings.HasSuffix(filename, ".pdf"))
	assert.Equal(t, storage.GetFilePath(filename), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 test", string(data))

	require.NoError(t, storage.DeleteFile(filename))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestStorageRejectsNonPDF(t *testing.T) {
	dir := t.TempDir()
	storage := NewStorageService(dir)

	_, _, err := storage.SaveFile(newFileHeader(t, "resume.docx", []byte("doc")))
	assert.ErrorIs(t, err, ErrInvalidFileType)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
