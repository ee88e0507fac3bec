package media

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicIDFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://res.cloudinary.com/demo/image/upload/v1/abc123.jpg", "abc123"},
		{"https://res.cloudinary.com/demo/video/upload/v1/clip.mp4", "clip"},
		{"https://res.cloudinary.com/demo/image/upload/noext", "noext"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, publicIDFromURL(tt.url), "url %q", tt.url)
	}
}

func TestSignIsDeterministicAndSorted(t *testing.T) {
	c := &Client{apiSecret: "shhh"}
	a := c.sign(map[string]string{"timestamp": "100", "public_id": "x"})
	b := c.sign(map[string]string{"public_id": "x", "timestamp": "100"})
	assert.Equal(t, a, b)
	assert.Len(t, a, 40)
}

func TestUploadRemovesStagedFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.NotEmpty(t, r.FormValue("signature"))
		assert.NotEmpty(t, r.FormValue("timestamp"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"secure_url": "https://host/x/abc.png",
			"public_id":  "abc",
		})
	}))
	defer server.Close()

	staged := filepath.Join(t.TempDir(), "staged.png")
	require.NoError(t, os.WriteFile(staged, []byte("img"), 0o644))

	c := NewClient("demo", "key", "secret")
	c.baseURL = server.URL

	result := c.Upload(staged)
	require.NotNil(t, result)
	assert.Equal(t, "https://host/x/abc.png", result.URL)

	_, err := os.Stat(staged)
	assert.True(t, os.IsNotExist(err), "staged file should be removed after upload")
}

func TestUploadStreamsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// the staged file is piped, not buffered, so the request carries
		// no Content-Length
		assert.Equal(t, int64(-1), r.ContentLength)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, _, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()

		data, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, []byte("streamed-bytes"), data)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"secure_url": "https://host/x/abc.png",
			"public_id":  "abc",
		})
	}))
	defer server.Close()

	staged := filepath.Join(t.TempDir(), "staged.png")
	require.NoError(t, os.WriteFile(staged, []byte("streamed-bytes"), 0o644))

	c := NewClient("demo", "key", "secret")
	c.baseURL = server.URL

	require.NotNil(t, c.Upload(staged))
}

func TestUploadSoftFailsOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	staged := filepath.Join(t.TempDir(), "staged.png")
	require.NoError(t, os.WriteFile(staged, []byte("img"), 0o644))

	c := NewClient("demo", "key", "secret")
	c.baseURL = server.URL

	assert.Nil(t, c.Upload(staged))
}

func TestRemoveByURLSoftFailsWithoutConfig(t *testing.T) {
	c := NewClient("", "", "")
	assert.False(t, c.RemoveByURL("https://host/x/abc.png", "image"))
}

func multipartFileHeader(t *testing.T, field, filename string, size int) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte("a"), size))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(maxVideoSize))
	return req.MultipartForm.File[field][0]
}

func TestStageImageRejectsUnknownExtension(t *testing.T) {
	header := multipartFileHeader(t, "avatar", "payload.exe", 10)
	_, err := StageImage(header, t.TempDir())
	assert.Error(t, err)
}

func TestStageImageWritesFile(t *testing.T) {
	header := multipartFileHeader(t, "avatar", "me.png", 10)
	dir := t.TempDir()

	staged, err := StageImage(header, dir)
	require.NoError(t, err)
	assert.Equal(t, ".png", filepath.Ext(staged))

	data, err := os.ReadFile(staged)
	require.NoError(t, err)
	assert.Len(t, data, 10)
}

func TestStageVideoAcceptsMP4(t *testing.T) {
	header := multipartFileHeader(t, "videoFile", "clip.mp4", 128)
	_, err := StageVideo(header, t.TempDir())
	assert.NoError(t, err)
}
