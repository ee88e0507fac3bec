package media

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	maxImageSize = 5 << 20
	maxVideoSize = 200 << 20
)

var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
}

var videoExtensions = map[string]struct{}{
	".mp4":  {},
	".mov":  {},
	".webm": {},
	".mkv":  {},
}

// StageImage writes an uploaded image to dir under a random name and
// returns the local path for a subsequent Upload call.
func StageImage(file *multipart.FileHeader, dir string) (string, error) {
	return stage(file, dir, imageExtensions, maxImageSize)
}

func StageVideo(file *multipart.FileHeader, dir string) (string, error) {
	return stage(file, dir, videoExtensions, maxVideoSize)
}

func stage(file *multipart.FileHeader, dir string, allowed map[string]struct{}, maxSize int64) (string, error) {
	extension := strings.ToLower(filepath.Ext(file.Filename))
	if extension == "" {
		return "", fmt.Errorf("file extension is required")
	}
	if _, ok := allowed[extension]; !ok {
		return "", fmt.Errorf("unsupported file type: %s", extension)
	}
	if file.Size > maxSize {
		return "", fmt.Errorf("file too large (max %dMB)", maxSize>>20)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	fullPath := filepath.Join(dir, uuid.NewString()+extension)

	out, err := os.Create(fullPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	in, err := file.Open()
	if err != nil {
		os.Remove(fullPath)
		return "", err
	}
	defer in.Close()

	if _, err := io.Copy(out, in); err != nil {
		os.Remove(fullPath)
		return "", err
	}

	return fullPath, nil
}
