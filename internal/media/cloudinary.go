package media

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultBaseURL = "https://api.cloudinary.com/v1_1"

// Client talks to the Cloudinary upload API. All operations fail soft:
// an upload or delete that goes wrong returns nil/false and logs, the
// caller decides whether that sinks the request.
type Client struct {
	cloudName string
	apiKey    string
	apiSecret string
	baseURL   string
	httpc     *http.Client
}

type UploadResult struct {
	URL      string  `json:"secure_url"`
	PublicID string  `json:"public_id"`
	Duration float64 `json:"duration,omitempty"`
}

func NewClient(cloudName, apiKey, apiSecret string) *Client {
	return &Client{
		cloudName: cloudName,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		baseURL:   defaultBaseURL,
		httpc:     &http.Client{Timeout: 60 * time.Second},
	}
}

// Upload pushes a staged local file to the media host and removes the
// local copy whether or not the upload succeeded.
func (c *Client) Upload(localPath string) *UploadResult {
	if localPath == "" {
		return nil
	}
	defer func() {
		if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
			log.Printf("[MEDIA] failed to remove staged file %s: %v", localPath, err)
		}
	}()

	if c.cloudName == "" {
		log.Println("[MEDIA] upload skipped: media host not configured")
		return nil
	}

	file, err := os.Open(localPath)
	if err != nil {
		log.Printf("[MEDIA] cannot open staged file %s: %v", localPath, err)
		return nil
	}
	defer file.Close()

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	publicID := uuid.NewString()
	params := map[string]string{
		"public_id": publicID,
		"timestamp": timestamp,
	}

	// stream the multipart body straight from disk; staged videos can be
	// hundreds of megabytes
	pipeReader, pipeWriter := io.Pipe()
	writer := multipart.NewWriter(pipeWriter)
	go func() {
		err := func() error {
			if err := writer.WriteField("api_key", c.apiKey); err != nil {
				return err
			}
			if err := writer.WriteField("public_id", publicID); err != nil {
				return err
			}
			if err := writer.WriteField("timestamp", timestamp); err != nil {
				return err
			}
			if err := writer.WriteField("signature", c.sign(params)); err != nil {
				return err
			}
			part, err := writer.CreateFormFile("file", path.Base(localPath))
			if err != nil {
				return err
			}
			if _, err := io.Copy(part, file); err != nil {
				return err
			}
			return writer.Close()
		}()
		if err != nil {
			log.Printf("[MEDIA] cannot write upload body for %s: %v", localPath, err)
		}
		pipeWriter.CloseWithError(err)
	}()

	endpoint := fmt.Sprintf("%s/%s/auto/upload", c.baseURL, c.cloudName)
	req, err := http.NewRequest(http.MethodPost, endpoint, pipeReader)
	if err != nil {
		log.Println("[MEDIA] cannot build upload request:", err)
		return nil
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpc.Do(req)
	if err != nil {
		log.Println("[MEDIA] upload request failed:", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Println("[MEDIA] upload rejected with status:", resp.StatusCode)
		return nil
	}

	var result UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil || result.URL == "" {
		log.Println("[MEDIA] upload response decode failed:", err)
		return nil
	}

	log.Println("[MEDIA] uploaded:", result.URL)
	return &result
}

// RemoveByURL deletes a previously uploaded asset, deriving the public id
// from the asset URL. resourceType is "image" or "video".
func (c *Client) RemoveByURL(assetURL, resourceType string) bool {
	publicID := publicIDFromURL(assetURL)
	if publicID == "" || c.cloudName == "" {
		return false
	}
	if resourceType == "" {
		resourceType = "image"
	}

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	params := map[string]string{
		"public_id": publicID,
		"timestamp": timestamp,
	}

	form := url.Values{}
	form.Set("api_key", c.apiKey)
	form.Set("public_id", publicID)
	form.Set("timestamp", timestamp)
	form.Set("signature", c.sign(params))

	endpoint := fmt.Sprintf("%s/%s/%s/destroy", c.baseURL, c.cloudName, resourceType)
	resp, err := c.httpc.PostForm(endpoint, form)
	if err != nil {
		log.Println("[MEDIA] destroy request failed:", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Println("[MEDIA] destroy rejected with status:", resp.StatusCode)
		return false
	}

	log.Println("[MEDIA] removed:", publicID)
	return true
}

// sign computes the request signature: sha1 over the sorted key=value
// parameter string with the API secret appended.
func (c *Client) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+params[key])
	}

	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + c.apiSecret))
	return hex.EncodeToString(sum[:])
}

func publicIDFromURL(assetURL string) string {
	trimmed := strings.TrimSpace(assetURL)
	if trimmed == "" {
		return ""
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return ""
	}

	base := path.Base(parsed.Path)
	if base == "." || base == "/" {
		return ""
	}

	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}
