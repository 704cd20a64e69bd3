// registration/storage/http_store.go
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/hackbits/registration-service/shared/api"
)

// HTTPStore uploads artifacts to a Cloudinary-style unsigned upload
// endpoint and deletes them through the companion destroy endpoint.
type HTTPStore struct {
	httpClient   *http.Client
	uploadURL    string
	uploadPreset string
}

// NewHTTPStore creates a blob store client for the given upload endpoint.
func NewHTTPStore(uploadURL, uploadPreset string, timeout time.Duration) *HTTPStore {
	httpClient := api.NewDefaultHTTPClient()
	httpClient.Timeout = timeout
	return &HTTPStore{
		httpClient:   httpClient,
		uploadURL:    uploadURL,
		uploadPreset: uploadPreset,
	}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
}

// Put uploads the blob and returns its public URL plus the deletable handle.
func (hs *HTTPStore) Put(ctx context.Context, key, contentType string, data []byte) (*Object, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("upload_preset", hs.uploadPreset); err != nil {
		return nil, fmt.Errorf("failed to write upload preset field: %w", err)
	}
	if err := writer.WriteField("public_id", key); err != nil {
		return nil, fmt.Errorf("failed to write public id field: %w", err)
	}
	part, err := writer.CreateFormFile("file", key)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write upload payload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hs.uploadURL+"/upload", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := hs.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload of %s failed: %w: %v", key, ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d uploading %s", resp.StatusCode, key)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload response for %s: %w", key, err)
	}
	var parsed uploadResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode upload response for %s: %w", key, err)
	}
	if parsed.SecureURL == "" || parsed.PublicID == "" {
		return nil, fmt.Errorf("upload response for %s missing url or public id", key)
	}

	return &Object{URL: parsed.SecureURL, Key: parsed.PublicID}, nil
}

// Delete releases a previously uploaded blob so replaced artifacts don't
// accumulate.
func (hs *HTTPStore) Delete(ctx context.Context, key string) error {
	form := url.Values{"public_id": {key}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hs.uploadURL+"/destroy",
		bytes.NewBufferString(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create destroy request for %s: %w", key, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := hs.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("destroy of %s failed: %w: %v", key, ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("unexpected status %d destroying %s", resp.StatusCode, key)
	}
	return nil
}
