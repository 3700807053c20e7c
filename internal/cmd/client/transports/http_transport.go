package transports

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nkasozi/reconciler-backend/internal/recon"
)

// HTTPTransport talks to the JSON API. The base URL is resolved per call so
// the embedding application can change it after construction.
type HTTPTransport struct {
	baseURL func() string
	client  *http.Client
}

// NewHTTPTransport constructs an HTTPTransport with a 30s client timeout.
func NewHTTPTransport(baseURL func() string) *HTTPTransport {
	return &HTTPTransport{baseURL: baseURL, client: &http.Client{Timeout: 30 * time.Second}}
}

// UploadChunk posts one chunk to /v1/file-chunks.
func (t *HTTPTransport) UploadChunk(ctx context.Context, req recon.UploadChunkRequest) (recon.UploadChunkResponse, error) {
	var out recon.UploadChunkResponse
	err := t.Call(ctx, http.MethodPost, "/v1/file-chunks", req, &out)
	return out, err
}

// Call sends in as a JSON body (when non-nil) and decodes the response into
// out (when non-nil). Non-2xx answers come back as *APIError.
func (t *HTTPTransport) Call(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(t.baseURL(), "/")+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
