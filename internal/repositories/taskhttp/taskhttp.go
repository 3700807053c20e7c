// Package taskhttp resolves task metadata from a remote task details
// service over HTTP.
package taskhttp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nkasozi/reconciler-backend/internal/recon"
)

// Client implements recon.TaskMetadataLookup against
// GET {base}/v1/task-details/{id}/metadata.
type Client struct {
	base string
	hc   *http.Client
}

// New builds a client; a zero timeout means 5s.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{base: strings.TrimRight(baseURL, "/"), hc: &http.Client{Timeout: timeout}}
}

func (c *Client) Get(ctx context.Context, uploadRequestID string) (recon.ReconTaskMetadata, error) {
	endpoint := fmt.Sprintf("%s/v1/task-details/%s/metadata", c.base, url.PathEscape(uploadRequestID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return recon.ReconTaskMetadata{}, recon.WrapError(recon.KindInternalError, err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.hc.Do(req)
	if err != nil {
		return recon.ReconTaskMetadata{}, recon.WrapError(recon.KindConnectionError, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return recon.ReconTaskMetadata{}, recon.WrapError(recon.KindConnectionError, err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return recon.ReconTaskMetadata{}, recon.NewError(recon.KindNotFound, "no recon task with id %s", uploadRequestID)
	case resp.StatusCode >= 300:
		return recon.ReconTaskMetadata{}, recon.NewError(recon.KindConnectionError,
			"task service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var meta recon.ReconTaskMetadata
	if err := json.Unmarshal(body, &meta); err != nil {
		return recon.ReconTaskMetadata{}, recon.WrapError(recon.KindResponseUnmarshalError, err)
	}
	return meta, nil
}

var _ recon.TaskMetadataLookup = (*Client)(nil)
