package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/stwalsh4118/grownby/internal/backend"
)

type uploadResponse struct {
	Key         string `json:"key"`
	DownloadURL string `json:"downloadUrl"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// progressReader reports the running byte count after every Read.
type progressReader struct {
	r          io.Reader
	total      int64
	sent       int64
	onProgress func(backend.Progress)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		if p.onProgress != nil {
			p.onProgress(backend.Progress{Transferred: p.sent, Total: p.total})
		}
	}
	return n, err
}

func (c *Client) PutStream(ctx context.Context, key string, r io.Reader, size int64, onProgress func(backend.Progress)) (string, error) {
	body := &progressReader{r: r, total: size, onProgress: onProgress}
	req, err := c.newRequest(ctx, http.MethodPut, "/api/v1/blobs/"+url.PathEscape(key), body)
	if err != nil {
		return "", err
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Accept", "application/json")

	var resp uploadResponse
	if err := c.send(req, &resp); err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return resp.DownloadURL, nil
}
