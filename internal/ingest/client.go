package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cheggaaa/pb/v3"
)

const DefaultBaseURL = "https://www.kaggle.com/api/v1"

// HTTPError is a non-2xx answer from the dataset API.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("dataset api: %s", e.Status)
	}
	return fmt.Sprintf("dataset api: %s: %s", e.Status, e.Body)
}

// Client downloads dataset archives from the Kaggle API.
type Client struct {
	HTTP        *http.Client
	BaseURL     string
	Credentials Credentials

	// Progress receives a progress bar while downloading. nil disables it.
	Progress io.Writer
}

// NewHTTPClient returns a client that routes through proxy when it is set.
func NewHTTPClient(proxy string) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxy != "" {
		u, err := url.Parse(proxy)
		if err != nil {
			return nil, fmt.Errorf("parsing proxy url %q: %w", proxy, err)
		}
		transport.Proxy = http.ProxyURL(u)
	}
	return &http.Client{Transport: transport, Timeout: 10 * time.Minute}, nil
}

// Download streams the archive of dataset ("owner/name") into w.
func (c *Client) Download(ctx context.Context, dataset string, w io.Writer) error {
	owner, name, ok := strings.Cut(dataset, "/")
	if !ok || owner == "" || name == "" {
		return fmt.Errorf("dataset id %q is not owner/name", dataset)
	}

	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	endpoint := fmt.Sprintf("%s/datasets/download/%s/%s",
		strings.TrimSuffix(base, "/"), url.PathEscape(owner), url.PathEscape(name))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.SetBasicAuth(c.Credentials.Username, c.Credentials.Key)

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	var body io.Reader = resp.Body
	if c.Progress != nil && resp.ContentLength > 0 {
		bar := pb.New64(resp.ContentLength)
		bar.Set(pb.Bytes, true)
		bar.SetWriter(c.Progress)
		bar.Start()
		defer bar.Finish()
		body = bar.NewProxyReader(resp.Body)
	}

	if _, err := io.Copy(w, body); err != nil {
		return fmt.Errorf("reading download: %w", err)
	}
	return nil
}
