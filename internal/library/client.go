package library

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"time"
)

const clientTimeout = 5 * time.Minute

// Client talks to a library server.
type Client struct {
	base   *url.URL
	http   *http.Client
	logger *slog.Logger
}

// NewClient creates a client for the server at base, e.g.
// "http://localhost:10102". With an empty base the client only fetches
// absolute URLs.
func NewClient(base string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := &Client{
		http:   &http.Client{Timeout: clientTimeout},
		logger: logger,
	}
	if base == "" {
		return c, nil
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parsing library URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("library URL must be http(s): %s", base)
	}
	c.base = u
	return c, nil
}

// HasServer reports whether the client was created with a server URL.
func (c *Client) HasServer() bool { return c.base != nil }

// Resolve returns the absolute URL of ref relative to the server.
func (c *Client) Resolve(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	if c.base == nil {
		if !u.IsAbs() {
			return "", fmt.Errorf("%w: %s", ErrNoServer, ref)
		}
		return u.String(), nil
	}
	return c.base.ResolveReference(u).String(), nil
}

func (c *Client) get(ctx context.Context, ref string) (*http.Response, error) {
	abs, err := c.Resolve(ref)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, abs, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "audiovisual")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: %s", abs, resp.Status)
	}
	return resp, nil
}

// List fetches the server's file list.
func (c *Client) List(ctx context.Context) ([]Entry, error) {
	resp, err := c.get(ctx, ListPath)
	if err != nil {
		return nil, fmt.Errorf("fetching file list: %w", err)
	}
	defer resp.Body.Close()

	var entries []Entry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decoding file list: %w", err)
	}
	c.logger.Debug("file list loaded", slog.Int("files", len(entries)))
	return entries, nil
}

// FetchFile downloads ref into a temporary file and returns its path. The
// caller owns the file.
func (c *Client) FetchFile(ctx context.Context, ref string) (string, error) {
	resp, err := c.get(ctx, ref)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	tmp, err := os.CreateTemp("", "audiovisual-*"+path.Ext(resp.Request.URL.Path))
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	n, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("downloading %s: %w", ref, err)
	}
	c.logger.Debug("file fetched", slog.String("url", ref), slog.Int64("bytes", n))
	return tmp.Name(), nil
}
