package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// RemoteConfig identifies the repository and branch all content operations
// target. It is constructed once at startup and injected, never read from
// ambient state, so tests can substitute their own values.
type RemoteConfig struct {
	Owner   string
	Repo    string
	Branch  string
	Token   string
	BaseURL string
	Timeout time.Duration
}

// CanWrite reports whether mutating calls can actually reach the remote.
// When false, writes degrade to logged no-op successes so credential-less
// development keeps working end to end.
func (c RemoteConfig) CanWrite() bool {
	return c.Owner != "" && c.Repo != "" && c.Token != ""
}

// FileHandle is a remote file plus the concurrency token (content SHA)
// required to mutate it.
type FileHandle struct {
	Path    string
	SHA     string
	Content []byte
}

// DirEntry is one entry of a remote directory listing.
type DirEntry struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// RemoteClient is the thin protocol layer the content store is built on.
type RemoteClient interface {
	// GetFile resolves existence and the current concurrency token.
	// Returns ErrNotFound for absent paths.
	GetFile(ctx context.Context, path string) (*FileHandle, error)
	// PutFile creates (sha empty) or updates (sha set and current) a file.
	// A stale sha, or an empty sha against an existing path, yields
	// ErrConflict.
	PutFile(ctx context.Context, path string, content []byte, sha string) error
	// DeleteFile resolves the current sha itself and deletes the file.
	// An already-absent path is a no-op success and issues no DELETE call.
	DeleteFile(ctx context.Context, path string) error
	// ListDirectory returns the entries of a directory, empty on any
	// error. Absence and transport failure are not distinguished here.
	ListDirectory(ctx context.Context, path string) []DirEntry
}

// GitHubClient speaks the GitHub contents API.
type GitHubClient struct {
	cfg  RemoteConfig
	http *http.Client
	log  *slog.Logger
}

// NewGitHubClient builds a client for the configured repository. The bearer
// token rides on an oauth2 static token source.
func NewGitHubClient(cfg RemoteConfig, log *slog.Logger) *GitHubClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.github.com"
	}
	if cfg.Branch == "" {
		cfg.Branch = "main"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}

	httpClient := &http.Client{}
	if cfg.Token != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		httpClient = oauth2.NewClient(context.Background(), src)
	}
	httpClient.Timeout = cfg.Timeout

	return &GitHubClient{cfg: cfg, http: httpClient, log: log}
}

// CanWrite reports whether the client holds complete credentials.
func (c *GitHubClient) CanWrite() bool {
	return c.cfg.CanWrite()
}

func (c *GitHubClient) contentsURL(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s",
		c.cfg.BaseURL, c.cfg.Owner, c.cfg.Repo, strings.Join(segments, "/"))
}

func (c *GitHubClient) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Accept", "application/vnd.github+json")
	return c.http.Do(req)
}

// GetFile fetches a file and its concurrency token.
func (c *GitHubClient) GetFile(ctx context.Context, path string) (*FileHandle, error) {
	u := c.contentsURL(path) + "?ref=" + url.QueryEscape(c.cfg.Branch)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(req)
	if err != nil {
		countRemoteCall("get", "error")
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		countRemoteCall("get", "not_found")
		return nil, fmt.Errorf("get %s: %w", path, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		countRemoteCall("get", "error")
		return nil, fmt.Errorf("get %s: unexpected status %d", path, resp.StatusCode)
	}

	var payload struct {
		SHA     string `json:"sha"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		countRemoteCall("get", "error")
		return nil, fmt.Errorf("get %s: %w", path, err)
	}

	// The API wraps base64 content in newlines.
	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(payload.Content, "\n", ""))
	if err != nil {
		return nil, fmt.Errorf("get %s: decode content: %w", path, err)
	}

	countRemoteCall("get", "ok")
	return &FileHandle{Path: path, SHA: payload.SHA, Content: raw}, nil
}

// PutFile creates or updates a file. With missing credentials it logs a
// warning and reports success without calling out.
func (c *GitHubClient) PutFile(ctx context.Context, path string, content []byte, sha string) error {
	if !c.cfg.CanWrite() {
		c.log.Warn("remote credentials missing, skipping write", "path", path)
		countRemoteCall("put", "skipped")
		return nil
	}

	action := "update"
	if sha == "" {
		action = "create"
	}
	body := map[string]string{
		"message": fmt.Sprintf("chore(content): %s %s", action, path),
		"content": base64.StdEncoding.EncodeToString(content),
		"branch":  c.cfg.Branch,
	}
	if sha != "" {
		body["sha"] = sha
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.contentsURL(path), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	resp, err := c.do(req)
	if err != nil {
		countRemoteCall("put", "error")
		return fmt.Errorf("put %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		c.log.Info("remote file written", "path", path, "action", action)
		countRemoteCall("put", "ok")
		return nil
	case http.StatusConflict, http.StatusUnprocessableEntity:
		// Stale sha, or sha-less create against an existing path.
		c.log.Warn("remote write rejected", "path", path, "status", resp.StatusCode)
		countRemoteCall("put", "conflict")
		return fmt.Errorf("put %s: %w", path, ErrConflict)
	default:
		c.log.Error("remote write failed", "path", path, "status", resp.StatusCode, "body", readSnippet(resp.Body))
		countRemoteCall("put", "error")
		return fmt.Errorf("put %s: unexpected status %d", path, resp.StatusCode)
	}
}

// DeleteFile deletes a file, resolving its current sha first. Deleting
// something already gone is not an error.
func (c *GitHubClient) DeleteFile(ctx context.Context, path string) error {
	if !c.cfg.CanWrite() {
		c.log.Warn("remote credentials missing, skipping delete", "path", path)
		countRemoteCall("delete", "skipped")
		return nil
	}

	handle, err := c.GetFile(ctx, path)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.log.Debug("remote file already absent", "path", path)
			countRemoteCall("delete", "noop")
			return nil
		}
		return err
	}

	body, err := json.Marshal(map[string]string{
		"message": fmt.Sprintf("chore(content): delete %s", path),
		"branch":  c.cfg.Branch,
		"sha":     handle.SHA,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.contentsURL(path), bytes.NewReader(body))
	if err != nil {
		return err
	}
	resp, err := c.do(req)
	if err != nil {
		countRemoteCall("delete", "error")
		return fmt.Errorf("delete %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNotFound:
		c.log.Info("remote file deleted", "path", path)
		countRemoteCall("delete", "ok")
		return nil
	case http.StatusConflict:
		countRemoteCall("delete", "conflict")
		return fmt.Errorf("delete %s: %w", path, ErrConflict)
	default:
		c.log.Error("remote delete failed", "path", path, "status", resp.StatusCode)
		countRemoteCall("delete", "error")
		return fmt.Errorf("delete %s: unexpected status %d", path, resp.StatusCode)
	}
}

// ListDirectory lists a directory, returning nil on any error.
func (c *GitHubClient) ListDirectory(ctx context.Context, path string) []DirEntry {
	u := c.contentsURL(path) + "?ref=" + url.QueryEscape(c.cfg.Branch)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil
	}
	resp, err := c.do(req)
	if err != nil {
		countRemoteCall("list", "error")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		countRemoteCall("list", "error")
		return nil
	}

	var entries []DirEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		countRemoteCall("list", "error")
		return nil
	}
	countRemoteCall("list", "ok")
	return entries
}

func readSnippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 512))
	return string(b)
}
