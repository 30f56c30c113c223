package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// contentsAPI is a minimal in-memory GitHub contents API.
type contentsAPI struct {
	files    map[string]string // path -> content
	shas     map[string]string
	nextSHA  int
	requests []string // "METHOD path"
}

func newContentsAPI() *contentsAPI {
	return &contentsAPI{files: map[string]string{}, shas: map[string]string{}}
}

func (a *contentsAPI) put(path, content string) {
	a.nextSHA++
	a.files[path] = content
	a.shas[path] = fmt.Sprintf("sha-%d", a.nextSHA)
}

func (a *contentsAPI) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const prefix = "/repos/acme/site/contents/"
		require.True(t, len(r.URL.Path) > len(prefix), "unexpected path %s", r.URL.Path)
		path := r.URL.Path[len(prefix):]
		a.requests = append(a.requests, r.Method+" "+path)

		switch r.Method {
		case http.MethodGet:
			if content, ok := a.files[path]; ok {
				json.NewEncoder(w).Encode(map[string]string{
					"sha":     a.shas[path],
					"content": base64.StdEncoding.EncodeToString([]byte(content)),
				})
				return
			}
			// Directory listing: direct children of path.
			var entries []map[string]string
			for p := range a.files {
				if rel, ok := childOf(p, path); ok {
					entries = append(entries, map[string]string{"name": rel, "type": "file"})
				}
			}
			if len(entries) > 0 {
				json.NewEncoder(w).Encode(entries)
				return
			}
			w.WriteHeader(http.StatusNotFound)

		case http.MethodPut:
			var body struct {
				Content string `json:"content"`
				SHA     string `json:"sha"`
				Branch  string `json:"branch"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			current, exists := a.shas[path]
			if body.SHA == "" && exists {
				w.WriteHeader(http.StatusUnprocessableEntity)
				return
			}
			if body.SHA != "" && (!exists || body.SHA != current) {
				w.WriteHeader(http.StatusConflict)
				return
			}
			raw, err := base64.StdEncoding.DecodeString(body.Content)
			require.NoError(t, err)
			a.put(path, string(raw))
			if exists {
				w.WriteHeader(http.StatusOK)
			} else {
				w.WriteHeader(http.StatusCreated)
			}

		case http.MethodDelete:
			var body struct {
				SHA string `json:"sha"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			current, exists := a.shas[path]
			if !exists {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			if body.SHA != current {
				w.WriteHeader(http.StatusConflict)
				return
			}
			delete(a.files, path)
			delete(a.shas, path)
			w.WriteHeader(http.StatusOK)
		}
	})
}

func childOf(p, dir string) (string, bool) {
	if len(p) <= len(dir)+1 || p[:len(dir)] != dir || p[len(dir)] != '/' {
		return "", false
	}
	rel := p[len(dir)+1:]
	for i := 0; i < len(rel); i++ {
		if rel[i] == '/' {
			return "", false
		}
	}
	return rel, true
}

func testClient(t *testing.T, api *contentsAPI) (*GitHubClient, *httptest.Server) {
	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)
	client := NewGitHubClient(RemoteConfig{
		Owner:   "acme",
		Repo:    "site",
		Branch:  "main",
		Token:   "test-token",
		BaseURL: srv.URL,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return client, srv
}

func TestGetFile(t *testing.T) {
	api := newContentsAPI()
	api.put("src/content/events/demo.md", "---\ntitle: \"Demo\"\n---\n")
	client, _ := testClient(t, api)

	handle, err := client.GetFile(context.Background(), "src/content/events/demo.md")
	require.NoError(t, err)
	assert.Equal(t, api.shas["src/content/events/demo.md"], handle.SHA)
	assert.Contains(t, string(handle.Content), "Demo")
}

func TestGetFileNotFound(t *testing.T) {
	client, _ := testClient(t, newContentsAPI())

	_, err := client.GetFile(context.Background(), "src/content/events/missing.md")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPutFileCreateAndUpdate(t *testing.T) {
	api := newContentsAPI()
	client, _ := testClient(t, api)
	ctx := context.Background()

	require.NoError(t, client.PutFile(ctx, "src/content/events/new.md", []byte("v1"), ""))
	assert.Equal(t, "v1", api.files["src/content/events/new.md"])

	handle, err := client.GetFile(ctx, "src/content/events/new.md")
	require.NoError(t, err)
	require.NoError(t, client.PutFile(ctx, "src/content/events/new.md", []byte("v2"), handle.SHA))
	assert.Equal(t, "v2", api.files["src/content/events/new.md"])
}

func TestPutFileConflictOnStaleSHA(t *testing.T) {
	api := newContentsAPI()
	api.put("doc.md", "v1")
	client, _ := testClient(t, api)
	ctx := context.Background()

	handle, err := client.GetFile(ctx, "doc.md")
	require.NoError(t, err)

	// Out-of-band modification invalidates the held sha.
	api.put("doc.md", "v2")

	err = client.PutFile(ctx, "doc.md", []byte("v3"), handle.SHA)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, "v2", api.files["doc.md"])
}

func TestPutFileConflictOnShalessCreateOverExisting(t *testing.T) {
	api := newContentsAPI()
	api.put("doc.md", "v1")
	client, _ := testClient(t, api)

	err := client.PutFile(context.Background(), "doc.md", []byte("v2"), "")
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, "v1", api.files["doc.md"])
}

func TestDeleteFile(t *testing.T) {
	api := newContentsAPI()
	api.put("doc.md", "v1")
	client, _ := testClient(t, api)

	require.NoError(t, client.DeleteFile(context.Background(), "doc.md"))
	assert.NotContains(t, api.files, "doc.md")
}

func TestDeleteFileAbsentIsNoop(t *testing.T) {
	api := newContentsAPI()
	client, _ := testClient(t, api)

	require.NoError(t, client.DeleteFile(context.Background(), "gone.md"))
	// The prerequisite lookup runs, but no DELETE is issued.
	for _, req := range api.requests {
		assert.NotContains(t, req, "DELETE")
	}
}

func TestListDirectory(t *testing.T) {
	api := newContentsAPI()
	api.put("public/uploads/events/demo/event-1.jpg", "img1")
	api.put("public/uploads/events/demo/event-2.jpg", "img2")
	api.put("public/uploads/events/other/event-3.jpg", "img3")
	client, _ := testClient(t, api)

	entries := client.ListDirectory(context.Background(), "public/uploads/events/demo")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	assert.ElementsMatch(t, []string{"event-1.jpg", "event-2.jpg"}, names)
}

func TestListDirectoryErrorReturnsEmpty(t *testing.T) {
	client, _ := testClient(t, newContentsAPI())
	assert.Empty(t, client.ListDirectory(context.Background(), "no/such/dir"))
}

func TestMutationsDegradeToNoopsWithoutCredentials(t *testing.T) {
	api := newContentsAPI()
	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)

	client := NewGitHubClient(RemoteConfig{
		Owner:   "acme",
		Repo:    "site",
		BaseURL: srv.URL,
		// Token deliberately unset.
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	// Deliberate contract: credential-less development must not fail
	// requests, so writes succeed without touching the remote.
	require.NoError(t, client.PutFile(ctx, "doc.md", []byte("v1"), ""))
	require.NoError(t, client.DeleteFile(ctx, "doc.md"))
	assert.Empty(t, api.requests)
	assert.False(t, client.CanWrite())
}
