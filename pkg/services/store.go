package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"chapter-cms/pkg/models"
)

// DocumentFunc renders the markdown document for a given asset URL. The
// lifecycle layer owns the document content; the store owns the URL it must
// reference, which is only known after the asset write.
type DocumentFunc func(imageURL string) []byte

// Asset is an uploaded binary to be stored next to a document.
type Asset struct {
	Filename string
	Data     []byte
}

// ContentStore composes the remote file client into entity-level operations.
// Every write is an independently atomic remote call with no cross-file
// transaction; the store preserves the entity invariant by ordering commits
// so a crash mid-sequence leaves a harmless orphan rather than a document
// pointing at nothing: assets before documents, new state before deleting
// old state.
type ContentStore struct {
	client RemoteClient
	log    *slog.Logger
	now    func() time.Time
}

// NewContentStore builds a store on top of a remote client.
func NewContentStore(client RemoteClient, log *slog.Logger) *ContentStore {
	return &ContentStore{client: client, log: log, now: time.Now}
}

// Create writes a new entry. The asset (when given) is committed first so a
// failure between the two writes orphans an unreferenced file instead of
// committing a document with a dangling reference.
func (s *ContentStore) Create(ctx context.Context, col models.Collection, slug string, doc DocumentFunc, asset *Asset) error {
	if !IsValidSlug(slug) {
		return validationErrorf("invalid slug %q", slug)
	}

	docPath := col.DocPath(slug)
	if _, err := s.client.GetFile(ctx, docPath); err == nil {
		return fmt.Errorf("create %s/%s: %w", col.Name, slug, ErrAlreadyExists)
	} else if !errors.Is(err, ErrNotFound) {
		// Existence probe failed in transit. Proceed as absent: the
		// write below is still guarded by the remote's own
		// create-vs-exists check.
		s.log.Warn("existence check failed, assuming absent", "path", docPath, "error", err)
	}

	imageURL := col.DefaultImage
	if asset != nil && len(asset.Data) > 0 && col.HasAssets() {
		filename := s.assetFilename(col, asset.Filename)
		if err := s.client.PutFile(ctx, col.AssetPath(slug, filename), asset.Data, ""); err != nil {
			return fmt.Errorf("create %s/%s: asset: %w", col.Name, slug, err)
		}
		imageURL = col.AssetURL(slug, filename)
	}

	if err := s.client.PutFile(ctx, docPath, doc(imageURL), ""); err != nil {
		return fmt.Errorf("create %s/%s: %w", col.Name, slug, err)
	}
	s.log.Info("entry created", "collection", col.Name, "slug", slug)
	return nil
}

// Update rewrites an entry in place. The held sha makes the final write
// compare-and-swap: a concurrent edit surfaces as ErrConflict and is never
// silently retried.
func (s *ContentStore) Update(ctx context.Context, col models.Collection, slug string, doc DocumentFunc, asset *Asset) error {
	if !IsValidSlug(slug) {
		return validationErrorf("invalid slug %q", slug)
	}

	docPath := col.DocPath(slug)
	handle, err := s.client.GetFile(ctx, docPath)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", col.Name, slug, err)
	}

	imageURL, err := s.replaceAsset(ctx, col, slug, handle, asset)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", col.Name, slug, err)
	}

	if err := s.client.PutFile(ctx, docPath, doc(imageURL), handle.SHA); err != nil {
		return fmt.Errorf("update %s/%s: %w", col.Name, slug, err)
	}
	s.log.Info("entry updated", "collection", col.Name, "slug", slug)
	return nil
}

// Rename moves an entry to a new slug. The new document is committed first
// (a fresh sha-less create); only then is the old document deleted, and that
// delete is best-effort: the new document is the last-validated authoritative
// state, so a leftover old document is an orphan to clean up out of band,
// never a data loss. The old asset directory is intentionally left in place
// since the new document may still reference files there.
func (s *ContentStore) Rename(ctx context.Context, col models.Collection, oldSlug, newSlug string, doc DocumentFunc, asset *Asset) error {
	if !IsValidSlug(oldSlug) || !IsValidSlug(newSlug) {
		return validationErrorf("invalid slug")
	}

	oldPath := col.DocPath(oldSlug)
	handle, err := s.client.GetFile(ctx, oldPath)
	if err != nil {
		return fmt.Errorf("rename %s/%s: %w", col.Name, oldSlug, err)
	}

	// New asset, if any, goes under the new slug's directory.
	imageURL, err := s.replaceAsset(ctx, col, newSlug, handle, asset)
	if err != nil {
		return fmt.Errorf("rename %s/%s: %w", col.Name, oldSlug, err)
	}

	if err := s.client.PutFile(ctx, col.DocPath(newSlug), doc(imageURL), ""); err != nil {
		return fmt.Errorf("rename %s/%s -> %s: %w", col.Name, oldSlug, newSlug, err)
	}

	if err := s.client.DeleteFile(ctx, oldPath); err != nil {
		s.log.Warn("old document left behind after rename",
			"collection", col.Name, "old_slug", oldSlug, "new_slug", newSlug, "error", err)
	}
	s.log.Info("entry renamed", "collection", col.Name, "old_slug", oldSlug, "new_slug", newSlug)
	return nil
}

// Delete removes an entry and its asset directory. Deleting an already
// absent entry is a success so retries stay idempotent.
func (s *ContentStore) Delete(ctx context.Context, col models.Collection, slug string) error {
	if !IsValidSlug(slug) {
		return validationErrorf("invalid slug %q", slug)
	}

	if col.HasAssets() {
		dir := col.AssetDir(slug)
		for _, entry := range s.client.ListDirectory(ctx, dir) {
			if entry.Type != "file" {
				continue
			}
			if err := s.client.DeleteFile(ctx, dir+"/"+entry.Name); err != nil {
				s.log.Warn("asset delete failed", "path", dir+"/"+entry.Name, "error", err)
			}
		}
		// Directories are implicit on the remote; this usually no-ops
		// and any failure must not abort the delete.
		if err := s.client.DeleteFile(ctx, dir); err != nil {
			s.log.Warn("asset directory delete failed", "path", dir, "error", err)
		}
	}

	if err := s.client.DeleteFile(ctx, col.DocPath(slug)); err != nil {
		return fmt.Errorf("delete %s/%s: %w", col.Name, slug, err)
	}
	s.log.Info("entry deleted", "collection", col.Name, "slug", slug)
	return nil
}

// Get reads and decodes an entry's current document. This is the write
// path's own existence check; it never consults the rendering layer's cache.
func (s *ContentStore) Get(ctx context.Context, col models.Collection, slug string) (*Document, error) {
	if !IsValidSlug(slug) {
		return nil, validationErrorf("invalid slug %q", slug)
	}
	handle, err := s.client.GetFile(ctx, col.DocPath(slug))
	if err != nil {
		return nil, err
	}
	return DecodeDocument(handle.Content), nil
}

// List returns the slugs present in a collection's content directory.
func (s *ContentStore) List(ctx context.Context, col models.Collection) []string {
	var slugs []string
	for _, entry := range s.client.ListDirectory(ctx, col.ContentDir) {
		if entry.Type != "file" || !strings.HasSuffix(entry.Name, ".md") {
			continue
		}
		slugs = append(slugs, strings.TrimSuffix(entry.Name, ".md"))
	}
	return slugs
}

// replaceAsset applies the asset policy shared by Update and Rename: keep
// the current reference unless a new asset arrives, in which case the old
// file is deleted best-effort and the new one written under a fresh
// timestamped name in slug's directory.
func (s *ContentStore) replaceAsset(ctx context.Context, col models.Collection, slug string, current *FileHandle, asset *Asset) (string, error) {
	imageURL := DecodeDocument(current.Content).StringField(col.ImageField)
	if imageURL == "" {
		imageURL = col.DefaultImage
	}
	if asset == nil || len(asset.Data) == 0 || !col.HasAssets() {
		return imageURL, nil
	}

	if old := assetRepoPath(imageURL, col); old != "" {
		if err := s.client.DeleteFile(ctx, old); err != nil {
			s.log.Warn("old asset delete failed", "path", old, "error", err)
		}
	}

	filename := s.assetFilename(col, asset.Filename)
	if err := s.client.PutFile(ctx, col.AssetPath(slug, filename), asset.Data, ""); err != nil {
		return "", fmt.Errorf("asset: %w", err)
	}
	return col.AssetURL(slug, filename), nil
}

// assetFilename embeds a creation timestamp so a replacement never collides
// with a previously deleted asset of the same slug.
func (s *ContentStore) assetFilename(col models.Collection, uploaded string) string {
	ext := "png"
	if idx := strings.LastIndex(uploaded, "."); idx >= 0 && idx < len(uploaded)-1 {
		ext = strings.ToLower(uploaded[idx+1:])
	}
	return fmt.Sprintf("%s-%d.%s", col.FilePrefix, s.now().UnixMilli(), ext)
}

// assetRepoPath maps a public asset URL back to its repository path, or ""
// when the URL is not an uploaded asset (e.g. the collection default).
func assetRepoPath(imageURL string, col models.Collection) string {
	if imageURL == "" || !strings.HasPrefix(imageURL, col.PublicBase+"/") {
		return ""
	}
	return col.UploadDir + "/" + strings.TrimPrefix(imageURL, col.PublicBase+"/")
}
