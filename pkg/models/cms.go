package models

// Collection describes one content type: where its markdown documents and
// uploaded assets live in the repository, and how asset references are built.
type Collection struct {
	// Name is the collection key, e.g. "events".
	Name string `yaml:"name"`
	// ContentDir is the repository directory holding <slug>.md documents.
	ContentDir string `yaml:"content_dir"`
	// UploadDir is the repository directory holding per-slug asset folders.
	// Empty when the collection has no assets.
	UploadDir string `yaml:"upload_dir"`
	// PublicBase is the URL prefix assets are referenced by in documents.
	PublicBase string `yaml:"public_base"`
	// FilePrefix prefixes generated asset filenames, e.g. "event".
	FilePrefix string `yaml:"file_prefix"`
	// ImageField names the front matter field holding the asset reference.
	// Empty when the collection has no assets.
	ImageField string `yaml:"image_field"`
	// DefaultImage is referenced when no asset was uploaded.
	DefaultImage string `yaml:"default_image"`
}

// DocPath returns the repository path of a slug's markdown document.
func (c Collection) DocPath(slug string) string {
	return c.ContentDir + "/" + slug + ".md"
}

// AssetDir returns the repository directory holding a slug's assets.
func (c Collection) AssetDir(slug string) string {
	return c.UploadDir + "/" + slug
}

// AssetPath returns the repository path of one asset file.
func (c Collection) AssetPath(slug, filename string) string {
	return c.AssetDir(slug) + "/" + filename
}

// AssetURL returns the public URL a document references an asset by.
func (c Collection) AssetURL(slug, filename string) string {
	return c.PublicBase + "/" + slug + "/" + filename
}

// HasAssets reports whether this collection stores uploaded assets.
func (c Collection) HasAssets() bool {
	return c.UploadDir != "" && c.ImageField != ""
}
