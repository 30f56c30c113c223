package services

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"chapter-cms/pkg/models"
)

// Built-in collections. A collections.yml in the working directory may
// override or extend them.
func defaultCollections() map[string]models.Collection {
	return map[string]models.Collection{
		"events": {
			Name:         "events",
			ContentDir:   "src/content/events",
			UploadDir:    "public/uploads/events",
			PublicBase:   "/uploads/events",
			FilePrefix:   "event",
			ImageField:   "image",
			DefaultImage: "/images/event-default.jpg",
		},
		"scholarships": {
			Name:       "scholarships",
			ContentDir: "src/content/scholarships",
			FilePrefix: "scholarship",
		},
	}
}

// LoadCollections returns the collection settings, applying overrides from
// the given YAML file when it exists.
func LoadCollections(path string) (map[string]models.Collection, error) {
	collections := defaultCollections()

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return collections, nil
		}
		return nil, fmt.Errorf("read collections config: %w", err)
	}

	var file struct {
		Collections []models.Collection `yaml:"collections"`
	}
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil, fmt.Errorf("parse collections config: %w", err)
	}

	for _, col := range file.Collections {
		if col.Name == "" {
			return nil, fmt.Errorf("collections config: entry without a name")
		}
		collections[col.Name] = col
	}
	return collections, nil
}
