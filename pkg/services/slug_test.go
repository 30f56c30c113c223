package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"simple", "Hello World!", "hello-world"},
		{"surrounding whitespace", "  ANS Annual Meeting 2024  ", "ans-annual-meeting-2024"},
		{"special characters", "C++ Programming", "c-programming"},
		{"double spaces and punctuation", "Fall  Welcome!!", "fall-welcome"},
		{"underscores collapse", "foo_bar__baz", "foo-bar-baz"},
		{"existing hyphens collapse", "a--b---c", "a-b-c"},
		{"leading trailing separators", "--trim me--", "trim-me"},
		{"only punctuation", "!!!???", ""},
		{"only emoji", "🎉🎉", ""},
		{"empty", "", ""},
		{"mixed case", "Fall Kickoff", "fall-kickoff"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.title))
		})
	}
}

func TestIsValidSlug(t *testing.T) {
	assert.True(t, IsValidSlug("fall-welcome"))
	assert.True(t, IsValidSlug("a"))
	assert.True(t, IsValidSlug("2024"))
	assert.False(t, IsValidSlug(""))
	assert.False(t, IsValidSlug("Fall-Welcome"))
	assert.False(t, IsValidSlug("has space"))
	assert.False(t, IsValidSlug("has/slash"))
	assert.False(t, IsValidSlug("dot.md"))
}

func TestSlugifyProducesValidSlugs(t *testing.T) {
	// Any title with at least one alphanumeric character must slugify to a
	// valid slug.
	titles := []string{
		"x", "Hello, World", "100% Legit", "émigré 7", "_a_", "- b -",
		"Scholarship (Fall '24)", "Tabs\tand\tspaces",
	}
	for _, title := range titles {
		slug := Slugify(title)
		assert.True(t, IsValidSlug(slug), "title %q gave slug %q", title, slug)
	}
}

func TestUniqueSlug(t *testing.T) {
	assert.Equal(t, "fresh-title", UniqueSlug("Fresh Title", []string{"other"}))

	got := UniqueSlug("Taken Title", []string{"taken-title"})
	assert.NotEqual(t, "taken-title", got)
	assert.Regexp(t, `^taken-title-\d+$`, got)
}
