package services

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	slugStripRe = regexp.MustCompile(`[^\w\s-]`)
	slugSepRe   = regexp.MustCompile(`[\s_-]+`)
	slugValidRe = regexp.MustCompile(`^[a-z0-9-]+$`)
)

// Slugify derives the canonical storage key from a title: lowercase, trim,
// strip everything outside word/space/hyphen, collapse separator runs into a
// single hyphen, strip edge hyphens. Titles with no retainable characters
// produce "" and callers must treat that as a validation failure.
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = slugStripRe.ReplaceAllString(s, "")
	s = slugSepRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// IsValidSlug reports whether s is a usable storage key.
func IsValidSlug(s string) bool {
	return slugValidRe.MatchString(s)
}

// UniqueSlug returns Slugify(title), with a millisecond timestamp appended
// when the plain slug collides with an existing one.
func UniqueSlug(title string, existing []string) string {
	slug := Slugify(title)
	for _, e := range existing {
		if e == slug {
			return fmt.Sprintf("%s-%d", slug, time.Now().UnixMilli())
		}
	}
	return slug
}
