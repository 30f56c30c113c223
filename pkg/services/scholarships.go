package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"chapter-cms/pkg/models"
)

// ScholarshipService is the lifecycle manager for scholarships. Scholarships
// carry no image asset, so all store calls pass a nil asset and documents
// reference nothing.
type ScholarshipService struct {
	store    *ContentStore
	col      models.Collection
	validate *validator.Validate
	log      *slog.Logger
}

// NewScholarshipService builds the lifecycle manager for scholarships.
func NewScholarshipService(store *ContentStore, col models.Collection, log *slog.Logger) *ScholarshipService {
	return &ScholarshipService{
		store:    store,
		col:      col,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log,
	}
}

// Create validates the scholarship, derives its slug from the name and
// stores it.
func (s *ScholarshipService) Create(ctx context.Context, sc models.Scholarship) (string, error) {
	if err := s.validateScholarship(sc); err != nil {
		return "", err
	}

	slug := Slugify(sc.Name)
	if !IsValidSlug(slug) {
		return "", validationErrorf("name must contain characters usable in a slug")
	}

	err := s.store.Create(ctx, s.col, slug, func(string) []byte {
		return scholarshipDocument(sc).Encode()
	}, nil)
	if err != nil {
		return "", err
	}
	return slug, nil
}

// Update rewrites the scholarship at slug, renaming when the name-derived
// slug changed.
func (s *ScholarshipService) Update(ctx context.Context, slug string, sc models.Scholarship) (string, error) {
	if !IsValidSlug(slug) {
		return "", validationErrorf("invalid slug %q", slug)
	}
	if err := s.validateScholarship(sc); err != nil {
		return "", err
	}

	newSlug := Slugify(sc.Name)
	if !IsValidSlug(newSlug) {
		return "", validationErrorf("name must contain characters usable in a slug")
	}

	docFn := func(string) []byte {
		return scholarshipDocument(sc).Encode()
	}

	if newSlug != slug {
		s.log.Info("name change implies rename", "old_slug", slug, "new_slug", newSlug)
		if err := s.store.Rename(ctx, s.col, slug, newSlug, docFn, nil); err != nil {
			return "", err
		}
		return newSlug, nil
	}

	if err := s.store.Update(ctx, s.col, slug, docFn, nil); err != nil {
		return "", err
	}
	return slug, nil
}

// Delete removes the scholarship document.
func (s *ScholarshipService) Delete(ctx context.Context, slug string) error {
	if !IsValidSlug(slug) {
		return validationErrorf("invalid slug %q", slug)
	}
	return s.store.Delete(ctx, s.col, slug)
}

// Get returns the decoded document for one scholarship.
func (s *ScholarshipService) Get(ctx context.Context, slug string) (*Document, error) {
	return s.store.Get(ctx, s.col, slug)
}

// List returns the slugs of all stored scholarships.
func (s *ScholarshipService) List(ctx context.Context) []string {
	return s.store.List(ctx, s.col)
}

func (s *ScholarshipService) validateScholarship(sc models.Scholarship) error {
	if err := s.validate.Struct(sc); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return validationErrorf("invalid %s: fails %q", verrs[0].Field(), verrs[0].Tag())
		}
		return validationErrorf("invalid input")
	}
	return nil
}

func scholarshipDocument(sc models.Scholarship) *Document {
	doc := &Document{}
	doc.Set("name", sc.Name)
	doc.Set("amount", sc.Amount)
	doc.Set("frequency", sc.Frequency)
	doc.Set("deadline", Literal(sc.Deadline.Format(dateLayout)))
	doc.Set("description", sc.Description)
	doc.Set("eligibility", sc.Eligibility)
	return doc
}
