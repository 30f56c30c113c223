package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"chapter-cms/pkg/models"
)

const dateLayout = "2006-01-02"

// EventService applies the event domain rules before delegating to the
// content store: field validity, slug derivation, default image fallback,
// and whether a title edit amounts to a rename.
type EventService struct {
	store    *ContentStore
	col      models.Collection
	validate *validator.Validate
	log      *slog.Logger
}

// NewEventService builds the lifecycle manager for the events collection.
func NewEventService(store *ContentStore, col models.Collection, log *slog.Logger) *EventService {
	return &EventService{
		store:    store,
		col:      col,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log,
	}
}

// Create validates the event, derives its slug and stores it. A missing or
// empty image falls back to the collection's default image URL.
func (s *EventService) Create(ctx context.Context, ev models.Event, image *Asset) (string, error) {
	if err := s.validateEvent(ev); err != nil {
		return "", err
	}

	slug := Slugify(ev.Title)
	if !IsValidSlug(slug) {
		return "", validationErrorf("title must contain characters usable in a slug")
	}

	err := s.store.Create(ctx, s.col, slug, func(imageURL string) []byte {
		return eventDocument(ev, imageURL).Encode()
	}, image)
	if err != nil {
		return "", err
	}
	return slug, nil
}

// Update rewrites the event at slug. When the title-derived slug differs
// from the stored one the edit becomes a rename.
func (s *EventService) Update(ctx context.Context, slug string, ev models.Event, image *Asset) (string, error) {
	if !IsValidSlug(slug) {
		return "", validationErrorf("invalid slug %q", slug)
	}
	if err := s.validateEvent(ev); err != nil {
		return "", err
	}

	newSlug := Slugify(ev.Title)
	if !IsValidSlug(newSlug) {
		return "", validationErrorf("title must contain characters usable in a slug")
	}

	docFn := func(imageURL string) []byte {
		return eventDocument(ev, imageURL).Encode()
	}

	if newSlug != slug {
		s.log.Info("title change implies rename", "old_slug", slug, "new_slug", newSlug)
		if err := s.store.Rename(ctx, s.col, slug, newSlug, docFn, image); err != nil {
			return "", err
		}
		return newSlug, nil
	}

	if err := s.store.Update(ctx, s.col, slug, docFn, image); err != nil {
		return "", err
	}
	return slug, nil
}

// Delete removes the event and its uploaded images.
func (s *EventService) Delete(ctx context.Context, slug string) error {
	if !IsValidSlug(slug) {
		return validationErrorf("invalid slug %q", slug)
	}
	return s.store.Delete(ctx, s.col, slug)
}

// Get returns the decoded document for one event.
func (s *EventService) Get(ctx context.Context, slug string) (*Document, error) {
	return s.store.Get(ctx, s.col, slug)
}

// List returns the slugs of all stored events.
func (s *EventService) List(ctx context.Context) []string {
	return s.store.List(ctx, s.col)
}

func (s *EventService) validateEvent(ev models.Event) error {
	if err := s.validate.Struct(ev); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return validationErrorf("invalid %s: fails %q", verrs[0].Field(), verrs[0].Tag())
		}
		return validationErrorf("invalid input")
	}
	if ev.EndDate != nil && ev.EndDate.Before(ev.Date) {
		return validationErrorf("end date must be on or after the start date")
	}
	return nil
}

func eventDocument(ev models.Event, imageURL string) *Document {
	doc := &Document{Body: ev.Body}
	doc.Set("title", ev.Title)
	doc.Set("date", Literal(ev.Date.Format(dateLayout)))
	if ev.EndDate != nil {
		doc.Set("endDate", Literal(ev.EndDate.Format(dateLayout)))
	}
	if ev.Time != "" {
		doc.Set("time", ev.Time)
	}
	doc.Set("location", ev.Location)
	doc.Set("image", imageURL)
	doc.Set("summary", ev.Summary)
	doc.Set("tags", ev.Tags)
	if ev.RegistrationLink != "" {
		doc.Set("registrationLink", ev.RegistrationLink)
	}
	doc.Set("registrationRequired", ev.RegistrationRequired)
	doc.Set("draft", ev.Draft)
	return doc
}
