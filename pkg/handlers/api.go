package handlers

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yuin/goldmark"

	"chapter-cms/pkg/models"
	"chapter-cms/pkg/services"
)

const maxImageSize = 5 << 20 // 5MB

var markdown = goldmark.New()

// Handlers bundles the lifecycle services behind the admin API.
type Handlers struct {
	Events          *services.EventService
	Scholarships    *services.ScholarshipService
	CalendarFeedURL string
	Log             *slog.Logger
}

// --- Events ---

func (h *Handlers) ListEvents(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"slugs": h.Events.List(c.Request.Context())})
}

func (h *Handlers) GetEvent(c *gin.Context) {
	doc, err := h.Events.Get(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.writeDocument(c, c.Param("slug"), doc)
}

func (h *Handlers) CreateEvent(c *gin.Context) {
	ev, err := eventFromForm(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	image, err := readImageUpload(c)
	if err != nil {
		h.writeError(c, err)
		return
	}

	slug, err := h.Events.Create(c.Request.Context(), ev, image)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "created", "slug": slug})
}

func (h *Handlers) EditEvent(c *gin.Context) {
	slug := c.PostForm("slug")
	ev, err := eventFromForm(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	image, err := readImageUpload(c)
	if err != nil {
		h.writeError(c, err)
		return
	}

	newSlug, err := h.Events.Update(c.Request.Context(), slug, ev, image)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated", "slug": newSlug})
}

func (h *Handlers) DeleteEvent(c *gin.Context) {
	if err := h.Events.Delete(c.Request.Context(), c.PostForm("slug")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// --- Scholarships ---

func (h *Handlers) ListScholarships(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"slugs": h.Scholarships.List(c.Request.Context())})
}

func (h *Handlers) GetScholarship(c *gin.Context) {
	doc, err := h.Scholarships.Get(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.writeDocument(c, c.Param("slug"), doc)
}

func (h *Handlers) CreateScholarship(c *gin.Context) {
	sc, err := scholarshipFromForm(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	slug, err := h.Scholarships.Create(c.Request.Context(), sc)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "created", "slug": slug})
}

func (h *Handlers) EditScholarship(c *gin.Context) {
	slug := c.PostForm("slug")
	sc, err := scholarshipFromForm(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	newSlug, err := h.Scholarships.Update(c.Request.Context(), slug, sc)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated", "slug": newSlug})
}

func (h *Handlers) DeleteScholarship(c *gin.Context) {
	if err := h.Scholarships.Delete(c.Request.Context(), c.PostForm("slug")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// --- Calendar ---

func (h *Handlers) Calendar(c *gin.Context) {
	events := []services.CalendarEvent{}
	if h.CalendarFeedURL != "" {
		events = services.FetchCalendarEvents(c.Request.Context(), h.CalendarFeedURL, 10, h.Log)
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// --- helpers ---

func (h *Handlers) writeDocument(c *gin.Context, slug string, doc *services.Document) {
	resp := gin.H{"slug": slug, "fields": doc.FieldMap(), "body": doc.Body}
	if c.Query("render") != "" {
		var buf bytes.Buffer
		if err := markdown.Convert([]byte(doc.Body), &buf); err == nil {
			resp["html"] = buf.String()
		}
	}
	c.JSON(http.StatusOK, resp)
}

// writeError maps service errors to responses. Unexpected errors are logged
// in full but answered generically so internals never leak to the client.
func (h *Handlers) writeError(c *gin.Context, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Entry not found"})
	case errors.Is(err, services.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "An entry with this title already exists"})
	case errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "The entry was modified by someone else, reload and try again"})
	default:
		h.Log.Error("request failed", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func eventFromForm(c *gin.Context) (models.Event, error) {
	ev := models.Event{
		Title:                strings.TrimSpace(c.PostForm("title")),
		Time:                 strings.TrimSpace(c.PostForm("time")),
		Location:             strings.TrimSpace(c.PostForm("location")),
		Summary:              strings.TrimSpace(c.PostForm("summary")),
		Tags:                 splitList(c.PostForm("tags"), ","),
		RegistrationLink:     strings.TrimSpace(c.PostForm("registrationLink")),
		RegistrationRequired: formBool(c, "registrationRequired"),
		Draft:                formBool(c, "draft"),
		Body:                 c.PostForm("body"),
	}

	date, err := parseFormDate(c.PostForm("date"))
	if err != nil {
		return ev, &services.ValidationError{Message: "Invalid or missing date"}
	}
	ev.Date = date

	if raw := c.PostForm("endDate"); raw != "" {
		end, err := parseFormDate(raw)
		if err != nil {
			return ev, &services.ValidationError{Message: "Invalid end date"}
		}
		ev.EndDate = &end
	}
	return ev, nil
}

func scholarshipFromForm(c *gin.Context) (models.Scholarship, error) {
	sc := models.Scholarship{
		Name:        strings.TrimSpace(c.PostForm("name")),
		Frequency:   strings.TrimSpace(c.PostForm("frequency")),
		Description: strings.TrimSpace(c.PostForm("description")),
		Eligibility: splitList(c.PostForm("eligibility"), "\n"),
	}

	amount, err := strconv.ParseFloat(c.PostForm("amount"), 64)
	if err != nil {
		return sc, &services.ValidationError{Message: "Invalid or missing amount"}
	}
	sc.Amount = amount

	deadline, err := parseFormDate(c.PostForm("deadline"))
	if err != nil {
		return sc, &services.ValidationError{Message: "Invalid or missing deadline"}
	}
	sc.Deadline = deadline
	return sc, nil
}

// readImageUpload returns the uploaded image, nil when the field is absent
// or empty. An empty upload is not an error: the store falls back to the
// collection's default image.
func readImageUpload(c *gin.Context) (*services.Asset, error) {
	header, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, &services.ValidationError{Message: "Invalid image upload"}
	}
	if header.Size == 0 {
		return nil, nil
	}
	if header.Size > maxImageSize {
		return nil, &services.ValidationError{Message: "Image must be smaller than 5MB"}
	}

	data, err := readMultipartFile(header)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(http.DetectContentType(data), "image/") {
		return nil, &services.ValidationError{Message: "Uploaded file must be an image"}
	}
	return &services.Asset{Filename: header.Filename, Data: data}, nil
}

func readMultipartFile(header *multipart.FileHeader) ([]byte, error) {
	src, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return io.ReadAll(src)
}

func parseFormDate(raw string) (time.Time, error) {
	return time.Parse("2006-01-02", strings.TrimSpace(raw))
}

// formBool accepts both checkbox posts ("on") and explicit booleans.
func formBool(c *gin.Context, name string) bool {
	v := c.PostForm(name)
	return v == "on" || v == "true" || v == "1"
}

func splitList(raw, sep string) []string {
	var out []string
	for _, part := range strings.Split(raw, sep) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
