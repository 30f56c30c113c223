package models

import "time"

// Event represents a single event entry. Its persisted form is one markdown
// document plus at most one uploaded image.
type Event struct {
	Title                string     `json:"title" validate:"required,min=3,max=200"`
	Date                 time.Time  `json:"date" validate:"required"`
	EndDate              *time.Time `json:"end_date,omitempty"`
	Time                 string     `json:"time,omitempty"`
	Location             string     `json:"location" validate:"required"`
	Image                string     `json:"image,omitempty"`
	Summary              string     `json:"summary" validate:"required,min=10,max=500"`
	Tags                 []string   `json:"tags,omitempty"`
	RegistrationLink     string     `json:"registration_link,omitempty" validate:"omitempty,url"`
	RegistrationRequired bool       `json:"registration_required"`
	Draft                bool       `json:"draft"`
	Body                 string     `json:"body,omitempty"`
}

// IsUpcoming reports whether the event has not started yet.
func (e Event) IsUpcoming() bool {
	return e.Date.After(time.Now())
}

// IsPast reports whether the event (including its end date) is over.
func (e Event) IsPast() bool {
	end := e.Date
	if e.EndDate != nil {
		end = *e.EndDate
	}
	return end.Before(time.Now())
}

// IsRegistrationOpen reports whether registration is still possible.
func (e Event) IsRegistrationOpen() bool {
	return e.RegistrationRequired && e.IsUpcoming()
}
