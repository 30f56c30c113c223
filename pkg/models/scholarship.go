package models

import "time"

// Scholarship represents a scholarship entry. Scholarships carry no image
// asset, only a markdown document.
type Scholarship struct {
	Name        string    `json:"name" validate:"required,min=3,max=200"`
	Amount      float64   `json:"amount" validate:"required,gt=0"`
	Frequency   string    `json:"frequency" validate:"required"`
	Deadline    time.Time `json:"deadline" validate:"required"`
	Description string    `json:"description" validate:"required,min=10"`
	Eligibility []string  `json:"eligibility" validate:"required,min=1,dive,required"`
}
