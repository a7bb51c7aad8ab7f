package domain

import (
	"time"

	"github.com/google/uuid"
)

// Rating is a Hong Kong film classification.
type Rating string

const (
	RatingI   Rating = "I"
	RatingIIA Rating = "IIA"
	RatingIIB Rating = "IIB"
	RatingIII Rating = "III"
)

// Ratings lists the classifications in display order.
var Ratings = []Rating{RatingI, RatingIIA, RatingIIB, RatingIII}

var ratingDescriptions = map[Rating]string{
	RatingI:   "Suitable for all ages",
	RatingIIA: "Not suitable for children",
	RatingIIB: "Not suitable for teenagers and children",
	RatingIII: "Viewing is only permitted for those aged 18 or older.",
}

// IsValid returns true if r is in the closed set of classifications.
func (r Rating) IsValid() bool {
	_, ok := ratingDescriptions[r]
	return ok
}

// Description returns the human-readable meaning of the classification.
func (r Rating) Description() string {
	if d, ok := ratingDescriptions[r]; ok {
		return d
	}
	return "Unknown classification"
}

// Status is the presentation state of a movie, derived from stored facts.
type Status string

const (
	StatusShowing    Status = "showing"
	StatusComingSoon Status = "coming-soon"
	StatusFull       Status = "full"
)

// Text returns the label shown to visitors.
func (s Status) Text() string {
	switch s {
	case StatusFull:
		return "Full"
	case StatusComingSoon:
		return "Coming Soon"
	default:
		return "Now Showing"
	}
}

// Default field values applied when a candidate record leaves them empty.
const (
	DefaultLanguage        = "English"
	DefaultTheaterLocation = "Hong Kong"
)

// Movie is a catalog entry.
type Movie struct {
	// ID is the opaque identifier assigned on creation.
	ID uuid.UUID `json:"id"`

	Title       string `json:"title" validate:"required,max=100"`
	Slug        string `json:"slug"`
	Director    string `json:"director" validate:"required"`
	Description string `json:"description" validate:"required,max=2000"`

	// PosterURL must use the http or https scheme.
	PosterURL string `json:"posterUrl" validate:"required,startswith=http://|startswith=https://"`

	Rating      Rating    `json:"rating" validate:"required,oneof=I IIA IIB III"`
	ReleaseDate time.Time `json:"releaseDate" validate:"required"`

	// Duration is the running time in minutes.
	Duration int `json:"duration" validate:"min=1,max=500"`

	Cast            []string `json:"cast"`
	Genres          []string `json:"genres" validate:"required,min=1"`
	ShowTimes       []string `json:"showTimes"`
	Language        string   `json:"language"`
	TheaterLocation string   `json:"theaterLocation"`

	// IsFull is toggled manually by managers; it is never derived.
	IsFull bool `json:"isFull"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Status derives the presentation state at the given instant.
func (m *Movie) Status(now time.Time) Status {
	switch {
	case m.IsFull:
		return StatusFull
	case m.ReleaseDate.After(now):
		return StatusComingSoon
	default:
		return StatusShowing
	}
}

// IsReleased reports whether the release date is at or before now.
func (m *Movie) IsReleased(now time.Time) bool {
	return !m.ReleaseDate.After(now)
}

// MovieView is the outward representation of a movie with its derived fields.
type MovieView struct {
	*Movie
	Status            Status `json:"status"`
	StatusText        string `json:"statusText"`
	RatingDescription string `json:"ratingDescription"`
}

// View projects m with derived fields computed at now.
func (m *Movie) View(now time.Time) MovieView {
	status := m.Status(now)
	return MovieView{
		Movie:             m,
		Status:            status,
		StatusText:        status.Text(),
		RatingDescription: m.Rating.Description(),
	}
}

// Views projects every movie at now.
func Views(movies []*Movie, now time.Time) []MovieView {
	views := make([]MovieView, 0, len(movies))
	for _, m := range movies {
		views = append(views, m.View(now))
	}
	return views
}
