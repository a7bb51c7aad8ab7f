package validation

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gosimple/slug"

	"github.com/prn-tf/marquee/internal/domain"
)

var validate = newValidator()

// newValidator reports field names using their json tags so messages match
// the names clients send.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// releaseDateLayouts are tried in order when parsing a release date.
var releaseDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseReleaseDate parses s using the accepted layouts. Values without a zone are read as UTC.
func ParseReleaseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range releaseDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// Normalize validates a candidate and returns the normalized record. On failure
// the error is a *domain.ValidationError naming every missing field and every
// field-level violation.
func Normalize(in MovieInput) (*domain.Movie, error) {
	verr := domain.NewValidationError()

	m := &domain.Movie{
		Title:           strings.TrimSpace(in.Title),
		Director:        strings.TrimSpace(in.Director),
		Description:     strings.TrimSpace(in.Description),
		PosterURL:       strings.TrimSpace(in.PosterURL),
		Rating:          domain.Rating(strings.TrimSpace(in.Rating)),
		Cast:            in.Cast.Values(),
		Genres:          in.Genres.Values(),
		ShowTimes:       in.ShowTimes.Values(),
		Language:        strings.TrimSpace(in.Language),
		TheaterLocation: strings.TrimSpace(in.TheaterLocation),
		IsFull:          in.IsFull.Truthy(),
	}

	required := []struct {
		name  string
		empty bool
	}{
		{"title", m.Title == ""},
		{"director", m.Director == ""},
		{"description", m.Description == ""},
		{"posterUrl", m.PosterURL == ""},
		{"rating", m.Rating == ""},
		{"releaseDate", in.ReleaseDate.IsEmpty()},
		{"duration", in.Duration.IsEmpty()},
	}
	for _, field := range required {
		if field.empty {
			verr.AddMissing(field.name)
		}
	}

	if !in.ReleaseDate.IsEmpty() {
		if t, ok := ParseReleaseDate(in.ReleaseDate.String()); ok {
			m.ReleaseDate = t
		} else {
			verr.AddField("releaseDate", "invalid date")
		}
	}

	if !in.Duration.IsEmpty() {
		if d, err := strconv.Atoi(strings.TrimSpace(in.Duration.String())); err == nil {
			m.Duration = d
		} else {
			verr.AddField("duration", "must be a whole number of minutes")
		}
	}

	if m.Language == "" {
		m.Language = domain.DefaultLanguage
	}
	if m.TheaterLocation == "" {
		m.TheaterLocation = domain.DefaultTheaterLocation
	}
	m.Slug = slug.Make(m.Title)

	collect(verr, m)

	if verr.HasErrors() {
		return nil, verr
	}
	return m, nil
}

// Validate re-checks an already normalized record.
func Validate(m *domain.Movie) error {
	verr := domain.NewValidationError()
	collect(verr, m)
	if verr.HasErrors() {
		return verr
	}
	return nil
}

// collect runs the struct rules on m and records violations not already reported.
func collect(verr *domain.ValidationError, m *domain.Movie) {
	if len(m.Genres) == 0 {
		verr.AddField("genres", "Please select at least one movie genre.")
	}

	err := validate.Struct(m)
	if err == nil {
		return
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.AddField("record", err.Error())
		return
	}

	for _, fe := range fieldErrs {
		name := fe.Field()
		if isMissing(verr, name) {
			continue
		}
		verr.AddField(name, fieldMessage(fe))
	}
}

func isMissing(verr *domain.ValidationError, name string) bool {
	for _, missing := range verr.Missing {
		if missing == name {
			return true
		}
	}
	return false
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "min":
		if fe.Kind() == reflect.Slice {
			return "must contain at least " + fe.Param() + " item(s)"
		}
		return "must be at least " + fe.Param()
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "startswith":
		return "must start with http:// or https://"
	case "email":
		return "must be a valid email address"
	default:
		return "is invalid"
	}
}

// InputFromMovie converts a stored record back into a candidate. Lists become
// structured sequences so they pass through normalization unchanged.
func InputFromMovie(m *domain.Movie) MovieInput {
	in := MovieInput{
		Title:           m.Title,
		Director:        m.Director,
		Description:     m.Description,
		PosterURL:       m.PosterURL,
		Rating:          string(m.Rating),
		Cast:            ListFromSlice(m.Cast),
		Genres:          ListFromSlice(m.Genres),
		ShowTimes:       ListFromSlice(m.ShowTimes),
		Language:        m.Language,
		TheaterLocation: m.TheaterLocation,
		IsFull:          ScalarOf(strconv.FormatBool(m.IsFull)),
	}
	if !m.ReleaseDate.IsZero() {
		in.ReleaseDate = ScalarOf(m.ReleaseDate.UTC().Format(time.RFC3339Nano))
	}
	if m.Duration != 0 {
		in.Duration = ScalarOf(strconv.Itoa(m.Duration))
	}
	return in
}

// Merge overlays the supplied fields of patch onto existing. Empty strings and
// unset scalars or lists keep the stored value.
func Merge(existing *domain.Movie, patch MovieInput) MovieInput {
	merged := InputFromMovie(existing)

	overlay := func(dst *string, src string) {
		if strings.TrimSpace(src) != "" {
			*dst = src
		}
	}
	overlay(&merged.Title, patch.Title)
	overlay(&merged.Director, patch.Director)
	overlay(&merged.Description, patch.Description)
	overlay(&merged.PosterURL, patch.PosterURL)
	overlay(&merged.Rating, patch.Rating)
	overlay(&merged.Language, patch.Language)
	overlay(&merged.TheaterLocation, patch.TheaterLocation)

	if patch.ReleaseDate.IsSet() {
		merged.ReleaseDate = patch.ReleaseDate
	}
	if patch.Duration.IsSet() {
		merged.Duration = patch.Duration
	}
	if patch.IsFull.IsSet() {
		merged.IsFull = patch.IsFull
	}
	if patch.Cast.IsSet() {
		merged.Cast = patch.Cast
	}
	if patch.Genres.IsSet() {
		merged.Genres = patch.Genres
	}
	if patch.ShowTimes.IsSet() {
		merged.ShowTimes = patch.ShowTimes
	}

	return merged
}
