// Package validation turns loosely typed movie candidates from forms and JSON
// bodies into normalized domain records, reporting every problem at once.
package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Scalar is a single input value that may arrive as a JSON string, number or
// bool, or as a form value. It remembers whether it was supplied at all.
type Scalar struct {
	value string
	set   bool
}

// ScalarOf returns a present Scalar holding s.
func ScalarOf(s string) Scalar {
	return Scalar{value: s, set: true}
}

// String returns the raw value.
func (s Scalar) String() string {
	return s.value
}

// IsSet reports whether the value was supplied.
func (s Scalar) IsSet() bool {
	return s.set
}

// IsEmpty reports whether the value is absent or blank.
func (s Scalar) IsEmpty() bool {
	return strings.TrimSpace(s.value) == ""
}

// Truthy interprets the value as a form-style flag.
func (s Scalar) Truthy() bool {
	switch strings.ToLower(strings.TrimSpace(s.value)) {
	case "on", "true", "1":
		return true
	default:
		return false
	}
}

// UnmarshalJSON accepts strings, numbers and booleans. null leaves the value unset.
func (s *Scalar) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = Scalar{}
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = ScalarOf(str)
		return nil
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case bool:
		*s = ScalarOf(strconv.FormatBool(v))
	case float64:
		*s = ScalarOf(strconv.FormatFloat(v, 'f', -1, 64))
	default:
		return fmt.Errorf("expected a string, number or boolean")
	}
	return nil
}

// MarshalJSON writes the raw value as a string, or null when unset.
func (s Scalar) MarshalJSON() ([]byte, error) {
	if !s.set {
		return []byte("null"), nil
	}
	return json.Marshal(s.value)
}

// FieldList is a sequence field (cast, genres, show times). It arrives either as
// one comma-separated string or as an already structured sequence.
type FieldList struct {
	text       string
	items      []string
	structured bool
	set        bool
}

// ListFromString returns a FieldList holding a comma-separated value.
func ListFromString(s string) FieldList {
	return FieldList{text: s, set: true}
}

// ListFromSlice returns a FieldList holding a structured sequence.
func ListFromSlice(items []string) FieldList {
	cp := make([]string, len(items))
	copy(cp, items)
	return FieldList{items: cp, structured: true, set: true}
}

// IsSet reports whether the list was supplied.
func (l FieldList) IsSet() bool {
	return l.set
}

// Values returns the normalized sequence. Comma-separated text is split,
// trimmed and stripped of empty tokens; structured sequences pass through.
func (l FieldList) Values() []string {
	if l.structured {
		out := make([]string, len(l.items))
		copy(out, l.items)
		return out
	}
	return SplitList(l.text)
}

// UnmarshalJSON accepts a string or an array of strings.
func (l *FieldList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = FieldList{}
		return nil
	}

	if len(data) > 0 && data[0] == '[' {
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*l = ListFromSlice(items)
		return nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return fmt.Errorf("expected a string or an array of strings")
	}
	*l = ListFromString(text)
	return nil
}

// MarshalJSON writes the normalized sequence.
func (l FieldList) MarshalJSON() ([]byte, error) {
	if !l.set {
		return []byte("null"), nil
	}
	return json.Marshal(l.Values())
}

// SplitList splits s on commas, trims every token and drops empty ones.
func SplitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// MovieInput is an unvalidated movie candidate.
type MovieInput struct {
	Title           string    `json:"title"`
	Director        string    `json:"director"`
	Description     string    `json:"description"`
	PosterURL       string    `json:"posterUrl"`
	Rating          string    `json:"rating"`
	ReleaseDate     Scalar    `json:"releaseDate"`
	Duration        Scalar    `json:"duration"`
	Cast            FieldList `json:"cast"`
	Genres          FieldList `json:"genres"`
	ShowTimes       FieldList `json:"showTimes"`
	Language        string    `json:"language"`
	TheaterLocation string    `json:"theaterLocation"`
	IsFull          Scalar    `json:"isFull"`
}
