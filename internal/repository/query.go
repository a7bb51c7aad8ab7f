package repository

import "strings"

// sortColumns maps sortable fields to their column names. Both SQL backends
// use the same column names.
var sortColumns = map[SortField]string{
	SortReleaseDate: "release_date",
	SortCreatedAt:   "created_at",
	SortUpdatedAt:   "updated_at",
	SortTitle:       "title",
	SortDirector:    "director",
	SortDuration:    "duration",
	SortRating:      "rating",
}

// OrderBy renders an ORDER BY clause for s with id as the tiebreaker.
// An unknown field falls back to DefaultMovieSort.
func OrderBy(s MovieSort) string {
	if !s.Field.IsValid() {
		s = DefaultMovieSort
	}
	dir := "ASC"
	if s.Descending {
		dir = "DESC"
	}
	return "ORDER BY " + sortColumns[s.Field] + " " + dir + ", id " + dir
}

// likeEscaper escapes LIKE metacharacters using backslash as the escape character.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern returns a LIKE pattern matching s as a lowercase substring.
// Use it with ESCAPE '\'.
func ContainsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}
