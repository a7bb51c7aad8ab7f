package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderBy(t *testing.T) {
	tests := []struct {
		name string
		sort MovieSort
		want string
	}{
		{"default", DefaultMovieSort, "ORDER BY release_date DESC, id DESC"},
		{"ascending title", MovieSort{Field: SortTitle}, "ORDER BY title ASC, id ASC"},
		{"unknown falls back", MovieSort{Field: "budget"}, "ORDER BY release_date DESC, id DESC"},
		{"zero value falls back", MovieSort{}, "ORDER BY release_date DESC, id DESC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OrderBy(tt.sort))
		})
	}
}

func TestContainsPattern(t *testing.T) {
	assert.Equal(t, "%wong%", ContainsPattern("Wong"))
	assert.Equal(t, `%100\%\_sure\\%`, ContainsPattern(`100%_sure\`))
}
