package importer

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBasic(t *testing.T) {
	csv := `Title,Year,Director,Watched Date,Rating,Tags
The Matrix,1999,Lana Wachowski,2024-01-15,9,sci-fi;favorites
Parasite,2019,Bong Joon-ho,2024-02-01,10,
Heat,1995,,,,`

	rows, err := Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	r := rows[0]
	require.NoError(t, r.Err)
	assert.Equal(t, 2, r.RowNumber)
	assert.Equal(t, "The Matrix", r.Title)
	require.NotNil(t, r.Year)
	assert.Equal(t, 1999, *r.Year)
	require.NotNil(t, r.Director)
	assert.Equal(t, "Lana Wachowski", *r.Director)
	require.NotNil(t, r.WatchedAt)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), *r.WatchedAt)
	require.NotNil(t, r.Rating)
	assert.Equal(t, 9, *r.Rating)
	assert.Equal(t, []string{"sci-fi", "favorites"}, r.Tags)

	// Sparse row: only the title is required.
	r = rows[2]
	require.NoError(t, r.Err)
	assert.Equal(t, "Heat", r.Title)
	assert.Nil(t, r.Director)
	assert.Nil(t, r.Rating)
}

func TestParseHeaderAliases(t *testing.T) {
	csv := `Name,Release Year,Directed By,Date,Your Rating
Alien,1979,Ridley Scott,1999-10-31,10`

	rows, err := Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NoError(t, rows[0].Err)
	assert.Equal(t, "Alien", rows[0].Title)
	require.NotNil(t, rows[0].Year)
	assert.Equal(t, 1979, *rows[0].Year)
	require.NotNil(t, rows[0].Director)
	assert.Equal(t, "Ridley Scott", *rows[0].Director)
}

func TestParseNoTitleColumn(t *testing.T) {
	_, err := Parse(strings.NewReader("Year,Director\n1999,Someone"))
	assert.Error(t, err)
}

func TestParseRowErrorsDoNotAbort(t *testing.T) {
	csv := `Title,Year,Rating
,1999,5
Good Movie,not-a-year,5
Also Good,2001,banana
Fine,2002,7`

	rows, err := Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Error(t, rows[0].Err) // missing title
	assert.Error(t, rows[1].Err) // bad year
	assert.Error(t, rows[2].Err) // bad rating
	assert.NoError(t, rows[3].Err)
	assert.Equal(t, 5, rows[3].RowNumber)
}

func TestParseMultipleDirectorsKeepsFirst(t *testing.T) {
	csv := "Title,Director\nThe Matrix,\"Lana Wachowski, Lilly Wachowski\""
	rows, err := Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.NotNil(t, rows[0].Director)
	assert.Equal(t, "Lana Wachowski", *rows[0].Director)
}

func TestParseRatingScales(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"7", 7},     // already 10-point
		{"10", 10},   // already 10-point
		{"3.5", 7},   // star scale with half stars
		{"4/5", 8},   // explicit star scale
		{"4.5/5", 9}, // explicit star scale with half stars
	}
	for _, tt := range tests {
		got, err := parseRating(tt.in)
		require.NoError(t, err, "rating %q", tt.in)
		assert.Equal(t, tt.want, got, "rating %q", tt.in)
	}

	for _, bad := range []string{"0", "11", "-2", "lots"} {
		_, err := parseRating(bad)
		assert.Error(t, err, "rating %q", bad)
	}
}

func TestParseDateFormats(t *testing.T) {
	for _, v := range []string{"2024-01-15", "01/15/2024", "15 Jan 2024"} {
		ts, err := parseDate(v)
		require.NoError(t, err, "date %q", v)
		assert.Equal(t, 2024, ts.Year())
		assert.Equal(t, time.January, ts.Month())
		assert.Equal(t, 15, ts.Day())
	}
	_, err := parseDate("sometime last year")
	assert.Error(t, err)
}
