package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Row is one parsed line from an uploaded CSV. Err is set for rows that could
// not be parsed; they are recorded as failed but never abort the batch.
type Row struct {
	RowNumber int
	Title     string
	Year      *int
	Director  *string
	WatchedAt *time.Time
	Rating    *int
	Tags      []string
	Err       error
}

// Column aliases accepted in the header row, lower-cased. Exports from
// different trackers name the same columns differently.
var columnAliases = map[string]string{
	"title": "title", "name": "title", "film": "title", "movie": "title",
	"year": "year", "release year": "year", "release_year": "year",
	"director": "director", "directors": "director", "directed by": "director",
	"watched_at": "watched_at", "watched at": "watched_at", "watched": "watched_at",
	"date": "watched_at", "watch date": "watched_at", "watched date": "watched_at",
	"rating": "rating", "your rating": "rating", "my rating": "rating", "stars": "rating",
	"tags": "tags", "tag": "tags", "labels": "tags",
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"2 Jan 2006",
}

// Parse reads a CSV of watched films. The first record must be a header; the
// only required column is the title. Field count per row is not enforced
// (ragged exports are common), and per-row problems are reported on the Row
// rather than failing the whole file.
func Parse(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := map[string]int{}
	for i, h := range header {
		if name, ok := columnAliases[strings.ToLower(strings.TrimSpace(h))]; ok {
			if _, seen := cols[name]; !seen {
				cols[name] = i
			}
		}
	}
	if _, ok := cols["title"]; !ok {
		return nil, fmt.Errorf("no title column found in header %v", header)
	}

	var rows []Row
	rowNum := 1 // header is row 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			rows = append(rows, Row{RowNumber: rowNum, Err: fmt.Errorf("malformed row: %w", err)})
			continue
		}
		rows = append(rows, parseRecord(rowNum, record, cols))
	}
	return rows, nil
}

func parseRecord(rowNum int, record []string, cols map[string]int) Row {
	row := Row{RowNumber: rowNum}

	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	row.Title = field("title")
	if row.Title == "" {
		row.Err = fmt.Errorf("missing title")
		return row
	}

	if v := field("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1870 || y > time.Now().Year()+2 {
			row.Err = fmt.Errorf("invalid year %q", v)
			return row
		}
		row.Year = &y
	}

	if v := field("director"); v != "" {
		// Multiple directors: keep the first, the scorer compares one name.
		d := strings.TrimSpace(strings.SplitN(v, ",", 2)[0])
		if d != "" {
			row.Director = &d
		}
	}

	if v := field("watched_at"); v != "" {
		ts, err := parseDate(v)
		if err != nil {
			row.Err = fmt.Errorf("invalid watch date %q", v)
			return row
		}
		row.WatchedAt = &ts
	}

	if v := field("rating"); v != "" {
		rating, err := parseRating(v)
		if err != nil {
			row.Err = err
			return row
		}
		row.Rating = &rating
	}

	if v := field("tags"); v != "" {
		row.Tags = splitTags(v)
	}

	return row
}

func parseDate(v string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, v); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", v)
}

// parseRating normalizes to a 1–10 integer. Star-scale values ("3.5" or
// "4/5") are doubled; whole numbers without a scale marker are taken as
// already being on the 10-point scale.
func parseRating(v string) (int, error) {
	v = strings.TrimSpace(v)
	starScale := strings.HasSuffix(v, "/5")
	v = strings.TrimSuffix(v, "/5")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid rating %q", v)
	}
	if starScale || (f > 0 && f <= 5 && f != float64(int(f))) {
		f *= 2
	}
	rating := int(f + 0.5)
	if rating < 1 || rating > 10 {
		return 0, fmt.Errorf("rating %q out of range", v)
	}
	return rating, nil
}

func splitTags(v string) []string {
	var tags []string
	for _, t := range strings.FieldsFunc(v, func(r rune) bool { return r == ';' || r == '|' }) {
		t = strings.TrimSpace(t)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
