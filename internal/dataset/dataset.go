// Package dataset loads the reference tables (listings, segment ratings and
// the auxiliary ID table) once at startup. The loaded Data is read-only.
package dataset

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Listing column names.
const (
	ColPrice = "Price"
	ColFuel  = "Fuel"
	ColBody  = "Body"
	ColYear  = "Year"
	ColOdo   = "Odo"
	ColGear  = "Gear"
	ColDrive = "Drive"
	ColModel = "Model"
)

// Rating column names.
const (
	ColRatingModel = "model_r"
	ColSegment     = "segment"
)

// Listing is one used-car offer.
type Listing struct {
	Price float64
	Fuel  int
	Body  int
	Year  int
	Odo   int
	Gear  int
	Drive int
	Model string
}

// SegmentRating assigns a model to a market segment.
type SegmentRating struct {
	Model   string
	Segment string
}

// Paths locates the three reference files.
type Paths struct {
	Listings string
	Ratings  string
	IDs      string
}

// Data is the loaded reference set.
type Data struct {
	Listings []Listing
	Ratings  []SegmentRating
	IDs      *Table

	years map[string][2]int
}

// YearSpan is the observed production-year range of a model.
type YearSpan struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Load reads all three files. Any error is fatal for the caller: there is no
// partial-data fallback.
func Load(p Paths) (*Data, error) {
	lt, err := ReadTable(p.Listings)
	if err != nil {
		return nil, fmt.Errorf("load listings: %w", err)
	}
	listings, err := ParseListings(lt)
	if err != nil {
		return nil, fmt.Errorf("load listings: %w", err)
	}
	rt, err := ReadTable(p.Ratings)
	if err != nil {
		return nil, fmt.Errorf("load ratings: %w", err)
	}
	ratings, err := ParseRatings(rt)
	if err != nil {
		return nil, fmt.Errorf("load ratings: %w", err)
	}
	ids, err := ReadTable(p.IDs)
	if err != nil {
		return nil, fmt.Errorf("load id table: %w", err)
	}
	if len(ids.Header) == 0 {
		return nil, fmt.Errorf("load id table: %s: empty header: %w", ids.Name, ErrSchema)
	}
	return New(listings, ratings, ids), nil
}

// New assembles Data from already-parsed rows.
func New(listings []Listing, ratings []SegmentRating, ids *Table) *Data {
	d := &Data{Listings: listings, Ratings: ratings, IDs: ids, years: map[string][2]int{}}
	for _, l := range listings {
		span, ok := d.years[l.Model]
		if !ok {
			d.years[l.Model] = [2]int{l.Year, l.Year}
			continue
		}
		if l.Year < span[0] {
			span[0] = l.Year
		}
		if l.Year > span[1] {
			span[1] = l.Year
		}
		d.years[l.Model] = span
	}
	return d
}

// ParseListings converts a table into listings, validating every numeric cell.
func ParseListings(t *Table) ([]Listing, error) {
	cols, err := t.Require(ColPrice, ColFuel, ColBody, ColYear, ColOdo, ColGear, ColDrive, ColModel)
	if err != nil {
		return nil, err
	}
	out := make([]Listing, 0, len(t.Rows))
	for i, row := range t.Rows {
		line := i + 2 // 1-based, after header
		var l Listing
		if l.Price, err = parseFloat(t, row, cols[ColPrice], ColPrice, line); err != nil {
			return nil, err
		}
		ints := []struct {
			dst *int
			col string
		}{
			{&l.Fuel, ColFuel},
			{&l.Body, ColBody},
			{&l.Year, ColYear},
			{&l.Odo, ColOdo},
			{&l.Gear, ColGear},
			{&l.Drive, ColDrive},
		}
		for _, f := range ints {
			if *f.dst, err = parseInt(t, row, cols[f.col], f.col, line); err != nil {
				return nil, err
			}
		}
		l.Model = t.Cell(row, cols[ColModel])
		out = append(out, l)
	}
	return out, nil
}

// ParseRatings converts a table into segment ratings. Rows keep source order.
func ParseRatings(t *Table) ([]SegmentRating, error) {
	cols, err := t.Require(ColRatingModel, ColSegment)
	if err != nil {
		return nil, err
	}
	out := make([]SegmentRating, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, SegmentRating{
			Model:   t.Cell(row, cols[ColRatingModel]),
			Segment: t.Cell(row, cols[ColSegment]),
		})
	}
	return out, nil
}

func parseFloat(t *Table, row []string, col int, name string, line int) (float64, error) {
	raw := t.Cell(row, col)
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%s: row %d column %q: non-numeric value %q: %w", t.Name, line, name, raw, ErrSchema)
	}
	return f, nil
}

// parseInt accepts "2015" as well as spreadsheet-style "2015.0".
func parseInt(t *Table, row []string, col int, name string, line int) (int, error) {
	raw := t.Cell(row, col)
	if n, err := strconv.Atoi(raw); err == nil {
		return n, nil
	}
	f, err := parseFloat(t, row, col, name, line)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%s: row %d column %q: expected integer, got %q: %w", t.Name, line, name, raw, ErrSchema)
	}
	if f < math.MinInt || f >= math.MaxInt {
		return 0, fmt.Errorf("%s: row %d column %q: integer out of range: %q: %w", t.Name, line, name, raw, ErrSchema)
	}
	return int(f), nil
}

// Segments returns the distinct non-empty segment labels, sorted.
func (d *Data) Segments() []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range d.Ratings {
		if r.Segment == "" || seen[r.Segment] {
			continue
		}
		seen[r.Segment] = true
		out = append(out, r.Segment)
	}
	sort.Strings(out)
	return out
}

// YearRange returns the min and max model year across all listings of model,
// ignoring any active filters.
func (d *Data) YearRange(model string) (YearSpan, bool) {
	span, ok := d.years[model]
	if !ok {
		return YearSpan{}, false
	}
	return YearSpan{From: span[0], To: span[1]}, true
}

// Models returns the number of distinct model names among the listings.
func (d *Data) Models() int { return len(d.years) }
