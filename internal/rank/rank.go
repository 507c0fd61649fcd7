// Package rank filters listings against a filter.State and ranks the models
// of the selected market segments by how many listings survive.
package rank

import (
	"sort"

	"github.com/KaramelBytes/carscout/internal/dataset"
	"github.com/KaramelBytes/carscout/internal/filter"
)

// TopN caps the ranked output.
const TopN = 15

// Model is one ranked entry.
type Model struct {
	Model string `json:"model"`
	Count int    `json:"count"`
}

// Result is the outcome of one pipeline run.
type Result struct {
	Models []Model `json:"models"`
	// Matched is the number of listings that passed every predicate.
	Matched int `json:"matched"`
}

// Matches reports whether l satisfies every predicate of s. Bounds are
// inclusive; an inverted range matches nothing.
func Matches(l dataset.Listing, s filter.State) bool {
	return l.Price >= float64(s.PriceMin) &&
		l.Price <= float64(s.PriceMax) &&
		filter.Selected(s.Fuel, l.Fuel) &&
		filter.Selected(s.Body, l.Body) &&
		l.Year >= s.YearMin &&
		l.Year <= s.YearMax &&
		l.Odo <= s.OdoMax &&
		filter.Selected(s.Gear, l.Gear) &&
		filter.Selected(s.Drive, l.Drive)
}

// Filter returns the listings matching s, in input order.
func Filter(listings []dataset.Listing, s filter.State) []dataset.Listing {
	var out []dataset.Listing
	for _, l := range listings {
		if Matches(l, s) {
			out = append(out, l)
		}
	}
	return out
}

// Candidates returns the model names of ratings whose segment is selected,
// in source order. Duplicates are kept.
func Candidates(ratings []dataset.SegmentRating, segments []string) []string {
	want := make(map[string]bool, len(segments))
	for _, s := range segments {
		want[s] = true
	}
	var out []string
	for _, r := range ratings {
		if want[r.Segment] {
			out = append(out, r.Model)
		}
	}
	return out
}

// Rank runs the whole pipeline. It is a pure function of its inputs.
func Rank(listings []dataset.Listing, ratings []dataset.SegmentRating, s filter.State) Result {
	matched := Filter(listings, s)
	counts := make(map[string]int)
	for _, l := range matched {
		counts[l.Model]++
	}

	var models []Model
	for _, name := range Candidates(ratings, s.Segments) {
		if n := counts[name]; n > 0 {
			models = append(models, Model{Model: name, Count: n})
		}
	}
	sort.SliceStable(models, func(i, j int) bool {
		return models[i].Count > models[j].Count
	})
	if len(models) > TopN {
		models = models[:TopN]
	}
	return Result{Models: models, Matched: len(matched)}
}
