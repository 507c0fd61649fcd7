// Package filter describes the user's current constraints and the bounds of
// the dashboard controls that produce them.
package filter

import (
	"github.com/KaramelBytes/carscout/internal/catalog"
)

// Control bounds and defaults.
const (
	PriceLowerBound = 1000
	PriceUpperBound = 50000
	PriceStep       = 500
	DefaultPriceMin = 5000
	DefaultPriceMax = 20000

	YearLowerBound = 1980
	YearUpperBound = 2025
	DefaultYearMin = 2000
	DefaultYearMax = 2024

	OdoLowerBound = 10_000
	OdoUpperBound = 1_000_000
	OdoStep       = 10_000
	DefaultOdoMax = 300_000
)

// State is the set of active constraints. Category axes hold dictionary
// codes; an empty axis matches nothing.
type State struct {
	PriceMin int   `json:"price_min"`
	PriceMax int   `json:"price_max"`
	Fuel     []int `json:"fuel"`
	Body     []int `json:"body"`
	YearMin  int   `json:"year_min"`
	YearMax  int   `json:"year_max"`
	OdoMax   int   `json:"odo_max"`
	Gear     []int `json:"gear"`
	Drive    []int `json:"drive"`
	// Segments are market segment labels from the ratings table.
	Segments []string `json:"segments"`
}

// Defaults returns the initial control state: every category and every
// known segment selected.
func Defaults(segments []string) State {
	return State{
		PriceMin: DefaultPriceMin,
		PriceMax: DefaultPriceMax,
		Fuel:     catalog.Fuel.Codes(),
		Body:     catalog.Body.Codes(),
		YearMin:  DefaultYearMin,
		YearMax:  DefaultYearMax,
		OdoMax:   DefaultOdoMax,
		Gear:     catalog.Gearbox.Codes(),
		Drive:    catalog.Drive.Codes(),
		Segments: append([]string(nil), segments...),
	}
}

// Narrowed lists, per axis the narrative mentions, the labels the user kept
// when the selection is a proper subset of the dictionary.
type Narrowed struct {
	Fuel  []string
	Gear  []string
	Drive []string
}

// Narrowed reports the fuel, gearbox and drivetrain selections that differ
// from "everything selected". Body is intentionally not part of it.
func (s State) Narrowed() Narrowed {
	var n Narrowed
	if catalog.Fuel.Narrowed(s.Fuel) {
		n.Fuel = catalog.Fuel.LabelsFor(s.Fuel)
	}
	if catalog.Gearbox.Narrowed(s.Gear) {
		n.Gear = catalog.Gearbox.LabelsFor(s.Gear)
	}
	if catalog.Drive.Narrowed(s.Drive) {
		n.Drive = catalog.Drive.LabelsFor(s.Drive)
	}
	return n
}

// Selected reports whether code is in codes.
func Selected(codes []int, code int) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

// SegmentSelected reports whether the segment label is active.
func (s State) SegmentSelected(segment string) bool {
	for _, v := range s.Segments {
		if v == segment {
			return true
		}
	}
	return false
}
