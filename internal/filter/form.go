package filter

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/KaramelBytes/carscout/internal/catalog"
)

// Form field names shared by the dashboard template and the JSON API.
const (
	FieldPriceMin = "price_min"
	FieldPriceMax = "price_max"
	FieldSegment  = "segment"
	FieldFuel     = "fuel"
	FieldBody     = "body"
	FieldYearMin  = "year_min"
	FieldYearMax  = "year_max"
	FieldOdoMax   = "odo_max"
	FieldGear     = "gear"
	FieldDrive    = "drive"
)

// FromValues builds a State from submitted control values. Category fields
// carry labels and are translated to codes through the dictionaries.
// Numeric fields are clamped to their control bounds; unparsable numbers
// fall back to the defaults. Inverted ranges are kept as submitted.
//
// Multi-select fields that are absent from the form mean "nothing selected",
// matching what a browser sends for an empty multi-select.
func FromValues(v url.Values) State {
	return State{
		PriceMin: snap(clamp(intOr(v.Get(FieldPriceMin), DefaultPriceMin), PriceLowerBound, PriceUpperBound), PriceLowerBound, PriceStep),
		PriceMax: snap(clamp(intOr(v.Get(FieldPriceMax), DefaultPriceMax), PriceLowerBound, PriceUpperBound), PriceLowerBound, PriceStep),
		Fuel:     catalog.Fuel.CodesFor(values(v, FieldFuel)),
		Body:     catalog.Body.CodesFor(values(v, FieldBody)),
		YearMin:  clamp(intOr(v.Get(FieldYearMin), DefaultYearMin), YearLowerBound, YearUpperBound),
		YearMax:  clamp(intOr(v.Get(FieldYearMax), DefaultYearMax), YearLowerBound, YearUpperBound),
		OdoMax:   snap(clamp(intOr(v.Get(FieldOdoMax), DefaultOdoMax), OdoLowerBound, OdoUpperBound), OdoLowerBound, OdoStep),
		Gear:     catalog.Gearbox.CodesFor(values(v, FieldGear)),
		Drive:    catalog.Drive.CodesFor(values(v, FieldDrive)),
		Segments: segments(v[FieldSegment]),
	}
}

// Values is the inverse of FromValues for a state built from the controls.
func (s State) Values() url.Values {
	v := url.Values{}
	v.Set(FieldPriceMin, strconv.Itoa(s.PriceMin))
	v.Set(FieldPriceMax, strconv.Itoa(s.PriceMax))
	v.Set(FieldYearMin, strconv.Itoa(s.YearMin))
	v.Set(FieldYearMax, strconv.Itoa(s.YearMax))
	v.Set(FieldOdoMax, strconv.Itoa(s.OdoMax))
	v[FieldFuel] = catalog.Fuel.LabelsFor(s.Fuel)
	v[FieldBody] = catalog.Body.LabelsFor(s.Body)
	v[FieldGear] = catalog.Gearbox.LabelsFor(s.Gear)
	v[FieldDrive] = catalog.Drive.LabelsFor(s.Drive)
	v[FieldSegment] = append([]string(nil), s.Segments...)
	return v
}

// Overlay applies only the fields present in v on top of base. Unlike
// FromValues an absent field keeps its base value, which suits query strings
// and CLI flags where callers name just the axes they want to narrow.
func Overlay(base State, v url.Values) State {
	merged := base.Values()
	for k, vals := range v {
		merged[k] = vals
	}
	return FromValues(merged)
}

// segments keeps labels verbatim: segment names may contain commas.
func segments(raw []string) []string {
	var out []string
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// values accepts both repeated fields and comma-separated lists.
func values(v url.Values, key string) []string {
	var out []string
	for _, raw := range v[key] {
		for _, part := range strings.Split(raw, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func intOr(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fallback
	}
	return n
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// snap rounds n down onto the control's step grid starting at base.
func snap(n, base, step int) int {
	return base + (n-base)/step*step
}
