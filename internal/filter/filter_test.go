package filter

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/KaramelBytes/carscout/internal/catalog"
)

func TestDefaultsSelectEverything(t *testing.T) {
	s := Defaults([]string{"Compact", "SUV"})
	assert.Equal(t, 5000, s.PriceMin)
	assert.Equal(t, 20000, s.PriceMax)
	assert.Equal(t, 2000, s.YearMin)
	assert.Equal(t, 2024, s.YearMax)
	assert.Equal(t, 300000, s.OdoMax)
	assert.Equal(t, catalog.Fuel.Codes(), s.Fuel)
	assert.Equal(t, catalog.Body.Codes(), s.Body)
	assert.Equal(t, []string{"Compact", "SUV"}, s.Segments)
	assert.Equal(t, Narrowed{}, s.Narrowed())
}

func TestFromValuesRoundTrip(t *testing.T) {
	s := Defaults([]string{"Compact"})
	s.Fuel = catalog.Fuel.CodesFor([]string{"LPG", "Diesel"})
	s.Gear = []int{2}
	got := FromValues(s.Values())
	assert.Equal(t, s, got)
}

func TestFromValuesClampsAndSnaps(t *testing.T) {
	v := url.Values{
		FieldPriceMin: {"10"},
		FieldPriceMax: {"99999"},
		FieldYearMin:  {"1900"},
		FieldYearMax:  {"abc"},
		FieldOdoMax:   {"123456"},
		FieldFuel:     {"Petrol,Hybrid"},
		FieldGear:     {"AT", "CVT"},
	}
	s := FromValues(v)
	assert.Equal(t, PriceLowerBound, s.PriceMin)
	assert.Equal(t, PriceUpperBound, s.PriceMax)
	assert.Equal(t, YearLowerBound, s.YearMin)
	assert.Equal(t, DefaultYearMax, s.YearMax)
	assert.Equal(t, 120000, s.OdoMax)
	assert.Equal(t, []int{1, 5, 10}, s.Fuel)
	assert.Equal(t, []int{2}, s.Gear)
	assert.Empty(t, s.Body)
	assert.Empty(t, s.Drive)
	assert.Empty(t, s.Segments)
}

func TestFromValuesKeepsInvertedRanges(t *testing.T) {
	s := FromValues(url.Values{FieldYearMin: {"2020"}, FieldYearMax: {"2010"}})
	assert.Equal(t, 2020, s.YearMin)
	assert.Equal(t, 2010, s.YearMax)
}

func TestSegmentsKeepCommas(t *testing.T) {
	s := FromValues(url.Values{FieldSegment: {"Small, city", " SUV "}})
	assert.Equal(t, []string{"Small, city", "SUV"}, s.Segments)
	assert.True(t, s.SegmentSelected("SUV"))
	assert.False(t, s.SegmentSelected("Small"))
}

func TestNarrowedSkipsBody(t *testing.T) {
	s := Defaults(nil)
	s.Body = []int{3}
	s.Fuel = catalog.Fuel.CodesFor([]string{"LPG"})
	s.Drive = []int{1, 3}
	n := s.Narrowed()
	assert.Equal(t, []string{"LPG"}, n.Fuel)
	assert.Nil(t, n.Gear)
	assert.Equal(t, []string{"AWD", "RWD"}, n.Drive)
}

func TestOverlayKeepsAbsentFields(t *testing.T) {
	base := Defaults([]string{"Compact", "SUV"})
	s := Overlay(base, url.Values{FieldFuel: {"Diesel"}, FieldPriceMax: {"9000"}})
	assert.Equal(t, []int{2}, s.Fuel)
	assert.Equal(t, 9000, s.PriceMax)
	assert.Equal(t, base.Body, s.Body)
	assert.Equal(t, base.Gear, s.Gear)
	assert.Equal(t, base.Segments, s.Segments)
	assert.Equal(t, base.YearMin, s.YearMin)

	// An explicitly empty field still clears the axis.
	s = Overlay(base, url.Values{FieldDrive: {""}})
	assert.Empty(t, s.Drive)
}
