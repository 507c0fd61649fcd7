package cmd

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/carscout/internal/ai"
	"github.com/KaramelBytes/carscout/internal/dataset"
	"github.com/KaramelBytes/carscout/internal/filter"
	"github.com/KaramelBytes/carscout/internal/narrative"
)

// dataFlags override the reference file locations from config.
type dataFlags struct {
	listings string
	ratings  string
	ids      string
}

func addDataFlags(c *cobra.Command, f *dataFlags) {
	c.Flags().StringVar(&f.listings, "listings", "", "listings file (.csv, .tsv, .xlsx)")
	c.Flags().StringVar(&f.ratings, "ratings", "", "segment ratings file")
	c.Flags().StringVar(&f.ids, "ids", "", "identifier table")
}

func loadData(f dataFlags) (*dataset.Data, error) {
	p := dataset.Paths{Listings: cfg.ListingsPath, Ratings: cfg.RatingsPath, IDs: cfg.IDsPath}
	if f.listings != "" {
		p.Listings = f.listings
	}
	if f.ratings != "" {
		p.Ratings = f.ratings
	}
	if f.ids != "" {
		p.IDs = f.ids
	}
	return dataset.Load(p)
}

// filterFlags mirror the dashboard controls. Only flags the user sets are
// applied; everything else keeps its default.
type filterFlags struct {
	priceMin, priceMax int
	yearMin, yearMax   int
	odoMax             int
	fuel, body         []string
	gear, drive        []string
	segments           []string
}

func addFilterFlags(c *cobra.Command, f *filterFlags) {
	fs := c.Flags()
	fs.IntVar(&f.priceMin, "price-min", filter.DefaultPriceMin, "minimum price")
	fs.IntVar(&f.priceMax, "price-max", filter.DefaultPriceMax, "maximum price")
	fs.IntVar(&f.yearMin, "year-min", filter.DefaultYearMin, "earliest model year")
	fs.IntVar(&f.yearMax, "year-max", filter.DefaultYearMax, "latest model year")
	fs.IntVar(&f.odoMax, "odo-max", filter.DefaultOdoMax, "maximum mileage")
	fs.StringSliceVar(&f.fuel, "fuel", nil, "fuel types, e.g. Petrol,Hybrid (default all)")
	fs.StringSliceVar(&f.body, "body", nil, "body types, e.g. sedan,SUV (default all)")
	fs.StringSliceVar(&f.gear, "gear", nil, "gearbox types: MT, AT (default all)")
	fs.StringSliceVar(&f.drive, "drive", nil, "drivetrains: AWD, FWD, RWD (default all)")
	fs.StringArrayVar(&f.segments, "segment", nil, "market segment, repeatable (default all)")
}

func (f *filterFlags) state(c *cobra.Command, segments []string) filter.State {
	v := url.Values{}
	fs := c.Flags()
	setInt := func(flag, field string, n int) {
		if fs.Changed(flag) {
			v.Set(field, strconv.Itoa(n))
		}
	}
	setInt("price-min", filter.FieldPriceMin, f.priceMin)
	setInt("price-max", filter.FieldPriceMax, f.priceMax)
	setInt("year-min", filter.FieldYearMin, f.yearMin)
	setInt("year-max", filter.FieldYearMax, f.yearMax)
	setInt("odo-max", filter.FieldOdoMax, f.odoMax)
	setList := func(flag, field string, vals []string) {
		if fs.Changed(flag) {
			// A present but empty list clears the axis.
			v[field] = vals
		}
	}
	setList("fuel", filter.FieldFuel, f.fuel)
	setList("body", filter.FieldBody, f.body)
	setList("gear", filter.FieldGear, f.gear)
	setList("drive", filter.FieldDrive, f.drive)
	setList("segment", filter.FieldSegment, f.segments)
	return filter.Overlay(filter.Defaults(segments), v)
}

// newGenerator builds the configured runtime. A remote provider without a
// credential fails here, before any work is done.
func newGenerator(log zerolog.Logger) (*narrative.Generator, error) {
	provider := cfg.Provider
	if provider == "" {
		provider = ai.ProviderOpenAI
	}
	key := cfg.Credential()
	if ai.Remote(provider) && strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("no API key for provider %q: set %s or CARSCOUT_API_KEY (a .env file works too): %w",
			provider, keyVarFor(provider), ai.ErrMissingAPIKey)
	}
	rt, err := ai.NewRuntime(provider, ai.RuntimeConfig{
		HTTPTimeout: time.Duration(cfg.HTTPTimeoutSec) * time.Second,
		APIKey:      key,
		BaseURL:     cfg.BaseURL,
		Host:        cfg.OllamaHost,
	})
	if err != nil {
		return nil, fmt.Errorf("init %s runtime: %w", provider, err)
	}
	return narrative.NewGenerator(rt, narrative.Options{
		Provider:    provider,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}, log), nil
}

func keyVarFor(provider string) string {
	switch provider {
	case ai.ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ai.ProviderOpenRouter:
		return "OPENROUTER_API_KEY"
	}
	return "OPENAI_API_KEY"
}
