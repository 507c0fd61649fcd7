package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/carscout/internal/catalog"
	"github.com/KaramelBytes/carscout/internal/dataset"
	"github.com/KaramelBytes/carscout/internal/filter"
	"github.com/KaramelBytes/carscout/internal/rank"
	"github.com/KaramelBytes/carscout/internal/utils"
)

var (
	rankData    dataFlags
	rankFilters filterFlags
	rankJSON    bool
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Print the top models for the given filters",
	Example: `  carscout rank --fuel Diesel --price-max 15000
  carscout rank --segment Compact --segment SUV --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureConfig(); err != nil {
			return err
		}
		data, err := loadData(rankData)
		if err != nil {
			return fmt.Errorf("load reference data: %w", err)
		}
		st := rankFilters.state(cmd, data.Segments())
		res := rank.Rank(data.Listings, data.Ratings, st)
		out := cmd.OutOrStdout()
		if rankJSON {
			b, err := utils.PrettyJSON(res)
			if err != nil {
				return err
			}
			_, err = out.Write(b)
			return err
		}
		printRanking(out, data, st, res)
		return nil
	},
}

func printRanking(w io.Writer, data *dataset.Data, st filter.State, res rank.Result) {
	bold := color.New(color.Bold)
	dim := color.New(color.Faint)
	count := color.New(color.FgGreen)

	dim.Fprintf(w, "price %d–%d · years %d–%d · mileage ≤ %d\n", st.PriceMin, st.PriceMax, st.YearMin, st.YearMax, st.OdoMax)
	for _, d := range []*catalog.Dictionary{catalog.Fuel, catalog.Body, catalog.Gearbox, catalog.Drive} {
		codes := axisCodes(st, d)
		if d.Narrowed(codes) || len(codes) == 0 {
			dim.Fprintf(w, "%s: %s\n", d.Name(), strings.Join(d.LabelsFor(codes), ", "))
		}
	}
	fmt.Fprintf(w, "%d of %d listings match\n\n", res.Matched, len(data.Listings))

	if len(res.Models) == 0 {
		color.New(color.FgYellow).Fprintln(w, "No models match your filters.")
		return
	}
	for i, m := range res.Models {
		years, _ := data.YearRange(m.Model)
		fmt.Fprintf(w, "%3d. ", i+1)
		bold.Fprintf(w, "%-28s", m.Model)
		count.Fprintf(w, "%5d", m.Count)
		dim.Fprintf(w, "  (%d–%d)\n", years.From, years.To)
	}
}

func axisCodes(st filter.State, d *catalog.Dictionary) []int {
	switch d {
	case catalog.Fuel:
		return st.Fuel
	case catalog.Body:
		return st.Body
	case catalog.Gearbox:
		return st.Gear
	default:
		return st.Drive
	}
}

func init() {
	rootCmd.AddCommand(rankCmd)
	addDataFlags(rankCmd, &rankData)
	addFilterFlags(rankCmd, &rankFilters)
	rankCmd.Flags().BoolVar(&rankJSON, "json", false, "print the ranking as JSON")
}
