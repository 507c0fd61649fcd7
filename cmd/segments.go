package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var segmentsData dataFlags

var segmentsCmd = &cobra.Command{
	Use:   "segments",
	Short: "List the market segments found in the ratings file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureConfig(); err != nil {
			return err
		}
		data, err := loadData(segmentsData)
		if err != nil {
			return fmt.Errorf("load reference data: %w", err)
		}
		perSegment := map[string]int{}
		for _, r := range data.Ratings {
			perSegment[r.Segment]++
		}
		out := cmd.OutOrStdout()
		for _, s := range data.Segments() {
			fmt.Fprintf(out, "%-24s %d models\n", s, perSegment[s])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(segmentsCmd)
	addDataFlags(segmentsCmd, &segmentsData)
}
