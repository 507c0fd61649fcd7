package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/carscout/internal/narrative"
	"github.com/KaramelBytes/carscout/internal/utils"
)

var (
	detailsData       dataFlags
	detailsFilters    filterFlags
	detailsJSON       bool
	detailsShowPrompt bool
)

var detailsCmd = &cobra.Command{
	Use:   "details <model>",
	Short: "Ask the language model about one car model",
	Long: `Builds the buyer-oriented prompt for a model (with its production years and any
narrowed fuel, gearbox or drivetrain filters) and prints the model's answer.
Exactly one completion request is made.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureConfig(); err != nil {
			return err
		}
		log := newLogger()
		data, err := loadData(detailsData)
		if err != nil {
			return fmt.Errorf("load reference data: %w", err)
		}
		model := args[0]
		years, ok := data.YearRange(model)
		if !ok {
			return fmt.Errorf("unknown model %q: no listings carry that name", model)
		}
		st := detailsFilters.state(cmd, data.Segments())
		subject := narrative.Subject{Model: model, Years: years, Filters: st.Narrowed()}

		out := cmd.OutOrStdout()
		if detailsShowPrompt {
			color.New(color.Faint).Fprintln(out, narrative.Prompt(subject, narrative.DefaultReferenceYear))
			fmt.Fprintln(out)
		}
		gen, err := newGenerator(log)
		if err != nil {
			return err
		}
		timeout := time.Duration(cfg.HTTPTimeoutSec) * time.Second
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		n, err := gen.Describe(ctx, subject)
		if err != nil {
			return err
		}
		if detailsJSON {
			b, err := utils.PrettyJSON(map[string]any{
				"model":      model,
				"years":      years,
				"prompt":     n.Prompt,
				"text":       n.Text,
				"request_id": n.RequestID,
			})
			if err != nil {
				return err
			}
			_, err = out.Write(b)
			return err
		}
		color.New(color.Bold).Fprintf(out, "%s on %s (%d–%d):\n", gen.Model(), model, years.From, years.To)
		fmt.Fprintln(out, n.Text)
		if n.RequestID != "" {
			color.New(color.Faint).Fprintf(out, "\nRequest ID: %s\n", n.RequestID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(detailsCmd)
	addDataFlags(detailsCmd, &detailsData)
	addFilterFlags(detailsCmd, &detailsFilters)
	detailsCmd.Flags().BoolVar(&detailsJSON, "json", false, "print the narrative as JSON")
	detailsCmd.Flags().BoolVar(&detailsShowPrompt, "print-prompt", false, "print the prompt before sending it")
}
