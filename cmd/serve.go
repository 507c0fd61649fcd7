package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/carscout/internal/dashboard"
)

var (
	serveAddr string
	serveData dataFlags
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard web server",
	Long: `Loads the reference files, checks the completion credential, and serves the
dashboard until interrupted. Any load error is fatal.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureConfig(); err != nil {
			return err
		}
		log := newLogger()

		data, err := loadData(serveData)
		if err != nil {
			return fmt.Errorf("load reference data: %w", err)
		}
		log.Info().
			Int("listings", len(data.Listings)).
			Int("ratings", len(data.Ratings)).
			Int("models", data.Models()).
			Msg("reference data loaded")

		gen, err := newGenerator(log)
		if err != nil {
			return err
		}
		srv, err := dashboard.New(dashboard.Options{
			Data:             data,
			Describer:        gen,
			Logger:           log,
			DetailsPerMinute: cfg.DetailsRatePerMin,
			ModelName:        gen.Model(),
		})
		if err != nil {
			return err
		}

		addr := cfg.ListenAddr
		if cmd.Flags().Changed("addr") {
			addr = serveAddr
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Dashboard on http://%s\n", displayAddr(addr))
		return srv.Run(ctx, addr)
	},
}

func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8501", "listen address (overrides config listen_addr)")
	addDataFlags(serveCmd, &serveData)
}
