package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"mse-observer/src/catalog"
	"mse-observer/src/helpers"

	"github.com/spf13/cobra"
)

// -----------------------------------------------------------------------------

func scrapeCmd() *cobra.Command {
	var throughChain bool

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Run one scrape and print the records as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap(contextOf(cmd))
			if err != nil {
				return err
			}
			defer app.Close()

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")

			if throughChain {
				return enc.Encode(app.Chain.Refresh(contextOf(cmd)))
			}

			res, err := app.Scraper.Scrape(contextOf(cmd))
			if err != nil {
				return err
			}
			app.Logger.Info("Scraped %d records (%d rejected, %d enriched) in %v",
				len(res.Records), len(res.Rejected), res.Enriched, res.Duration)
			return enc.Encode(res)
		},
	}

	cmd.Flags().BoolVar(&throughChain, "chain", false, "go through the fallback chain and persist the result")
	return cmd
}

// -----------------------------------------------------------------------------

func seedHistoryCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "seed-history",
		Short: "Backfill the store with synthetic daily history for every priced instrument",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap(contextOf(cmd))
			if err != nil {
				return err
			}
			defer app.Close()

			if app.Store == nil {
				return helpers.NewConfigurationError("seed-history needs a reachable store")
			}

			ctx := contextOf(cmd)
			now := time.Now()
			total := 0
			for _, e := range catalog.Priced() {
				points := app.Synthetic.History(e.Symbol, e.BasePrice, days, now)
				if err := app.Store.AppendHistory(ctx, points); err != nil {
					return fmt.Errorf("seeding %s: %w", e.Symbol, err)
				}
				total += len(points)
			}
			app.Logger.Info("Seeded %d history points over %d days", total, days)
			return nil
		},
	}

	cmd.Flags().IntVarP(&days, "days", "d", 90, "number of calendar days to backfill")
	return cmd
}

// -----------------------------------------------------------------------------

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
