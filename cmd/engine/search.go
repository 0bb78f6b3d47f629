package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"atsscout-engine/internal/domain"
	"atsscout-engine/internal/pipeline"
)

var searchReq domain.SearchRequest

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Run one aggregation and print the postings as JSON",
	Example: `  engine search "platform engineer" --location Berlin --days 7
  engine search --force-fresh --max-per-source 25 "go developer"`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			searchReq.Query = args[0]
		}
		if searchReq.Query == "" {
			return pipeline.ErrMissingQuery
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		e, err := openEngine(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		res, err := e.driver.Run(ctx, searchReq)
		if errors.Is(err, pipeline.ErrMissingQuery) || res.RunID == "" {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(res); encErr != nil {
			return encErr
		}
		return err
	},
}

func init() {
	f := searchCmd.Flags()
	f.StringVarP(&searchReq.Query, "query", "q", "", "Search text (or pass it as the argument)")
	f.StringVarP(&searchReq.Location, "location", "l", "", "Location text (default: search.location from config)")
	f.IntVar(&searchReq.PostedWithinDays, "days", 0, "Only postings from the last N days (0 = any)")
	f.IntVar(&searchReq.MaxResultsPerSource, "max-per-source", 0, "Cap on postings per platform (0 = config default)")
	f.StringVar(&searchReq.Country, "country", "", "Country code hint for the search backend")
	f.BoolVar(&searchReq.ForceFresh, "force-fresh", false, "Ignore a fresh cache entry")
}
