package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"toondex/internal/catalog"
	"toondex/internal/ingest"
	"toondex/internal/sources/mal"
	"toondex/internal/sources/tmdb"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var sourceFlag string
	var maxPages int

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Pull records from the configured sources and merge them into the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			ingestCfg := cfg.Ingest
			if maxPages > 0 {
				ingestCfg.MaxPages = maxPages
			}

			table, err := ctx.franchiseTable()
			if err != nil {
				return err
			}

			return ctx.withStore(func(store *catalog.Store) error {
				pipeline := ingest.NewPipeline(store, cfg.Matching, table, logger)
				runner := ingest.NewRunner(pipeline, cfg.LockPath(), ingestCfg, logger)

				registered := 0
				if sourceFlag == "all" || sourceFlag == string(catalog.SourceTMDB) {
					if cfg.TMDB.APIKey == "" {
						fmt.Fprintln(cmd.ErrOrStderr(), "tmdb: no api key configured, skipping")
					} else {
						runner.AddSource(tmdb.NewClient(cfg.TMDB, logger), cfg.TMDB.RequestsPerSec)
						registered++
					}
				}
				if sourceFlag == "all" || sourceFlag == string(catalog.SourceMAL) {
					if cfg.MAL.ClientID == "" {
						fmt.Fprintln(cmd.ErrOrStderr(), "mal: no client id configured, skipping")
					} else {
						runner.AddSource(mal.NewClient(cfg.MAL, logger), cfg.MAL.RequestsPerSec)
						registered++
					}
				}
				if registered == 0 {
					return fmt.Errorf("no usable sources; configure tmdb.api_key or mal.client_id")
				}

				stats, err := runner.Run(cmd.Context())
				if err != nil {
					return err
				}
				printRunStats(cmd, stats)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&sourceFlag, "source", "all", "Source to ingest from (tmdb, mal, or all)")
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "Override the configured page limit for this run")
	return cmd
}

func printRunStats(cmd *cobra.Command, stats *ingest.RunStats) {
	headers := []string{"SOURCE", "PAGES", "PROCESSED", "CREATED", "MERGED", "FAILED"}
	aligns := []columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight}

	var rows [][]string
	for _, tag := range []catalog.SourceTag{catalog.SourceTMDB, catalog.SourceMAL} {
		s := stats.Source(tag)
		if s.Processed == 0 && s.Pages == 0 {
			continue
		}
		rows = append(rows, statsRow(string(tag), s))
	}
	rows = append(rows, statsRow("total", stats.Totals()))

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s\n", stats.RunID)
	fmt.Fprintln(out, renderTable(headers, rows, aligns))
}

func statsRow(label string, s ingest.SourceStats) []string {
	return []string{
		label,
		strconv.Itoa(s.Pages),
		strconv.Itoa(s.Processed),
		strconv.Itoa(s.Created),
		strconv.Itoa(s.Merged),
		strconv.Itoa(s.Failed),
	}
}
