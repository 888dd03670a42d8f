package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"toondex/internal/catalog"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show catalog counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *catalog.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}

				rows := [][]string{
					{"Total records", strconv.Itoa(stats.Total)},
					{"Movies", strconv.Itoa(stats.Movies)},
					{"TV shows", strconv.Itoa(stats.TVShows)},
					{"TMDB only", strconv.Itoa(stats.TMDBOnly)},
					{"MAL only", strconv.Itoa(stats.MALOnly)},
					{"Merged (both sources)", strconv.Itoa(stats.Merged)},
					{"With unified score", strconv.Itoa(stats.WithUnified)},
					{"In a franchise", strconv.Itoa(stats.InFranchise)},
				}
				fmt.Fprintln(cmd.OutOrStdout(),
					renderTable([]string{"METRIC", "COUNT"}, rows, []columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}
}
