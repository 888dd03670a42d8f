package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"toondex/internal/catalog"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one catalog record in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid record id %q", args[0])
			}

			return ctx.withStore(func(store *catalog.Store) error {
				rec, err := store.GetByID(cmd.Context(), id)
				if err != nil {
					return err
				}
				printRecord(cmd, rec)
				return nil
			})
		},
	}
}

func printRecord(cmd *cobra.Command, rec *catalog.ContentRecord) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "%s (%s)\n", rec.Title, rec.ContentType)
	if rec.OriginalTitle != "" && rec.OriginalTitle != rec.Title {
		fmt.Fprintf(out, "Original title: %s\n", rec.OriginalTitle)
	}

	rows := [][]string{
		{"ID", strconv.FormatInt(rec.ID, 10)},
		{"Year", formatYear(rec)},
		{"Genres", formatGenres(rec)},
		{"Sources", formatSources(rec)},
		{"Unified score", formatScore(rec.UnifiedScore)},
	}
	if rec.TMDBScore != nil {
		rows = append(rows, []string{"TMDB score", fmt.Sprintf("%s (%d votes)", formatScore(rec.TMDBScore), rec.TMDBVotes)})
	}
	if rec.MALScore != nil {
		rows = append(rows, []string{"MAL score", fmt.Sprintf("%s (%d votes)", formatScore(rec.MALScore), rec.MALVotes)})
	}
	if rec.ContentType == catalog.TypeMovie && rec.Runtime > 0 {
		rows = append(rows, []string{"Runtime", fmt.Sprintf("%d min", rec.Runtime)})
	}
	if rec.ContentType == catalog.TypeTV && rec.EpisodeCount > 0 {
		rows = append(rows, []string{"Episodes", strconv.Itoa(rec.EpisodeCount)})
	}
	if len(rec.Studios) > 0 {
		rows = append(rows, []string{"Studios", strings.Join(rec.Studios, ", ")})
	}
	if rec.Franchise != "" {
		rows = append(rows, []string{"Franchise", rec.Franchise})
	}
	if id, ok := rec.ExternalID(catalog.SourceTMDB); ok {
		rows = append(rows, []string{"TMDB id", strconv.FormatInt(id, 10)})
	}
	if id, ok := rec.ExternalID(catalog.SourceMAL); ok {
		rows = append(rows, []string{"MAL id", strconv.FormatInt(id, 10)})
	}

	fmt.Fprintln(out, renderTable([]string{"FIELD", "VALUE"}, rows, []columnAlignment{alignLeft, alignLeft}))

	if rec.Overview != "" {
		fmt.Fprintf(out, "\n%s\n", rec.Overview)
	}
}
