package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"toondex/internal/catalog"
	"toondex/internal/search"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var typeFlag string
	var genreFlag string
	var minRating float64
	var yearFlag int
	var sortFlag string
	var limitFlag int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the catalog by title",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")

			opts := search.Options{
				Genre:     genreFlag,
				MinRating: minRating,
				Year:      yearFlag,
				Sort:      search.SortOrder(sortFlag),
				Limit:     limitFlag,
			}
			switch typeFlag {
			case "", "all":
			case string(catalog.TypeMovie), string(catalog.TypeTV):
				opts.ContentType = catalog.ContentType(typeFlag)
			default:
				return fmt.Errorf("unknown content type %q (movie, tv, or all)", typeFlag)
			}

			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			return ctx.withStore(func(store *catalog.Store) error {
				searcher := search.NewSearcher(store, logger)
				results, err := searcher.Search(cmd.Context(), query, opts)
				if err != nil {
					return err
				}
				if len(results) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No results")
					return nil
				}

				headers := []string{"ID", "TITLE", "TYPE", "YEAR", "SCORE", "SOURCES"}
				aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft}
				rows := make([][]string, 0, len(results))
				for _, result := range results {
					rec := result.Record
					rows = append(rows, []string{
						strconv.FormatInt(rec.ID, 10),
						rec.Title,
						string(rec.ContentType),
						formatYear(rec),
						formatScore(rec.UnifiedScore),
						formatSources(rec),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, aligns))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&typeFlag, "type", "t", "all", "Content type filter (movie, tv, or all)")
	cmd.Flags().StringVarP(&genreFlag, "genre", "g", "", "Genre filter")
	cmd.Flags().Float64Var(&minRating, "min-rating", 0, "Minimum unified score")
	cmd.Flags().IntVar(&yearFlag, "year", 0, "Release year filter")
	cmd.Flags().StringVar(&sortFlag, "sort", string(search.SortRelevance), "Sort order (relevance, rating, year, title)")
	cmd.Flags().IntVarP(&limitFlag, "limit", "n", 20, "Maximum number of results")
	return cmd
}
