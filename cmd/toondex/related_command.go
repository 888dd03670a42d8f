package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"toondex/internal/catalog"
)

func newRelatedCommand(ctx *commandContext) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:     "related <id>",
		Aliases: []string{"relationships"},
		Short:   "Show sequels, prequels, and related entries for a record",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid record id %q", args[0])
			}

			return ctx.withStore(func(store *catalog.Store) error {
				resolver, err := ctx.newResolver(store)
				if err != nil {
					return err
				}
				if refresh {
					resolver.Invalidate(id)
				}

				rec, err := store.GetByID(cmd.Context(), id)
				if err != nil {
					return err
				}
				result, err := resolver.Resolve(cmd.Context(), id)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if result.Empty() {
					fmt.Fprintf(out, "No relationships found for %s\n", rec.Title)
					return nil
				}

				fmt.Fprintf(out, "Relationships for %s\n", rec.Title)
				printRelationGroup(cmd, "Sequels", result.Sequels)
				printRelationGroup(cmd, "Prequels", result.Prequels)
				printRelationGroup(cmd, "Related", result.Related)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Bypass the cached result for this record")
	return cmd
}

func printRelationGroup(cmd *cobra.Command, label string, records []*catalog.ContentRecord) {
	if len(records) == 0 {
		return
	}

	headers := []string{"ID", "TITLE", "TYPE", "YEAR", "SCORE"}
	aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight}
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			strconv.FormatInt(rec.ID, 10),
			rec.Title,
			string(rec.ContentType),
			formatYear(rec),
			formatScore(rec.UnifiedScore),
		})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n%s (%d)\n", label, len(records))
	fmt.Fprintln(out, renderTable(headers, rows, aligns))
}
