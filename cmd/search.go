package cmd

import (
	"fmt"
	"strings"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arcanaland/scrymancer/internal/catalog"
)

var searchOpts catalog.SearchOptions

var searchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Search the catalog with full-text query syntax",
	Long: `Search runs a catalog query and lists every matching card across all
result pages. The query uses the catalog's full-text syntax.

Examples:
  scrymancer search lightning bolt
  scrymancer search 't:instant o:"deals 3"' --order cmc
  scrymancer search bolt --unique prints --order released --dir desc`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newClient()
		if err != nil {
			return err
		}

		query := strings.Join(args, " ")
		cards, err := client.Search(cmd.Context(), query, searchOpts)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		var flagged int
		for _, c := range cards {
			row := cardRow(c)
			if len(c.Issues()) > 0 {
				flagged++
				row += colorize.YellowString(" !")
			}
			fmt.Fprintln(out, row)
		}

		summary := fmt.Sprintf("\n%d cards", len(cards))
		if flagged > 0 {
			summary += colorize.YellowString(" (%d with unreadable fields, run with -v for details)", flagged)
		}
		fmt.Fprintln(out, summary)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringVar(&searchOpts.Unique, "unique", "", "Collapse results: cards, art or prints")
	searchCmd.Flags().StringVar(&searchOpts.Order, "order", "", "Sort field, e.g. name, set, released, cmc, usd")
	searchCmd.Flags().StringVar(&searchOpts.Dir, "dir", "", "Sort direction: auto, asc or desc")
	searchCmd.Flags().BoolVar(&searchOpts.IncludeExtras, "extras", false, "Include tokens, emblems and other extras")
}
