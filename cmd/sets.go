package cmd

import (
	"fmt"
	"strings"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arcanaland/scrymancer/internal/card"
)

var setsCmd = &cobra.Command{
	Use:   "sets",
	Short: "List every set in the catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newClient()
		if err != nil {
			return err
		}

		sets, err := client.ListSets(cmd.Context())
		if err != nil {
			return err
		}

		setType, _ := cmd.Flags().GetString("type")
		out := cmd.OutOrStdout()
		var shown int
		for _, s := range sets {
			if setType != "" && !strings.EqualFold(card.Deref(s.Type), setType) {
				continue
			}
			released := "          "
			if s.Released != nil {
				released = s.Released.Format("2006-01-02")
			}
			fmt.Fprintf(out, "%s  %-6s %-40s %s\n",
				colorize.HiBlackString(released),
				colorize.CyanString("%s", strings.ToUpper(card.Deref(s.Code))),
				card.Deref(s.Name),
				colorize.HiBlackString("%s", card.Deref(s.Type)))
			shown++
		}
		fmt.Fprintf(out, "\n%d sets\n", shown)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(setsCmd)

	setsCmd.Flags().StringP("type", "t", "", "Only list sets of this type, e.g. core, expansion, masters")
}
