package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arcanaland/scrymancer/internal/card"
	"github.com/arcanaland/scrymancer/internal/config"
	"github.com/arcanaland/scrymancer/internal/deck"
)

// deckCmd represents the deck command group
var deckCmd = &cobra.Command{
	Use:   "deck",
	Short: "Manage and check deck lists in your deck library",
	Long: `Commands for managing deck lists. A deck list is a TOML file with a [deck]
table (name, format) and one [[cards]] entry per printing (set, number, count).`,
}

// deckListCmd represents the deck ls command
var deckListCmd = &cobra.Command{
	Use:   "ls",
	Short: "List deck lists in your deck library",
	RunE: func(cmd *cobra.Command, args []string) error {
		libraryPath := config.GetDeckLibraryPath()
		if _, err := os.Stat(libraryPath); os.IsNotExist(err) {
			fmt.Printf("Deck library at %s does not exist.\n", libraryPath)
			fmt.Println("Run 'scrymancer deck init' to create it.")
			return nil
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}

		entries, err := os.ReadDir(libraryPath)
		if err != nil {
			return fmt.Errorf("error reading deck library: %w", err)
		}

		var found int
		for _, entry := range entries {
			if entry.IsDir() || filepath.Ext(entry.Name()) != ".toml" {
				continue
			}
			d, err := deck.LoadDeck(filepath.Join(libraryPath, entry.Name()))
			if err != nil {
				// Not a valid deck list, skip
				continue
			}
			found++

			name := strings.TrimSuffix(entry.Name(), ".toml")
			detail := fmt.Sprintf("%s, %s, %d cards", d.Name, d.Format, d.Size())
			if name == cfg.DefaultDeck {
				fmt.Printf("* %s (%s) [DEFAULT]\n", name, detail)
			} else {
				fmt.Printf("  %s (%s)\n", name, detail)
			}
		}

		if found == 0 {
			fmt.Println("No deck lists found in your deck library.")
			fmt.Println("You can add deck lists by copying them to:", libraryPath)
		}
		return nil
	},
}

// deckSetDefaultCmd represents the deck set-default command
var deckSetDefaultCmd = &cobra.Command{
	Use:   "set-default [deck_name]",
	Short: "Set the default deck list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deckName := strings.TrimSuffix(args[0], ".toml")

		deckPath, err := config.GetDeckPath(deckName)
		if err != nil {
			return err
		}
		if _, err := deck.LoadDeck(deckPath); err != nil {
			return fmt.Errorf("not a valid deck list: %w", err)
		}

		if err := config.SetDefaultDeck(deckName); err != nil {
			return fmt.Errorf("error setting default deck: %w", err)
		}

		fmt.Printf("Default deck set to: %s\n", deckName)
		return nil
	},
}

// deckInitCmd represents the deck init command
var deckInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the deck library and config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		libraryPath := config.GetDeckLibraryPath()
		if err := os.MkdirAll(libraryPath, 0755); err != nil {
			return fmt.Errorf("error creating deck library: %w", err)
		}

		fmt.Println("Deck library initialized at:", libraryPath)
		fmt.Println("You can now add deck lists by copying them to this directory.")

		if _, err := config.LoadConfig(); err != nil {
			return fmt.Errorf("error initializing config: %w", err)
		}
		fmt.Println("Config file initialized at:", config.GetConfigFilePath())
		return nil
	},
}

// deckCheckCmd represents the deck check command
var deckCheckCmd = &cobra.Command{
	Use:   "check [deck_name|path]",
	Short: "Check legality and price of a deck list",
	Long: `Check looks up every printing of a deck list in the catalog, reports whether
each is legal in the deck's format and totals the USD price. Without an
argument the default deck is checked.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := newClient()
		if err != nil {
			return err
		}

		deckName := cfg.DefaultDeck
		if len(args) == 1 {
			deckName = args[0]
		}
		if deckName == "" {
			return fmt.Errorf("no deck given and no default deck set")
		}
		deckPath, err := config.GetDeckPath(deckName)
		if err != nil {
			return err
		}
		d, err := deck.LoadDeck(deckPath)
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("format")
		if format == "" && d.Format == "" {
			format = cfg.Format
		}

		report, err := deck.Check(cmd.Context(), client, d, format)
		if err != nil {
			return err
		}
		printReport(cmd, report)
		if !report.Legal() {
			return fmt.Errorf("deck is not legal in %s", report.Format)
		}
		return nil
	},
}

func printReport(cmd *cobra.Command, report *deck.Report) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s)\n\n", colorize.HiWhiteString("%s", report.Deck), report.Format)

	for _, l := range report.Lines {
		mark := colorize.GreenString("✓")
		if !l.Legal {
			status := l.Status
			if status == "" {
				status = "not listed"
			}
			mark = colorize.RedString("✗ %s", status)
		}
		price := colorize.HiBlackString("      n/a")
		if l.Subtotal != nil {
			price = fmt.Sprintf("%9s", "$"+l.Subtotal.StringFixed(2))
		}
		fmt.Fprintf(out, "%3dx %-40s %s  %s\n", l.Entry.Count, l.Card.String(), price, mark)
	}
	for _, e := range report.NotFound {
		fmt.Fprintf(out, "%3dx %-40s %s\n", e.Count, fmt.Sprintf("%s #%d", strings.ToUpper(e.Set), e.Number), colorize.RedString("not in catalog"))
	}

	total := "$" + report.Total.StringFixed(2)
	if !report.Complete {
		total = "at least " + total + colorize.YellowString(" (some cards have no price)")
	}
	fmt.Fprintf(out, "\nCards:  %d (%d distinct)\n", sumCopies(report.Copies()), len(report.Copies()))
	fmt.Fprintf(out, "Total:  %s\n", total)
}

func sumCopies(copies map[card.CardKey]int) int {
	var n int
	for _, c := range copies {
		n += c
	}
	return n
}

func init() {
	RootCmd.AddCommand(deckCmd)
	deckCmd.AddCommand(deckListCmd)
	deckCmd.AddCommand(deckSetDefaultCmd)
	deckCmd.AddCommand(deckInitCmd)
	deckCmd.AddCommand(deckCheckCmd)

	deckCheckCmd.Flags().StringP("format", "f", "", "Check against this format instead of the deck's own")
}
