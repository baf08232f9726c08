package cmd

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/arcanaland/scrymancer/internal/catalog"
	"github.com/arcanaland/scrymancer/internal/config"
)

var (
	verbose   bool
	showStats bool

	registry = prometheus.NewRegistry()
	metrics  = catalog.NewMetrics(registry)
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "scrymancer",
	Short: "Search and inspect Magic: The Gathering cards from the Scryfall catalog",
	Long: `Scrymancer is a command-line client for the Scryfall card catalog.
It searches cards, looks up single printings with terminal artwork, lists sets,
prices and checks deck lists, and validates saved catalog responses offline.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(verbose)
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if !showStats {
			return nil
		}
		return printStats(cmd.ErrOrStderr(), registry)
	},
}

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every catalog request to stderr")
	RootCmd.PersistentFlags().BoolVar(&showStats, "stats", false, "Print catalog traffic counters after the command")

	RootCmd.AddCommand(validateCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return RootCmd.Execute()
}

func setupLogging(debug bool) {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// newClient builds a catalog client from the loaded configuration. Requests
// from every goroutine of one command share a single rate limiter.
func newClient() (*catalog.Client, *config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}

	doer := catalog.NewLimitedDoer(&http.Client{Timeout: cfg.Timeout()}, cfg.RequestsPerSecond)
	client, err := catalog.NewClient(
		catalog.WithDoer(doer),
		catalog.WithBaseURL(cfg.BaseURL),
		catalog.WithUserAgent(cfg.UserAgent),
		catalog.WithPageInterval(cfg.PageInterval()),
		catalog.WithMaxPages(cfg.MaxPages),
		catalog.WithLogger(slog.Default()),
		catalog.WithMetrics(metrics),
	)
	if err != nil {
		return nil, nil, err
	}
	return client, cfg, nil
}
