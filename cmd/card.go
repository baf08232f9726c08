package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/arcanaland/scrymancer/internal/ansi"
	"github.com/arcanaland/scrymancer/internal/card"
	"github.com/arcanaland/scrymancer/internal/catalog"
	"github.com/arcanaland/scrymancer/internal/config"
)

var cardCmd = &cobra.Command{
	Use:   "card",
	Short: "Display a single printing with ANSI art",
	Long: `Card looks up one printing and displays it with terminal artwork.
Select the printing by multiverse id, by set code and collector number, or by
catalog id. The card and its artwork are fetched concurrently; rendered art is
cached under XDG_CACHE_HOME/scrymancer/art.

Examples:
  scrymancer card --multiverse 414304
  scrymancer card --set lea --number 161
  scrymancer card --id 27907985-b5f6-4098-ab43-15a0c2bf94d5 --parts`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := newClient()
		if err != nil {
			return err
		}

		lookup, fetch, err := cardLookup(cmd, client)
		if err != nil {
			return err
		}

		noImage, _ := cmd.Flags().GetBool("no-image")
		version, _ := cmd.Flags().GetString("version")
		if version == "" {
			version = cfg.ImageVersion
		}
		withParts, _ := cmd.Flags().GetBool("parts")

		var (
			c   card.Card
			art string
		)
		g, ctx := errgroup.WithContext(cmd.Context())
		g.Go(func() error {
			var err error
			c, err = fetch(ctx)
			return err
		})
		if !noImage {
			g.Go(func() error {
				art = cardArt(ctx, client, lookup, version)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		var parts []card.Card
		if withParts {
			parts, err = resolveParts(cmd.Context(), client, c)
			if err != nil {
				return err
			}
		}

		displayCard(cmd.OutOrStdout(), c, art, parts)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(cardCmd)

	cardCmd.Flags().Int("multiverse", 0, "Look up by multiverse id")
	cardCmd.Flags().String("set", "", "Set code, used with --number")
	cardCmd.Flags().Int("number", 0, "Collector number, used with --set")
	cardCmd.Flags().String("id", "", "Look up by catalog id")
	cardCmd.Flags().Bool("parts", false, "Resolve and list the related parts of a multi-part card")
	cardCmd.Flags().Bool("no-image", false, "Skip the artwork")
	cardCmd.Flags().String("version", "", "Image version: small, normal, large, png, art_crop or border_crop")

	cardCmd.MarkFlagsMutuallyExclusive("multiverse", "set", "id")
	cardCmd.MarkFlagsMutuallyExclusive("multiverse", "number", "id")
	cardCmd.MarkFlagsRequiredTogether("set", "number")
	cardCmd.MarkFlagsOneRequired("multiverse", "set", "id")
}

// cardLookup returns the lookup URL selected by the flags and the fetch that
// retrieves it. The URL doubles as the key for the artwork.
func cardLookup(cmd *cobra.Command, client *catalog.Client) (string, func(context.Context) (card.Card, error), error) {
	flags := cmd.Flags()
	q := client.Query()

	switch {
	case flags.Changed("multiverse"):
		id, _ := flags.GetInt("multiverse")
		u, err := q.Multiverse(id)
		return u, func(ctx context.Context) (card.Card, error) { return client.FetchByMultiverseID(ctx, id) }, err
	case flags.Changed("id"):
		id, _ := flags.GetString("id")
		u, err := q.ByID(id)
		return u, func(ctx context.Context) (card.Card, error) { return client.FetchByID(ctx, id) }, err
	default:
		set, _ := flags.GetString("set")
		number, _ := flags.GetInt("number")
		u, err := q.SetNumber(set, number)
		return u, func(ctx context.Context) (card.Card, error) { return client.FetchBySetAndNumber(ctx, set, number) }, err
	}
}

// cardArt returns rendered artwork for the card at lookup, or "" when it
// cannot be fetched. Missing art never fails the command.
func cardArt(ctx context.Context, client *catalog.Client, lookup, version string) string {
	cache := ansi.Cache{Dir: filepath.Join(config.GetCacheDir(), "art")}
	key := fmt.Sprintf("%s|%s|%d", lookup, version, artWidth)
	if art, ok := cache.Get(key); ok {
		return art
	}

	img, err := client.FetchImage(ctx, lookup, version)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.Warn("artwork unavailable", "url", lookup, "error", err)
		}
		return ""
	}

	art := ansi.Render(img, artWidth, ansi.HeightFor(img, artWidth), true)
	if err := cache.Put(key, art); err != nil {
		slog.Debug("caching artwork failed", "error", err)
	}
	return art
}

// resolveParts fetches every part reference of c other than c itself.
// References without a URI are skipped; they are already reported as issues.
func resolveParts(ctx context.Context, client *catalog.Client, c card.Card) ([]card.Card, error) {
	refs := c.Parts()
	resolved := make([]*card.Card, len(refs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, ref := range refs {
		if ref.URI == nil || (ref.ID != nil && c.ID != nil && *ref.ID == *c.ID) {
			continue
		}
		i, ref := i, ref
		g.Go(func() error {
			part, err := client.Resolve(ctx, ref)
			if err != nil {
				return fmt.Errorf("resolving part %q: %w", card.Deref(ref.Name), err)
			}
			resolved[i] = &part
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var parts []card.Card
	for _, p := range resolved {
		if p != nil {
			parts = append(parts, *p)
		}
	}
	return parts, nil
}
