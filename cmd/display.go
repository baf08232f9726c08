package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	colorize "github.com/fatih/color"
	"golang.org/x/term"

	"github.com/arcanaland/scrymancer/internal/ansi"
	"github.com/arcanaland/scrymancer/internal/card"
)

const (
	artWidth   = 32
	artSpacing = 4
)

// terminalWidth returns the width of stdout, or 80 when it is not a terminal.
func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

func label(name string) string {
	return colorize.CyanString("%-8s", name+":")
}

func value(s string) string {
	return colorize.HiWhiteString("%s", s)
}

// cardInfo formats the fields of c as display lines wrapped to width.
func cardInfo(c card.Card, width int) []string {
	if width < 20 {
		width = 20
	}
	var lines []string
	add := func(name string, v *string) {
		if v != nil && *v != "" {
			lines = append(lines, label(name)+value(*v))
		}
	}

	lines = append(lines, colorize.New(colorize.Bold, colorize.FgHiWhite).Sprint(card.Deref(c.Name)))
	add("Cost", c.ManaCost)
	if c.CMC != nil {
		lines = append(lines, label("Value")+value(fmt.Sprintf("%g", *c.CMC)))
	}
	add("Type", c.TypeLine)
	if c.SetCode != nil {
		set := strings.ToUpper(*c.SetCode)
		if c.SetName != nil {
			set = fmt.Sprintf("%s (%s)", *c.SetName, set)
		}
		if c.CollectorNumber != nil {
			set += " #" + *c.CollectorNumber
		}
		lines = append(lines, label("Set")+value(set))
	}
	add("Rarity", c.Rarity)
	add("Artist", c.Artist)
	if c.MultiverseID != nil {
		lines = append(lines, label("Gatherer")+value(fmt.Sprint(*c.MultiverseID)))
	}
	if price := formatPrices(c); price != "" {
		lines = append(lines, label("Price")+value(price))
	}

	if c.OracleText != nil && *c.OracleText != "" {
		lines = append(lines, "")
		for _, para := range strings.Split(*c.OracleText, "\n") {
			lines = append(lines, ansi.Wrap(para, width)...)
		}
	}
	if c.FlavorText != nil && *c.FlavorText != "" {
		lines = append(lines, "")
		for _, l := range ansi.Wrap(*c.FlavorText, width) {
			lines = append(lines, colorize.New(colorize.Italic, colorize.FgHiBlack).Sprint(l))
		}
	}

	if legal := formatLegalities(c.Legalities()); legal != "" {
		lines = append(lines, "")
		lines = append(lines, colorize.CyanString("Legal in:"))
		lines = append(lines, ansi.Wrap(legal, width)...)
	}
	return lines
}

func formatPrices(c card.Card) string {
	var parts []string
	if c.PriceUSD != nil {
		parts = append(parts, "$"+c.PriceUSD.StringFixed(2))
	}
	if c.PriceTix != nil {
		parts = append(parts, c.PriceTix.StringFixed(2)+" tix")
	}
	return strings.Join(parts, " · ")
}

func formatLegalities(l card.Legalities) string {
	var legal []string
	for _, format := range l.Formats() {
		if l.IsLegal(format) {
			legal = append(legal, format)
		}
	}
	return strings.Join(legal, ", ")
}

// displayCard prints c with its artwork on the left.
func displayCard(w io.Writer, c card.Card, art string, parts []card.Card) {
	width := terminalWidth()

	var artLines []string
	if art != "" {
		artLines = strings.Split(strings.TrimRight(art, "\n"), "\n")
	}
	infoWidth := width - 2
	if len(artLines) > 0 {
		infoWidth -= ansi.Width(artLines[0]) + artSpacing
	}

	info := cardInfo(c, infoWidth)
	if len(parts) > 0 {
		info = append(info, "", colorize.CyanString("Parts:"))
		for _, p := range parts {
			info = append(info, "  "+value(p.String())+" "+colorize.HiBlackString("%s", card.Deref(p.TypeLine)))
		}
	}

	fmt.Fprintln(w)
	for _, line := range ansi.SideBySide(artLines, info, artSpacing) {
		fmt.Fprintln(w, "  "+line)
	}
	fmt.Fprintln(w)
}

// cardRow is the one-line listing form used by search.
func cardRow(c card.Card) string {
	row := fmt.Sprintf("%-32s %-12s %-5s %4s",
		card.Deref(c.Name), card.Deref(c.ManaCost),
		strings.ToUpper(card.Deref(c.SetCode)), card.Deref(c.CollectorNumber))
	if c.PriceUSD != nil {
		row += colorize.GreenString(" $%s", c.PriceUSD.StringFixed(2))
	}
	return row
}
