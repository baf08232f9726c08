// Package ansi renders card artwork as terminal half-block art and lays out
// text next to it.
package ansi

import (
	"crypto/md5"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/nfnt/resize"
)

// Render converts img to width x height character cells. Each cell is an
// upper half block whose foreground is the top pixel pair and background the
// bottom pair. Without trueColor the blocks are emitted uncolored.
func Render(img image.Image, width, height int, trueColor bool) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	resized := resize.Resize(uint(width*2), uint(height*2), img, resize.Lanczos3)

	var buffer strings.Builder
	for y := 0; y < height*2; y += 2 {
		for x := 0; x < width*2; x += 2 {
			upper := average(colorAt(resized, x, y), colorAt(resized, x+1, y))
			lower := average(colorAt(resized, x, y+1), colorAt(resized, x+1, y+1))
			buffer.WriteString(cell('▀', upper, lower, trueColor))
		}
		buffer.WriteString("\n")
	}
	return buffer.String()
}

// HeightFor returns the cell height that keeps img's aspect ratio at width
// cells. Cells are half as wide as they are tall.
func HeightFor(img image.Image, width int) int {
	b := img.Bounds()
	if b.Dx() == 0 {
		return 0
	}
	h := width * b.Dy() / b.Dx() / 2
	if h < 1 {
		h = 1
	}
	return h
}

func colorAt(img image.Image, x, y int) colorful.Color {
	bounds := img.Bounds()
	if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
		return colorful.Color{}
	}
	c, _ := colorful.MakeColor(img.At(x, y))
	return c
}

func average(colors ...colorful.Color) colorful.Color {
	var r, g, b float64
	for _, c := range colors {
		r += c.R
		g += c.G
		b += c.B
	}
	n := float64(len(colors))
	return colorful.Color{R: r / n, G: g / n, B: b / n}
}

func cell(char rune, fg, bg colorful.Color, trueColor bool) string {
	if !trueColor {
		return string(char)
	}
	r1, g1, b1 := fg.Clamped().RGB255()
	r2, g2, b2 := bg.Clamped().RGB255()
	return fmt.Sprintf("\x1b[38;2;%d;%d;%dm\x1b[48;2;%d;%d;%dm%c\x1b[0m", r1, g1, b1, r2, g2, b2, char)
}

// Strip removes SGR escape sequences.
func Strip(s string) string {
	var result strings.Builder
	inEscape := false
	for _, c := range s {
		switch {
		case inEscape:
			if c == 'm' {
				inEscape = false
			}
		case c == '\033':
			inEscape = true
		default:
			result.WriteRune(c)
		}
	}
	return result.String()
}

// Width returns the number of visible characters in s.
func Width(s string) int {
	return utf8.RuneCountInString(Strip(s))
}

// Wrap splits text into lines of at most width characters, breaking on
// whitespace. Words longer than width get a line of their own. Widths under
// 10 fall back to 40.
func Wrap(text string, width int) []string {
	if width < 10 {
		width = 40
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var result []string
	current := words[0]
	for _, word := range words[1:] {
		if utf8.RuneCountInString(current)+1+utf8.RuneCountInString(word) <= width {
			current += " " + word
			continue
		}
		result = append(result, current)
		current = word
	}
	return append(result, current)
}

// SideBySide places right next to left, padding every left line to the widest
// visible left line plus gap.
func SideBySide(left, right []string, gap int) []string {
	col := 0
	for _, l := range left {
		col = max(col, Width(l))
	}
	col += gap

	n := max(len(left), len(right))
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		var b strings.Builder
		if i < len(left) {
			b.WriteString(left[i])
			b.WriteString(strings.Repeat(" ", col-Width(left[i])))
		} else {
			b.WriteString(strings.Repeat(" ", col))
		}
		if i < len(right) {
			b.WriteString(right[i])
		}
		out = append(out, strings.TrimRight(b.String(), " "))
	}
	return out
}

// Cache stores rendered art on disk keyed by an arbitrary string.
type Cache struct {
	Dir string
}

func (c Cache) path(key string) string {
	return filepath.Join(c.Dir, fmt.Sprintf("%x.ansi", md5.Sum([]byte(key))))
}

// Get returns the cached art for key.
func (c Cache) Get(key string) (string, bool) {
	if c.Dir == "" {
		return "", false
	}
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		return "", false
	}
	return string(data), true
}

// Put stores art under key.
func (c Cache) Put(key, art string) error {
	if c.Dir == "" {
		return errors.New("ansi cache has no directory")
	}
	if err := os.MkdirAll(c.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create ANSI cache directory: %v", err)
	}
	if err := os.WriteFile(c.path(key), []byte(art), 0644); err != nil {
		return fmt.Errorf("failed to write ANSI art to cache: %v", err)
	}
	return nil
}
