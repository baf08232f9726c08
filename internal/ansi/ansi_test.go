package ansi

import (
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestRender(t *testing.T) {
	red := solid(40, 40, color.RGBA{R: 255, A: 255})

	art := Render(red, 4, 3, true)
	lines := strings.Split(strings.TrimSuffix(art, "\n"), "\n")
	require.Len(t, lines, 3)
	for _, line := range lines {
		assert.Equal(t, 4, Width(line))
		assert.Equal(t, "▀▀▀▀", Strip(line))
	}
	assert.Contains(t, art, "\x1b[38;2;")
	assert.Contains(t, art, "\x1b[0m")

	plain := Render(red, 2, 2, false)
	assert.Equal(t, "▀▀\n▀▀\n", plain)

	assert.Empty(t, Render(red, 0, 3, true))
}

func TestHeightFor(t *testing.T) {
	assert.Equal(t, 13, HeightFor(solid(488, 680, color.Black), 20))
	assert.Equal(t, 1, HeightFor(solid(100, 1, color.Black), 10))
	assert.Equal(t, 0, HeightFor(image.NewRGBA(image.Rect(0, 0, 0, 0)), 10))
}

func TestStrip(t *testing.T) {
	assert.Equal(t, "Lightning Bolt", Strip("\x1b[1;36mLightning\x1b[0m Bolt"))
	assert.Equal(t, "plain", Strip("plain"))
	assert.Equal(t, 5, Width("\x1b[31mÆther\x1b[0m"))
}

func TestWrap(t *testing.T) {
	text := "Lightning Bolt deals 3 damage to any target."
	assert.Equal(t, []string{"Lightning Bolt", "deals 3 damage to", "any target."}, Wrap(text, 17))
	assert.Equal(t, []string{text}, Wrap(text, 80))
	assert.Equal(t, []string{""}, Wrap("   ", 20))
	assert.Equal(t, []string{"Supercalifragilistic", "word"}, Wrap("Supercalifragilistic word", 10))
	assert.Len(t, Wrap(text, 3), 2, "narrow widths fall back to 40")
}

func TestSideBySide(t *testing.T) {
	left := []string{"\x1b[31m##\x1b[0m", "####"}
	right := []string{"Name", "Type", "Set"}

	out := SideBySide(left, right, 2)
	require.Len(t, out, 3)
	assert.Equal(t, "##    Name", Strip(out[0]))
	assert.Equal(t, "####  Type", out[1])
	assert.Equal(t, "      Set", out[2])
}

func TestCache(t *testing.T) {
	c := Cache{Dir: t.TempDir()}

	_, ok := c.Get("emn/15/normal")
	assert.False(t, ok)

	require.NoError(t, c.Put("emn/15/normal", "▀▀\n"))
	art, ok := c.Get("emn/15/normal")
	assert.True(t, ok)
	assert.Equal(t, "▀▀\n", art)

	_, ok = Cache{}.Get("emn/15/normal")
	assert.False(t, ok)
	assert.Error(t, Cache{}.Put("k", "v"))
}
