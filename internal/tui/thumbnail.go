package tui

import (
	"context"
	"fmt"
	"image"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/patrickmn/go-cache"
)

const (
	thumbCols = 16
	thumbRows = 8
)

// thumbnailMsg carries a rendered avatar for the profile with the given seq.
type thumbnailMsg struct {
	seq   int
	ref   string
	block string
	err   error
}

// thumbnails fetches avatars and keeps their rendered form.
type thumbnails struct {
	fetch func(ctx context.Context, ref string) (image.Image, error)
	cache *cache.Cache
}

func newThumbnails(fetch func(ctx context.Context, ref string) (image.Image, error)) *thumbnails {
	return &thumbnails{
		fetch: fetch,
		cache: cache.New(10*time.Minute, 15*time.Minute),
	}
}

func (t *thumbnails) cached(ref string) (string, bool) {
	x, found := t.cache.Get("thumb:" + ref)
	if !found {
		return "", false
	}
	return x.(string), true
}

// loadCmd renders ref, hitting the network only on a cache miss.
func (t *thumbnails) loadCmd(ctx context.Context, seq int, ref string) tea.Cmd {
	return func() tea.Msg {
		if block, ok := t.cached(ref); ok {
			return thumbnailMsg{seq: seq, ref: ref, block: block}
		}

		img, err := t.fetch(ctx, ref)
		if err != nil {
			return thumbnailMsg{seq: seq, ref: ref, err: err}
		}

		block := renderThumbnail(img, thumbCols, thumbRows)
		t.cache.Set("thumb:"+ref, block, cache.DefaultExpiration)
		return thumbnailMsg{seq: seq, ref: ref, block: block}
	}
}

// renderThumbnail draws img with upper half blocks: each cell shows two
// vertically stacked pixels, foreground on top and background below.
func renderThumbnail(img image.Image, cols, rows int) string {
	b := img.Bounds()
	if b.Empty() {
		return ""
	}

	sample := func(col, row int) lipgloss.Color {
		x := b.Min.X + col*b.Dx()/cols
		y := b.Min.Y + row*b.Dy()/(rows*2)
		r, g, bl, _ := img.At(x, y).RGBA()
		return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, bl>>8))
	}

	var sb strings.Builder
	for row := range rows {
		for col := range cols {
			top := sample(col, row*2)
			bottom := sample(col, row*2+1)
			sb.WriteString(lipgloss.NewStyle().Foreground(top).Background(bottom).Render("▀"))
		}
		if row < rows-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
