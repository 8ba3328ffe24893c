package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/casefolio/internal/assets"
)

func TestHTML_GFMAndSanitize(t *testing.T) {
	r := New()
	out, err := r.HTML("# Intake\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\n<script>alert(1)</script>\n\n[link](https://example.com)\n")
	require.NoError(t, err)
	assert.Contains(t, out, `<h1 id="intake">Intake</h1>`)
	assert.Contains(t, out, "<table>")
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, `rel="nofollow"`)
}

func TestHTML_KeepsFigureAndImageHints(t *testing.T) {
	r := New()
	body := `<figure><img src="/images/a.png" alt="A" data-fit="cover" onerror="x()"><figcaption>First screen</figcaption></figure>`
	out, err := r.HTML(body)
	require.NoError(t, err)
	assert.Contains(t, out, "<figcaption>First screen</figcaption>")
	assert.Contains(t, out, `data-fit="cover"`)
	assert.NotContains(t, out, "onerror")
}

type sizes map[string]assets.Size

func (s sizes) Lookup(src string) (assets.Size, bool) {
	v, ok := s[src]
	return v, ok
}

func TestExtractMedia(t *testing.T) {
	r := New()
	body := strings.Join([]string{
		`![Hero](/images/hero.png "Hero shot")`,
		``,
		`<figure><img src="/images/flow.png" alt="Flow" data-aspect="4 / 3" data-unframed><figcaption>Flow map</figcaption></figure>`,
		``,
		`<img src="/images/sized.png" alt="Sized" width="800" height="400">`,
		``,
		`<img alt="no source">`,
	}, "\n")
	out, err := r.HTML(body)
	require.NoError(t, err)

	media, err := ExtractMedia(out, sizes{"/images/hero.png": {Width: 1200, Height: 600}})
	require.NoError(t, err)
	require.Len(t, media, 3)

	hero := media[0]
	assert.Equal(t, "/images/hero.png", hero.Src)
	assert.Equal(t, "Hero shot", hero.Caption)
	assert.Equal(t, 1200, hero.Width)
	assert.InDelta(t, 2.0, hero.Aspect, 1e-9)

	flow := media[1]
	assert.Equal(t, "Flow map", flow.Caption)
	assert.True(t, flow.Unframed)
	assert.InDelta(t, 4.0/3.0, flow.Aspect, 1e-9)
	assert.Equal(t, 1600, flow.Width)
	assert.Equal(t, 1200, flow.Height)

	sized := media[2]
	assert.Equal(t, 800, sized.Width)
	assert.Equal(t, 400, sized.Height)
	assert.Equal(t, "contain", sized.Fit)

	slides := Slides(media)
	assert.Len(t, slides, 3)
	assert.Equal(t, "Flow", slides[1].Alt)
}

func TestExtractMedia_FallbackAspect(t *testing.T) {
	media, err := ExtractMedia(`<p><img src="/x.png" alt=""></p>`, nil)
	require.NoError(t, err)
	require.Len(t, media, 1)
	assert.InDelta(t, FallbackAspect, media[0].Aspect, 1e-9)
	assert.Equal(t, 900, media[0].Height)
}

func TestParseAspect(t *testing.T) {
	for in, want := range map[string]float64{"16/9": 16.0 / 9.0, " 4 / 3 ": 4.0 / 3.0, "1.5": 1.5} {
		got, ok := ParseAspect(in)
		assert.True(t, ok, in)
		assert.InDelta(t, want, got, 1e-9, in)
	}
	for _, bad := range []string{"", "16/0", "a/b", "wide"} {
		_, ok := ParseAspect(bad)
		assert.False(t, ok, bad)
	}
}

func TestParseDimension(t *testing.T) {
	v, ok := ParseDimension("640px")
	assert.True(t, ok)
	assert.Equal(t, 640.0, v)
	_, ok = ParseDimension("auto")
	assert.False(t, ok)
}
