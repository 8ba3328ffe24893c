package render

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/starford/casefolio/internal/assets"
	"github.com/starford/casefolio/internal/carousel"
)

// FallbackAspect is used when neither the markup nor the manifest gives
// an image's proportions.
const FallbackAspect = 16.0 / 9.0

// fallbackWidth is the nominal width assumed for images with no size.
const fallbackWidth = 1600

// Media is one image found in a rendered body.
type Media struct {
	Src      string  `json:"src"`
	Alt      string  `json:"alt"`
	Title    string  `json:"title,omitempty"`
	Caption  string  `json:"caption,omitempty"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Aspect   float64 `json:"aspect"`
	Fit      string  `json:"fit"` // "cover" or "contain"
	Unframed bool    `json:"unframed,omitempty"`
}

// SizeLookup resolves the recorded size of a site path.
type SizeLookup interface {
	Lookup(src string) (assets.Size, bool)
}

// ExtractMedia walks rendered HTML for img elements. Sizes come from the
// width/height attributes, then the manifest, then data-aspect, then the
// fallback aspect. sizes may be nil.
func ExtractMedia(htmlBody string, sizes SizeLookup) ([]Media, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlBody))
	if err != nil {
		return nil, fmt.Errorf("render: parse html: %w", err)
	}

	var out []Media
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src := strings.TrimSpace(s.AttrOr("src", ""))
		if src == "" {
			return
		}
		m := Media{
			Src:   src,
			Alt:   s.AttrOr("alt", ""),
			Title: s.AttrOr("title", ""),
			Fit:   "contain",
		}
		if s.AttrOr("data-fit", "") == "cover" {
			m.Fit = "cover"
		}
		if v, ok := s.Attr("data-unframed"); ok && (v == "" || v == "true") {
			m.Unframed = true
		}
		if fig := s.Closest("figure"); fig.Length() > 0 {
			m.Caption = strings.TrimSpace(fig.Find("figcaption").First().Text())
		}
		if m.Caption == "" {
			m.Caption = m.Title
		}

		w, wok := ParseDimension(s.AttrOr("width", ""))
		h, hok := ParseDimension(s.AttrOr("height", ""))
		if sizes != nil {
			if size, ok := sizes.Lookup(src); ok {
				if !wok {
					w, wok = float64(size.Width), size.Width > 0
				}
				if !hok {
					h, hok = float64(size.Height), size.Height > 0
				}
			}
		}

		switch {
		case wok && hok && h > 0:
			m.Aspect = w / h
		default:
			if a, ok := ParseAspect(s.AttrOr("data-aspect", "")); ok {
				m.Aspect = a
			} else {
				m.Aspect = FallbackAspect
			}
		}
		if !wok {
			w = fallbackWidth
		}
		if !hok {
			h = math.Round(w / m.Aspect)
		}
		m.Width, m.Height = int(w), int(h)
		out = append(out, m)
	})
	return out, nil
}

// Slides converts media to carousel images.
func Slides(media []Media) []carousel.Image {
	out := make([]carousel.Image, 0, len(media))
	for _, m := range media {
		out = append(out, carousel.Image{Src: m.Src, Alt: m.Alt, Caption: m.Caption})
	}
	return out
}

// ParseDimension reads a positive pixel size such as "640" or "640px".
func ParseDimension(v string) (float64, bool) {
	v = strings.TrimSuffix(strings.TrimSpace(v), "px")
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// ParseAspect reads "16/9", "16 / 9" or a bare ratio like "1.5".
func ParseAspect(v string) (float64, bool) {
	v = strings.ReplaceAll(strings.TrimSpace(v), " ", "")
	if v == "" {
		return 0, false
	}
	if w, h, found := strings.Cut(v, "/"); found {
		fw, err1 := strconv.ParseFloat(w, 64)
		fh, err2 := strconv.ParseFloat(h, 64)
		if err1 != nil || err2 != nil || fh == 0 || fw <= 0 || fh < 0 {
			return 0, false
		}
		return fw / fh, true
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
