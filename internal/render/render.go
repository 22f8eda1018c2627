// Package render draws heatmaps as images and slices them into map tiles.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"math"

	"github.com/woozymasta/safezone/internal/heatmap"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
)

// DefaultSize is the edge length in pixels of a rendered heatmap.
const DefaultSize = 512

// DefaultQuality is the lossy WebP quality used for images and tiles.
const DefaultQuality = 85

// Color maps a [0,1] score onto a green to red ramp. Zero is fully
// transparent, opacity grows with the score.
func Color(v float64) color.NRGBA {
	switch {
	case v <= 0 || math.IsNaN(v):
		return color.NRGBA{}
	case v > 1:
		v = 1
	}

	var r, g uint8
	if v < 0.5 {
		r, g = uint8(510*v), 255
	} else {
		r, g = 255, uint8(510*(1-v))
	}

	return color.NRGBA{R: r, G: g, A: uint8(64 + 191*v)}
}

// Grid renders one pixel per heatmap cell. North is up: the last grid row
// becomes the first image row.
func Grid(h *heatmap.Heatmap) *image.NRGBA {
	n := h.GridSize
	img := image.NewNRGBA(image.Rect(0, 0, n, n))

	for row := 0; row < n && row < len(h.Grid); row++ {
		for col := 0; col < n && col < len(h.Grid[row]); col++ {
			img.SetNRGBA(col, n-1-row, Color(h.Grid[row][col]))
		}
	}

	return img
}

// Image renders h as a size x size image, upscaling the cell grid with
// Catmull-Rom interpolation.
func Image(h *heatmap.Heatmap, size int) (*image.RGBA, error) {
	if h == nil || h.GridSize < 1 {
		return nil, fmt.Errorf("heatmap has no cells")
	}
	if size < h.GridSize {
		size = h.GridSize
	}

	src := Grid(h)
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	return dst, nil
}

// EncodeWebP writes img as a lossy WebP.
func EncodeWebP(w io.Writer, img image.Image, quality float32) error {
	if quality <= 0 {
		quality = DefaultQuality
	}
	return webp.Encode(w, img, &webp.Options{Lossless: false, Quality: quality})
}
