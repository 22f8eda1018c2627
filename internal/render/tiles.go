package render

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"
)

// encodeTile is swapped in tests.
var encodeTile = EncodeWebP

// TileOptions control WriteTiles.
type TileOptions struct {
	Dir         string
	ZoomLimit   int
	TileSize    int
	Concurrency int
	Quality     float32
	Force       bool
}

// TileCoordinate represents a specific tile.
type TileCoordinate struct {
	Z, X, Y int
}

// Path returns the tile location below dir as <z>/<x>/<y>.webp.
func (c TileCoordinate) Path(dir string) string {
	return filepath.Join(dir, fmt.Sprint(c.Z), fmt.Sprint(c.X), fmt.Sprint(c.Y)+".webp")
}

// WriteTiles slices img into a square tile pyramid from zoom 0 to
// opts.ZoomLimit. Each level is rescaled from the source image. Existing
// non-empty tiles are kept unless opts.Force is set.
func WriteTiles(ctx context.Context, img image.Image, opts TileOptions) (int, error) {
	if opts.TileSize <= 0 {
		opts.TileSize = 256
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}
	if opts.ZoomLimit < 0 {
		return 0, fmt.Errorf("zoom limit must be >= 0, got %d", opts.ZoomLimit)
	}

	var written int
	for z := 0; z <= opts.ZoomLimit; z++ {
		n, err := writeLevel(ctx, img, z, opts)
		written += n
		if err != nil {
			return written, fmt.Errorf("zoom %d: %w", z, err)
		}
	}

	log.Info().
		Str("dir", opts.Dir).
		Int("zoom_limit", opts.ZoomLimit).
		Int("tiles", written).
		Msg("Heatmap tiles written")

	return written, nil
}

func writeLevel(ctx context.Context, img image.Image, z int, opts TileOptions) (int, error) {
	gridSize := 1 << z
	totalPixels := gridSize * opts.TileSize

	log.Debug().
		Int("zoom", z).
		Int("grid", gridSize).
		Int("px", totalPixels).
		Msg("Processing zoom level")

	level := image.NewRGBA(image.Rect(0, 0, totalPixels, totalPixels))
	xdraw.CatmullRom.Scale(level, level.Bounds(), img, img.Bounds(), draw.Over, nil)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	written := make([]bool, gridSize*gridSize)
	for x := 0; x < gridSize; x++ {
		for y := 0; y < gridSize; y++ {
			x, y := x, y
			idx := x*gridSize + y
			coord := TileCoordinate{Z: z, X: x, Y: y}

			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}

				rect := image.Rect(x*opts.TileSize, y*opts.TileSize, (x+1)*opts.TileSize, (y+1)*opts.TileSize)
				ok, err := writeTile(level.SubImage(rect), coord.Path(opts.Dir), opts)
				written[idx] = ok
				return err
			})
		}
	}

	err := g.Wait()

	var n int
	for _, ok := range written {
		if ok {
			n++
		}
	}

	return n, err
}

func writeTile(tile image.Image, outPath string, opts TileOptions) (bool, error) {
	if !opts.Force {
		if info, err := os.Stat(outPath); err == nil && info.Size() > 0 {
			return false, nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return false, err
	}

	tmpPath := outPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return false, err
	}

	if err := encodeTile(f, tile, opts.Quality); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return false, fmt.Errorf("encode %s: %w", outPath, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return false, fmt.Errorf("close %s: %w", outPath, err)
	}

	// a failed tile never replaces or leaves behind a truncated file
	if err := os.Rename(tmpPath, outPath); err != nil {
		_ = os.Remove(tmpPath)
		return false, err
	}

	return true, nil
}
