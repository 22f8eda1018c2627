package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"regexp"

	"github.com/woozymasta/safezone/internal/config"
	"github.com/woozymasta/safezone/internal/heatmap"
	"github.com/woozymasta/safezone/internal/render"
	"github.com/woozymasta/safezone/internal/source"

	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"
	"github.com/tdewolff/minify/v2"
	jsonmin "github.com/tdewolff/minify/v2/json"
	"gopkg.in/yaml.v3"
)

type inputOptions struct {
	Input    string `short:"i" long:"in"        description:"Input file path, http(s) URL or - for stdin" default:"-"`
	InFormat string `long:"in-format"           description:"Input format, guessed from the name and content if empty" choice:"json" choice:"yaml" choice:"geojson"`
}

type outputOptions struct {
	Output string `short:"o" long:"out"    description:"Output file path. Writes to stdout if empty"`
	Format string `short:"f" long:"format" description:"Output format" choice:"json" choice:"yaml" choice:"geojson" default:"json"`
	Minify bool   `short:"m" long:"minify" description:"Minify JSON and GeoJSON output"`
}

type renderOptions struct {
	Image       string `long:"image"                   description:"Write the heatmap as a WebP image to this path"`
	ImageSize   int    `long:"image-size"              description:"Heatmap image edge length in pixels" default:"512"`
	Tiles       string `long:"tiles"                   description:"Write a WebP tile pyramid of the heatmap below this directory"`
	ZoomLimit   int    `short:"z" long:"zoom-limit"    description:"Tiles zoom limit" default:"4"`
	TileSize    int    `long:"tile-size"               description:"Tile edge length in pixels" default:"256"`
	Concurrency int    `short:"p" long:"concurrency"   description:"Concurrent tile writers" default:"8"`
	Force       bool   `long:"force"                   description:"Force overwrite of existing tiles"`
}

var jsonMediaType = regexp.MustCompile(`[/+]json$`)

func loadConfig() (*config.Config, error) {
	if opts.ConfigFile == "" {
		return config.Default(), nil
	}
	return config.Load(opts.ConfigFile)
}

func readInput(in inputOptions) ([]byte, source.Format, error) {
	reader := source.NewReader(&http.Client{Timeout: opts.Timeout})

	data, format, err := reader.Read(appCtx, in.Input)
	if err != nil {
		return nil, "", err
	}

	if in.InFormat != "" {
		if format, err = source.ParseFormat(in.InFormat); err != nil {
			return nil, "", err
		}
	}

	log.Debug().
		Str("input", in.Input).
		Str("format", string(format)).
		Int("bytes", len(data)).
		Msg("Input loaded")

	return data, format, nil
}

// write encodes v (or fc for GeoJSON) to the output file or stdout.
func (out outputOptions) write(v any, fc *geojson.FeatureCollection) error {
	data, err := encode(out.Format, out.Minify, v, fc)
	if err != nil {
		return err
	}

	if out.Output == "" {
		_, err = os.Stdout.Write(data)
		return err
	}

	if err := os.WriteFile(out.Output, data, 0644); err != nil {
		return err
	}

	log.Info().Str("path", out.Output).Str("format", out.Format).Msg("Output written")
	return nil
}

// encode renders v as JSON or YAML, or fc as GeoJSON. YAML keys follow the
// JSON field names.
func encode(format string, minified bool, v any, fc *geojson.FeatureCollection) ([]byte, error) {
	switch format {
	case "yaml":
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return nil, err
		}
		return yaml.Marshal(generic)

	case "geojson":
		if fc == nil {
			return nil, fmt.Errorf("geojson output is not available")
		}
		v = fc
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}

	if minified {
		m := minify.New()
		m.AddFuncRegexp(jsonMediaType, jsonmin.Minify)

		if data, err = m.Bytes("application/json", data); err != nil {
			return nil, fmt.Errorf("minify: %w", err)
		}
	}

	return append(data, '\n'), nil
}

// renderHeatmap writes the optional image and tile outputs of h.
func renderHeatmap(h *heatmap.Heatmap, r renderOptions) error {
	if r.Image == "" && r.Tiles == "" {
		return nil
	}

	img, err := render.Image(h, r.ImageSize)
	if err != nil {
		return err
	}

	if r.Image != "" {
		var buf bytes.Buffer
		if err := render.EncodeWebP(&buf, img, render.DefaultQuality); err != nil {
			return err
		}
		if err := os.WriteFile(r.Image, buf.Bytes(), 0644); err != nil {
			return err
		}
		log.Info().Str("path", r.Image).Int("size", img.Bounds().Dx()).Msg("Heatmap image written")
	}

	if r.Tiles != "" {
		_, err := render.WriteTiles(appCtx, img, render.TileOptions{
			Dir:         r.Tiles,
			ZoomLimit:   r.ZoomLimit,
			TileSize:    r.TileSize,
			Concurrency: r.Concurrency,
			Force:       r.Force,
		})
		if err != nil {
			return err
		}
	}

	return nil
}
