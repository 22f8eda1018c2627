// Package source reads routes, locations and heatmap points from files,
// stdin or HTTP in JSON, YAML or GeoJSON.
package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// Stdin is the source name that reads standard input.
const Stdin = "-"

// Format is an input encoding.
type Format string

// Supported formats.
const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatGeoJSON Format = "geojson"
)

// ParseFormat accepts json, yaml, yml and geojson; an empty name yields "".
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "":
		return "", nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "geojson":
		return FormatGeoJSON, nil
	default:
		return "", fmt.Errorf("unknown format %q", name)
	}
}

// Reader fetches source documents.
type Reader struct {
	Client *http.Client
	Stdin  io.Reader
}

// NewReader returns a reader using client for http(s) sources.
func NewReader(client *http.Client) *Reader {
	return &Reader{Client: client, Stdin: os.Stdin}
}

// Read loads the document at src: "-" for stdin, an http(s) URL or a local
// path. The format is guessed from the extension, then from the content.
func (r *Reader) Read(ctx context.Context, src string) ([]byte, Format, error) {
	var (
		data []byte
		err  error
	)

	switch {
	case src == Stdin:
		data, err = io.ReadAll(r.Stdin)
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		data, err = r.download(ctx, src)
	default:
		data, err = os.ReadFile(src)
	}
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", src, err)
	}

	return data, DetectFormat(src, data), nil
}

func (r *Reader) download(ctx context.Context, url string) ([]byte, error) {
	log.Debug().Str("url", url).Msg("Downloading source")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed: %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// DetectFormat picks the format from the file extension of name, falling
// back to sniffing data. JSON documents of type FeatureCollection, Feature or
// a bare geometry are GeoJSON.
func DetectFormat(name string, data []byte) Format {
	if i := strings.IndexAny(name, "?#"); i >= 0 && strings.HasPrefix(name, "http") {
		name = name[:i]
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".geojson":
		return FormatGeoJSON
	case ".yaml", ".yml":
		return FormatYAML
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || (trimmed[0] != '{' && trimmed[0] != '[') {
		return FormatYAML
	}
	if isGeoJSON(trimmed) {
		return FormatGeoJSON
	}
	return FormatJSON
}
