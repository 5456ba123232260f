// Command render builds a standalone HTML earthquake map from a USGS GeoJSON
// feed document, using the same encoder and composer as the service.
//
// Usage:
//
//	go run ./cmd/render \
//	  -feed testdata/significant_month.geojson \
//	  -out map.html
//
// -feed also accepts an http(s) URL, which is fetched once.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/couchcryptid/quake-map-service/internal/adapter/usgs"
	"github.com/couchcryptid/quake-map-service/internal/domain"
	"github.com/couchcryptid/quake-map-service/internal/mapview"
	"github.com/jonboulle/clockwork"
)

func main() {
	if err := run(os.Args[1:], clockwork.NewRealClock(), os.Stdout, os.Stderr); err != nil {
		log.Fatal(err)
	}
}

// run renders the map; clock stamps the page's fetch time.
func run(args []string, clock clockwork.Clock, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.SetOutput(stderr)
	feed := fs.String("feed", usgs.DefaultFeedURL, "feed file path or http(s) URL")
	out := fs.String("out", "", "output path for the HTML map")
	buckets := fs.String("depth-buckets", "", "depth color buckets as min:color,... (default: built-in scale)")
	zoom := fs.Int("zoom", mapview.DefaultZoom, "initial zoom level")
	timeout := fs.Duration("timeout", 30*time.Second, "fetch timeout for URL feeds")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *out == "" {
		fs.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	var scale domain.DepthScale
	if *buckets != "" {
		var err error
		if scale, err = domain.ParseDepthScale(*buckets); err != nil {
			return fmt.Errorf("parse -depth-buckets: %w", err)
		}
	}

	body, err := readFeed(*feed, *timeout, stderr)
	if err != nil {
		return err
	}

	parsed, err := domain.ParseFeed(body)
	if err != nil {
		return err
	}
	for _, s := range parsed.Skipped {
		fmt.Fprintf(stderr, "skipped feature %d (%s): %s\n", s.Index, s.ID, s.Reason)
	}

	opts := mapview.DefaultOptions()
	opts.Zoom = *zoom
	opts.Scale = scale
	composer := mapview.NewComposer(opts)
	snap := &mapview.Snapshot{
		Title:       parsed.Title,
		FetchedAt:   clock.Now().UTC(),
		GeneratedAt: parsed.GeneratedAt,
		Earthquakes: parsed.Earthquakes,
		Skipped:     len(parsed.Skipped),
		View:        composer.Compose(parsed.Earthquakes),
	}

	var buf bytes.Buffer
	if err := mapview.RenderPage(&buf, composer.PageData(snap, nil)); err != nil {
		return err
	}
	if err := os.WriteFile(*out, buf.Bytes(), 0o644); err != nil { //nolint:gosec // generated page is public
		return fmt.Errorf("write %s: %w", *out, err)
	}

	fmt.Fprintf(stdout, "Wrote %d earthquakes (%d skipped) to %s\n", len(parsed.Earthquakes), len(parsed.Skipped), *out)
	return nil
}

func readFeed(src string, timeout time.Duration, stderr io.Writer) ([]byte, error) {
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		data, err := os.ReadFile(src)
		if err != nil {
			return nil, fmt.Errorf("read feed: %w", err)
		}
		return data, nil
	}

	logger := slog.New(slog.NewTextHandler(stderr, nil))
	client := usgs.NewClient(src, timeout, logger)
	return client.Fetch(context.Background())
}
