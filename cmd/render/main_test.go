package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixturePath = "../../testdata/significant_month.geojson"

func TestRun_StampsPageWithClock(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, time.October, 14, 9, 30, 0, 0, time.UTC))
	out := filepath.Join(t.TempDir(), "map.html")
	var stdout, stderr bytes.Buffer

	err := run([]string{"-feed", fixturePath, "-out", out}, clock, &stdout, &stderr)
	require.NoError(t, err)

	page, err := os.ReadFile(out)
	require.NoError(t, err)
	html := string(page)
	assert.Contains(t, html, "Updated 2026-10-14T09:30:00Z")
	assert.Contains(t, html, `"center":{"lat":37.09,"lon":-95.71},"zoom":5`)
	assert.Contains(t, html, "map.fitBounds(dataBounds")

	assert.Contains(t, stdout.String(), "Wrote 3 earthquakes (2 skipped) to "+out)
	assert.Contains(t, stderr.String(), "skipped feature")
}

func TestRun_ZoomFlag(t *testing.T) {
	out := filepath.Join(t.TempDir(), "map.html")
	var stdout, stderr bytes.Buffer

	err := run([]string{"-feed", fixturePath, "-out", out, "-zoom", "3"}, clockwork.NewFakeClock(), &stdout, &stderr)
	require.NoError(t, err)

	page, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(page), `"center":{"lat":37.09,"lon":-95.71},"zoom":3`)
}

func TestRun_MissingOut(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run([]string{"-feed", fixturePath}, clockwork.NewFakeClock(), &stdout, &stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "-out")
	assert.Empty(t, stdout.String())
}

func TestRun_BadDepthBuckets(t *testing.T) {
	out := filepath.Join(t.TempDir(), "map.html")
	var stdout, stderr bytes.Buffer
	err := run([]string{"-feed", fixturePath, "-out", out, "-depth-buckets", "nope"}, clockwork.NewFakeClock(), &stdout, &stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse -depth-buckets")
	assert.NoFileExists(t, out)
}
