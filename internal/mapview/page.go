package mapview

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"
)

//go:embed templates/page.html.tmpl
var templateFS embed.FS

var pageTemplate = template.Must(template.New("page.html.tmpl").Funcs(template.FuncMap{
	"rfc3339": func(t time.Time) string { return t.UTC().Format(time.RFC3339) },
}).ParseFS(templateFS, "templates/page.html.tmpl"))

// PageData is the input to the map page template. Map always carries the
// configured view and layers; it has no markers until Loaded. Error carries
// the last fetch failure, if any.
type PageData struct {
	Title     string
	Map       *MapView
	Loaded    bool
	FetchedAt time.Time
	Skipped   int
	Error     string
}

// PageData builds page data from the current snapshot and last error. snap
// may be nil, in which case the page shows the configured view with no data.
func (c *Composer) PageData(snap *Snapshot, lastErr error) PageData {
	data := PageData{Title: "Significant Earthquakes"}
	if snap != nil {
		if snap.Title != "" {
			data.Title = snap.Title
		}
		data.Map = &snap.View
		data.Loaded = true
		data.FetchedAt = snap.FetchedAt
		data.Skipped = snap.Skipped
	} else {
		empty := c.Compose(nil)
		data.Map = &empty
	}
	if lastErr != nil {
		data.Error = lastErr.Error()
	}
	return data
}

// RenderPage writes the HTML map page.
func RenderPage(w io.Writer, data PageData) error {
	if err := pageTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("render map page: %w", err)
	}
	return nil
}
