// Package render parses the embedded page templates once and renders them
// inside the common layout.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"fewr/model"
)

//go:embed templates
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Page is the data every layout execution receives. Data carries the
// page-specific values.
type Page struct {
	Title   string
	User    *model.User
	Shift   *model.ShiftState
	Path    string
	Domains []Domain
	Active  string
	Subs    []Sub
	Error   string
	Flash   string
	Bare    bool
	Data    any
}

type Views struct {
	pages map[string]*template.Template
}

// New parses the layout and partials once, then clones them for every page
// under templates/pages. Pages are named by their path without extension,
// for example "logbook/form".
func New(loc *time.Location) (*Views, error) {
	base, err := template.New("layout").Funcs(Funcs(loc)).ParseFS(templateFS, "templates/layout.html", "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	v := &Views{pages: make(map[string]*template.Template)}
	err = fs.WalkDir(templateFS, "templates/pages", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}
		t, err := base.Clone()
		if err != nil {
			return err
		}
		if _, err := t.ParseFS(templateFS, path); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		name := strings.TrimSuffix(strings.TrimPrefix(path, "templates/pages/"), ".html")
		v.pages[name] = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Render executes the page into a buffer first so a template error never
// leaves a half-written response.
func (v *Views) Render(w http.ResponseWriter, status int, name string, p Page) error {
	t, ok := v.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	if p.Domains == nil {
		p.Domains = Domains
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", p); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// StaticHandler serves the embedded stylesheet and images under /static/.
func StaticHandler() http.Handler {
	return http.FileServer(http.FS(staticFS))
}
