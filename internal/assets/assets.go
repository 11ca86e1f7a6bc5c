// Package assets embeds the HTML templates and static files of the market site.
package assets

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
)

//go:embed templates
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

// Pages lists every page template. Each one is parsed on top of the layout.
var Pages = []string{
	"index.html",
	"error.html",
	"market/index.html",
	"market/create.html",
	"market/status.html",
}

// Static returns the files served under the assets base URL.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Templates parses the layout once and clones it for every page so each
// page can define its own "header" and "content" blocks.
func Templates(funcs template.FuncMap) (map[string]*template.Template, error) {
	base, err := template.New("layout.html").Funcs(funcs).ParseFS(templatesFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	out := make(map[string]*template.Template, len(Pages))
	for _, page := range Pages {
		t, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(templatesFS, "templates/"+page); err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		out[page] = t
	}
	return out, nil
}
