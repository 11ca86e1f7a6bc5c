package assets

import (
	"html/template"
	"io/fs"
	"testing"
)

func TestTemplates(t *testing.T) {
	pages, err := Templates(template.FuncMap{
		"asset": func(name string) string { return "/assets/" + name },
	})
	if err != nil {
		t.Fatalf("Templates: %v", err)
	}
	if len(pages) != len(Pages) {
		t.Fatalf("got %d pages, want %d", len(pages), len(Pages))
	}
	for _, name := range Pages {
		tmpl, ok := pages[name]
		if !ok {
			t.Errorf("page %s missing", name)
			continue
		}
		for _, block := range []string{"layout", "header", "content"} {
			if tmpl.Lookup(block) == nil {
				t.Errorf("%s: block %q not defined", name, block)
			}
		}
	}
}

func TestTemplatesNeedAssetFunc(t *testing.T) {
	if _, err := Templates(nil); err == nil {
		t.Error("expected parse error without the asset func")
	}
}

func TestStatic(t *testing.T) {
	for _, name := range []string{"market.css", "market.js", "livereload.js"} {
		b, err := fs.ReadFile(Static(), name)
		if err != nil {
			t.Errorf("read %s: %v", name, err)
			continue
		}
		if len(b) == 0 {
			t.Errorf("%s is empty", name)
		}
	}
	if _, err := fs.Stat(Static(), "layout.html"); err == nil {
		t.Error("templates must not be served as static files")
	}
}
