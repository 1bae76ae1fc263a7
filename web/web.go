package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
)

//go:embed templates static
var assets embed.FS

// Static returns the embedded static asset tree rooted at static/.
func Static() fs.FS {
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// TemplateRegistry holds separate template instances for each page, since
// every page defines its own "content" block.
type TemplateRegistry struct {
	templates map[string]*template.Template
}

func (tr *TemplateRegistry) ExecuteTemplate(w io.Writer, name string, data interface{}) error {
	tmpl, ok := tr.templates[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}
	return tmpl.ExecuteTemplate(w, name, data)
}

// LoadTemplates parses every page together with the shared layouts.
func LoadTemplates() (*TemplateRegistry, error) {
	return loadTemplates(assets)
}

func loadTemplates(fsys fs.FS) (*TemplateRegistry, error) {
	registry := &TemplateRegistry{templates: make(map[string]*template.Template)}

	layoutFiles, err := fs.Glob(fsys, "templates/layouts/*.html")
	if err != nil {
		return nil, err
	}

	pageFiles, err := fs.Glob(fsys, "templates/pages/*.html")
	if err != nil {
		return nil, err
	}

	for _, pageFile := range pageFiles {
		pageName := path.Base(pageFile)

		files := append(append([]string{}, layoutFiles...), pageFile)
		tmpl, err := template.New(pageName).ParseFS(fsys, files...)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", pageFile, err)
		}

		registry.templates[pageName] = tmpl
	}

	return registry, nil
}
