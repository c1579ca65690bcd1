// Package site renders the static HTML pages served next to the installer.
package site

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed static
var static embed.FS

const (
	IndexPage    = "index.html"
	NotFoundPage = "404.html"
)

var pageSources = map[string]string{
	IndexPage:    "static/index.md",
	NotFoundPage: "static/404.md",
}

var layout = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{ .Title }}</title>
<style>{{ .Style }}</style>
</head>
<body>
{{ .Body }}
</body>
</html>
`))

// Pages holds the rendered pages. It is built once and read-only after.
type Pages struct {
	pages map[string][]byte
}

// New renders every embedded page.
func New() (*Pages, error) {
	css, err := static.ReadFile("static/style.css")
	if err != nil {
		return nil, fmt.Errorf("failed to read stylesheet: %w", err)
	}

	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	p := &Pages{pages: make(map[string][]byte, len(pageSources))}
	for name, src := range pageSources {
		data, err := static.ReadFile(src)
		if err != nil {
			return nil, fmt.Errorf("failed to read page %s: %w", name, err)
		}
		var body bytes.Buffer
		if err := md.Convert(data, &body); err != nil {
			return nil, fmt.Errorf("failed to render page %s: %w", name, err)
		}
		var out bytes.Buffer
		err = layout.Execute(&out, struct {
			Title string
			Style template.CSS
			Body  template.HTML
		}{
			Title: title(data),
			Style: template.CSS(css),
			Body:  template.HTML(body.String()),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to render page %s: %w", name, err)
		}
		p.pages[name] = out.Bytes()
	}
	return p, nil
}

// Page returns the rendered HTML of a page.
func (p *Pages) Page(name string) ([]byte, bool) {
	b, ok := p.pages[name]
	return b, ok
}

// title is the first level one heading, or "termlibs".
func title(markdown []byte) string {
	for _, line := range strings.Split(string(markdown), "\n") {
		if h, ok := strings.CutPrefix(line, "# "); ok {
			if h = strings.TrimSpace(h); h != "" {
				if h == "termlibs" {
					return h
				}
				return h + " - termlibs"
			}
		}
	}
	return "termlibs"
}
