package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// pages are rendered inside templates/layout.html.
var pages = []string{
	"login", "dashboard", "cpu", "memory", "disk", "network", "processes",
	"system_logs", "console", "server_actions", "password", "404",
}

type navItem struct {
	Path  string
	Label string
}

var navItems = []navItem{
	{"/dashboard", "Dashboard"},
	{"/cpu", "CPU"},
	{"/memory", "Memory"},
	{"/disk", "Disk"},
	{"/network", "Network"},
	{"/processes", "Processes"},
	{"/system_logs", "System logs"},
	{"/console", "Console"},
	{"/server_actions", "Server actions"},
	{"/password", "Password"},
}

type pageData struct {
	Title         string
	Active        string
	Authenticated bool
	CSRF          string
	Flashes       []Flash
	Nav           []navItem
	CurrentYear   int
	Data          any
}

var funcs = template.FuncMap{
	"pct": func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
	"gib": func(v float64) string { return fmt.Sprintf("%.2f GB", v) },
	// level buckets a percentage for colouring.
	"level": func(v float64) string {
		switch {
		case v >= 90:
			return "crit"
		case v >= 75:
			return "warn"
		}
		return "ok"
	},
}

type views struct {
	pages map[string]*template.Template
}

func loadViews() (*views, error) {
	v := &views{pages: make(map[string]*template.Template, len(pages))}
	for _, p := range pages {
		t, err := template.New(p).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+p+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", p, err)
		}
		v.pages[p] = t
	}
	return v, nil
}

// render executes page into a buffer first so a template error never
// produces a half-written response.
func (v *views) render(w http.ResponseWriter, status int, page string, data pageData) error {
	t, ok := v.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	if data.CurrentYear == 0 {
		data.CurrentYear = time.Now().Year()
	}
	if data.Authenticated {
		data.Nav = navItems
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

func staticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
