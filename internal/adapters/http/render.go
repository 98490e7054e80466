package web

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"exhibition/internal/adapters/http/middleware"
	"exhibition/internal/domain/failure"
)

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set).
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// pageFiles lists, per page, the templates parsed alongside layout.html.
var pageFiles = map[string][]string{
	"login":   {"login.html"},
	"student": {"student.html", "catalog.html"},
	"faculty": {"faculty.html"},
	"review":  {"review.html"},
	"signup":  {"signup.html"},
}

// pageSet holds one parsed template tree per page.
type pageSet struct {
	pages map[string]*template.Template
}

// baseFuncs are replaced per request by requestFuncs; they exist so parsing succeeds.
var baseFuncs = template.FuncMap{
	"csrfToken":      func() string { return "" },
	"csrfField":      func() template.HTML { return "" },
	"renderMarkdown": renderMarkdown,
	"date":           func(t time.Time) string { return "" },
}

func parsePages(fsys fs.FS) (*pageSet, error) {
	set := &pageSet{pages: make(map[string]*template.Template, len(pageFiles))}
	for name, files := range pageFiles {
		patterns := append([]string{"templates/layout.html"}, prefixed("templates/", files)...)
		tpl, err := template.New("layout.html").Funcs(baseFuncs).ParseFS(fsys, patterns...)
		if err != nil {
			return nil, fmt.Errorf("parse %s templates: %w", name, err)
		}
		set.pages[name] = tpl
	}
	return set, nil
}

func prefixed(prefix string, names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = prefix + n
	}
	return out
}

func requestFuncs(r *http.Request) template.FuncMap {
	return template.FuncMap{
		"csrfToken": func() string { return csrf.Token(r) },
		"csrfField": func() template.HTML { return csrf.TemplateField(r) },
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Local().Format("2 Jan 2006")
		},
	}
}

// view is the data every full page receives.
type view struct {
	Title    string
	Identity string
	Role     string
	Error    string
	Notice   string
	Data     any
}

func withUser(r *http.Request, v view) view {
	if s, ok := middleware.CurrentSession(r.Context()); ok {
		v.Identity = s.Identity
		v.Role = s.ResolvedRole.String()
	}
	return v
}

// render executes the named template of page into a buffer so a failed
// render never leaves a half-written response.
func (p *pageSet) render(w http.ResponseWriter, r *http.Request, status int, page, name string, data any) {
	base, ok := p.pages[page]
	if !ok {
		internalError(w, r, fmt.Errorf("unknown page %q", page))
		return
	}
	tpl, err := base.Clone()
	if err != nil {
		internalError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := tpl.Funcs(requestFuncs(r)).ExecuteTemplate(&buf, name, data); err != nil {
		internalError(w, r, fmt.Errorf("render %s/%s: %w", page, name, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Debug("write_aborted", "path", r.URL.Path, "error", err)
	}
}

// page renders a full layout page.
func (s *Server) page(w http.ResponseWriter, r *http.Request, status int, page string, v view) {
	s.pages.render(w, r, status, page, "layout.html", withUser(r, v))
}

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("internal_error", "error", err.Error(), "path", r.URL.Path)
	if middleware.WantsJSON(r) {
		middleware.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": failure.GenericMessage})
		return
	}
	http.Error(w, failure.GenericMessage, http.StatusInternalServerError)
}
