package httpserver

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/helixir/openalex-explorer/internal/format"
	"github.com/helixir/openalex-explorer/internal/observability"
	"github.com/helixir/openalex-explorer/internal/openalex"
)

//go:embed templates/*.html
var templateFS embed.FS

// pageTemplates are rendered inside layout.html.
var pageTemplates = []string{
	"overview.html",
	"works.html",
	"work.html",
	"entities.html",
	"entity.html",
	"geo.html",
	"country.html",
	"error.html",
}

type views struct {
	pages map[string]*template.Template
}

var templateFuncs = template.FuncMap{
	"compact":    func(n int) string { return format.Compact(int64(n)) },
	"thousands":  func(n int) string { return format.Thousands(int64(n)) },
	"percent":    format.Percent,
	"capitalize": format.Capitalize,
	"label":      format.Label,
	"date":       format.Date,
	"oaColour":   format.OAStatusColour,
	"oaTooltip":  format.OAStatusTooltip,
	"shortID":    openalex.ShortID,
}

// mustParseViews parses the embedded templates. Every page gets its own
// clone of the layout so block definitions do not collide.
func mustParseViews() *views {
	base := template.Must(template.New("layout.html").
		Funcs(templateFuncs).
		ParseFS(templateFS, "templates/layout.html", "templates/partials.html"))

	v := &views{pages: make(map[string]*template.Template, len(pageTemplates))}
	for _, name := range pageTemplates {
		t := template.Must(base.Clone())
		v.pages[name] = template.Must(t.ParseFS(templateFS, "templates/"+name))
	}
	return v
}

// pageData is the root value of every template.
type pageData struct {
	Title         string
	Section       string
	Nav           []navItem
	CorrelationID string
	Body          interface{}
}

type navItem struct {
	Label string
	Href  string
	Key   string
}

var navigation = func() []navItem {
	items := []navItem{{Label: "Overview", Href: "/", Key: "overview"}}
	for _, k := range openalex.Kinds {
		items = append(items, navItem{Label: format.Capitalize(k.String()), Href: "/" + k.String(), Key: k.String()})
	}
	return append(items, navItem{Label: "Geo", Href: "/geo", Key: "geo"})
}()

// render executes a page into a buffer first so a template failure can still
// produce a clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page, title, section string, body interface{}) {
	t, ok := s.views.pages[page]
	if !ok {
		s.logger.Error().Str("template", page).Msg("unknown template")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	data := pageData{
		Title:         title,
		Section:       section,
		Nav:           navigation,
		CorrelationID: observability.CorrelationIDFromContext(r.Context()),
		Body:          body,
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		s.logger.Error().Err(err).Str("template", page).Msg("template execution failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

type errorView struct {
	Status  int
	Heading string
	Message string
}

// renderError renders the HTML error page with the status the error maps to.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	s.logFailure(r, err)
	status, msg := classify(err)
	setRetryAfter(w, err)
	s.renderStatus(w, r, status, msg)
}

func (s *Server) renderStatus(w http.ResponseWriter, r *http.Request, status int, msg string) {
	heading := http.StatusText(status)
	s.render(w, r, status, "error.html", heading, "", errorView{
		Status:  status,
		Heading: heading,
		Message: msg,
	})
}

// notFoundHandler answers unknown routes with JSON under /api and an HTML
// page elsewhere.
func (s *Server) notFoundHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	s.renderStatus(w, r, http.StatusNotFound, fmt.Sprintf("No page at %s", r.URL.Path))
}
