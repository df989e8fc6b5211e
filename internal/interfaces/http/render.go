package http

import (
	"embed"
	"fmt"
	"html/template"

	"github.com/gin-gonic/gin/render"

	"github.com/garyjia/possession-response/internal/application/service"
	"github.com/garyjia/possession-response/internal/domain/journey"
	"github.com/garyjia/possession-response/internal/forms"
)

//go:embed templates/*.html
var templateFS embed.FS

// Pages rendered outside of any journey step
const (
	viewNotFound = "not-found"
	viewError    = "error"
)

// pageData is passed to every template
type pageData struct {
	Title         string
	CaseReference string
	Case          journey.CaseSnapshot
	Action        string
	BackURL       string
	Fields        []forms.Field
	Values        map[string]string
	Errors        forms.FieldErrors
	ErrorFields   []string
	Answers       []service.Answer
	Submit        bool
	StartAgainURL string
	Message       string
}

// htmlRenderer keeps one template set per view, each sharing the layout.
// It implements gin's render.HTMLRender.
type htmlRenderer struct {
	templates map[string]*template.Template
}

func newHTMLRenderer(views ...string) (*htmlRenderer, error) {
	r := &htmlRenderer{templates: make(map[string]*template.Template, len(views))}
	for _, view := range views {
		tmpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+view+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", view, err)
		}
		r.templates[view] = tmpl
	}
	return r, nil
}

// Instance implements render.HTMLRender
func (r *htmlRenderer) Instance(name string, data any) render.Render {
	tmpl, ok := r.templates[name]
	if !ok {
		tmpl = r.templates[viewError]
		data = pageData{Title: "Sorry, there is a problem with the service", Message: "Unknown view " + name}
	}
	return render.HTML{Template: tmpl, Name: "layout", Data: data}
}
