package server

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hyperdocs/hyperdocs/internal/app"
	"github.com/hyperdocs/hyperdocs/internal/bundle"
	"github.com/hyperdocs/hyperdocs/internal/fetcher"
	"github.com/hyperdocs/hyperdocs/internal/logging"
	"github.com/hyperdocs/hyperdocs/internal/model"
)

// @Summary Site home page
// @Tags pages
// @Produce json
// @Param site path string true "Site slug"
// @Param format query string false "html renders a preview"
// @Success 200 {object} model.PagePayload
// @Failure 404 {object} ErrorResponse
// @Router /{site} [get]
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.servePage(w, r, fetcher.Page{Site: chi.URLParam(r, "site"), Kind: fetcher.PageHome})
}

// @Summary Docs index page
// @Tags pages
// @Produce json
// @Param site path string true "Site slug"
// @Success 200 {object} model.PagePayload
// @Failure 404 {object} ErrorResponse
// @Router /{site}/docs [get]
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.servePage(w, r, fetcher.Page{Site: chi.URLParam(r, "site"), Kind: fetcher.PageIndex})
}

// @Summary Docs page
// @Tags pages
// @Produce json
// @Param site path string true "Site slug"
// @Param file path string true "Page slug below docs/"
// @Success 200 {object} model.PagePayload
// @Failure 404 {object} ErrorResponse
// @Router /{site}/docs/{file} [get]
func (s *Server) handleDocsPage(w http.ResponseWriter, r *http.Request) {
	s.servePage(w, r, fetcher.Page{
		Site: chi.URLParam(r, "site"),
		Kind: fetcher.PageDocs,
		Slug: chi.URLParam(r, "file"),
	})
}

// @Summary Blog post
// @Tags pages
// @Produce json
// @Param site path string true "Site slug"
// @Param blog path string true "Blog slug"
// @Success 200 {object} model.BlogPayload
// @Failure 404 {object} ErrorResponse
// @Router /{site}/blog/{blog} [get]
func (s *Server) handleBlog(w http.ResponseWriter, r *http.Request) {
	s.servePage(w, r, fetcher.Page{
		Site: chi.URLParam(r, "site"),
		Kind: fetcher.PageBlog,
		Slug: chi.URLParam(r, "blog"),
	})
}

func (s *Server) servePage(w http.ResponseWriter, r *http.Request, page fetcher.Page) {
	res := s.app.Page(r.Context(), page)
	if !res.Assembled() {
		s.logger.Debug("page not served",
			logging.Field{Key: "page", Value: page.String()},
			logging.Field{Key: "kind", Value: string(res.Kind)})
		w.Header().Set("Cache-Control", "no-store")
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	w.Header().Set("Cache-Control", cacheControl(res.Revalidate))
	w.Header().Set("X-Build-Id", res.BuildID)

	if r.URL.Query().Get("format") == "html" {
		s.writePreview(w, res)
		return
	}
	if res.Blog != nil {
		writeJSON(w, http.StatusOK, res.Blog)
		return
	}
	writeJSON(w, http.StatusOK, res.Payload)
}

func cacheControl(revalidate time.Duration) string {
	return fmt.Sprintf("s-maxage=%d, stale-while-revalidate", int(revalidate/time.Second))
}

// ─── HTML preview ───

var previewTmpl = template.Must(template.New("preview").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
{{- if .Description}}
<meta name="description" content="{{.Description}}">
{{- end}}
{{- if .OGImage}}
<meta property="og:image" content="{{.OGImage}}">
{{- end}}
</head>
<body>
<header>
<strong>{{.Site.Name}}</strong>
<nav>{{range .Site.NavLinks}}<a href="{{.Href}}">{{.Label}}</a> {{end}}{{if .Site.NavCTA}}<span class="cta">{{.Site.NavCTA}}</span>{{end}}</nav>
</header>
{{- if .Navigation}}
<aside><ul>{{range .Navigation}}<li><a href="/{{$.Site.Slug}}/docs/{{.}}">{{.}}</a></li>{{end}}</ul></aside>
{{- end}}
<main>{{.Body}}</main>
{{- if .TOC}}
<aside class="toc">{{.TOC}}</aside>
{{- end}}
{{- if .Site.FooterText}}
<footer>{{.Site.FooterText}}</footer>
{{- end}}
</body>
</html>
`))

type previewData struct {
	Title       string
	Description string
	OGImage     string
	Site        model.SiteMeta
	Navigation  []string
	Body        template.HTML
	TOC         template.HTML
}

// writePreview renders the compiled page with the default components.
func (s *Server) writePreview(w http.ResponseWriter, res *app.Result) {
	var data previewData
	var code string
	if res.Blog != nil {
		b := res.Blog
		code = b.Code
		data = previewData{Title: b.Title, Description: b.Description, OGImage: b.OGImageURL, Site: b.Site}
	} else {
		p := res.Payload
		code = p.Code
		data = previewData{
			Title:      p.Site.Name,
			Site:       p.Site,
			Navigation: p.Navigation,
			TOC:        template.HTML(p.TOCHTML),
		}
		if title, ok := p.Frontmatter["title"].(string); ok && title != "" {
			data.Title = title + " | " + p.Site.Name
		}
	}

	el, err := bundle.Evaluate(code, bundle.DefaultRegistry())
	if err == nil {
		var body string
		body, err = bundle.RenderHTML(el)
		data.Body = template.HTML(body)
	}
	if err != nil {
		s.logger.Warn("rendering preview", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, "preview unavailable")
		return
	}

	var buf bytes.Buffer
	if err := previewTmpl.Execute(&buf, data); err != nil {
		s.logger.Warn("executing preview template", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, "preview unavailable")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
