package api

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"github.com/filmoteca/chartfetch/internal/chart"
)

//go:embed templates
var templatesFS embed.FS

var panelTemplate = template.Must(template.ParseFS(templatesFS, "templates/panel.html"))

// panelData feeds the control panel template.
type panelData struct {
	SortKeys    []chart.SortKey
	SortOptions map[chart.SortKey]string
	Filters     chart.Filters
	Result      *chart.Result
	Error       string
}

// renderHTML executes the panel template into a buffer first; a render
// failure still produces a proper error response instead of torn markup.
func (s *Server) renderHTML(w http.ResponseWriter, data panelData) {
	var buf bytes.Buffer
	if err := panelTemplate.Execute(&buf, data); err != nil {
		s.logger.Error("panel render failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "template render failed")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Error("panel write failed", zap.Error(err))
	}
}
