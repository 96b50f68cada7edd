// Package report renders a GemCollection as a static HTML page.
package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/IshaanNene/gemquality/internal/config"
	"github.com/IshaanNene/gemquality/internal/types"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	reportTemplates *template.Template
	reportOnce      sync.Once
	reportErr       error
)

func loadTemplates() (*template.Template, error) {
	reportOnce.Do(func() {
		funcMap := template.FuncMap{
			"value": func(v float64) string {
				return strconv.FormatFloat(v, 'f', -1, 64)
			},
			"handles": func(h []string) string {
				return strings.Join(h, ", ")
			},
		}
		tmpl := template.New("gemquality").Funcs(funcMap)
		reportTemplates, reportErr = tmpl.ParseFS(templateFS, "templates/*.html")
	})
	return reportTemplates, reportErr
}

// Renderer turns a GemCollection into an HTML page.
type Renderer struct {
	title      string
	stylesheet string
	logger     *slog.Logger
}

type pageData struct {
	Title      string
	Stylesheet string
	Categories []categoryData
}

type categoryData struct {
	Name  string
	Title string
	Gems  []types.Gem
	Err   error
}

// NewRenderer creates a renderer using the report title and stylesheet from cfg.
func NewRenderer(cfg *config.ReportConfig, logger *slog.Logger) *Renderer {
	return &Renderer{
		title:      cfg.Title,
		stylesheet: cfg.Stylesheet,
		logger:     logger.With("component", "report"),
	}
}

// Render writes the report for the collection to w, one section per category
// in collection order. A category that could not be fetched renders a notice
// instead of a table.
func (r *Renderer) Render(w io.Writer, collection *types.GemCollection) error {
	tmpl, err := loadTemplates()
	if err != nil {
		return fmt.Errorf("parse report templates: %w", err)
	}

	data := pageData{
		Title:      r.title,
		Stylesheet: r.stylesheet,
	}
	if collection != nil {
		for _, res := range collection.Results() {
			title := res.Category.Title
			if title == "" {
				title = res.Category.Name
			}
			data.Categories = append(data.Categories, categoryData{
				Name:  res.Category.Name,
				Title: title,
				Gems:  res.Gems,
				Err:   res.Err,
			})
		}
	}

	if err := tmpl.ExecuteTemplate(w, "report", data); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

// WriteFile renders the report to path, creating parent directories.
// The file is only replaced once rendering succeeds.
func (r *Renderer) WriteFile(path string, collection *types.GemCollection) error {
	var buf bytes.Buffer
	if err := r.Render(&buf, collection); err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	r.logger.Info("report written", "path", path, "size", buf.Len())
	return nil
}
