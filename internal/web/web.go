// Package web renders the server-side pages and serves their static assets.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	appprojects "github.com/calicode24/calicode/internal/application/projects"
	"github.com/calicode24/calicode/internal/domain/compliance"
	"github.com/calicode24/calicode/internal/domain/documents"
	"github.com/calicode24/calicode/internal/domain/identity"
	"github.com/calicode24/calicode/internal/domain/tiers"
	"github.com/calicode24/calicode/internal/domain/workflow"
	"github.com/calicode24/calicode/internal/infra/markdown"
)

//go:embed templates/*.html static/*
var files embed.FS

// page names, one template file each
const (
	PageHome           = "home"
	PageLogin          = "login"
	PageSignup         = "signup"
	PageDashboard      = "dashboard"
	PageProject        = "project"
	PageUpgradeSuccess = "upgrade_success"
)

var pageNames = []string{PageHome, PageLogin, PageSignup, PageDashboard, PageProject, PageUpgradeSuccess}

// View is the data every page receives
type View struct {
	Title string
	User  *identity.User
	Flash string
	Query string
	Body  any
}

// ScanConfig drives the cosmetic scanning indicator in the workspace script.
type ScanConfig struct {
	Schedule       []int64  `json:"schedule"`
	Labels         []string `json:"labels"`
	MaxTimedStep   int      `json:"maxTimedStep"`
	FinalStep      int      `json:"finalStep"`
	FinalStepDelay int64    `json:"finalStepDelay"`
	ResultDelay    int64    `json:"resultDelay"`
	Accept         []string `json:"accept"`
	MaxBytes       int64    `json:"maxBytes"`
}

func NewScanConfig(maxBytes int64) ScanConfig {
	return ScanConfig{
		Schedule:       workflow.ScheduleMillis(),
		Labels:         workflow.ScanLabels,
		MaxTimedStep:   workflow.MaxTimedStep,
		FinalStep:      workflow.FinalStep,
		FinalStepDelay: workflow.FinalStepDelay.Milliseconds(),
		ResultDelay:    workflow.ResultDelay.Milliseconds(),
		Accept:         documents.AcceptedTypes,
		MaxBytes:       maxBytes,
	}
}

// Workspace is the project page body
type Workspace struct {
	*appprojects.Workspace
	Analysis *compliance.Analysis
	Step     workflow.Step
	Scan     ScanConfig
}

// NewWorkspace opens on the result screen when the project has a report.
func NewWorkspace(w *appprojects.Workspace, maxBytes int64) *Workspace {
	out := &Workspace{Workspace: w, Scan: NewScanConfig(maxBytes)}
	latest := w.Latest()
	if latest != nil {
		a := latest.Analysis()
		out.Analysis = &a
	}
	out.Step = workflow.InitialStep(latest != nil)
	return out
}

type Pages struct {
	pages  map[string]*template.Template
	static http.Handler
}

func New(md *markdown.Renderer) (*Pages, error) {
	funcs := template.FuncMap{
		"statusLabel": func(v any) string { return appprojects.StatusLabel(fmt.Sprint(v)) },
		"statusClass": func(v any) string { return statusClass(fmt.Sprint(v)) },
		"markdown":    md.MustHTML,
		"date":        func(t time.Time) string { return t.Format("Jan 2, 2006") },
		"percent":     func(f float64) int { return int(f*100 + 0.5) },
		"tierLimits":  tiers.LimitsFor,
		"lower":       strings.ToLower,
		"year":        func() int { return time.Now().Year() },
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
	}

	p := &Pages{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcs).ParseFS(files, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		p.pages[name] = t
	}

	sub, err := fs.Sub(files, "static")
	if err != nil {
		return nil, err
	}
	p.static = http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
	return p, nil
}

// Render executes a page into a buffer before writing anything.
func (p *Pages) Render(w http.ResponseWriter, status int, name string, v View) error {
	t, ok := p.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", v); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// Static serves /static/*
func (p *Pages) Static() http.Handler { return p.static }

func statusClass(status string) string {
	switch appprojects.StatusLabel(status) {
	case "Pass":
		return "badge-pass"
	case "Requires Review":
		return "badge-fail"
	default:
		return "badge-muted"
	}
}
