package handlers

import (
	"bytes"
	"io"
	"net/http"
	"strconv"

	"github.com/alexedwards/scs/v2"
	"github.com/charmbracelet/log"
	"github.com/ngenohkevin/racetime_clock/internal/clock"
	"github.com/ngenohkevin/racetime_clock/internal/config"
	"github.com/ngenohkevin/racetime_clock/internal/localize"
	"github.com/ngenohkevin/racetime_clock/internal/middleware"
	"github.com/ngenohkevin/racetime_clock/internal/page"
	"github.com/ngenohkevin/racetime_clock/internal/templates"
	"github.com/ngenohkevin/racetime_clock/internal/timer"
)

// maxRenderBody caps the markup accepted by Render
const maxRenderBody = 1 << 20

type Handler struct {
	Engine  *timer.Engine
	Session *scs.SessionManager
	Config  *config.Config
	Logger  *log.Logger
	Clock   clock.Clock
}

// New creates a new handler instance
func New(engine *timer.Engine, session *scs.SessionManager, cfg *config.Config, logger *log.Logger) *Handler {
	return &Handler{
		Engine:  engine,
		Session: session,
		Config:  cfg,
		Logger:  logger,
		Clock:   clock.Real{},
	}
}

// localizer returns a localizer for the viewer of r
func (h *Handler) localizer(r *http.Request) *localize.Localizer {
	return localize.New(middleware.LocaleFrom(r.Context()), h.Config.Location, h.Logger)
}

// Home handles the dashboard request
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	current := middleware.LocaleFrom(r.Context())
	if err := templates.Dashboard(h.timers(), current).Render(r.Context(), &buf); err != nil {
		h.Logger.Error("rendering dashboard", "err", err)
		http.Error(w, "Error rendering dashboard", http.StatusInternalServerError)
		return
	}

	// Reference instants are localized for the viewer before sending
	p, err := page.Parse(&buf)
	if err != nil {
		h.Logger.Error("parsing dashboard", "err", err)
		http.Error(w, "Error rendering dashboard", http.StatusInternalServerError)
		return
	}
	if _, err := p.Localize(h.localizer(r), ""); err != nil {
		h.Logger.Error("localizing dashboard", "err", err)
	}

	out, err := p.HTML()
	if err != nil {
		h.Logger.Error("serializing dashboard", "err", err)
		http.Error(w, "Error rendering dashboard", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	h.write(w, out)
}

// Render handles a request to render posted markup: every timer element is
// ticked once and every localizable element is localized for the viewer
func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	p, err := page.Parse(http.MaxBytesReader(w, r.Body, maxRenderBody))
	if err != nil {
		http.Error(w, "Error reading markup", http.StatusBadRequest)
		return
	}

	registry := timer.NewRegistry()
	for _, t := range p.Timers() {
		registry.Add(t)
	}
	engine := timer.NewEngine(registry,
		timer.WithClock(h.Clock),
		timer.WithLocation(h.Config.Location),
		timer.WithLogger(h.Logger),
	)
	tickSkipped := countFailed(engine.RefreshAll(h.Clock.Now()))

	results, err := p.Localize(h.localizer(r), r.URL.Query().Get("root"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	localizeSkipped := 0
	for _, res := range results {
		if res.Err != nil {
			localizeSkipped++
		}
	}

	out, err := p.HTML()
	if err != nil {
		h.Logger.Error("serializing markup", "err", err)
		http.Error(w, "Error rendering markup", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Timers-Skipped", strconv.Itoa(tickSkipped))
	w.Header().Set("X-Instants-Skipped", strconv.Itoa(localizeSkipped))
	h.write(w, out)
}

// SetLocale handles the request to store the viewer's preferred locale
func (h *Handler) SetLocale(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	locale, ok := localize.Lookup(r.PostFormValue("locale"))
	if !ok {
		http.Error(w, "Unsupported locale", http.StatusBadRequest)
		return
	}

	h.Session.Put(r.Context(), middleware.SessionLocaleKey, locale.Tag.String())
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// write sends a rendered body; a failed write only means the client left
func (h *Handler) write(w http.ResponseWriter, body string) {
	if _, err := io.WriteString(w, body); err != nil {
		h.Logger.Error("writing response", "err", err)
	}
}

func countFailed(results []timer.Result) int {
	n := 0
	for _, res := range results {
		if !res.OK() {
			n++
		}
	}
	return n
}
