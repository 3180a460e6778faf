// Package web serves the server-rendered match predictor UI.
//
// Each browser session owns one controller. GET / renders the controller's
// current view; the form and back button post and redirect (303) so a
// refresh never re-submits.
package web

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/okian/matchwinner/internal/controller"
	"github.com/okian/matchwinner/internal/domain/model"
	"github.com/okian/matchwinner/internal/domain/roster"
	"github.com/okian/matchwinner/internal/domain/view"
	"github.com/okian/matchwinner/pkg/logger"
	"github.com/okian/matchwinner/pkg/metrics"
)

// DefaultCookieName is the session cookie used when none is configured.
const DefaultCookieName = "matchwinner_session"

const placeholderFile = "placeholder.svg"

// Sessions hands out the controller for a browser session.
type Sessions interface {
	// Controller returns the controller for id, creating a session when id
	// is empty or unknown. The returned id is the one to store in the cookie.
	Controller(id string) (*controller.Controller, string, error)
	Roster() *roster.Roster
}

// Server wires the UI routes.
type Server struct {
	sessions     Sessions
	assets       fs.FS
	resolver     *view.AssetResolver
	templates    *template.Template
	cookieName   string
	secureCookie bool
	logger       logger.Logger
	router       chi.Router
}

// New parses the embedded templates and builds the router.
func New(sessions Sessions, opts ...Option) (*Server, error) {
	s := &Server{
		sessions:   sessions,
		cookieName: DefaultCookieName,
		logger:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.resolver = view.NewAssetResolver(s.assets)

	tmpl, err := template.ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTemplates, err)
	}
	s.templates = tmpl

	s.router = s.routes()
	return s, nil
}

// Handler returns the UI router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/", s.handleIndex)
	r.Post("/predict", s.handlePredict)
	r.Post("/back", s.handleBack)
	r.Get(view.AssetPrefix+"*", s.handleAsset)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	return r
}

// instrument records request metrics by route pattern.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		endpoint := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			endpoint = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		code := strconv.Itoa(status)
		metrics.RecordHTTPRequest(endpoint, r.Method, code)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, code, float64(time.Since(start).Milliseconds()))
	})
}

// session resolves the caller's controller and refreshes the cookie when a
// new session was created.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*controller.Controller, bool) {
	var current string
	if c, err := r.Cookie(s.cookieName); err == nil {
		current = c.Value
	}
	ctrl, id, err := s.sessions.Controller(current)
	if err != nil {
		s.logger.Error(r.Context(), "session lookup failed", logger.Error(err))
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return nil, false
	}
	if id != current {
		http.SetCookie(w, &http.Cookie{
			Name:     s.cookieName,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			Secure:   s.secureCookie,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return ctrl, true
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.session(w, r)
	if !ok {
		return
	}
	page := view.Render(ctrl.Snapshot(), s.sessions.Roster(), s.resolver)

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "page.html", page); err != nil {
		s.logger.Error(r.Context(), "render failed", logger.Error(fmt.Errorf("%w: %w", ErrRender, err)))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	ctrl, ok := s.session(w, r)
	if !ok {
		return
	}
	form := model.Form{
		HomeTeam: r.PostForm.Get("home_team"),
		AwayTeam: r.PostForm.Get("away_team"),
		HomeRank: r.PostForm.Get("home_rank"),
		AwayRank: r.PostForm.Get("away_rank"),
	}
	// Validation errors are kept on the controller and shown by GET /.
	if err := ctrl.Submit(r.Context(), form); err != nil {
		s.logIgnored(r.Context(), "submit", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := ctrl.Back(r.Context()); err != nil {
		s.logIgnored(r.Context(), "back", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) logIgnored(ctx context.Context, action string, err error) {
	if errors.Is(err, controller.ErrBusy) || errors.Is(err, controller.ErrInvalidTransition) || errors.Is(err, controller.ErrClosed) {
		s.logger.Debug(ctx, action+" ignored", logger.Error(err))
	}
}

// handleAsset serves a team logo, or the placeholder when it is missing.
func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, view.AssetPrefix)
	if s.assets != nil && fs.ValidPath(name) {
		if st, err := fs.Stat(s.assets, name); err == nil && !st.IsDir() {
			http.ServeFileFS(w, r, s.assets, name)
			return
		}
	}
	http.ServeFileFS(w, r, staticFS, placeholderFile)
}
