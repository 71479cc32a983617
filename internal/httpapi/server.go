package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/praesto/internal/config"
	"github.com/hamed0406/praesto/internal/domain"
	apimw "github.com/hamed0406/praesto/internal/httpapi/middleware"
	"github.com/hamed0406/praesto/internal/notify"
	"github.com/hamed0406/praesto/internal/repo"
)

// ConfigSource returns the config currently in force.
type ConfigSource interface {
	Config() config.Config
}

// Reports builds and sends digests.
type Reports interface {
	BuildReport(ctx context.Context, specs []domain.CheckSpec, rs domain.ReportSpec, window time.Duration, now time.Time) (notify.Report, bool)
	SendReports(ctx context.Context, specs []domain.CheckSpec, reports []domain.ReportSpec, window time.Duration, now time.Time) int
}

type Server struct {
	Logger  *zap.Logger
	Config  ConfigSource
	States  repo.StateStore
	Reports Reports
	Stream  http.HandlerFunc // websocket endpoint, optional
	Now     func() time.Time
}

func NewServer(l *zap.Logger, cs ConfigSource, states repo.StateStore, reports Reports, stream http.HandlerFunc) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	return &Server{Logger: l, Config: cs, States: states, Reports: reports, Stream: stream, Now: time.Now}
}

// Router wires the status API. Everything under /api needs a key when keys
// are configured; sending digests needs an admin key.
func (s *Server) Router(keys apimw.Keys, allowedOrigins []string, publicRPM, publicBurst int) http.Handler {
	r := chi.NewRouter()
	if len(allowedOrigins) == 0 {
		r.Use(cors.AllowAll().Handler)
	} else {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "Authorization", "X-API-Key"},
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(apimw.RateLimit(publicRPM, publicBurst))
		r.Use(apimw.RequireAny(keys))

		r.Get("/checks", s.handleListChecks)
		r.Get("/checks/{id}", s.handleGetCheck)
		r.Get("/reports/{group}", s.handlePreviewReport)
		r.With(apimw.RequireAdmin(keys)).Post("/reports/send", s.handleSendReports)
		if s.Stream != nil {
			r.Get("/stream", s.Stream)
		}
	})
	return r
}

type checkView struct {
	Check domain.CheckSpec  `json:"check"`
	State domain.CheckState `json:"state"`
}

func (s *Server) handleListChecks(w http.ResponseWriter, r *http.Request) {
	cfg := s.Config.Config()
	out := make([]checkView, 0, len(cfg.Checks))
	for _, c := range cfg.Checks {
		out = append(out, checkView{Check: c, State: s.States.Load(r.Context(), c.ID)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetCheck(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, ok := s.Config.Config().Check(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown check"})
		return
	}
	writeJSON(w, http.StatusOK, checkView{Check: c, State: s.States.Load(r.Context(), id)})
}

type sectionView struct {
	Check   domain.CheckSpec      `json:"check"`
	Entries []domain.HistoryEntry `json:"entries"`
}

type reportView struct {
	Group    string        `json:"group"`
	Since    time.Time     `json:"since"`
	Sections []sectionView `json:"sections"`
	Text     string        `json:"text"`
}

// handlePreviewReport renders the digest a group would receive now, without
// sending it. ?window= takes a Go duration and defaults to reporting_interval.
func (s *Server) handlePreviewReport(w http.ResponseWriter, r *http.Request) {
	cfg := s.Config.Config()
	window := cfg.ReportingInterval()
	if v := r.URL.Query().Get("window"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad window"})
			return
		}
		window = d
	}
	rs := domain.ReportSpec{Group: chi.URLParam(r, "group"), IncludeQuiet: r.URL.Query().Get("quiet") == "1"}

	rep, _ := s.Reports.BuildReport(r.Context(), cfg.Checks, rs, window, s.Now())
	view := reportView{Group: rep.Group, Since: rep.Since, Sections: []sectionView{}, Text: rep.Text}
	for _, sec := range rep.Sections {
		view.Sections = append(view.Sections, sectionView{Check: sec.Spec, Entries: sec.Entries})
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleSendReports(w http.ResponseWriter, r *http.Request) {
	cfg := s.Config.Config()
	n := s.Reports.SendReports(r.Context(), cfg.Checks, cfg.Reports, cfg.ReportingInterval(), s.Now())
	s.Logger.Info("reports_sent_via_api", zap.Int("digests", n), zap.String("remote", r.RemoteAddr))
	writeJSON(w, http.StatusOK, map[string]int{"digests": n})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
