package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"breachmonitor/internal/domain"
	"breachmonitor/internal/services/alerting"
	"breachmonitor/internal/services/monitoring"
)

const maxBodyBytes = 1 << 20

type Checker interface {
	Evaluate(ctx context.Context, identity domain.Identity, credential string) domain.RiskVerdict
}

type Alerts interface {
	Check(ctx context.Context, v domain.RiskVerdict) domain.NotificationOutcome
}

type Monitor interface {
	Save(ctx context.Context, identity domain.Identity) error
	List(ctx context.Context) ([]domain.MonitoringEntry, error)
	RecheckAll(ctx context.Context) (monitoring.Report, error)
	Recheck(ctx context.Context, identity domain.Identity) (domain.RecheckResult, error)
}

// Server exposes the check and monitoring operations as a JSON API.
type Server struct {
	checker Checker
	alerts  Alerts
	monitor Monitor
	log     *zap.Logger
}

func New(checker Checker, alerts Alerts, monitor Monitor, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{checker: checker, alerts: alerts, monitor: monitor, log: log}
}

// Routes returns a chi.Router with all handlers mounted.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.getHealthz)
	r.Route("/api", func(r chi.Router) {
		r.Post("/check", s.postCheck)
		r.Route("/monitored", func(r chi.Router) {
			r.Get("/", s.listMonitored)
			r.Post("/", s.saveMonitored)
			r.Post("/recheck", s.recheckAll)
			r.Post("/{identity}/recheck", s.recheckOne)
		})
	})
	return r
}

type checkRequest struct {
	Identity   string `json:"identity"`
	Credential string `json:"credential,omitempty"`
}

type checkResponse struct {
	Verdict         domain.RiskVerdict         `json:"verdict"`
	Summary         string                     `json:"summary,omitempty"`
	Notification    domain.NotificationOutcome `json:"notification"`
	RemediationTips []string                   `json:"remediation_tips,omitempty"`
}

type monitorRequest struct {
	Identity string `json:"identity"`
}

type recheckResponse struct {
	RunID       string                 `json:"run_id"`
	StartedAt   string                 `json:"started_at"`
	Escalations int                    `json:"escalations"`
	Results     []domain.RecheckResult `json:"results"`
}

type errorResponse struct {
	Ok      bool   `json:"ok"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) getHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) postCheck(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if !decode(w, r, &req) {
		return
	}
	id, err := domain.ParseIdentity(req.Identity)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	v := s.checker.Evaluate(r.Context(), id, req.Credential)
	out := s.alerts.Check(r.Context(), v)
	resp := checkResponse{Verdict: v, Summary: out.Summary, Notification: out}
	if v.RiskLevel != domain.RiskNone {
		resp.RemediationTips = alerting.RemediationTips()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) saveMonitored(w http.ResponseWriter, r *http.Request) {
	var req monitorRequest
	if !decode(w, r, &req) {
		return
	}
	id, err := domain.ParseIdentity(req.Identity)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.monitor.Save(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, domain.MonitoringEntry{Identity: id})
}

func (s *Server) listMonitored(w http.ResponseWriter, r *http.Request) {
	entries, err := s.monitor.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) recheckAll(w http.ResponseWriter, r *http.Request) {
	rep, err := s.monitor.RecheckAll(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recheckResponse{
		RunID:       rep.RunID,
		StartedAt:   rep.StartedAt.Format(time.RFC3339),
		Escalations: rep.Escalations(),
		Results:     rep.Results,
	})
}

func (s *Server) recheckOne(w http.ResponseWriter, r *http.Request) {
	raw, err := url.PathUnescape(chi.URLParam(r, "identity"))
	if err != nil {
		s.writeError(w, r, domain.ErrInvalidInput)
		return
	}
	id, err := domain.ParseIdentity(raw)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.monitor.Recheck(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "invalid_json", Message: "request body must be a JSON object"})
		return false
	}
	return true
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "invalid_input", Message: err.Error()})
	case errors.Is(err, domain.ErrAlreadyMonitored):
		writeJSON(w, http.StatusConflict, errorResponse{Code: "already_monitored", Message: err.Error()})
	case errors.Is(err, domain.ErrNotMonitored):
		writeJSON(w, http.StatusNotFound, errorResponse{Code: "not_monitored", Message: err.Error()})
	default:
		s.log.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Code: "internal", Message: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
