package alerting

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"breachmonitor/internal/domain"
	"breachmonitor/internal/ports"
)

// SummaryPlaceholder is shown whenever the AI summary cannot be produced.
const SummaryPlaceholder = "AI risk summary unavailable."

type Config struct {
	SiteName         string
	SummarizeTimeout time.Duration
	NotifyTimeout    time.Duration
}

func DefaultConfig() Config {
	return Config{SiteName: "Dark Web Breach Monitor", SummarizeTimeout: 30 * time.Second, NotifyTimeout: 15 * time.Second}
}

// Service decides whether a verdict warrants an alert and, if so, renders and
// sends it. Failures are reported in the outcome and never propagate.
type Service struct {
	summarizer ports.RiskSummarizer
	notifier   ports.Notifier
	cfg        Config
	log        *zap.Logger
}

// New accepts nil summarizer or notifier; the missing feature degrades to a
// placeholder summary or a skipped notification.
func New(summarizer ports.RiskSummarizer, notifier ports.Notifier, cfg Config, logger *zap.Logger) *Service {
	def := DefaultConfig()
	if cfg.SiteName == "" {
		cfg.SiteName = def.SiteName
	}
	if cfg.SummarizeTimeout <= 0 {
		cfg.SummarizeTimeout = def.SummarizeTimeout
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = def.NotifyTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{summarizer: summarizer, notifier: notifier, cfg: cfg, log: logger}
}

// ShouldNotifyCheck: an interactive check alerts on any risk above None.
func ShouldNotifyCheck(v domain.RiskVerdict) bool { return v.RiskLevel != domain.RiskNone }

// ShouldNotifyRecheck: a re-check alerts only when the breach count grew.
func ShouldNotifyRecheck(r domain.RecheckResult) bool { return r.Escalated }

// Check handles the notification for an interactive check.
func (s *Service) Check(ctx context.Context, v domain.RiskVerdict) domain.NotificationOutcome {
	if !ShouldNotifyCheck(v) {
		return domain.NotificationOutcome{Status: domain.NotificationNotRequired}
	}
	return s.dispatch(ctx, v, 0, false)
}

// Recheck handles the notification for one re-check result.
func (s *Service) Recheck(ctx context.Context, r domain.RecheckResult) domain.NotificationOutcome {
	if !ShouldNotifyRecheck(r) {
		return domain.NotificationOutcome{Status: domain.NotificationNotRequired}
	}
	return s.dispatch(ctx, r.Verdict, r.PreviousCount, true)
}

// Summary returns the AI summary for a verdict or SummaryPlaceholder.
func (s *Service) Summary(ctx context.Context, v domain.RiskVerdict) string {
	if s.summarizer == nil {
		return SummaryPlaceholder
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.SummarizeTimeout)
	defer cancel()
	text, err := s.summarizer.Summarize(ctx, v.Identity, v.BreachCount, v.ExposedFields())
	if err != nil {
		if !errors.Is(err, domain.ErrConfigurationMissing) {
			s.log.Warn("risk summary failed", zap.Error(err))
		}
		return SummaryPlaceholder
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return SummaryPlaceholder
	}
	return text
}

func (s *Service) dispatch(ctx context.Context, v domain.RiskVerdict, previous int, escalation bool) domain.NotificationOutcome {
	out := domain.NotificationOutcome{Summary: s.Summary(ctx, v)}
	if s.notifier == nil {
		out.Status = domain.NotificationSkipped
		return out
	}
	msg := BuildAlertEmail(AlertData{
		SiteName:      s.cfg.SiteName,
		Verdict:       v,
		Summary:       out.Summary,
		Escalation:    escalation,
		PreviousCount: previous,
		Tips:          RemediationTips(),
	})

	nctx, cancel := context.WithTimeout(ctx, s.cfg.NotifyTimeout)
	defer cancel()
	err := s.notifier.Notify(nctx, v.Identity, msg)
	switch {
	case err == nil:
		out.Status = domain.NotificationSent
		s.log.Info("alert sent",
			zap.String("identity_domain", v.Identity.Domain()),
			zap.String("risk_level", v.RiskLevel.String()),
			zap.Bool("escalation", escalation))
	case errors.Is(err, domain.ErrConfigurationMissing):
		out.Status = domain.NotificationSkipped
		out.Error = err.Error()
	default:
		out.Status = domain.NotificationFailed
		out.Error = err.Error()
		s.log.Warn("alert delivery failed",
			zap.String("identity_domain", v.Identity.Domain()), zap.Error(err))
	}
	return out
}
