package monitoring

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"breachmonitor/internal/domain"
	"breachmonitor/internal/ports"
	"breachmonitor/internal/services/breachstate"
	"breachmonitor/internal/workers/recheckrunner"
)

// Evaluator produces a verdict for an identity. *breachstate.Engine satisfies it.
type Evaluator interface {
	Evaluate(ctx context.Context, identity domain.Identity, credential string) domain.RiskVerdict
}

// Dispatcher decides on and sends notifications for re-check results.
type Dispatcher interface {
	Recheck(ctx context.Context, result domain.RecheckResult) domain.NotificationOutcome
}

// Report is the outcome of one recheck_all run.
type Report struct {
	RunID     string                 `json:"run_id"`
	StartedAt time.Time              `json:"started_at"`
	Results   []domain.RecheckResult `json:"results"`
}

// Escalations counts results flagged as escalated.
func (r Report) Escalations() int {
	n := 0
	for _, res := range r.Results {
		if res.Escalated {
			n++
		}
	}
	return n
}

type Service struct {
	repo    ports.MonitoringRepository
	engine  Evaluator
	alerts  Dispatcher
	clock   clockwork.Clock
	workers int
	log     *zap.Logger
}

type Option func(*Service)

func WithClock(c clockwork.Clock) Option { return func(s *Service) { s.clock = c } }

func WithWorkers(n int) Option { return func(s *Service) { s.workers = n } }

func WithLogger(l *zap.Logger) Option { return func(s *Service) { s.log = l } }

// WithDispatcher attaches notification handling to re-checks.
func WithDispatcher(d Dispatcher) Option { return func(s *Service) { s.alerts = d } }

func New(repo ports.MonitoringRepository, engine Evaluator, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		engine:  engine,
		clock:   clockwork.NewRealClock(),
		workers: 4,
		log:     zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Save registers an identity for monitoring. A second save of the same
// identity returns domain.ErrAlreadyMonitored.
func (s *Service) Save(ctx context.Context, identity domain.Identity) error {
	if err := s.repo.Insert(ctx, identity); err != nil {
		if errors.Is(err, domain.ErrAlreadyMonitored) {
			return err
		}
		return fmt.Errorf("save monitored identity: %w", err)
	}
	s.log.Info("identity saved for monitoring", zap.String("identity_domain", identity.Domain()))
	return nil
}

func (s *Service) List(ctx context.Context) ([]domain.MonitoringEntry, error) {
	return s.repo.List(ctx)
}

// RecheckAll evaluates every stored entry with bounded concurrency. A failing
// identity degrades only its own row.
func (s *Service) RecheckAll(ctx context.Context) (Report, error) {
	entries, err := s.repo.List(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("list monitored identities: %w", err)
	}
	rep := Report{RunID: uuid.NewString(), StartedAt: s.clock.Now().UTC()}
	log := s.log.With(zap.String("run_id", rep.RunID))
	log.Info("recheck started", zap.Int("entries", len(entries)), zap.Int("workers", s.workers))

	rep.Results = recheckrunner.RunBatch(ctx, entries, recheckrunner.ProcessorFunc(func(ctx context.Context, job ports.RecheckJob) domain.RecheckResult {
		return s.recheckEntry(ctx, job.Entry)
	}), s.workers)

	log.Info("recheck finished",
		zap.Int("entries", len(rep.Results)),
		zap.Int("escalated", rep.Escalations()),
		zap.Duration("elapsed", s.clock.Since(rep.StartedAt)))
	return rep, nil
}

// Recheck re-checks a single saved identity with the same semantics as
// RecheckAll. Unsaved identities return domain.ErrNotMonitored.
func (s *Service) Recheck(ctx context.Context, identity domain.Identity) (domain.RecheckResult, error) {
	entry, err := s.repo.Get(ctx, identity)
	if err != nil {
		return domain.RecheckResult{}, err
	}
	return s.recheckEntry(ctx, entry), nil
}

func (s *Service) recheckEntry(ctx context.Context, entry domain.MonitoringEntry) domain.RecheckResult {
	verdict := s.engine.Evaluate(ctx, entry.Identity, "")
	res := domain.RecheckResult{
		Identity:      entry.Identity,
		Verdict:       verdict,
		PreviousCount: entry.LastBreachCount,
		Notification:  domain.NotificationOutcome{Status: domain.NotificationNotRequired},
	}

	// A breach source outage says nothing about the real count, so only the
	// check time is recorded for it.
	var count *int
	authoritative := !slices.Contains(verdict.DegradedSources, breachstate.SourceBreaches)
	if authoritative {
		n := verdict.BreachCount
		count = &n
	}
	prev, err := s.repo.RecordCheck(ctx, entry.Identity, count, s.clock.Now().UTC())
	if err != nil {
		res.StoreError = err.Error()
		s.log.Error("record check failed",
			zap.String("identity_domain", entry.Identity.Domain()), zap.Error(err))
	} else {
		res.PreviousCount = prev
	}
	// An unsaved count would escalate again next run, so a failed write never
	// escalates.
	res.Escalated = authoritative && err == nil && verdict.BreachCount > res.PreviousCount

	if s.alerts != nil {
		res.Notification = s.alerts.Recheck(ctx, res)
	}
	return res
}
