package breachstate

import (
	"context"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"breachmonitor/internal/domain"
	"breachmonitor/internal/ports"
)

// Names reported in RiskVerdict.DegradedSources.
const (
	SourceBreaches    = "breach_source"
	SourceCredentials = "credential_checker"
)

// Engine evaluates an identity (and optional credential) against the upstream
// breach and credential sources. It never writes to the monitoring store.
type Engine struct {
	breaches    ports.BreachSource
	credentials ports.CredentialChecker
	policy      Policy
	clock       clockwork.Clock
	log         *zap.Logger
}

type Option func(*Engine)

func WithPolicy(p Policy) Option { return func(e *Engine) { e.policy = p } }

func WithClock(c clockwork.Clock) Option { return func(e *Engine) { e.clock = c } }

func WithLogger(l *zap.Logger) Option { return func(e *Engine) { e.log = l } }

// New builds an engine. credentials may be nil, in which case supplied
// credentials are reported as a degraded lookup.
func New(breaches ports.BreachSource, credentials ports.CredentialChecker, opts ...Option) *Engine {
	e := &Engine{
		breaches:    breaches,
		credentials: credentials,
		policy:      DefaultPolicy(),
		clock:       clockwork.NewRealClock(),
		log:         zap.NewNop(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Evaluate assumes a non-empty identity; input validation belongs to the caller.
// An empty credential means none was supplied. Upstream failures never surface
// as errors: they mark the verdict degraded.
func (e *Engine) Evaluate(ctx context.Context, identity domain.Identity, credential string) domain.RiskVerdict {
	var (
		result      ports.BreachResult
		breachErr   error
		exposure    *int
		credErr     error
		credChecked = credential != ""
	)

	var g errgroup.Group
	g.Go(func() error {
		result, breachErr = e.lookupBreaches(ctx, identity)
		return nil
	})
	if credChecked {
		g.Go(func() error {
			exposure, credErr = e.lookupCredential(ctx, credential)
			return nil
		})
	}
	_ = g.Wait()

	v := domain.RiskVerdict{
		Identity:  identity,
		Records:   []domain.BreachRecord{},
		CheckedAt: e.clock.Now().UTC(),
	}
	if breachErr != nil {
		v.Degraded = true
		v.DegradedSources = append(v.DegradedSources, SourceBreaches)
		e.log.Warn("breach source unavailable",
			zap.String("identity_domain", identity.Domain()), zap.Error(breachErr))
	} else if result.Found {
		v.Records = NormalizeFindings(result.Findings)
	}
	if credErr != nil {
		v.Degraded = true
		v.DegradedSources = append(v.DegradedSources, SourceCredentials)
		e.log.Warn("credential checker unavailable", zap.Error(credErr))
	} else {
		v.CredentialExposureCount = exposure
	}

	v.BreachCount = len(v.Records)
	v.RiskLevel = domain.ClassifyRisk(v.Records, v.CredentialExposureCount)
	return v
}

func (e *Engine) lookupBreaches(ctx context.Context, identity domain.Identity) (ports.BreachResult, error) {
	if e.breaches == nil {
		return ports.BreachResult{}, domain.ErrConfigurationMissing
	}
	var res ports.BreachResult
	err := e.policy.do(ctx, func(ctx context.Context) error {
		r, err := e.breaches.Lookup(ctx, identity)
		if err != nil {
			return err
		}
		res = r
		return nil
	})
	return res, err
}

// lookupCredential sends only the digest prefix upstream.
func (e *Engine) lookupCredential(ctx context.Context, credential string) (*int, error) {
	if e.credentials == nil {
		return nil, domain.ErrConfigurationMissing
	}
	prefix, suffix := credentialDigest(credential)
	var matches map[string]int
	err := e.policy.do(ctx, func(ctx context.Context) error {
		m, err := e.credentials.Range(ctx, prefix)
		if err != nil {
			return err
		}
		matches = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	n := matchSuffix(matches, suffix)
	return &n, nil
}
