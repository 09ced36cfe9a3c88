// Package notify combines several notifiers into one.
package notify

import (
	"context"
	"errors"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"breachmonitor/internal/domain"
	"breachmonitor/internal/ports"
)

// Fanout delivers to every notifier. Delivery succeeds if at least one
// configured notifier succeeds; unconfigured notifiers are ignored unless all
// of them are unconfigured.
type Fanout struct {
	notifiers []ports.Notifier
	log       *zap.Logger
}

func NewFanout(log *zap.Logger, notifiers ...ports.Notifier) *Fanout {
	if log == nil {
		log = zap.NewNop()
	}
	out := make([]ports.Notifier, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			out = append(out, n)
		}
	}
	return &Fanout{notifiers: out, log: log}
}

func (f *Fanout) Len() int { return len(f.notifiers) }

func (f *Fanout) Notify(ctx context.Context, identity domain.Identity, msg ports.Message) error {
	var (
		errs       error
		delivered  int
		configured int
	)
	for _, n := range f.notifiers {
		err := n.Notify(ctx, identity, msg)
		switch {
		case err == nil:
			configured++
			delivered++
		case errors.Is(err, domain.ErrConfigurationMissing):
			f.log.Debug("notifier not configured", zap.Error(err))
		default:
			configured++
			errs = multierr.Append(errs, err)
		}
	}
	if configured == 0 {
		return domain.ErrConfigurationMissing
	}
	if delivered > 0 {
		if errs != nil {
			f.log.Warn("partial alert delivery",
				zap.String("identity_domain", identity.Domain()),
				zap.Int("failed", len(multierr.Errors(errs))),
				zap.Error(errs))
		}
		return nil
	}
	return errs
}
