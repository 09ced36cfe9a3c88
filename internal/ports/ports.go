package ports

import (
	"context"

	"breachmonitor/internal/domain"
)

// RawFinding is one upstream breach entry as decoded from the provider, before
// field names are reconciled.
type RawFinding map[string]any

// BreachResult is what a BreachSource reports for an identity.
type BreachResult struct {
	Found    bool
	Findings []RawFinding
}

// BreachSource looks up known breaches for an identity.
type BreachSource interface {
	Lookup(ctx context.Context, identity domain.Identity) (BreachResult, error)
}

// CredentialChecker answers k-anonymity range queries: given the first five hex
// characters of a SHA-1 digest it returns every known suffix with its count.
type CredentialChecker interface {
	Range(ctx context.Context, prefix string) (map[string]int, error)
}

// RiskSummarizer produces a short free-text risk summary.
type RiskSummarizer interface {
	Summarize(ctx context.Context, identity domain.Identity, breachCount int, exposedFields []string) (string, error)
}

// Message is a rendered alert.
type Message struct {
	Subject  string
	TextBody string
	HTMLBody string
}

// Notifier delivers an alert for an identity.
type Notifier interface {
	Notify(ctx context.Context, identity domain.Identity, msg Message) error
}
