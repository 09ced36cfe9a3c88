package domain

import "time"

// Core domain models used internally. HTTP request/response shapes live in
// internal/adapters/http; keep these decoupled from transport details.

// Sentinels used when an upstream finding omits a field.
const (
	UnknownValue     = "unknown"
	UndisclosedField = "undisclosed"
)

type BreachRecord struct {
	SourceName    string   `json:"source_name"`
	OccurredAt    string   `json:"occurred_at"` // YYYY-MM-DD or "unknown"
	ExposedFields []string `json:"exposed_fields"`
	PwnCount      *int64   `json:"pwn_count,omitempty"`
}

// Undisclosed reports whether the upstream gave no field list for this record.
func (r BreachRecord) Undisclosed() bool {
	for _, f := range r.ExposedFields {
		if f == UndisclosedField {
			return true
		}
	}
	return false
}

type RiskVerdict struct {
	Identity                Identity       `json:"identity"`
	BreachCount             int            `json:"breach_count"`
	Records                 []BreachRecord `json:"records"`
	RiskLevel               RiskLevel      `json:"risk_level"`
	CredentialExposureCount *int           `json:"credential_exposure_count,omitempty"`
	Degraded                bool           `json:"degraded"`
	DegradedSources         []string       `json:"degraded_sources,omitempty"`
	CheckedAt               time.Time      `json:"checked_at"`
}

// ExposedFields returns the union of exposed fields across records in first-seen order.
func (v RiskVerdict) ExposedFields() []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, r := range v.Records {
		for _, f := range r.ExposedFields {
			if _, ok := seen[f]; ok {
				continue
			}
			seen[f] = struct{}{}
			out = append(out, f)
		}
	}
	return out
}

type MonitoringEntry struct {
	Identity        Identity   `json:"identity"`
	LastBreachCount int        `json:"last_breach_count"`
	LastCheckedAt   *time.Time `json:"last_checked_at,omitempty"`
}

// RecheckResult is one row of a batch re-check.
type RecheckResult struct {
	Identity      Identity            `json:"identity"`
	Verdict       RiskVerdict         `json:"verdict"`
	PreviousCount int                 `json:"previous_count"`
	Escalated     bool                `json:"escalated"`
	Notification  NotificationOutcome `json:"notification"`
	StoreError    string              `json:"store_error,omitempty"`
}
