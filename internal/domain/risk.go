package domain

import "fmt"

type RiskLevel int

const (
	RiskNone RiskLevel = iota
	// RiskLow is part of the scale but no current rule yields it.
	RiskLow
	RiskMedium
	RiskHigh
	RiskCritical
)

var riskNames = [...]string{"None", "Low", "Medium", "High", "Critical"}

func (l RiskLevel) String() string {
	if l < RiskNone || l > RiskCritical {
		return fmt.Sprintf("RiskLevel(%d)", int(l))
	}
	return riskNames[l]
}

func (l RiskLevel) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

func (l *RiskLevel) UnmarshalText(b []byte) error {
	for i, n := range riskNames {
		if n == string(b) {
			*l = RiskLevel(i)
			return nil
		}
	}
	return fmt.Errorf("%w: unknown risk level %q", ErrInvalidInput, string(b))
}

// ClassifyRisk derives the risk level from breach records and the optional
// credential exposure count. Rules are applied in order: any undisclosed record
// is High, then multiple breaches with an exposed credential are Critical.
func ClassifyRisk(records []BreachRecord, credentialExposure *int) RiskLevel {
	count := len(records)
	exposed := credentialExposure != nil && *credentialExposure > 0

	if count == 0 && !exposed {
		return RiskNone
	}
	for _, r := range records {
		if r.Undisclosed() {
			return RiskHigh
		}
	}
	if count > 1 && exposed {
		return RiskCritical
	}
	if count == 1 && !exposed {
		return RiskMedium
	}
	return RiskHigh
}
