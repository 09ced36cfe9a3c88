package domain

type NotificationStatus string

const (
	NotificationNotRequired NotificationStatus = "not_required"
	NotificationSent        NotificationStatus = "sent"
	NotificationFailed      NotificationStatus = "failed"
	// NotificationSkipped means no notifier is configured.
	NotificationSkipped NotificationStatus = "skipped"
)

// NotificationOutcome describes what happened to the alert for one verdict.
// A failed notification never changes the verdict or stored state.
type NotificationOutcome struct {
	Status  NotificationStatus `json:"status"`
	Summary string             `json:"summary,omitempty"`
	Error   string             `json:"error,omitempty"`
}
