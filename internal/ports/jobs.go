package ports

import "breachmonitor/internal/domain"

// RecheckJob is one unit of work for the recheck worker pool. Index keeps the
// result aligned with the listing order.
type RecheckJob struct {
	Index int
	Entry domain.MonitoringEntry
}
