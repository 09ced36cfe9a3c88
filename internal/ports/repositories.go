package ports

import (
	"context"
	"time"

	"breachmonitor/internal/domain"
)

// MonitoringRepository persists one row per monitored identity.
type MonitoringRepository interface {
	// Insert adds a new entry with a zero breach count. Returns
	// domain.ErrAlreadyMonitored when the identity is present.
	Insert(ctx context.Context, identity domain.Identity) error
	// List returns entries in insertion order.
	List(ctx context.Context) ([]domain.MonitoringEntry, error)
	// Get returns domain.ErrNotMonitored for unknown identities.
	Get(ctx context.Context, identity domain.Identity) (domain.MonitoringEntry, error)
	// RecordCheck overwrites the stored check time, and the stored count unless
	// breachCount is nil, in a single write transaction. It returns the count
	// stored before the write.
	RecordCheck(ctx context.Context, identity domain.Identity, breachCount *int, checkedAt time.Time) (previous int, err error)
}
