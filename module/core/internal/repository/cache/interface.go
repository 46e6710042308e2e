package cache

import (
	"context"

	"github.com/nandanugg/region-notifier/module/core/domain"
)

// FixDeduper remembers fixes already seen from any source.
type FixDeduper interface {
	// MarkSeen records the fix and reports whether it was new.
	MarkSeen(ctx context.Context, fix *domain.Fix) (bool, error)
}
