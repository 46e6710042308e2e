package service

import (
	"math/rand/v2"

	"github.com/nandanugg/region-notifier/module/core/domain"
)

// Select picks one item uniformly at random, with replacement across calls.
// The caller owns rng and must not share it between goroutines.
func Select(pool []domain.NotificationContent, rng *rand.Rand) (domain.NotificationContent, error) {
	if len(pool) == 0 {
		return domain.NotificationContent{}, domain.ErrEmptyPool
	}
	return pool[rng.IntN(len(pool))], nil
}
