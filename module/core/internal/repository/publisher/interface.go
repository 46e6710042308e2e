package publisher

import (
	"context"

	"github.com/nandanugg/region-notifier/module/core/domain"
)

type NotificationPublisher interface {
	PublishNotification(ctx context.Context, req *domain.NotificationRequest) error
}
