package subscriber

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/nandanugg/region-notifier/module/core/domain"
	"github.com/nandanugg/region-notifier/module/core/internal/handler/message"
	"github.com/nandanugg/region-notifier/module/core/service"
)

const handleTimeout = 10 * time.Second

type trackingService interface {
	HandleFix(ctx context.Context, fix domain.Fix) (*service.Outcome, error)
}

// FixSubscriber feeds the foreground location stream into the tracker.
type FixSubscriber struct {
	topic       string
	trackingSvc trackingService
	log         zerolog.Logger
}

func NewFixSubscriber(topic string, trackingSvc trackingService, log zerolog.Logger) *FixSubscriber {
	return &FixSubscriber{
		topic:       topic,
		trackingSvc: trackingSvc,
		log:         log.With().Str("component", "fix_subscriber").Logger(),
	}
}

func (s *FixSubscriber) Subscribe(c mqtt.Client) error {
	token := c.Subscribe(s.topic, 1, s.handleMessage)
	token.Wait()
	return token.Error()
}

// OnConnect subscribes on every (re)connect. Pass it to the MQTT client
// options.
func (s *FixSubscriber) OnConnect(c mqtt.Client) {
	if err := s.Subscribe(c); err != nil {
		s.log.Error().Err(err).Str("topic", s.topic).Msg("subscribe failed")
		return
	}
	s.log.Info().Str("topic", s.topic).Msg("subscribed")
}

func (s *FixSubscriber) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	var raw message.Fix
	if err := json.Unmarshal(msg.Payload(), &raw); err != nil {
		s.log.Warn().Err(err).Str("topic", msg.Topic()).Msg("invalid fix message")
		return
	}

	if err := raw.Validate(); err != nil {
		s.log.Warn().Err(err).Str("topic", msg.Topic()).Msg("fix validation error")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	out, err := s.trackingSvc.HandleFix(ctx, raw.ToDomain(domain.SourceForeground))
	if err != nil {
		logOutcomeError(s.log, err)
	}
	if out != nil && len(out.Transitions) > 0 {
		s.log.Info().
			Int("transitions", len(out.Transitions)).
			Int("notifications", len(out.Notifications)).
			Str("current_region", string(out.CurrentRegion)).
			Msg("fix processed")
	}
}

// logOutcomeError keeps entries without notification text at warn level so
// they do not read as outages.
func logOutcomeError(log zerolog.Logger, err error) {
	onlyEmptyPool := errors.Is(err, domain.ErrEmptyPool) &&
		!errors.Is(err, domain.ErrExternalSource) &&
		!errors.Is(err, domain.ErrUnknownRegion)
	if onlyEmptyPool {
		log.Warn().Err(err).Msg("region entered without notification text")
		return
	}
	log.Error().Err(err).Msg("fix processing error")
}
