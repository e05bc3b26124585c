package redis

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/sharinghood-api/internal/domain"
	"github.com/sharinghood-api/internal/logging"
	"github.com/sharinghood-api/internal/metrics"
)

// MessageChannel carries every new chat message. Subscribers filter by notification id.
const MessageChannel = "NOTIFICATION_MESSAGE"

type Publisher struct {
	client *goredis.Client
}

func NewPublisher(client *goredis.Client) *Publisher {
	return &Publisher{client: client}
}

func (p *Publisher) PublishMessage(ctx context.Context, ev domain.MessageEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode message event: %w", err)
	}
	if err := p.client.Publish(ctx, MessageChannel, body).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", MessageChannel, err)
	}
	metrics.PubSubMessages.WithLabelValues("out").Inc()
	return nil
}

// Subscriber fans messages from MessageChannel into a local handler,
// so websocket clients on any instance receive them.
type Subscriber struct {
	client *goredis.Client
}

func NewSubscriber(client *goredis.Client) *Subscriber {
	return &Subscriber{client: client}
}

// Run blocks until ctx is done or the subscription fails.
func (s *Subscriber) Run(ctx context.Context, handle func(domain.MessageEvent)) error {
	ps := s.client.Subscribe(ctx, MessageChannel)
	defer ps.Close()

	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", MessageChannel, err)
	}
	logging.Info().Str("channel", MessageChannel).Msg("subscribed to message channel")

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("subscription to %s closed", MessageChannel)
			}
			var ev domain.MessageEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				logging.Warn().Err(err).Str("channel", MessageChannel).Msg("dropping undecodable message")
				continue
			}
			if ev.NotificationID == "" {
				continue
			}
			metrics.PubSubMessages.WithLabelValues("in").Inc()
			handle(ev)
		}
	}
}
