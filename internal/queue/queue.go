// Package queue runs best-effort background deliveries on an in-process
// watermill router. A failing handler is retried with exponential backoff
// and then dropped: the failure is logged and counted, never redelivered.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sharinghood-api/internal/logging"
	"github.com/sharinghood-api/internal/metrics"
)

const requestIDKey = "request_id"

type Config struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	CloseTimeout    time.Duration
	Buffer          int64
}

func (c *Config) withDefaults() {
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.InitialInterval <= 0 {
		c.InitialInterval = 500 * time.Millisecond
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = 10 * time.Second
	}
	if c.CloseTimeout <= 0 {
		c.CloseTimeout = 10 * time.Second
	}
	if c.Buffer <= 0 {
		c.Buffer = 256
	}
}

// HandlerFunc processes one JSON payload.
type HandlerFunc func(ctx context.Context, payload []byte) error

type Queue struct {
	pubSub *gochannel.GoChannel
	router *message.Router
	logger watermill.LoggerAdapter
}

func New(cfg Config) (*Queue, error) {
	cfg.withDefaults()
	logger := logging.NewWatermillAdapter()

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: cfg.CloseTimeout}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	// Outermost first: drop after retries, then recover panics, then retry.
	router.AddMiddleware(dropFailed)
	router.AddMiddleware(middleware.Recoverer)
	router.AddMiddleware(middleware.Retry{
		MaxRetries:      cfg.MaxRetries,
		InitialInterval: cfg.InitialInterval,
		MaxInterval:     cfg.MaxInterval,
		Multiplier:      2,
		Logger:          logger,
	}.Middleware)

	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: cfg.Buffer}, logger)
	return &Queue{pubSub: pubSub, router: router, logger: logger}, nil
}

// Handle registers fn as the consumer of topic. Handlers must be registered before Run.
func (q *Queue) Handle(topic string, fn HandlerFunc) {
	q.router.AddConsumerHandler(topic, topic, q.pubSub, func(msg *message.Message) error {
		ctx := msg.Context()
		if reqID := msg.Metadata.Get(requestIDKey); reqID != "" {
			ctx = context.WithValue(ctx, chimiddleware.RequestIDKey, reqID)
		}
		return fn(ctx, msg.Payload)
	})
}

// Publish encodes v as JSON and enqueues it on topic. The request id of ctx,
// if any, travels with the message; ctx cancellation does not.
func (q *Queue) Publish(ctx context.Context, topic string, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s task: %w", topic, err)
	}
	msg := message.NewMessage(watermill.NewUUID(), body)
	if reqID := chimiddleware.GetReqID(ctx); reqID != "" {
		msg.Metadata.Set(requestIDKey, reqID)
	}
	if err := q.pubSub.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Run blocks until ctx is done or Close is called.
func (q *Queue) Run(ctx context.Context) error {
	return q.router.Run(ctx)
}

// Start runs the router in the background until Close, detached from any
// caller context, and returns once every handler is subscribed. The returned
// channel is closed when the router has stopped.
func (q *Queue) Start() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := q.router.Run(context.Background()); err != nil {
			logging.Error().Err(err).Msg("side-effect queue stopped")
		}
	}()
	<-q.router.Running()
	return done
}

// Running is closed once every handler is subscribed.
func (q *Queue) Running() chan struct{} {
	return q.router.Running()
}

func (q *Queue) Close() error {
	if err := q.router.Close(); err != nil {
		return err
	}
	return q.pubSub.Close()
}

// dropFailed acks a message whose handler still fails after every retry.
// gochannel would otherwise redeliver a nacked message forever.
func dropFailed(h message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		topic := message.SubscribeTopicFromCtx(msg.Context())
		out, err := h(msg)
		if err != nil {
			logging.Ctx(msg.Context()).Error().Err(err).
				Str("topic", topic).
				Str("message_uuid", msg.UUID).
				Str(requestIDKey, msg.Metadata.Get(requestIDKey)).
				Msg("side effect dropped after retries")
			metrics.RecordSideEffect(topic, "dropped")
			return nil, nil
		}
		return out, nil
	}
}
