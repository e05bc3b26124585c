package activity

import (
	"context"

	"github.com/sharinghood-api/internal/logging"
	"github.com/sharinghood-api/internal/metrics"
)

type counter interface {
	Increment(ctx context.Context, userID, communityID string)
}

type publisher interface {
	Publish(ctx context.Context, topic string, v interface{}) error
}

// Notifier runs after the relational write of a mutation has succeeded.
// Nothing it does can fail the mutation.
type Notifier struct {
	counter counter
	queue   publisher
}

func NewNotifier(c counter, q publisher) *Notifier {
	return &Notifier{counter: c, queue: q}
}

// Notify bumps the unread counter of every recipient except the actor and
// enqueues their email, push and, for bookings, SMS deliveries.
func (n *Notifier) Notify(ctx context.Context, ev Event) {
	seen := make(map[string]bool, len(ev.RecipientIDs))
	for _, rid := range ev.RecipientIDs {
		if rid == "" || rid == ev.ActorID || seen[rid] {
			continue
		}
		seen[rid] = true

		n.counter.Increment(ctx, rid, ev.CommunityID)

		d := Delivery{
			Kind:        ev.Kind,
			CommunityID: ev.CommunityID,
			ActorID:     ev.ActorID,
			RecipientID: rid,
			RefID:       ev.RefID,
			ItemTitle:   ev.ItemTitle,
			Status:      ev.Status,
			Text:        ev.Text,
		}
		n.enqueue(ctx, TopicEmail, d)
		n.enqueue(ctx, TopicPush, d)
		if smsKinds[ev.Kind] {
			n.enqueue(ctx, TopicSMS, d)
		}
	}
}

func (n *Notifier) enqueue(ctx context.Context, topic string, d Delivery) {
	if err := n.queue.Publish(ctx, topic, d); err != nil {
		logging.Ctx(ctx).Error().Err(err).
			Str("topic", topic).
			Str("kind", d.Kind).
			Str("recipient_id", d.RecipientID).
			Msg("could not enqueue side effect")
		metrics.RecordSideEffect(topic, "dropped")
	}
}
