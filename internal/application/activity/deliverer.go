package activity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sharinghood-api/internal/domain"
	"github.com/sharinghood-api/internal/infrastructure/smtp"
	"github.com/sharinghood-api/internal/logging"
	"github.com/sharinghood-api/internal/metrics"
	"github.com/sharinghood-api/internal/queue"
)

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type communityStore interface {
	Get(ctx context.Context, communityID string) (*domain.Community, error)
}

type deviceStore interface {
	PushTokens(ctx context.Context, userID string) ([]string, error)
	ClearToken(ctx context.Context, token string) error
}

type mailer interface {
	SendEmail(to, subject, body string) error
}

type pusher interface {
	Send(ctx context.Context, tokens []string, title, body string, data map[string]string) ([]string, error)
}

type smsSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

type registrar interface {
	Handle(topic string, fn queue.HandlerFunc)
}

// DelivererDeps wires the channels. Pusher and SMS may be nil when the
// corresponding provider is not configured.
type DelivererDeps struct {
	Users       userStore
	Communities communityStore
	Devices     deviceStore
	Mailer      mailer
	Pusher      pusher
	SMS         smsSender
}

// Deliverer consumes Delivery messages from the queue. Returning an error
// makes the queue retry; a delivery that cannot apply is skipped.
type Deliverer struct {
	deps DelivererDeps
}

func NewDeliverer(deps DelivererDeps) *Deliverer {
	return &Deliverer{deps: deps}
}

// Register subscribes one handler per channel.
func (d *Deliverer) Register(q registrar) {
	q.Handle(TopicEmail, d.decode(TopicEmail, d.email))
	q.Handle(TopicPush, d.decode(TopicPush, d.push))
	q.Handle(TopicSMS, d.decode(TopicSMS, d.sms))
}

var errSkip = errors.New("skip")

func (d *Deliverer) decode(topic string, fn func(context.Context, Delivery) error) queue.HandlerFunc {
	return func(ctx context.Context, payload []byte) error {
		var del Delivery
		if err := json.Unmarshal(payload, &del); err != nil {
			logging.Ctx(ctx).Error().Err(err).Str("topic", topic).Msg("undecodable delivery")
			metrics.RecordSideEffect(topic, "dropped")
			return nil
		}
		err := fn(ctx, del)
		switch {
		case errors.Is(err, errSkip):
			metrics.RecordSideEffect(topic, "skipped")
			return nil
		case err != nil:
			logging.Ctx(ctx).Warn().Err(err).Str("topic", topic).Str("kind", del.Kind).Str("recipient_id", del.RecipientID).Msg("delivery attempt failed")
			return err
		}
		metrics.RecordSideEffect(topic, "delivered")
		return nil
	}
}

func (d *Deliverer) email(ctx context.Context, del Delivery) error {
	recipient, err := d.recipient(ctx, del)
	if err != nil {
		return err
	}
	if !recipient.EmailNotify || recipient.Email == "" {
		return errSkip
	}
	subject, body, err := d.render(ctx, del, recipient)
	if err != nil {
		return err
	}
	return d.deps.Mailer.SendEmail(recipient.Email, subject, body)
}

func (d *Deliverer) push(ctx context.Context, del Delivery) error {
	if d.deps.Pusher == nil {
		return errSkip
	}
	tokens, err := d.deps.Devices.PushTokens(ctx, del.RecipientID)
	if err != nil {
		return fmt.Errorf("load push tokens: %w", err)
	}
	if len(tokens) == 0 {
		return errSkip
	}
	recipient, err := d.recipient(ctx, del)
	if err != nil {
		return err
	}
	title, _, err := d.render(ctx, del, recipient)
	if err != nil {
		return err
	}
	body := del.Text
	if body == "" {
		body = title
	}
	stale, err := d.deps.Pusher.Send(ctx, tokens, title, body, map[string]string{
		"kind":         del.Kind,
		"community_id": del.CommunityID,
		"ref_id":       del.RefID,
	})
	for _, tok := range stale {
		if cerr := d.deps.Devices.ClearToken(ctx, tok); cerr != nil {
			logging.Ctx(ctx).Warn().Err(cerr).Str("user_id", del.RecipientID).Msg("could not clear stale push token")
		}
	}
	return err
}

// sms texts booking events to recipients with a confirmed phone and no push device.
func (d *Deliverer) sms(ctx context.Context, del Delivery) error {
	if d.deps.SMS == nil {
		return errSkip
	}
	recipient, err := d.recipient(ctx, del)
	if err != nil {
		return err
	}
	if recipient.Phone == nil || !recipient.PhoneConfirmed {
		return errSkip
	}
	tokens, err := d.deps.Devices.PushTokens(ctx, del.RecipientID)
	if err != nil {
		return fmt.Errorf("load push tokens: %w", err)
	}
	if len(tokens) > 0 {
		return errSkip
	}
	subject, _, err := d.render(ctx, del, recipient)
	if err != nil {
		return err
	}
	return d.deps.SMS.SendSMS(ctx, *recipient.Phone, subject)
}

func (d *Deliverer) recipient(ctx context.Context, del Delivery) (*domain.User, error) {
	u, err := d.deps.Users.Get(ctx, del.RecipientID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, errSkip
	}
	if err != nil {
		return nil, fmt.Errorf("load recipient: %w", err)
	}
	if !u.Enable {
		return nil, errSkip
	}
	return u, nil
}

// render fills the template of del.Kind. A vanished actor or community
// renders with an empty name rather than blocking the delivery.
func (d *Deliverer) render(ctx context.Context, del Delivery, recipient *domain.User) (string, string, error) {
	data := smtp.TemplateData{
		RecipientName: recipient.Name,
		ItemTitle:     del.ItemTitle,
		Status:        del.Status,
		Text:          del.Text,
	}
	actor, err := d.deps.Users.Get(ctx, del.ActorID)
	switch {
	case err == nil:
		data.ActorName = actor.Name
	case !errors.Is(err, domain.ErrNotFound):
		return "", "", fmt.Errorf("load actor: %w", err)
	}
	community, err := d.deps.Communities.Get(ctx, del.CommunityID)
	switch {
	case err == nil:
		data.CommunityName = community.Name
	case !errors.Is(err, domain.ErrNotFound):
		return "", "", fmt.Errorf("load community: %w", err)
	}
	return smtp.Render(del.Kind, data)
}
