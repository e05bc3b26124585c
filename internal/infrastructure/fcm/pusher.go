// Package fcm sends push notifications through Firebase Cloud Messaging.
package fcm

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/sharinghood-api/internal/logging"
)

// FCM accepts at most this many tokens per multicast.
const multicastLimit = 500

type multicaster interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// Pusher sends notifications to device tokens.
type Pusher struct {
	client multicaster
}

// NewPusher initialises the Firebase app from a service account file.
func NewPusher(ctx context.Context, credentialsPath string) (*Pusher, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase messaging client: %w", err)
	}
	return &Pusher{client: client}, nil
}

// Send pushes title and body to every token. It returns the tokens FCM
// reported as unregistered so the caller can forget them.
//
// A failed batch is an error only while no earlier or later batch has
// delivered anything; otherwise it is logged, since retrying the whole send
// would push twice to the devices that already got it.
func (p *Pusher) Send(ctx context.Context, tokens []string, title, body string, data map[string]string) ([]string, error) {
	var (
		stale     []string
		delivered int
		failure   error
	)
	for start := 0; start < len(tokens); start += multicastLimit {
		end := start + multicastLimit
		if end > len(tokens) {
			end = len(tokens)
		}
		batch := tokens[start:end]
		resp, err := p.client.SendEachForMulticast(ctx, buildMessage(batch, title, body, data))
		if err != nil {
			failure = fmt.Errorf("fcm multicast: %w", err)
			continue
		}
		bad, failed := inspect(batch, resp)
		stale = append(stale, bad...)
		delivered += resp.SuccessCount
		if failed > 0 && failed == len(batch)-len(bad) && resp.SuccessCount == 0 {
			failure = fmt.Errorf("fcm: all %d deliveries failed", failed)
		}
	}
	if failure == nil {
		return stale, nil
	}
	if delivered == 0 {
		return stale, failure
	}
	logging.Ctx(ctx).Warn().Err(failure).Int("delivered", delivered).Int("tokens", len(tokens)).
		Msg("push partially delivered")
	return stale, nil
}

func buildMessage(tokens []string, title, body string, data map[string]string) *messaging.MulticastMessage {
	return &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound: "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}
}

// inspect returns the unregistered tokens of a batch and the number of other failures.
func inspect(tokens []string, resp *messaging.BatchResponse) (stale []string, failed int) {
	for i, r := range resp.Responses {
		if r.Success || i >= len(tokens) {
			continue
		}
		if messaging.IsUnregistered(r.Error) {
			stale = append(stale, tokens[i])
			continue
		}
		failed++
	}
	return stale, failed
}
