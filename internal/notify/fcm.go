package notify

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/messaging"
)

// FCMPusher delivers push messages over Firebase Cloud Messaging.
type FCMPusher struct {
	client *messaging.Client
}

func NewFCMPusher(client *messaging.Client) *FCMPusher { return &FCMPusher{client: client} }

// Send delivers msg to the given device token. An unregistered token is
// reported as ErrTokenUnregistered so the dispatcher can repair it.
func (p *FCMPusher) Send(ctx context.Context, token string, msg PushMessage) error {
	_, err := p.client.Send(ctx, &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
	})
	if err == nil {
		return nil
	}
	if messaging.IsUnregistered(err) {
		return fmt.Errorf("%w: %v", ErrTokenUnregistered, err)
	}
	return err
}
