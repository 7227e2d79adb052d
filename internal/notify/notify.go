// Package notify delivers match and interaction notifications over e-mail and
// push, and self-heals stale push-delivery tokens discovered during delivery.
package notify

import (
	"context"
	"errors"
)

// ErrTokenUnregistered marks a push failure caused by an invalid or
// unregistered delivery token. The dispatcher reacts by clearing the token
// from every profile holding it.
var ErrTokenUnregistered = errors.New("push token unregistered")

// Mailer sends a single HTML e-mail.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

// PushMessage is a push notification payload.
type PushMessage struct {
	Title string
	Body  string
	Data  map[string]string
}

// Pusher delivers a push message to one device token. Implementations return
// an error matching ErrTokenUnregistered when the token is no longer valid.
type Pusher interface {
	Send(ctx context.Context, token string, msg PushMessage) error
}
