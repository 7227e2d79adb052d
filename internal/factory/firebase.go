package factory

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"github.com/reunipet/reunipet/internal/auth"
	"github.com/reunipet/reunipet/internal/config"
	"github.com/reunipet/reunipet/internal/notify"
)

// NewFirebaseApp initializes the Firebase app the verifier and pusher share.
func NewFirebaseApp(ctx context.Context, cfg *config.Config) (*firebase.App, error) {
	fbCfg := &firebase.Config{ProjectID: cfg.FirebaseProjectID}
	var opts []option.ClientOption
	if cfg.FirebaseCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.FirebaseCredentialsFile))
	}
	app, err := firebase.NewApp(ctx, fbCfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase init failed: %w", err)
	}
	return app, nil
}

// NewVerifier returns the ID-token verifier backing the auth middleware.
func NewVerifier(ctx context.Context, app *firebase.App) (auth.Verifier, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth client failed: %w", err)
	}
	return auth.NewFirebaseVerifier(client), nil
}

// NewPusher returns the FCM-backed push sender.
func NewPusher(ctx context.Context, app *firebase.App) (notify.Pusher, error) {
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase messaging client failed: %w", err)
	}
	return notify.NewFCMPusher(client), nil
}
