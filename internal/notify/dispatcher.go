package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/reunipet/reunipet/internal/model"
	"github.com/reunipet/reunipet/internal/store"
)

// Notifier identifies the user behind a manual interaction.
type Notifier struct {
	FullName string
	Email    string
}

// Dispatcher resolves record owners and fans a notification out to e-mail and
// push. Push failures never propagate; unregistered-token failures trigger
// stale-token repair.
type Dispatcher struct {
	store  store.Store
	mailer Mailer
	pusher Pusher
}

func NewDispatcher(st store.Store, mailer Mailer, pusher Pusher) *Dispatcher {
	return &Dispatcher{store: st, mailer: mailer, pusher: pusher}
}

// NotifyMatch tells the owner of matchedRecordID that newRecord looks like
// their pet. It runs inside the fire-and-forget matching path, so e-mail
// failures are logged and swallowed; only owner resolution errors surface.
func (d *Dispatcher) NotifyMatch(ctx context.Context, matchedRecordID string, newRecord *model.PetRecord) error {
	_, owner, err := d.resolveOwner(ctx, matchedRecordID)
	if err != nil {
		return err
	}

	subject := "Good news! We found a possible match for your pet"
	html := fmt.Sprintf(`<h1>Match found!</h1>
<p>Hello,</p>
<p>Our system found a possible match for your pet.</p>
<p><strong>Matched report:</strong></p>
<ul>
  <li><strong>Name:</strong> %s</li>
  <li><strong>Description:</strong> %s</li>
</ul>
<p>Open the app for details and to contact the reporter.</p>`,
		orDefault(newRecord.Name, "not provided"), orDefault(newRecord.Description, "not provided"))

	if err := d.mailer.Send(ctx, owner.Email, subject, html); err != nil {
		log.Error().Err(err).Str("recordId", matchedRecordID).Msg("match e-mail failed")
	}

	if owner.FCMToken != nil {
		d.sendPush(ctx, *owner.FCMToken, PushMessage{
			Title: "Match found!",
			Body:  "A possible match for your pet was found. Tap to see the details.",
			Data:  map[string]string{"petId": newRecord.ID, "screen": "/match-details"},
		})
	}
	return nil
}

// NotifyOwner tells the owner of recordID about a manual interaction
// ("this is my pet" / "I found this pet"). The caller is waiting on the
// result, so e-mail failures propagate; a missing record or owner surfaces as
// model.ErrNotFound.
func (d *Dispatcher) NotifyOwner(ctx context.Context, recordID string, notifier Notifier, message string) error {
	pet, owner, err := d.resolveOwner(ctx, recordID)
	if err != nil {
		return err
	}

	subject := "Someone interacted with your pet report!"
	html := fmt.Sprintf(`<h1>About your pet report</h1>
<p>Hello, %s,</p>
<p>User <strong>%s</strong> (%s) %s.</p>
<p><strong>Report:</strong></p>
<ul>
  <li><strong>Name:</strong> %s</li>
  <li><strong>Description:</strong> %s</li>
</ul>
<p>Open the app to see the details.</p>`,
		orDefault(owner.FullName, "pet owner"), notifier.FullName, notifier.Email, message,
		orDefault(pet.Name, "not provided"), orDefault(pet.Description, "not provided"))

	if err := d.mailer.Send(ctx, owner.Email, subject, html); err != nil {
		return fmt.Errorf("send interaction e-mail: %w", err)
	}

	if owner.FCMToken != nil {
		d.sendPush(ctx, *owner.FCMToken, PushMessage{
			Title: "Interaction on your pet report!",
			Body:  fmt.Sprintf("User %s %s. Tap for details.", notifier.FullName, message),
			Data:  map[string]string{"petId": pet.ID, "screen": "/pet-details"},
		})
	}
	return nil
}

// sendPush delivers best-effort. An unregistered-token failure repairs every
// profile holding that token value; all other failures are logged only.
func (d *Dispatcher) sendPush(ctx context.Context, token string, msg PushMessage) {
	err := d.pusher.Send(ctx, token, msg)
	if err == nil {
		return
	}
	if errors.Is(err, ErrTokenUnregistered) {
		n, repairErr := d.store.Users().ClearPushToken(ctx, token)
		if repairErr != nil {
			log.Error().Err(repairErr).Msg("stale push token repair failed")
			return
		}
		log.Info().Int("profilesCleared", n).Msg("stale push token removed")
		return
	}
	log.Error().Err(err).Msg("push notification failed")
}

// resolveOwner loads the record once and its owner's profile. The profile
// carries the delivery e-mail and the optional push token.
func (d *Dispatcher) resolveOwner(ctx context.Context, recordID string) (*model.PetRecord, *model.UserProfile, error) {
	pet, err := d.store.Pets().Get(ctx, recordID)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve record %s: %w", recordID, err)
	}
	owner, err := d.store.Users().Get(ctx, pet.OwnerID)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve owner of record %s: %w", recordID, err)
	}
	if owner.Email == "" {
		return nil, nil, fmt.Errorf("owner %s has no e-mail: %w", pet.OwnerID, model.ErrNotFound)
	}
	return pet, owner, nil
}

func orDefault(s, dflt string) string {
	if s == "" {
		return dflt
	}
	return s
}
