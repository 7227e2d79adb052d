package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/reunipet/reunipet/internal/model"
	"github.com/reunipet/reunipet/internal/store"
)

// --- Fakes ---

type fakeStore struct {
	pets  map[string]*model.PetRecord
	users map[string]*model.UserProfile

	petGets int

	clearedToken  string
	clearedCount  int
	clearCalled   bool
	clearTokenErr error
}

func (f *fakeStore) Pets() store.Pets   { return &fakePets{f} }
func (f *fakeStore) Users() store.Users { return &fakeUsers{f} }

type fakePets struct{ p *fakeStore }

func (p *fakePets) Create(context.Context, *model.PetRecord) (*model.PetRecord, error) {
	panic("unused")
}
func (p *fakePets) Get(_ context.Context, id string) (*model.PetRecord, error) {
	p.p.petGets++
	rec, ok := p.p.pets[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return rec, nil
}
func (p *fakePets) SetFaceID(context.Context, string, string) error { panic("unused") }
func (p *fakePets) List(context.Context, model.ListPetsRequest) ([]*model.PetRecord, error) {
	panic("unused")
}
func (p *fakePets) Delete(context.Context, string) error        { panic("unused") }
func (p *fakePets) DeleteBatch(context.Context, []string) error { panic("unused") }

type fakeUsers struct{ p *fakeStore }

func (u *fakeUsers) Upsert(context.Context, *model.UserProfile) error { panic("unused") }
func (u *fakeUsers) Get(_ context.Context, userID string) (*model.UserProfile, error) {
	prof, ok := u.p.users[userID]
	if !ok {
		return nil, model.ErrNotFound
	}
	return prof, nil
}
func (u *fakeUsers) Update(context.Context, string, model.UserProfileUpdate) error {
	panic("unused")
}
func (u *fakeUsers) ClearPushToken(_ context.Context, token string) (int, error) {
	u.p.clearCalled = true
	u.p.clearedToken = token
	if u.p.clearTokenErr != nil {
		return 0, u.p.clearTokenErr
	}
	// Simulate clearing the token from every profile holding this value.
	n := 0
	for _, prof := range u.p.users {
		if prof.FCMToken != nil && *prof.FCMToken == token {
			prof.FCMToken = nil
			n++
		}
	}
	u.p.clearedCount = n
	return n, nil
}

type fakeMailer struct {
	sent []struct{ to, subject, html string }
	err  error
}

func (m *fakeMailer) Send(_ context.Context, to, subject, html string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, struct{ to, subject, html string }{to, subject, html})
	return nil
}

type fakePusher struct {
	sent []struct {
		token string
		msg   PushMessage
	}
	err error
}

func (p *fakePusher) Send(_ context.Context, token string, msg PushMessage) error {
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, struct {
		token string
		msg   PushMessage
	}{token, msg})
	return nil
}

func strptr(s string) *string { return &s }

func seededStore() *fakeStore {
	return &fakeStore{
		pets: map[string]*model.PetRecord{
			"pet-1": {ID: "pet-1", OwnerID: "owner-1", Name: "Thor", Description: "brown boxer", Status: model.StatusLost},
		},
		users: map[string]*model.UserProfile{
			"owner-1": {UserID: "owner-1", FullName: "Ana", Email: "ana@example.com", FCMToken: strptr("tok-1")},
		},
	}
}

// --- Tests ---

func TestNotifyMatch_SendsEmailAndPush(t *testing.T) {
	st := seededStore()
	mailer := &fakeMailer{}
	pusher := &fakePusher{}
	d := NewDispatcher(st, mailer, pusher)

	newRec := &model.PetRecord{ID: "pet-2", Name: "Rex", Status: model.StatusFound}
	if err := d.NotifyMatch(context.Background(), "pet-1", newRec); err != nil {
		t.Fatalf("notify match: %v", err)
	}
	if len(mailer.sent) != 1 || mailer.sent[0].to != "ana@example.com" {
		t.Fatalf("email not delivered to owner: %+v", mailer.sent)
	}
	if !strings.Contains(mailer.sent[0].html, "Rex") {
		t.Fatal("email body missing the matched pet's name")
	}
	if len(pusher.sent) != 1 || pusher.sent[0].token != "tok-1" {
		t.Fatalf("push not delivered: %+v", pusher.sent)
	}
	if pusher.sent[0].msg.Data["petId"] != "pet-2" {
		t.Fatalf("push payload wrong: %+v", pusher.sent[0].msg.Data)
	}
}

func TestNotifyMatch_EmailFailureIsSwallowed(t *testing.T) {
	st := seededStore()
	mailer := &fakeMailer{err: errors.New("sendgrid 500")}
	pusher := &fakePusher{}
	d := NewDispatcher(st, mailer, pusher)

	newRec := &model.PetRecord{ID: "pet-2"}
	if err := d.NotifyMatch(context.Background(), "pet-1", newRec); err != nil {
		t.Fatalf("email failure must not surface in the match path, got %v", err)
	}
	// Push still goes out.
	if len(pusher.sent) != 1 {
		t.Fatal("push skipped after email failure")
	}
}

func TestNotifyMatch_MissingOwnerSurfaces(t *testing.T) {
	st := seededStore()
	delete(st.users, "owner-1")
	d := NewDispatcher(st, &fakeMailer{}, &fakePusher{})

	err := d.NotifyMatch(context.Background(), "pet-1", &model.PetRecord{ID: "pet-2"})
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestNotifyMatch_NoPushWithoutToken(t *testing.T) {
	st := seededStore()
	st.users["owner-1"].FCMToken = nil
	pusher := &fakePusher{}
	d := NewDispatcher(st, &fakeMailer{}, pusher)

	if err := d.NotifyMatch(context.Background(), "pet-1", &model.PetRecord{ID: "pet-2"}); err != nil {
		t.Fatalf("notify match: %v", err)
	}
	if len(pusher.sent) != 0 {
		t.Fatal("push sent although the owner has no token")
	}
}

func TestSendPush_UnregisteredTokenClearsEveryHolder(t *testing.T) {
	st := seededStore()
	// A second profile holds the same stale token value.
	st.users["owner-2"] = &model.UserProfile{
		UserID: "owner-2", FullName: "Bia", Email: "bia@example.com", FCMToken: strptr("tok-1"),
	}
	pusher := &fakePusher{err: fmt.Errorf("%w: requested entity was not found", ErrTokenUnregistered)}
	d := NewDispatcher(st, &fakeMailer{}, pusher)

	if err := d.NotifyMatch(context.Background(), "pet-1", &model.PetRecord{ID: "pet-2"}); err != nil {
		t.Fatalf("push failure must never surface, got %v", err)
	}
	if !st.clearCalled || st.clearedToken != "tok-1" {
		t.Fatalf("token repair not triggered: called=%v token=%q", st.clearCalled, st.clearedToken)
	}
	if st.clearedCount != 2 {
		t.Fatalf("repair cleared %d profiles, want 2", st.clearedCount)
	}
}

func TestSendPush_OtherFailuresAreLoggedOnly(t *testing.T) {
	st := seededStore()
	pusher := &fakePusher{err: errors.New("fcm unavailable")}
	d := NewDispatcher(st, &fakeMailer{}, pusher)

	if err := d.NotifyMatch(context.Background(), "pet-1", &model.PetRecord{ID: "pet-2"}); err != nil {
		t.Fatalf("push failure must never surface, got %v", err)
	}
	if st.clearCalled {
		t.Fatal("token repair triggered for a non-token failure")
	}
}

func TestNotifyOwner_SendsInteractionEmail(t *testing.T) {
	st := seededStore()
	mailer := &fakeMailer{}
	d := NewDispatcher(st, mailer, &fakePusher{})

	notifier := Notifier{FullName: "Carlos", Email: "carlos@example.com"}
	if err := d.NotifyOwner(context.Background(), "pet-1", notifier, "claims this is their pet"); err != nil {
		t.Fatalf("notify owner: %v", err)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("want 1 email, got %d", len(mailer.sent))
	}
	body := mailer.sent[0].html
	for _, want := range []string{"Carlos", "carlos@example.com", "Thor"} {
		if !strings.Contains(body, want) {
			t.Fatalf("email body missing %q", want)
		}
	}
}

func TestNotifyOwner_LoadsRecordOnce(t *testing.T) {
	st := seededStore()
	d := NewDispatcher(st, &fakeMailer{}, &fakePusher{})

	if err := d.NotifyOwner(context.Background(), "pet-1", Notifier{FullName: "Carlos"}, "msg"); err != nil {
		t.Fatalf("notify owner: %v", err)
	}
	if st.petGets != 1 {
		t.Fatalf("record loaded %d times, want 1", st.petGets)
	}
}

func TestNotifyOwner_EmailFailurePropagates(t *testing.T) {
	st := seededStore()
	d := NewDispatcher(st, &fakeMailer{err: errors.New("sendgrid 500")}, &fakePusher{})

	err := d.NotifyOwner(context.Background(), "pet-1", Notifier{FullName: "Carlos"}, "msg")
	if err == nil {
		t.Fatal("email failure must propagate in the manual path")
	}
}

func TestNotifyOwner_MissingRecordIsNotFound(t *testing.T) {
	st := seededStore()
	mailer := &fakeMailer{}
	d := NewDispatcher(st, mailer, &fakePusher{})

	err := d.NotifyOwner(context.Background(), "nope", Notifier{}, "msg")
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if len(mailer.sent) != 0 {
		t.Fatal("email sent for a missing record")
	}
}

func TestResolveOwner_EmptyEmailIsNotFound(t *testing.T) {
	st := seededStore()
	st.users["owner-1"].Email = ""
	d := NewDispatcher(st, &fakeMailer{}, &fakePusher{})

	err := d.NotifyOwner(context.Background(), "pet-1", Notifier{}, "msg")
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("want ErrNotFound for e-mail-less owner, got %v", err)
	}
}
