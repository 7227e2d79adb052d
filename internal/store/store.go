package store

import (
	"context"

	"github.com/reunipet/reunipet/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (e.g., postgres).
type Store interface {
	Pets() Pets
	Users() Users
}

// Pets is keyed storage for pet records. SetFaceID is a single-field update;
// it must not clobber fields written concurrently. DeleteBatch removes all
// given records atomically.
type Pets interface {
	Create(ctx context.Context, p *model.PetRecord) (*model.PetRecord, error)
	Get(ctx context.Context, id string) (*model.PetRecord, error)
	SetFaceID(ctx context.Context, id, faceID string) error
	List(ctx context.Context, req model.ListPetsRequest) ([]*model.PetRecord, error)
	Delete(ctx context.Context, id string) error
	DeleteBatch(ctx context.Context, ids []string) error
}

// Users is keyed storage for user profiles. Upsert merges non-zero fields into
// an existing profile or creates one. ClearPushToken removes the given FCM
// token from every profile holding it and reports how many were cleared.
type Users interface {
	Upsert(ctx context.Context, u *model.UserProfile) error
	Get(ctx context.Context, userID string) (*model.UserProfile, error)
	Update(ctx context.Context, userID string, upd model.UserProfileUpdate) error
	ClearPushToken(ctx context.Context, token string) (int, error)
}
