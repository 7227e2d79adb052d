package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/reunipet/reunipet/internal/api/respond"
	"github.com/reunipet/reunipet/internal/auth"
	"github.com/reunipet/reunipet/internal/model"
	"github.com/reunipet/reunipet/internal/store"
)

// UserHandler handles user profile HTTP requests.
type UserHandler struct {
	store store.Store
}

// NewUserHandler creates a new user handler.
func NewUserHandler(st store.Store) *UserHandler {
	return &UserHandler{store: st}
}

// CreateProfile handles POST /api/users/profile.
func (h *UserHandler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	subject := auth.SubjectFrom(r.Context())
	if subject == nil {
		respond.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var in struct {
		FullName string  `json:"fullName"`
		Email    string  `json:"email"`
		Phone    *string `json:"phone"`
		FCMToken *string `json:"fcmToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	if in.FullName == "" || in.Email == "" {
		respond.WriteBadRequest(w, "fullName and email are required")
		return
	}

	profile := &model.UserProfile{
		UserID:   subject.UID,
		FullName: in.FullName,
		Email:    in.Email,
		Phone:    in.Phone,
		FCMToken: in.FCMToken,
	}
	if err := h.store.Users().Upsert(r.Context(), profile); err != nil {
		log.Error().Err(err).Msg("profile upsert failed")
		respond.WriteInternalError(w, "could not save the profile")
		return
	}
	respond.WriteJSON(w, http.StatusCreated, profile)
}

// UpdateProfile handles PUT /api/users/profile. Only the provided fields are
// changed.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	subject := auth.SubjectFrom(r.Context())
	if subject == nil {
		respond.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var in model.UserProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	if in.FullName == nil && in.Phone == nil && in.FCMToken == nil {
		respond.WriteBadRequest(w, "at least one field must be provided")
		return
	}

	if err := h.store.Users().Update(r.Context(), subject.UID, in); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			respond.WriteNotFound(w, "profile not found")
			return
		}
		log.Error().Err(err).Msg("profile update failed")
		respond.WriteInternalError(w, "could not update the profile")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"message": "profile updated"})
}
