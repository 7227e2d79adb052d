package model

import "time"

// Report status values for a pet record. A record's status selects which
// biometric collection its photo is indexed into.
const (
	StatusLost  = "lost"
	StatusFound = "found"
)

// Location is a geographic point attached to a report.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// PetRecord is a lost/found report. FaceID is nil until the photo has been
// indexed into the biometric collection for the record's status; it is written
// at most once, by the matching pipeline.
type PetRecord struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"ownerId"`
	OwnerName       string    `json:"ownerName,omitempty"`
	Name            string    `json:"name,omitempty"`
	Description     string    `json:"description,omitempty"`
	Status          string    `json:"status"`
	AnimalType      string    `json:"animalType,omitempty"`
	Size            string    `json:"size,omitempty"`
	ImageURL        string    `json:"imageUrl"`
	FaceID          *string   `json:"faceId,omitempty"`
	Characteristics []string  `json:"characteristics,omitempty"`
	Colors          []string  `json:"colors,omitempty"`
	Location        *Location `json:"location,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// UserProfile mirrors the authentication subject; UserID equals the auth UID.
// FCMToken, when present, identifies a live push-delivery destination and is
// cleared by stale-token repair once delivery reports it unregistered.
type UserProfile struct {
	UserID    string    `json:"userId"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone,omitempty"`
	FCMToken  *string   `json:"fcmToken,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserProfileUpdate carries a partial profile update; nil fields are left
// untouched.
type UserProfileUpdate struct {
	FullName *string
	Phone    *string
	FCMToken *string
}

// ListPetsRequest captures filters used when listing pet records.
// Characteristics and Colors match records containing any of the given values.
type ListPetsRequest struct {
	Status          string
	AnimalType      string
	Size            string
	Characteristics []string
	Colors          []string
	CreatedBefore   *time.Time
}

// Match is the outcome of a biometric search: the opposite-collection record
// that scored highest, with its similarity on a 0-100 scale. It is consumed
// immediately by the notification step and never persisted.
type Match struct {
	RecordID   string  `json:"recordId"`
	Similarity float64 `json:"similarity"`
}
