package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/reunipet/reunipet/internal/api/respond"
	"github.com/reunipet/reunipet/internal/auth"
	"github.com/reunipet/reunipet/internal/geo"
	"github.com/reunipet/reunipet/internal/media"
	"github.com/reunipet/reunipet/internal/model"
	"github.com/reunipet/reunipet/internal/notify"
	"github.com/reunipet/reunipet/internal/pipeline"
	"github.com/reunipet/reunipet/internal/store"
	"github.com/reunipet/reunipet/internal/vision"
)

// maxImageUploadBytes caps multipart image uploads.
const maxImageUploadBytes = 10 << 20

// PetHandler handles pet report HTTP requests (thin transport layer).
type PetHandler struct {
	store      store.Store
	vision     *vision.Service
	media      media.Store
	dispatcher *notify.Dispatcher
	pipeline   *pipeline.Worker
	fence      *geo.Fence // nil disables the coverage check
}

// NewPetHandler creates a new pet handler.
func NewPetHandler(st store.Store, vs *vision.Service, m media.Store, d *notify.Dispatcher, p *pipeline.Worker, fence *geo.Fence) *PetHandler {
	return &PetHandler{store: st, vision: vs, media: m, dispatcher: d, pipeline: p, fence: fence}
}

// CreatePet handles POST /api/pets. The record is validated, stored and
// acknowledged immediately; biometric analysis runs asynchronously and its
// failures never reach this response.
func (h *PetHandler) CreatePet(w http.ResponseWriter, r *http.Request) {
	subject := auth.SubjectFrom(r.Context())
	if subject == nil {
		respond.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	image, filename, contentType, err := readImageUpload(r)
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	status := r.FormValue("status")
	if status != model.StatusLost && status != model.StatusFound {
		respond.WriteBadRequest(w, "status must be 'lost' or 'found'")
		return
	}

	var location *model.Location
	if raw := r.FormValue("location"); raw != "" {
		var loc model.Location
		if err := json.Unmarshal([]byte(raw), &loc); err != nil {
			respond.WriteBadRequest(w, "location must be a JSON object with latitude and longitude")
			return
		}
		location = &loc
	}
	if location != nil && h.fence != nil && !h.fence.Contains(location.Latitude, location.Longitude) {
		respond.WriteBadRequest(w, "the location is outside the service coverage area")
		return
	}

	isPet, err := h.vision.ValidateIsPet(r.Context(), image)
	if err != nil {
		log.Error().Err(err).Msg("image validation failed")
		respond.WriteInternalError(w, "could not analyze the image")
		return
	}
	if !isPet {
		respond.WriteBadRequest(w, "the image does not appear to contain an animal")
		return
	}

	ownerName := ""
	if profile, err := h.store.Users().Get(r.Context(), subject.UID); err == nil {
		ownerName = profile.FullName
	}

	imageURL, err := h.media.Upload(r.Context(), filename, contentType, image)
	if err != nil {
		log.Error().Err(err).Msg("media upload failed")
		respond.WriteInternalError(w, "could not store the image")
		return
	}

	rec := &model.PetRecord{
		OwnerID:         subject.UID,
		OwnerName:       ownerName,
		Name:            r.FormValue("name"),
		Description:     r.FormValue("description"),
		Status:          status,
		AnimalType:      r.FormValue("animalType"),
		Size:            r.FormValue("size"),
		ImageURL:        imageURL,
		Characteristics: h.vision.ExtractCharacteristics(r.Context(), image),
		Colors:          splitCSV(r.FormValue("colors")),
		Location:        location,
	}
	saved, err := h.store.Pets().Create(r.Context(), rec)
	if err != nil {
		log.Error().Err(err).Msg("pet record create failed")
		respond.WriteInternalError(w, "could not save the pet report")
		return
	}

	h.pipeline.Submit(pipeline.Job{Record: saved, Image: image})

	respond.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "pet report received; the image is being processed for similarity search",
		"pet":     saved,
	})
}

// ListPets handles GET /api/pets with status, animalType, size,
// characteristics and colors filters.
func (h *PetHandler) ListPets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := model.ListPetsRequest{
		Status:          q.Get("status"),
		AnimalType:      q.Get("animalType"),
		Size:            q.Get("size"),
		Characteristics: splitCSV(q.Get("characteristics")),
		Colors:          splitCSV(q.Get("colors")),
	}
	pets, err := h.store.Pets().List(r.Context(), req)
	if err != nil {
		log.Error().Err(err).Msg("pet list failed")
		respond.WriteInternalError(w, "could not list pet reports")
		return
	}
	if pets == nil {
		pets = []*model.PetRecord{}
	}
	respond.WriteJSON(w, http.StatusOK, pets)
}

// DeletePet handles DELETE /api/pets/{petId}. Only the owner may delete a
// report; its media is removed best-effort before the record.
func (h *PetHandler) DeletePet(w http.ResponseWriter, r *http.Request) {
	subject := auth.SubjectFrom(r.Context())
	if subject == nil {
		respond.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	petID := mux.Vars(r)["petId"]

	rec, err := h.store.Pets().Get(r.Context(), petID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			respond.WriteNotFound(w, "pet report not found")
			return
		}
		respond.WriteInternalError(w, err.Error())
		return
	}
	if rec.OwnerID != subject.UID {
		respond.WriteForbidden(w, "you are not the owner of this report")
		return
	}

	if rec.ImageURL != "" {
		if err := h.media.Delete(r.Context(), rec.ImageURL); err != nil {
			log.Warn().Err(err).Str("recordId", petID).Msg("media delete failed, deleting record anyway")
		}
	}
	if err := h.store.Pets().Delete(r.Context(), petID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			respond.WriteNotFound(w, "pet report not found")
			return
		}
		respond.WriteInternalError(w, err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"message": "report deleted"})
}

// NotifyOwner handles POST /api/pets/{petId}/notify: a manual "this is my
// pet" / "I found this pet" interaction.
func (h *PetHandler) NotifyOwner(w http.ResponseWriter, r *http.Request) {
	subject := auth.SubjectFrom(r.Context())
	if subject == nil {
		respond.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	petID := mux.Vars(r)["petId"]

	var in struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}

	notifier := notify.Notifier{FullName: "An anonymous user", Email: subject.Email}
	if profile, err := h.store.Users().Get(r.Context(), subject.UID); err == nil && profile.FullName != "" {
		notifier.FullName = profile.FullName
	}

	if err := h.dispatcher.NotifyOwner(r.Context(), petID, notifier, in.Message); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			respond.WriteNotFound(w, "pet report not found")
			return
		}
		log.Error().Err(err).Str("recordId", petID).Msg("manual notification failed")
		respond.WriteInternalError(w, "could not send the notification")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"message": "notification sent"})
}

// FilterByImage handles POST /api/pets/filter-by-image: validates the photo
// and returns its characteristics so the client can filter listings by them.
func (h *PetHandler) FilterByImage(w http.ResponseWriter, r *http.Request) {
	image, _, _, err := readImageUpload(r)
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	isPet, err := h.vision.ValidateIsPet(r.Context(), image)
	if err != nil {
		log.Error().Err(err).Msg("image validation failed")
		respond.WriteInternalError(w, "could not analyze the image")
		return
	}
	if !isPet {
		respond.WriteBadRequest(w, "the image does not appear to contain an animal")
		return
	}

	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"characteristics": h.vision.ExtractCharacteristics(r.Context(), image),
	})
}

// readImageUpload parses the multipart form and returns the "image" part.
func readImageUpload(r *http.Request) (data []byte, filename, contentType string, err error) {
	if err := r.ParseMultipartForm(maxImageUploadBytes); err != nil {
		return nil, "", "", errors.New("expected a multipart form with an image")
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		return nil, "", "", errors.New("the image is required")
	}
	defer func() { _ = file.Close() }()

	data, err = io.ReadAll(io.LimitReader(file, maxImageUploadBytes))
	if err != nil {
		return nil, "", "", errors.New("could not read the image")
	}
	return data, header.Filename, header.Header.Get("Content-Type"), nil
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
