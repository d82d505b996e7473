package handlers

import (
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sportlog/backend/internal/middleware"
	"github.com/sportlog/backend/internal/store"
)

// maxPhotoSize is the activity photo size cap.
const maxPhotoSize = 5 << 20 // 5 MB

// activityRequest is the JSON shape shared by create and update. Pointers
// distinguish "absent" from "zero" so PUT can be partial. durationMinutes
// accepts either a JSON number or a numeric string, because form submissions
// and hand-written clients send both.
type activityRequest struct {
	Date            *string      `json:"date"`
	Sport           *string      `json:"sport"`
	DurationMinutes *json.Number `json:"durationMinutes"`
	Intensity       *string      `json:"intensity"`
	Notes           *string      `json:"notes"`
	IsPublic        interface{}  `json:"isPublic"`
}

// parseActivityRequest reads the payload from either a JSON body or a
// multipart form, so both submission paths feed the same validation.
// The returned file header is the uploaded photo, if any.
func parseActivityRequest(r *http.Request) (*activityRequest, *multipart.FileHeader, error) {
	contentType := r.Header.Get("Content-Type")
	if !strings.Contains(contentType, "multipart/form-data") {
		var req activityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, nil, fmt.Errorf("invalid request body")
		}
		return &req, nil, nil
	}

	if err := r.ParseMultipartForm(maxPhotoSize + 1<<20); err != nil {
		return nil, nil, fmt.Errorf("invalid multipart form")
	}

	var req activityRequest
	formValue := func(key string) *string {
		if values, ok := r.MultipartForm.Value[key]; ok && len(values) > 0 {
			v := values[0]
			return &v
		}
		return nil
	}

	req.Date = formValue("date")
	req.Sport = formValue("sport")
	req.Intensity = formValue("intensity")
	req.Notes = formValue("notes")
	if v := formValue("durationMinutes"); v != nil {
		n := json.Number(*v)
		req.DurationMinutes = &n
	}
	if v := formValue("isPublic"); v != nil {
		req.IsPublic = *v
	}

	var photo *multipart.FileHeader
	if files, ok := r.MultipartForm.File["photo"]; ok && len(files) > 0 {
		photo = files[0]
	}
	return &req, photo, nil
}

// visibilityToken renders the polymorphic isPublic value as a token for
// store.ParseVisibility. Returns "" when the field was absent.
func visibilityToken(v interface{}) string {
	switch value := v.(type) {
	case nil:
		return ""
	case bool:
		return strconv.FormatBool(value)
	case string:
		return value
	default:
		return fmt.Sprintf("%v", value)
	}
}

func (h *Handler) uploadPhoto(r *http.Request, photo *multipart.FileHeader) (string, int, error) {
	if photo == nil {
		return "", 0, nil
	}
	if h.Photos == nil {
		return "", http.StatusServiceUnavailable, fmt.Errorf("Photo uploads are not available.")
	}
	if photo.Size > maxPhotoSize {
		return "", http.StatusBadRequest, fmt.Errorf("Photo must be smaller than 5 MB.")
	}
	if !strings.HasPrefix(photo.Header.Get("Content-Type"), "image/") {
		return "", http.StatusBadRequest, fmt.Errorf("Only image uploads are allowed.")
	}

	url, err := h.Photos.UploadFromHeader(r.Context(), photo)
	if err != nil {
		return "", http.StatusInternalServerError, fmt.Errorf("Failed to upload photo.")
	}
	return url, 0, nil
}

// ListActivities returns the caller's own activities, newest first.
func (h *Handler) ListActivities(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	activities, err := h.Activities.ListByOwner(r.Context(), userID)
	if err != nil {
		respondStoreError(w, err, "")
		return
	}
	respondData(w, http.StatusOK, activities)
}

// PublicFeed returns the enriched community feed.
func (h *Handler) PublicFeed(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	entries, err := h.Feed.PublicFeed(r.Context(), userID)
	if err != nil {
		respondStoreError(w, err, "")
		return
	}
	respondData(w, http.StatusOK, entries)
}

// CreateActivity logs a new workout for the caller.
func (h *Handler) CreateActivity(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	req, photo, err := parseActivityRequest(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	in := store.ActivityInput{
		IsPublic: store.ParseVisibility(visibilityToken(req.IsPublic), false),
	}
	if req.Date != nil {
		in.Date = *req.Date
	}
	if req.Sport != nil {
		in.Sport = *req.Sport
	}
	if req.Intensity != nil {
		in.Intensity = *req.Intensity
	}
	if req.Notes != nil {
		in.Notes = *req.Notes
	}
	if req.DurationMinutes != nil {
		minutes, err := req.DurationMinutes.Int64()
		if err != nil {
			respondError(w, http.StatusBadRequest, "durationMinutes must be a positive number.")
			return
		}
		in.DurationMinutes = int(minutes)
	}

	// Validate before touching photo storage so a bad payload never
	// leaves an orphaned upload behind.
	if err := store.ValidateActivityInput(&in); err != nil {
		respondStoreError(w, err, "")
		return
	}

	photoURL, status, err := h.uploadPhoto(r, photo)
	if err != nil {
		respondError(w, status, err.Error())
		return
	}
	in.PhotoURL = photoURL

	activity, err := h.Activities.Create(r.Context(), userID, in)
	if err != nil {
		respondStoreError(w, err, "")
		return
	}

	if h.Live != nil && activity.IsPublic {
		if user, err := h.Users.GetByID(r.Context(), userID); err == nil {
			activity.OwnerName = user.DisplayName
		}
		h.Live.Publish(r.Context(), activity)
	}

	respondData(w, http.StatusCreated, activity)
}

// UpdateActivity applies a partial update to one of the caller's activities.
func (h *Handler) UpdateActivity(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	activityID, err := uuid.Parse(chi.URLParam(r, "activityId"))
	if err != nil {
		respondError(w, http.StatusNotFound, "Activity not found.")
		return
	}

	req, photo, err := parseActivityRequest(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	upd := store.ActivityUpdate{
		Date:      req.Date,
		Sport:     req.Sport,
		Intensity: req.Intensity,
		Notes:     req.Notes,
	}
	if req.DurationMinutes != nil {
		minutes, err := req.DurationMinutes.Int64()
		if err != nil {
			respondError(w, http.StatusBadRequest, "durationMinutes must be a positive number.")
			return
		}
		m := int(minutes)
		upd.DurationMinutes = &m
	}
	if req.IsPublic != nil {
		isPublic := store.ParseVisibility(visibilityToken(req.IsPublic), false)
		upd.IsPublic = &isPublic
	}
	if err := store.ValidateActivityUpdate(&upd); err != nil {
		respondStoreError(w, err, "")
		return
	}

	photoURL, status, err := h.uploadPhoto(r, photo)
	if err != nil {
		respondError(w, status, err.Error())
		return
	}
	if photoURL != "" {
		upd.PhotoURL = &photoURL
	}

	activity, replacedPhoto, err := h.Activities.Update(r.Context(), userID, activityID, upd)
	if err != nil {
		respondStoreError(w, err, "Activity not found.")
		return
	}
	if replacedPhoto != "" && h.Photos != nil {
		h.Photos.ReleaseAsync(replacedPhoto)
	}

	respondData(w, http.StatusOK, activity)
}

// DeleteActivity removes one of the caller's activities and releases its
// photo.
func (h *Handler) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	activityID, err := uuid.Parse(chi.URLParam(r, "activityId"))
	if err != nil {
		respondError(w, http.StatusNotFound, "Activity not found.")
		return
	}

	photoURL, err := h.Activities.Delete(r.Context(), userID, activityID)
	if err != nil {
		respondStoreError(w, err, "Activity not found.")
		return
	}
	if photoURL != "" && h.Photos != nil {
		h.Photos.ReleaseAsync(photoURL)
	}

	respondData(w, http.StatusOK, map[string]interface{}{"id": activityID.String()})
}
