package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sportlog/backend/internal/middleware"
	"github.com/sportlog/backend/internal/store"
	"github.com/sportlog/backend/pkg/utils"
)

type FriendRequestRequest struct {
	Username string `json:"username"`
}

type BlockRequest struct {
	UserID string `json:"userId"`
}

// SendFriendRequest creates a pending friend request addressed by username.
func (h *Handler) SendFriendRequest(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	var req FriendRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if req.Username == "" {
		respondError(w, http.StatusBadRequest, "username is a required field.")
		return
	}

	target, err := h.Users.GetByUsername(r.Context(), utils.NormalizeUsername(req.Username))
	if err != nil {
		respondStoreError(w, err, "User not found.")
		return
	}

	request, err := h.Friends.CreateRequest(r.Context(), userID, target.ID)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			respondError(w, http.StatusConflict, "A friend request or friendship already exists.")
			return
		}
		respondStoreError(w, err, "User not found.")
		return
	}

	respondData(w, http.StatusCreated, request)
}

// ListFriendRequests returns the caller's pending requests, both directions.
func (h *Handler) ListFriendRequests(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	incoming, outgoing, err := h.Friends.ListRequests(r.Context(), userID)
	if err != nil {
		respondStoreError(w, err, "")
		return
	}
	respondData(w, http.StatusOK, map[string]interface{}{
		"incoming": incoming,
		"outgoing": outgoing,
	})
}

// AcceptFriendRequest accepts a pending request addressed to the caller.
func (h *Handler) AcceptFriendRequest(w http.ResponseWriter, r *http.Request) {
	h.resolveFriendRequest(w, r, h.Friends.AcceptRequest, "Friend request accepted.")
}

// RejectFriendRequest rejects a pending request addressed to the caller.
func (h *Handler) RejectFriendRequest(w http.ResponseWriter, r *http.Request) {
	h.resolveFriendRequest(w, r, h.Friends.RejectRequest, "Friend request rejected.")
}

func (h *Handler) resolveFriendRequest(w http.ResponseWriter, r *http.Request, resolve func(context.Context, uuid.UUID, uuid.UUID) error, message string) {
	userID, _ := middleware.UserID(r.Context())

	requestID, err := uuid.Parse(chi.URLParam(r, "requestId"))
	if err != nil {
		respondError(w, http.StatusNotFound, "Friend request not found.")
		return
	}

	if err := resolve(r.Context(), requestID, userID); err != nil {
		respondStoreError(w, err, "Friend request not found.")
		return
	}
	respondData(w, http.StatusOK, map[string]interface{}{"message": message})
}

// ListFriends returns the caller's accepted friends.
func (h *Handler) ListFriends(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	friends, err := h.Friends.ListFriends(r.Context(), userID)
	if err != nil {
		respondStoreError(w, err, "")
		return
	}
	respondData(w, http.StatusOK, friends)
}

// DeleteFriend removes a friendship; either side may do it.
func (h *Handler) DeleteFriend(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	friendID, err := uuid.Parse(chi.URLParam(r, "friendId"))
	if err != nil {
		respondError(w, http.StatusNotFound, "Friend not found.")
		return
	}

	if err := h.Friends.DeleteFriend(r.Context(), userID, friendID); err != nil {
		respondStoreError(w, err, "Friend not found.")
		return
	}
	respondData(w, http.StatusOK, map[string]interface{}{"id": friendID.String()})
}

// BlockUser adds a user to the caller's blacklist, severing any friendship
// and pending requests.
func (h *Handler) BlockUser(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	var req BlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	blockedID, err := uuid.Parse(req.UserID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "userId must be a valid user id.")
		return
	}

	if _, err := h.Users.GetByID(r.Context(), blockedID); err != nil {
		respondStoreError(w, err, "User not found.")
		return
	}

	if err := h.Friends.Block(r.Context(), userID, blockedID); err != nil {
		respondStoreError(w, err, "User not found.")
		return
	}
	respondData(w, http.StatusOK, map[string]interface{}{"message": "User blocked."})
}

// UnblockUser removes a user from the caller's blacklist.
func (h *Handler) UnblockUser(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	blockedID, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		respondError(w, http.StatusNotFound, "User not found.")
		return
	}

	if err := h.Friends.Unblock(r.Context(), userID, blockedID); err != nil {
		respondStoreError(w, err, "User not found.")
		return
	}
	respondData(w, http.StatusOK, map[string]interface{}{"message": "User unblocked."})
}

// ListBlocked returns the caller's blacklist.
func (h *Handler) ListBlocked(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	blocked, err := h.Friends.ListBlocked(r.Context(), userID)
	if err != nil {
		respondStoreError(w, err, "")
		return
	}
	respondData(w, http.StatusOK, blocked)
}
