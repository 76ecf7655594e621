package handlers

import (
	"encoding/json"
	"net/http"

	"shorts-web/internal/common/errors"
	"shorts-web/internal/common/logging"
)

type updateProfileRequest struct {
	Nickname string `json:"nickname"`
}

type profileImageResponse struct {
	ImageURL string `json:"imageUrl"`
}

// GetProfile returns the member profile
// @Summary Get profile
// @Tags profile
// @Produce json
// @Security SessionCookie
// @Success 200 {object} map[string]interface{} "Profile"
// @Failure 401 {object} errorResponse "No session"
// @Router /api/profile [get]
func (h *Handlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.memberService(r).Profile(r.Context())
	if err != nil {
		sendJSONError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, profile)
}

// UpdateProfile changes the nickname
// @Summary Update nickname
// @Tags profile
// @Accept json
// @Security SessionCookie
// @Param body body updateProfileRequest true "New nickname"
// @Success 204 "Updated"
// @Failure 400 {object} errorResponse "Invalid nickname"
// @Router /api/profile [put]
func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, r, errors.ValidationError("invalid JSON body"))
		return
	}

	if err := h.memberService(r).UpdateNickname(r.Context(), req.Nickname); err != nil {
		sendJSONError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadProfileImage replaces the profile image
// @Summary Upload profile image
// @Description Uploads the image through a pre-signed slot, then records its address on the profile
// @Tags profile
// @Accept mpfd
// @Produce json
// @Security SessionCookie
// @Param image formData file true "Image file"
// @Success 200 {object} profileImageResponse "New image address"
// @Failure 400 {object} errorResponse "Invalid form"
// @Failure 502 {object} errorResponse "Upload failed"
// @Router /api/profile/image [post]
func (h *Handlers) UploadProfileImage(w http.ResponseWriter, r *http.Request) {
	file, closeFile, err := formFile(w, r, imageFormField)
	if err != nil {
		sendJSONError(w, r, err)
		return
	}
	defer closeFile()

	result, err := h.memberService(r).UpdateProfileImage(r.Context(), file)
	if err != nil {
		sendJSONError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, profileImageResponse{ImageURL: result.Slot.PublicURL})
}

// DeleteAccount leaves the service
// @Summary Delete account
// @Description Deletes the member account and ends the session
// @Tags profile
// @Security SessionCookie
// @Success 204 "Deleted"
// @Failure 401 {object} errorResponse "No session"
// @Router /api/account [delete]
func (h *Handlers) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.memberService(r).Leave(r.Context()); err != nil {
		sendJSONError(w, r, err)
		return
	}

	if store := h.store(r); store != nil {
		if err := store.Clear(r.Context()); err != nil {
			logging.WithContext(r.Context()).Warn("Failed to clear session after account deletion", logging.Err(err))
		}
	}
	h.clearDraft(w, r)
	w.WriteHeader(http.StatusNoContent)
}
