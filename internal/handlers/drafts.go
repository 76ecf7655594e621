package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"shorts-web/internal/common/errors"
	"shorts-web/internal/common/logging"
	"shorts-web/internal/drafts"
	"shorts-web/internal/upload"
	"shorts-web/internal/video"
)

// DraftCookie names the browser's draft owner id.
const DraftCookie = "draftId"

const (
	draftKindVideo     = "video"
	draftKindThumbnail = "thumbnail"
)

// draftOwner returns the owner id from the cookie. With create set, a missing
// or malformed id is replaced by a fresh one and the cookie is written.
func (h *Handlers) draftOwner(w http.ResponseWriter, r *http.Request, create bool) string {
	if cookie, err := r.Cookie(DraftCookie); err == nil && drafts.ValidOwner(cookie.Value) {
		return cookie.Value
	}
	if !create {
		return ""
	}

	owner := drafts.NewOwner()
	http.SetCookie(w, h.cookies.Cookie(r, DraftCookie, owner, int(h.draftTTL.Seconds())))
	return owner
}

// clearDraft drops the draft and its cookie. Errors are logged only.
func (h *Handlers) clearDraft(w http.ResponseWriter, r *http.Request) {
	owner := h.draftOwner(w, r, false)
	if owner == "" || h.drafts == nil {
		return
	}
	if err := h.drafts.Clear(r.Context(), owner); err != nil {
		logging.WithContext(r.Context()).Warn("Failed to clear draft", logging.Err(err))
	}
	http.SetCookie(w, h.cookies.Cookie(r, DraftCookie, "", -1))
}

// GetDraft describes the recording in progress
// @Summary Get draft
// @Description Returns what has been recorded so far, without the media content
// @Tags drafts
// @Produce json
// @Security SessionCookie
// @Success 200 {object} drafts.Summary "Draft summary"
// @Router /api/drafts [get]
func (h *Handlers) GetDraft(w http.ResponseWriter, r *http.Request) {
	draft, err := h.drafts.Get(r.Context(), h.draftOwner(w, r, false))
	if err != nil {
		sendJSONError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, draft.Summarize())
}

// GetDraftMedia streams a stored blob
// @Summary Get draft media
// @Tags drafts
// @Produce octet-stream
// @Security SessionCookie
// @Param kind path string true "video or thumbnail"
// @Success 200 {file} file "Media content"
// @Failure 404 {object} errorResponse "Nothing recorded"
// @Router /api/drafts/{kind} [get]
func (h *Handlers) GetDraftMedia(w http.ResponseWriter, r *http.Request) {
	draft, err := h.drafts.Get(r.Context(), h.draftOwner(w, r, false))
	if err != nil {
		sendJSONError(w, r, err)
		return
	}

	var media *drafts.Media
	switch mux.Vars(r)["kind"] {
	case draftKindVideo:
		media = draft.RecordedVideo
	case draftKindThumbnail:
		media = draft.Thumbnail
	}
	if media == nil {
		sendJSONError(w, r, errors.NotFoundError("draft media"))
		return
	}

	contentType := media.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(media.Data)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(media.Data)
}

// PutDraftMedia stores the recorded video or its thumbnail
// @Summary Store draft media
// @Description The request body is the raw media; Content-Type is kept with it
// @Tags drafts
// @Accept octet-stream
// @Security SessionCookie
// @Param kind path string true "video or thumbnail"
// @Param name query string false "File name"
// @Success 204 "Stored"
// @Failure 400 {object} errorResponse "Empty or oversized media"
// @Router /api/drafts/{kind} [put]
func (h *Handlers) PutDraftMedia(w http.ResponseWriter, r *http.Request) {
	kind := mux.Vars(r)["kind"]
	if kind != draftKindVideo && kind != draftKindThumbnail {
		sendJSONError(w, r, errors.NotFoundError("draft media"))
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, drafts.MaxMediaBytes))
	if err != nil {
		sendJSONError(w, r, errors.ValidationError("draft media is too large"))
		return
	}

	media := drafts.Media{
		Name:        r.URL.Query().Get("name"),
		ContentType: r.Header.Get("Content-Type"),
		Data:        data,
	}

	owner := h.draftOwner(w, r, true)
	if kind == draftKindVideo {
		if media.Name == "" {
			media.Name = "recording.webm"
		}
		err = h.drafts.SetRecordedVideo(r.Context(), owner, media)
	} else {
		if media.Name == "" {
			media.Name = "thumbnail.png"
		}
		err = h.drafts.SetThumbnail(r.Context(), owner, media)
	}
	if err != nil {
		sendJSONError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteDraft discards the recording
// @Summary Delete draft
// @Tags drafts
// @Security SessionCookie
// @Success 204 "Deleted"
// @Router /api/drafts [delete]
func (h *Handlers) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	h.clearDraft(w, r)
	w.WriteHeader(http.StatusNoContent)
}

// PublishDraft uploads the recorded video as a new short
// @Summary Publish draft
// @Description Uploads the draft's video through a pre-signed slot, registers it and discards the draft
// @Tags drafts
// @Accept json
// @Produce json
// @Security SessionCookie
// @Param body body video.Meta false "Title and description"
// @Success 201 {object} map[string]interface{} "Created short"
// @Failure 404 {object} errorResponse "Nothing recorded"
// @Failure 502 {object} errorResponse "Upload failed"
// @Router /api/drafts/publish [post]
func (h *Handlers) PublishDraft(w http.ResponseWriter, r *http.Request) {
	var meta video.Meta
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&meta); err != nil && err != io.EOF {
			sendJSONError(w, r, errors.ValidationError("invalid JSON body"))
			return
		}
	}

	draft, err := h.drafts.Get(r.Context(), h.draftOwner(w, r, false))
	if err != nil {
		sendJSONError(w, r, err)
		return
	}
	if draft.RecordedVideo == nil {
		sendJSONError(w, r, errors.NotFoundError("recorded video"))
		return
	}

	recorded := draft.RecordedVideo
	file := upload.File{
		Name:        recorded.Name,
		ContentType: recorded.ContentType,
		Size:        int64(len(recorded.Data)),
		Body:        bytes.NewReader(recorded.Data),
	}
	if file.ContentType == "" {
		file.ContentType = defaultVideoType
	}

	result, err := h.videoService(r).Upload(r.Context(), file, meta)
	if err != nil {
		sendJSONError(w, r, err)
		return
	}

	h.clearDraft(w, r)
	sendRawJSON(w, http.StatusCreated, result.Response)
}
