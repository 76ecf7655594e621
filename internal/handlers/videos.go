package handlers

import (
	"mime/multipart"
	"net/http"

	"github.com/gorilla/mux"

	"shorts-web/internal/common/errors"
	"shorts-web/internal/upload"
	"shorts-web/internal/video"
)

const (
	maxUploadBytes   = 200 << 20
	multipartMemory  = 32 << 20
	videoFormField   = "video"
	imageFormField   = "image"
	defaultVideoType = "video/webm"
)

// ListVideos returns the public feed
// @Summary List shorts
// @Description Proxies the backend feed, optionally sorted
// @Tags videos
// @Produce json
// @Param sortby query string false "Sort order (latest, popular)"
// @Success 200 {array} map[string]interface{} "Shorts"
// @Failure 502 {object} errorResponse "Backend unavailable"
// @Router /api/videos [get]
func (h *Handlers) ListVideos(w http.ResponseWriter, r *http.Request) {
	sortBy := r.URL.Query().Get("sortby")
	if sortBy == "" {
		sortBy = r.URL.Query().Get("sort")
	}

	out, err := h.videoService(r).List(r.Context(), sortBy)
	if err != nil {
		sendJSONError(w, r, err)
		return
	}
	sendRawJSON(w, http.StatusOK, out)
}

// GetVideo returns one short
// @Summary Get short
// @Tags videos
// @Produce json
// @Param id path string true "Short ID"
// @Success 200 {object} map[string]interface{} "Short"
// @Failure 404 {object} errorResponse "Not found"
// @Router /api/videos/{id} [get]
func (h *Handlers) GetVideo(w http.ResponseWriter, r *http.Request) {
	out, err := h.videoService(r).Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		sendJSONError(w, r, err)
		return
	}
	sendRawJSON(w, http.StatusOK, out)
}

// ListMyVideos returns the current user's shorts
// @Summary List my shorts
// @Tags videos
// @Produce json
// @Security SessionCookie
// @Success 200 {array} map[string]interface{} "Shorts"
// @Failure 401 {object} errorResponse "No session"
// @Router /api/my/videos [get]
func (h *Handlers) ListMyVideos(w http.ResponseWriter, r *http.Request) {
	out, err := h.videoService(r).ListMine(r.Context())
	if err != nil {
		sendJSONError(w, r, err)
		return
	}
	sendRawJSON(w, http.StatusOK, out)
}

// UploadVideo uploads a recorded short
// @Summary Upload short
// @Description Stores the video through a pre-signed slot and registers it with the backend
// @Tags videos
// @Accept mpfd
// @Produce json
// @Security SessionCookie
// @Param video formData file true "Video file"
// @Param title formData string false "Title"
// @Param description formData string false "Description"
// @Success 201 {object} map[string]interface{} "Created short"
// @Failure 400 {object} errorResponse "Invalid form"
// @Failure 502 {object} errorResponse "Upload failed"
// @Router /api/videos [post]
func (h *Handlers) UploadVideo(w http.ResponseWriter, r *http.Request) {
	file, closeFile, err := formFile(w, r, videoFormField)
	if err != nil {
		sendJSONError(w, r, err)
		return
	}
	defer closeFile()
	if file.ContentType == "" || file.ContentType == "application/octet-stream" {
		file.ContentType = defaultVideoType
	}

	meta := video.Meta{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
	}

	result, err := h.videoService(r).Upload(r.Context(), file, meta)
	if err != nil {
		sendJSONError(w, r, err)
		return
	}
	sendRawJSON(w, http.StatusCreated, result.Response)
}

// formFile reads one multipart file field into an upload.File.
func formFile(w http.ResponseWriter, r *http.Request, field string) (upload.File, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return upload.File{}, nil, errors.ValidationError("invalid multipart form")
	}

	f, header, err := r.FormFile(field)
	if err != nil {
		return upload.File{}, nil, errors.ValidationError(field + " file is required")
	}

	return fileFromHeader(f, header), func() { f.Close() }, nil
}

func fileFromHeader(f multipart.File, header *multipart.FileHeader) upload.File {
	return upload.File{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        f,
	}
}
