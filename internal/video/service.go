// Package video wraps the backend's short-video endpoints.
package video

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"shorts-web/internal/apiclient"
	"shorts-web/internal/common/errors"
	"shorts-web/internal/upload"
)

const (
	shortsPath    = "/api/v1/shorts"
	myShortsPath  = "/api/v1/shorts/my"
	presignedPath = "/api/v1/shorts/presigned-url"
)

// Sort orders understood by the backend listing.
const (
	SortLatest  = "latest"
	SortPopular = "popular"
)

// Meta is the descriptive part of a new short.
type Meta struct {
	Title        string `json:"title,omitempty"`
	Description  string `json:"description,omitempty"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
}

type createRequest struct {
	Meta
	VideoURL string `json:"videoUrl"`
}

// Service calls the video endpoints with the client's credential. Listing
// payloads are owned by the backend and are passed through undecoded.
type Service struct {
	api     *apiclient.Client
	uploads *upload.Protocol
}

// New creates a video service. api should already be bound to the caller's
// session; compensator may be nil.
func New(api *apiclient.Client, compensator upload.Compensator) *Service {
	return &Service{api: api, uploads: upload.New(api, compensator)}
}

// List returns the public feed. An empty sortBy omits the parameter.
func (s *Service) List(ctx context.Context, sortBy string) (json.RawMessage, error) {
	var query url.Values
	if sortBy != "" {
		query = url.Values{"sortby": {sortBy}}
	}

	var out json.RawMessage
	if err := s.api.Get(ctx, shortsPath, query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one short.
func (s *Service) Get(ctx context.Context, id string) (json.RawMessage, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.ValidationError("video id is required")
	}

	var out json.RawMessage
	if err := s.api.Get(ctx, shortsPath+"/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListMine returns the shorts uploaded by the current user.
func (s *Service) ListMine(ctx context.Context) (json.RawMessage, error) {
	var out json.RawMessage
	if err := s.api.Get(ctx, myShortsPath, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Upload stores a recorded video through a pre-signed slot and registers it.
func (s *Service) Upload(ctx context.Context, file upload.File, meta Meta) (*upload.Result, error) {
	requestSlot := func(ctx context.Context, f upload.File) (upload.Slot, error) {
		var raw json.RawMessage
		query := url.Values{"filename": {f.Name}, "contentType": {f.ContentType}}
		if err := s.api.Get(ctx, presignedPath, query, &raw); err != nil {
			return upload.Slot{}, err
		}
		return upload.ParseSlot(raw)
	}

	confirm := func(ctx context.Context, slot upload.Slot) (json.RawMessage, error) {
		var out json.RawMessage
		err := s.api.Post(ctx, shortsPath, createRequest{Meta: meta, VideoURL: slot.PublicURL}, &out)
		return out, err
	}

	return s.uploads.Run(ctx, file, requestSlot, confirm)
}
