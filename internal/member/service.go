// Package member wraps the backend's profile and account endpoints.
package member

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"shorts-web/internal/apiclient"
	"shorts-web/internal/common/errors"
	"shorts-web/internal/common/logging"
	"shorts-web/internal/upload"
)

const (
	profilePath      = "/my/profile"
	presignedPath    = "/my/profile/presigned-url"
	profileImagePath = "/my/profile/image"
	leavePath        = "/my/leave"
)

// Profile is the member profile returned by the backend.
type Profile struct {
	Nickname        string          `json:"nickname"`
	Email           string          `json:"email,omitempty"`
	ProfileImageURL string          `json:"profileImageUrl,omitempty"`
	Raw             json.RawMessage `json:"-"`
}

// MarshalJSON re-emits the backend document so fields unknown to Profile
// survive a round trip through this service.
func (p Profile) MarshalJSON() ([]byte, error) {
	if len(p.Raw) > 0 {
		return p.Raw, nil
	}
	type plain Profile
	return json.Marshal(plain(p))
}

type imageRequest struct {
	ImageURL string `json:"imageUrl"`
}

// Service calls the member endpoints with the client's credential.
type Service struct {
	api     *apiclient.Client
	uploads *upload.Protocol
}

// New creates a member service. api should already be bound to the caller's
// session; compensator may be nil.
func New(api *apiclient.Client, compensator upload.Compensator) *Service {
	return &Service{api: api, uploads: upload.New(api, compensator)}
}

// Profile returns the current member's profile.
func (s *Service) Profile(ctx context.Context) (*Profile, error) {
	var raw json.RawMessage
	if err := s.api.Get(ctx, profilePath, nil, &raw); err != nil {
		return nil, err
	}

	profile := &Profile{Raw: raw}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, profile); err != nil {
			return nil, errors.InternalError("failed to decode profile", err)
		}
	}
	return profile, nil
}

// UpdateNickname changes the display name.
func (s *Service) UpdateNickname(ctx context.Context, nickname string) error {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return errors.ValidationError("nickname is required")
	}

	return s.api.Put(ctx, profilePath, url.Values{"nickname": {nickname}}, nil, nil)
}

// PresignedURL requests an upload slot for a profile image.
func (s *Service) PresignedURL(ctx context.Context, filename, contentType string) (upload.Slot, error) {
	if filename == "" {
		return upload.Slot{}, errors.ValidationError("filename is required")
	}

	var raw json.RawMessage
	query := url.Values{"filename": {filename}, "contentType": {contentType}}
	if err := s.api.Get(ctx, presignedPath, query, &raw); err != nil {
		return upload.Slot{}, err
	}
	return upload.ParseSlot(raw)
}

// UpdateImageURL records imageURL as the profile image.
func (s *Service) UpdateImageURL(ctx context.Context, imageURL string) error {
	if imageURL == "" {
		return errors.ValidationError("image URL is required")
	}
	return s.api.Put(ctx, profileImagePath, nil, imageRequest{ImageURL: imageURL}, nil)
}

// Leave deletes the member account. The caller is responsible for clearing
// the session afterwards.
func (s *Service) Leave(ctx context.Context) error {
	if err := s.api.Delete(ctx, leavePath, nil); err != nil {
		return err
	}
	logging.WithContext(ctx).Info("Member account deleted")
	return nil
}

// UpdateProfileImage runs the full upload: slot, PUT to storage, then
// UpdateImageURL. A failed PUT never reaches the profile update.
func (s *Service) UpdateProfileImage(ctx context.Context, file upload.File) (*upload.Result, error) {
	if !strings.HasPrefix(file.ContentType, "image/") {
		return nil, errors.ValidationError("profile image must be an image")
	}

	requestSlot := func(ctx context.Context, f upload.File) (upload.Slot, error) {
		return s.PresignedURL(ctx, f.Name, f.ContentType)
	}
	confirm := func(ctx context.Context, slot upload.Slot) (json.RawMessage, error) {
		return nil, s.UpdateImageURL(ctx, slot.PublicURL)
	}

	return s.uploads.Run(ctx, file, requestSlot, confirm)
}
