// Package drafts keeps a recorded video and its thumbnail between the
// recording page and the preview page. A draft belongs to one browser and
// expires after a fixed TTL.
package drafts

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"shorts-web/internal/common/errors"
	"shorts-web/internal/common/logging"
	"shorts-web/internal/kv"
)

const (
	// KeyPrefix namespaces draft keys in shared backends.
	KeyPrefix = "shorts:draft:"
	// DefaultTTL applies when the service is created with a zero ttl.
	DefaultTTL = time.Hour
	// MaxMediaBytes bounds a single stored blob.
	MaxMediaBytes = 64 << 20
)

// Media is one stored blob.
type Media struct {
	Name        string    `json:"name"`
	ContentType string    `json:"contentType"`
	Data        []byte    `json:"data"`
	StoredAt    time.Time `json:"storedAt"`
}

// Size returns the blob length.
func (m *Media) Size() int {
	if m == nil {
		return 0
	}
	return len(m.Data)
}

// Draft is the recording in progress.
type Draft struct {
	RecordedVideo *Media    `json:"recordedVideo,omitempty"`
	Thumbnail     *Media    `json:"thumbnail,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Empty reports whether nothing has been recorded yet.
func (d *Draft) Empty() bool {
	return d == nil || (d.RecordedVideo == nil && d.Thumbnail == nil)
}

// Summary is the draft without its binary content.
type Summary struct {
	HasVideo      bool      `json:"hasVideo"`
	VideoName     string    `json:"videoName,omitempty"`
	VideoType     string    `json:"videoType,omitempty"`
	VideoSize     int       `json:"videoSize,omitempty"`
	HasThumbnail  bool      `json:"hasThumbnail"`
	ThumbnailType string    `json:"thumbnailType,omitempty"`
	ThumbnailSize int       `json:"thumbnailSize,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt,omitempty"`
}

// Summarize drops the blobs.
func (d *Draft) Summarize() Summary {
	if d == nil {
		return Summary{}
	}
	s := Summary{UpdatedAt: d.UpdatedAt}
	if d.RecordedVideo != nil {
		s.HasVideo = true
		s.VideoName = d.RecordedVideo.Name
		s.VideoType = d.RecordedVideo.ContentType
		s.VideoSize = d.RecordedVideo.Size()
	}
	if d.Thumbnail != nil {
		s.HasThumbnail = true
		s.ThumbnailType = d.Thumbnail.ContentType
		s.ThumbnailSize = d.Thumbnail.Size()
	}
	return s
}

// Service stores drafts in a kv.Store. Updates are read-modify-write and the
// last writer wins.
type Service struct {
	store kv.Store
	ttl   time.Duration
	now   func() time.Time
}

// NewService creates a draft service over store.
func NewService(store kv.Store, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{store: store, ttl: ttl, now: time.Now}
}

// NewOwner returns a fresh draft owner id.
func NewOwner() string {
	return uuid.NewString()
}

// ValidOwner reports whether owner was produced by NewOwner.
func ValidOwner(owner string) bool {
	_, err := uuid.Parse(owner)
	return err == nil
}

// Get returns the owner's draft. A missing or expired draft is returned empty.
func (s *Service) Get(ctx context.Context, owner string) (*Draft, error) {
	if !ValidOwner(owner) {
		return &Draft{}, nil
	}

	data, found, err := s.store.Get(ctx, owner)
	if err != nil {
		return nil, errors.ConnectionError("failed to read draft", err)
	}
	if !found {
		return &Draft{}, nil
	}

	var draft Draft
	if err := json.Unmarshal(data, &draft); err != nil {
		logging.WithContext(ctx).Warn("Discarding unreadable draft", logging.Err(err))
		return &Draft{}, nil
	}
	return &draft, nil
}

// SetRecordedVideo replaces the recorded video.
func (s *Service) SetRecordedVideo(ctx context.Context, owner string, media Media) error {
	return s.update(ctx, owner, media, func(d *Draft, m *Media) { d.RecordedVideo = m })
}

// SetThumbnail replaces the thumbnail.
func (s *Service) SetThumbnail(ctx context.Context, owner string, media Media) error {
	return s.update(ctx, owner, media, func(d *Draft, m *Media) { d.Thumbnail = m })
}

// Clear drops the whole draft.
func (s *Service) Clear(ctx context.Context, owner string) error {
	if !ValidOwner(owner) {
		return nil
	}
	if err := s.store.Delete(ctx, owner); err != nil {
		return errors.ConnectionError("failed to clear draft", err)
	}
	return nil
}

func (s *Service) update(ctx context.Context, owner string, media Media, apply func(*Draft, *Media)) error {
	if !ValidOwner(owner) {
		return errors.ValidationError("invalid draft owner")
	}
	if len(media.Data) == 0 {
		return errors.ValidationError("draft media is empty")
	}
	if len(media.Data) > MaxMediaBytes {
		return errors.ValidationError("draft media is too large")
	}

	draft, err := s.Get(ctx, owner)
	if err != nil {
		return err
	}

	now := s.now()
	media.StoredAt = now
	apply(draft, &media)
	draft.UpdatedAt = now

	data, err := json.Marshal(draft)
	if err != nil {
		return errors.InternalError("failed to encode draft", err)
	}
	if err := s.store.Set(ctx, owner, data, s.ttl); err != nil {
		return errors.ConnectionError("failed to save draft", err)
	}

	logging.WithContext(ctx).Debug("Draft updated",
		logging.String("content_type", media.ContentType),
		logging.Int("size", len(media.Data)))
	return nil
}
