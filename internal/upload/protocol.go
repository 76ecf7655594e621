// Package upload runs the three-step media upload protocol used by the
// backend: request a pre-signed slot, PUT the bytes to object storage, then
// confirm the public address with the backend.
//
// The steps are not transactional. A failed confirmation leaves an orphaned
// object in storage; when a Compensator is configured it is asked to delete
// that object, best-effort.
package upload

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"shorts-web/internal/common/errors"
	"shorts-web/internal/common/logging"
)

// State is a step of one upload.
type State int

const (
	StatePending State = iota
	StateSlotRequested
	StateUploaded
	StateConfirmed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateSlotRequested:
		return "slot_requested"
	case StateUploaded:
		return "uploaded"
	case StateConfirmed:
		return "confirmed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// File is the binary being uploaded.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Slot is the handoff between the three steps. UploadURL is the pre-signed
// target; PublicURL is what the backend records once confirmed.
type Slot struct {
	UploadURL string `json:"uploadUrl"`
	PublicURL string `json:"publicUrl"`
}

// Transferer performs the binary PUT. *apiclient.Client satisfies it.
type Transferer interface {
	PutBinary(ctx context.Context, rawURL, contentType string, body io.Reader, size int64) error
}

// Compensator removes an object that was uploaded but never confirmed.
type Compensator interface {
	Compensate(ctx context.Context, slot Slot) error
}

// SlotFunc asks the backend for a pre-signed slot for file.
type SlotFunc func(ctx context.Context, file File) (Slot, error)

// ConfirmFunc records slot with the backend and returns its raw answer.
type ConfirmFunc func(ctx context.Context, slot Slot) (json.RawMessage, error)

// Result describes a finished upload, successful or not.
type Result struct {
	State       State
	Transitions []State
	Slot        Slot
	Response    json.RawMessage
	Compensated bool
}

func (r *Result) moveTo(state State) {
	r.State = state
	r.Transitions = append(r.Transitions, state)
}

// Protocol executes uploads. It holds no per-upload state and is safe for
// concurrent use.
type Protocol struct {
	transfer    Transferer
	compensator Compensator
}

// New creates a Protocol. compensator may be nil.
func New(transfer Transferer, compensator Compensator) *Protocol {
	return &Protocol{transfer: transfer, compensator: compensator}
}

// Run drives one upload through SlotRequested, Uploaded and Confirmed. A step
// failure moves the upload to Failed and returns an UploadError naming the
// stage; later steps are never attempted.
func (p *Protocol) Run(ctx context.Context, file File, requestSlot SlotFunc, confirm ConfirmFunc) (*Result, error) {
	result := &Result{State: StatePending}
	log := logging.WithContext(ctx).WithFields(
		logging.String("file", file.Name),
		logging.String("content_type", file.ContentType))

	if file.Body == nil {
		result.moveTo(StateFailed)
		return result, errors.UploadError(errors.StageSlot, errors.ValidationError("upload has no content"))
	}

	slot, err := requestSlot(ctx, file)
	if err == nil && slot.UploadURL == "" {
		err = errors.ValidationError("upload slot has no pre-signed URL")
	}
	if err != nil {
		result.moveTo(StateFailed)
		log.Warn("Upload slot request failed", logging.Err(err))
		return result, errors.UploadError(errors.StageSlot, err)
	}
	if slot.PublicURL == "" {
		slot.PublicURL = stripQuery(slot.UploadURL)
	}
	result.Slot = slot
	result.moveTo(StateSlotRequested)

	if err := p.transfer.PutBinary(ctx, slot.UploadURL, file.ContentType, file.Body, file.Size); err != nil {
		result.moveTo(StateFailed)
		log.Warn("Upload transfer failed", logging.Err(err))
		return result, errors.UploadError(errors.StageTransfer, err)
	}
	result.moveTo(StateUploaded)

	response, err := confirm(ctx, slot)
	if err != nil {
		result.moveTo(StateFailed)
		log.Warn("Upload confirmation failed", logging.Err(err), logging.String("public_url", slot.PublicURL))
		result.Compensated = p.compensate(ctx, slot)
		return result, errors.UploadError(errors.StageConfirm, err).
			WithContext("compensated", result.Compensated)
	}
	result.Response = response
	result.moveTo(StateConfirmed)

	log.Info("Upload confirmed", logging.String("public_url", slot.PublicURL))
	return result, nil
}

// compensate never fails the upload result; its own errors are only logged.
func (p *Protocol) compensate(ctx context.Context, slot Slot) bool {
	if p.compensator == nil {
		return false
	}
	if err := p.compensator.Compensate(ctx, slot); err != nil {
		logging.WithContext(ctx).Error("Failed to delete orphaned upload", err,
			logging.String("public_url", slot.PublicURL))
		return false
	}
	return true
}

// slotPayload covers the field names the backend has used for slots.
type slotPayload struct {
	PresignedURL string `json:"presignedUrl"`
	UploadURL    string `json:"uploadUrl"`
	URL          string `json:"url"`
	PublicURL    string `json:"publicUrl"`
	ImageURL     string `json:"imageUrl"`
	FileURL      string `json:"fileUrl"`
}

// ParseSlot decodes a slot answer. The backend returns either the bare
// pre-signed URL as a JSON string or an object naming it.
func ParseSlot(raw json.RawMessage) (Slot, error) {
	var bare string
	if err := json.Unmarshal(raw, &bare); err == nil {
		return Slot{UploadURL: bare}, nil
	}

	var payload slotPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Slot{}, errors.InternalError("failed to decode upload slot", err)
	}

	slot := Slot{UploadURL: firstNonEmpty(payload.PresignedURL, payload.UploadURL, payload.URL)}
	slot.PublicURL = firstNonEmpty(payload.PublicURL, payload.ImageURL, payload.FileURL)
	return slot, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func stripQuery(raw string) string {
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		return raw[:i]
	}
	return raw
}
