package upload

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"shorts-web/internal/common/errors"
)

type MockTransferer struct {
	mock.Mock
}

func (m *MockTransferer) PutBinary(ctx context.Context, rawURL, contentType string, body io.Reader, size int64) error {
	args := m.Called(ctx, rawURL, contentType, body, size)
	return args.Error(0)
}

type MockCompensator struct {
	mock.Mock
}

func (m *MockCompensator) Compensate(ctx context.Context, slot Slot) error {
	args := m.Called(ctx, slot)
	return args.Error(0)
}

type MockS3 struct {
	mock.Mock
}

func (m *MockS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*s3.DeleteObjectOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

const presigned = "https://bucket.s3.ap-northeast-2.amazonaws.com/shorts/clip.webm?X-Amz-Signature=abc"

func testFile() File {
	return File{Name: "clip.webm", ContentType: "video/webm", Size: 4, Body: strings.NewReader("data")}
}

func slotOK(context.Context, File) (Slot, error) {
	return Slot{UploadURL: presigned}, nil
}

func TestRun_Success(t *testing.T) {
	transfer := new(MockTransferer)
	transfer.On("PutBinary", mock.Anything, presigned, "video/webm", mock.Anything, int64(4)).Return(nil)

	var confirmed Slot
	confirm := func(_ context.Context, slot Slot) (json.RawMessage, error) {
		confirmed = slot
		return json.RawMessage(`{"id":7}`), nil
	}

	result, err := New(transfer, nil).Run(context.Background(), testFile(), slotOK, confirm)
	require.NoError(t, err)

	assert.Equal(t, StateConfirmed, result.State)
	assert.Equal(t, []State{StateSlotRequested, StateUploaded, StateConfirmed}, result.Transitions)
	assert.Equal(t, "https://bucket.s3.ap-northeast-2.amazonaws.com/shorts/clip.webm", confirmed.PublicURL)
	assert.JSONEq(t, `{"id":7}`, string(result.Response))
	transfer.AssertExpectations(t)
}

func TestRun_KeepsPublicURLFromSlot(t *testing.T) {
	transfer := new(MockTransferer)
	transfer.On("PutBinary", mock.Anything, presigned, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	slot := func(context.Context, File) (Slot, error) {
		return Slot{UploadURL: presigned, PublicURL: "https://cdn.example.com/shorts/clip.webm"}, nil
	}
	var confirmed Slot
	confirm := func(_ context.Context, s Slot) (json.RawMessage, error) {
		confirmed = s
		return nil, nil
	}

	_, err := New(transfer, nil).Run(context.Background(), testFile(), slot, confirm)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/shorts/clip.webm", confirmed.PublicURL)
}

func TestRun_SlotFailure(t *testing.T) {
	transfer := new(MockTransferer)
	slot := func(context.Context, File) (Slot, error) {
		return Slot{}, errors.FetchError("request failed", 500)
	}
	confirm := func(context.Context, Slot) (json.RawMessage, error) {
		t.Fatal("confirm must not run")
		return nil, nil
	}

	result, err := New(transfer, nil).Run(context.Background(), testFile(), slot, confirm)
	require.Error(t, err)

	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrTypeUpload, appErr.Type)
	assert.Equal(t, errors.StageSlot, appErr.Code)
	assert.Equal(t, StateFailed, result.State)
	transfer.AssertNotCalled(t, "PutBinary", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_EmptySlotURL(t *testing.T) {
	transfer := new(MockTransferer)
	slot := func(context.Context, File) (Slot, error) { return Slot{}, nil }

	_, err := New(transfer, nil).Run(context.Background(), testFile(), slot, nil)
	require.Error(t, err)
	appErr, _ := errors.As(err)
	assert.Equal(t, errors.StageSlot, appErr.Code)
}

func TestRun_TransferFailureNeverConfirms(t *testing.T) {
	transfer := new(MockTransferer)
	transfer.On("PutBinary", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.FetchError("request failed", 403))
	compensator := new(MockCompensator)

	confirmCalls := 0
	confirm := func(context.Context, Slot) (json.RawMessage, error) {
		confirmCalls++
		return nil, nil
	}

	result, err := New(transfer, compensator).Run(context.Background(), testFile(), slotOK, confirm)
	require.Error(t, err)

	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.StageTransfer, appErr.Code)
	assert.Zero(t, confirmCalls)
	assert.Equal(t, []State{StateSlotRequested, StateFailed}, result.Transitions)
	compensator.AssertNotCalled(t, "Compensate", mock.Anything, mock.Anything)
}

func TestRun_ConfirmFailureCompensates(t *testing.T) {
	transfer := new(MockTransferer)
	transfer.On("PutBinary", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	compensator := new(MockCompensator)
	compensator.On("Compensate", mock.Anything, mock.MatchedBy(func(s Slot) bool {
		return s.UploadURL == presigned
	})).Return(nil)

	confirm := func(context.Context, Slot) (json.RawMessage, error) {
		return nil, errors.FetchError("request failed", 500)
	}

	result, err := New(transfer, compensator).Run(context.Background(), testFile(), slotOK, confirm)
	require.Error(t, err)

	appErr, _ := errors.As(err)
	assert.Equal(t, errors.StageConfirm, appErr.Code)
	assert.Equal(t, true, appErr.Context["compensated"])
	assert.True(t, result.Compensated)
	assert.Equal(t, []State{StateSlotRequested, StateUploaded, StateFailed}, result.Transitions)
	compensator.AssertExpectations(t)
}

func TestRun_CompensationFailureIsNotFatal(t *testing.T) {
	transfer := new(MockTransferer)
	transfer.On("PutBinary", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	compensator := new(MockCompensator)
	compensator.On("Compensate", mock.Anything, mock.Anything).Return(assert.AnError)

	confirm := func(context.Context, Slot) (json.RawMessage, error) {
		return nil, errors.FetchError("request failed", 500)
	}

	result, err := New(transfer, compensator).Run(context.Background(), testFile(), slotOK, confirm)
	require.Error(t, err)

	appErr, _ := errors.As(err)
	assert.Equal(t, errors.StageConfirm, appErr.Code)
	assert.False(t, result.Compensated)
}

func TestRun_NilBody(t *testing.T) {
	file := testFile()
	file.Body = nil
	slotCalls := 0
	slot := func(context.Context, File) (Slot, error) {
		slotCalls++
		return Slot{}, nil
	}

	_, err := New(new(MockTransferer), nil).Run(context.Background(), file, slot, nil)
	require.Error(t, err)
	assert.Zero(t, slotCalls)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "slot_requested", StateSlotRequested.String())
	assert.Equal(t, "uploaded", StateUploaded.String())
	assert.Equal(t, "confirmed", StateConfirmed.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "unknown", State(99).String())
}

func TestS3Compensator_VirtualHostedURL(t *testing.T) {
	client := new(MockS3)
	client.On("DeleteObject", mock.Anything, mock.MatchedBy(func(in *s3.DeleteObjectInput) bool {
		return *in.Bucket == "bucket" && *in.Key == "shorts/clip.webm"
	})).Return(&s3.DeleteObjectOutput{}, nil)

	c := NewS3CompensatorWithClient(client, "bucket")
	require.NoError(t, c.Compensate(context.Background(), Slot{UploadURL: presigned}))
	client.AssertExpectations(t)
}

func TestS3Compensator_PathStyleURL(t *testing.T) {
	client := new(MockS3)
	client.On("DeleteObject", mock.Anything, mock.MatchedBy(func(in *s3.DeleteObjectInput) bool {
		return *in.Key == "profile/me.png"
	})).Return(&s3.DeleteObjectOutput{}, nil)

	c := NewS3CompensatorWithClient(client, "bucket")
	slot := Slot{PublicURL: "https://s3.ap-northeast-2.amazonaws.com/bucket/profile/me.png"}
	require.NoError(t, c.Compensate(context.Background(), slot))
	client.AssertExpectations(t)
}

func TestS3Compensator_Errors(t *testing.T) {
	client := new(MockS3)
	client.On("DeleteObject", mock.Anything, mock.Anything).Return(nil, assert.AnError)
	c := NewS3CompensatorWithClient(client, "bucket")

	err := c.Compensate(context.Background(), Slot{UploadURL: presigned})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeConnection))

	err = c.Compensate(context.Background(), Slot{UploadURL: "https://bucket.example.com/"})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeValidation))
}

func TestNewS3Compensator_RequiresBucket(t *testing.T) {
	_, err := NewS3Compensator(context.Background(), S3Config{Region: "ap-northeast-2"})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeConfig))
}

func TestNewS3Compensator_StaticCredentials(t *testing.T) {
	c, err := NewS3Compensator(context.Background(), S3Config{
		Region:          "ap-northeast-2",
		Bucket:          "bucket",
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
	})
	require.NoError(t, err)
	assert.NotNil(t, c.client)
}

func TestParseSlot(t *testing.T) {
	slot, err := ParseSlot(json.RawMessage(`"` + presigned + `"`))
	require.NoError(t, err)
	assert.Equal(t, presigned, slot.UploadURL)
	assert.Empty(t, slot.PublicURL)

	slot, err = ParseSlot(json.RawMessage(`{"presignedUrl":"https://a/b?sig=1","imageUrl":"https://a/b"}`))
	require.NoError(t, err)
	assert.Equal(t, Slot{UploadURL: "https://a/b?sig=1", PublicURL: "https://a/b"}, slot)

	slot, err = ParseSlot(json.RawMessage(`{"url":"https://a/c?sig=2"}`))
	require.NoError(t, err)
	assert.Equal(t, "https://a/c?sig=2", slot.UploadURL)

	_, err = ParseSlot(json.RawMessage(`[1,2]`))
	assert.Error(t, err)
}
