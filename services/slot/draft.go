package slot

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"studiobook/models"
)

// ImageUploader stores a costume reference image and returns its public URL.
type ImageUploader interface {
	UploadImage(ctx context.Context, file io.Reader, filename string) (string, error)
}

// DraftService owns slot working lists until the session form is saved.
type DraftService struct {
	Store    DraftStore
	Uploader ImageUploader
	TTL      time.Duration
	Logger   *zap.Logger
	now      func() time.Time
}

func NewDraftService(store DraftStore, uploader ImageUploader, ttl time.Duration, logger *zap.Logger) *DraftService {
	return &DraftService{Store: store, Uploader: uploader, TTL: ttl, Logger: logger, now: time.Now}
}

// Create starts a draft. sessionID and slots are set when editing a saved session.
func (s *DraftService) Create(ctx context.Context, ownerID, sessionID string, manual models.ManualSchedule, slots []models.PhotoSessionSlot) (EditorState, error) {
	state, err := s.save(ctx, NewEditorState(uuid.New().String(), ownerID, sessionID, manual, slots))
	if err != nil {
		return EditorState{}, err
	}
	s.Logger.Debug("slot draft created", zap.String("draftID", state.DraftID), zap.Int("slots", len(slots)))
	return state, nil
}

// Get returns the draft if ownerID owns it.
func (s *DraftService) Get(ctx context.Context, draftID, ownerID string) (EditorState, error) {
	state, err := s.Store.Load(ctx, draftID)
	if err != nil {
		return EditorState{}, err
	}
	if state.OwnerID != ownerID {
		return EditorState{}, ErrDraftNotFound
	}
	return state, nil
}

// Apply runs one editor action and stores the result.
func (s *DraftService) Apply(ctx context.Context, draftID, ownerID string, action Action) (EditorState, error) {
	state, err := s.Get(ctx, draftID, ownerID)
	if err != nil {
		return EditorState{}, err
	}
	next, err := Reduce(state, action)
	if err != nil {
		return state, err
	}
	return s.save(ctx, next)
}

// AttachCostumeImage uploads the image and stores its URL on the slot form. A failed
// upload leaves the form's image unset.
func (s *DraftService) AttachCostumeImage(ctx context.Context, draftID, ownerID string, file io.Reader, filename string) (EditorState, error) {
	state, err := s.Get(ctx, draftID, ownerID)
	if err != nil {
		return EditorState{}, err
	}
	url, err := s.Uploader.UploadImage(ctx, file, filename)
	if err != nil {
		s.Logger.Warn("costume image upload failed", zap.String("draftID", draftID), zap.Error(err))
		return state, fmt.Errorf("%w: %w", ErrImageUpload, err)
	}
	return s.Apply(ctx, draftID, ownerID, AttachImage{URL: url})
}

// Discard drops the draft.
func (s *DraftService) Discard(ctx context.Context, draftID, ownerID string) error {
	if _, err := s.Get(ctx, draftID, ownerID); err != nil {
		return err
	}
	return s.Store.Delete(ctx, draftID)
}

func (s *DraftService) save(ctx context.Context, state EditorState) (EditorState, error) {
	state.UpdatedAt = s.now()
	if err := s.Store.Save(ctx, state, s.TTL); err != nil {
		return EditorState{}, err
	}
	return state, nil
}
