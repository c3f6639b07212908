// File: database/repository/session/interface.go
package sessionRepo

import (
	"context"
	"errors"

	"studiobook/models"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound        = errors.New("photo session not found")
	ErrSlotNotFound    = errors.New("photo session slot not found")
	ErrCapacityReached = errors.New("no seats left")
	ErrSlotHasBookings = errors.New("slot with participants cannot be removed")
)

type SessionRepository interface {
	// SaveWithSlots writes the session and replaces its slot set in one transaction.
	// Participant counters already held by the backend are never overwritten.
	SaveWithSlots(ctx context.Context, session *models.PhotoSession, slots []models.PhotoSessionSlot) error
	GetByID(ctx context.Context, sessionID string) (*models.PhotoSession, error)
	ListPublished(ctx context.Context, limit, offset int64) ([]models.PhotoSession, error)
	SetPublished(ctx context.Context, sessionID string, published bool) error
	GetSlots(ctx context.Context, sessionID string) ([]models.PhotoSessionSlot, error)
	GetSlot(ctx context.Context, slotID string) (*models.PhotoSessionSlot, error)

	// Admit* take one seat only while one is free; ErrCapacityReached otherwise.
	AdmitSlotParticipant(ctx context.Context, slotID string) error
	ReleaseSlotParticipant(ctx context.Context, slotID string) error
	AdmitSessionParticipant(ctx context.Context, sessionID string) error
	ReleaseSessionParticipant(ctx context.Context, sessionID string) error

	EnsureIndexes(ctx context.Context) error
}

type mongoSessionRepo struct {
	sessions *mongo.Collection
	slots    *mongo.Collection
}

// NewMongoSessionRepo constructs a SessionRepository over db.
func NewMongoSessionRepo(db *mongo.Database) SessionRepository {
	return &mongoSessionRepo{
		sessions: db.Collection("photo_sessions"),
		slots:    db.Collection("photo_session_slots"),
	}
}
