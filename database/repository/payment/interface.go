// File: database/repository/payment/interface.go
package paymentRepo

import (
	"context"
	"errors"
	"time"

	"studiobook/models"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound     = errors.New("payment not found")
	ErrStaleState   = errors.New("payment is not in the expected state")
	ErrIntentExists = errors.New("payment intent already recorded")
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, paymentID string) (*models.Payment, error)
	GetByIntentID(ctx context.Context, intentID string) (*models.Payment, error)
	SetIntent(ctx context.Context, paymentID, intentID string) error
	// Transition moves the payment to `to` only while it sits in one of `from`.
	Transition(ctx context.Context, paymentID string, from []models.PaymentState, to models.PaymentState, lastError string) error
	RecordAttempt(ctx context.Context, paymentID, lastError string) error
	// ListStuck returns non-terminal payments last touched before olderThan.
	ListStuck(ctx context.Context, olderThan time.Time, limit int64) ([]models.Payment, error)
	EnsureIndexes(ctx context.Context) error
}

type mongoPaymentRepo struct {
	coll *mongo.Collection
}

func NewMongoPaymentRepo(db *mongo.Database) PaymentRepository {
	return &mongoPaymentRepo{coll: db.Collection("payments")}
}
