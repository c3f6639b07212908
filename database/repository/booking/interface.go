// File: database/repository/booking/interface.go
package bookingRepo

import (
	"context"
	"errors"
	"time"

	"studiobook/models"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound         = errors.New("booking not found")
	ErrDuplicateRequest = errors.New("booking already exists for this request")
	ErrStatusConflict   = errors.New("booking is not in the expected status")
)

type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, bookingID string) (*models.Booking, error)
	GetByIdempotencyKey(ctx context.Context, userID, key string) (*models.Booking, error)
	CountActiveByUser(ctx context.Context, sessionID, userID string) (int64, error)
	// TransitionStatus moves a booking to `to` only if its status is one of `from`.
	TransitionStatus(ctx context.Context, bookingID string, from []models.BookingStatus, to models.BookingStatus) error
	// AttachPayment links a payment to a pending booking that has none yet.
	AttachPayment(ctx context.Context, bookingID, paymentID string) error
	// ListUnpaid returns priced pending bookings with no payment, created before `before`.
	ListUnpaid(ctx context.Context, before time.Time, limit int64) ([]models.Booking, error)
	// ExpireUnpaid cancels a booking only while it is still pending with no payment.
	ExpireUnpaid(ctx context.Context, bookingID string) error
	EnsureIndexes(ctx context.Context) error
}

type mongoBookingRepo struct {
	coll *mongo.Collection
}

func NewMongoBookingRepo(db *mongo.Database) BookingRepository {
	return &mongoBookingRepo{coll: db.Collection("bookings")}
}
