package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"studiobook/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (r *mongoBookingRepo) Create(ctx context.Context, booking *models.Booking) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, booking); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateRequest
		}
		return fmt.Errorf("insert booking failed: %w", err)
	}
	return nil
}

func (r *mongoBookingRepo) GetByID(ctx context.Context, bookingID string) (*models.Booking, error) {
	return r.findOne(ctx, bson.M{"id": bookingID})
}

func (r *mongoBookingRepo) GetByIdempotencyKey(ctx context.Context, userID, key string) (*models.Booking, error) {
	return r.findOne(ctx, bson.M{"user_id": userID, "idempotency_key": key})
}

func (r *mongoBookingRepo) findOne(ctx context.Context, filter bson.M) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var b models.Booking
	err := r.coll.FindOne(ctx, filter).Decode(&b)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *mongoBookingRepo) CountActiveByUser(ctx context.Context, sessionID, userID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return r.coll.CountDocuments(ctx, bson.M{
		"photo_session_id": sessionID,
		"user_id":          userID,
		"status":           bson.M{"$in": bson.A{models.BookingPending, models.BookingConfirmed}},
	})
}

func (r *mongoBookingRepo) TransitionStatus(ctx context.Context, bookingID string, from []models.BookingStatus, to models.BookingStatus) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": bookingID, "status": bson.M{"$in": from}}
	res, err := r.coll.UpdateOne(ctx, filter, bson.M{
		"$set": bson.M{"status": to, "updated_at": time.Now()},
	})
	if err != nil {
		return fmt.Errorf("update booking status failed: %w", err)
	}
	if res.MatchedCount == 0 {
		if _, err := r.GetByID(ctx, bookingID); err != nil {
			return err
		}
		return ErrStatusConflict
	}
	return nil
}

func (r *mongoBookingRepo) AttachPayment(ctx context.Context, bookingID, paymentID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": bookingID, "status": models.BookingPending, "payment_id": unpaid}
	res, err := r.coll.UpdateOne(ctx, filter, bson.M{
		"$set": bson.M{"payment_id": paymentID, "updated_at": time.Now()},
	})
	if err != nil {
		return fmt.Errorf("attach payment failed: %w", err)
	}
	if res.MatchedCount == 0 {
		if _, err := r.GetByID(ctx, bookingID); err != nil {
			return err
		}
		return ErrStatusConflict
	}
	return nil
}

// unpaid matches a payment_id that was never set.
var unpaid = bson.M{"$in": bson.A{"", nil}}

func (r *mongoBookingRepo) ListUnpaid(ctx context.Context, before time.Time, limit int64) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{
		"status":     models.BookingPending,
		"payment_id": unpaid,
		"amount":     bson.M{"$gt": 0},
		"created_at": bson.M{"$lt": before},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}).SetLimit(limit)
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list unpaid bookings failed: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.Booking
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode unpaid bookings failed: %w", err)
	}
	return out, nil
}

func (r *mongoBookingRepo) ExpireUnpaid(ctx context.Context, bookingID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": bookingID, "status": models.BookingPending, "payment_id": unpaid}
	res, err := r.coll.UpdateOne(ctx, filter, bson.M{
		"$set": bson.M{"status": models.BookingCancelled, "updated_at": time.Now()},
	})
	if err != nil {
		return fmt.Errorf("expire booking failed: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrStatusConflict
	}
	return nil
}
