package paymentRepo

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

func (r *mongoPaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, payment); err != nil {
		return fmt.Errorf("insert payment failed: %w", err)
	}
	return nil
}

func (r *mongoPaymentRepo) GetByID(ctx context.Context, paymentID string) (*models.Payment, error) {
	return r.findOne(ctx, bson.M{"id": paymentID})
}

func (r *mongoPaymentRepo) GetByIntentID(ctx context.Context, intentID string) (*models.Payment, error) {
	return r.findOne(ctx, bson.M{"intent_id": intentID})
}

func (r *mongoPaymentRepo) findOne(ctx context.Context, filter bson.M) (*models.Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var p models.Payment
	err := r.coll.FindOne(ctx, filter).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *mongoPaymentRepo) SetIntent(ctx context.Context, paymentID, intentID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": paymentID, "intent_id": bson.M{"$in": bson.A{nil, ""}}}
	res, err := r.coll.UpdateOne(ctx, filter, bson.M{
		"$set": bson.M{"intent_id": intentID, "updated_at": time.Now()},
	})
	if err != nil {
		return fmt.Errorf("set payment intent failed: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrIntentExists
	}
	return nil
}

func (r *mongoPaymentRepo) Transition(ctx context.Context, paymentID string, from []models.PaymentState, to models.PaymentState, lastError string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	set := bson.M{"state": to, "updated_at": time.Now()}
	if lastError != "" {
		set["last_error"] = lastError
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"id": paymentID, "state": bson.M{"$in": from}}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("payment transition failed: %w", err)
	}
	if res.MatchedCount == 0 {
		if _, err := r.GetByID(ctx, paymentID); err != nil {
			return err
		}
		return ErrStaleState
	}
	return nil
}

func (r *mongoPaymentRepo) RecordAttempt(ctx context.Context, paymentID, lastError string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.coll.UpdateOne(ctx, bson.M{"id": paymentID}, bson.M{
		"$inc": bson.M{"attempts": 1},
		"$set": bson.M{"last_error": lastError, "updated_at": time.Now()},
	})
	return err
}

func (r *mongoPaymentRepo) ListStuck(ctx context.Context, olderThan time.Time, limit int64) ([]models.Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{
		"state":      bson.M{"$nin": bson.A{models.PaymentConfirmed, models.PaymentFailed}},
		"updated_at": bson.M{"$lt": olderThan},
	}
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: 1}}).SetLimit(limit)
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	payments := []models.Payment{}
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, err
	}
	return payments, nil
}
