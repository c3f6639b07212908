package sessionRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// admit increments current_participants only if the guard still holds at write time.
func admit(ctx context.Context, coll *mongo.Collection, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"id":    id,
		"$expr": bson.M{"$lt": bson.A{"$current_participants", "$max_participants"}},
	}
	res, err := coll.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"current_participants": 1}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func release(ctx context.Context, coll *mongo.Collection, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": id, "current_participants": bson.M{"$gt": 0}}
	_, err := coll.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"current_participants": -1}})
	return err
}

func (r *mongoSessionRepo) AdmitSlotParticipant(ctx context.Context, slotID string) error {
	ok, err := admit(ctx, r.slots, slotID)
	if err != nil {
		return fmt.Errorf("admit slot participant failed: %w", err)
	}
	if ok {
		return nil
	}
	if _, err := r.GetSlot(ctx, slotID); err != nil {
		return err
	}
	return ErrCapacityReached
}

func (r *mongoSessionRepo) ReleaseSlotParticipant(ctx context.Context, slotID string) error {
	if err := release(ctx, r.slots, slotID); err != nil {
		return fmt.Errorf("release slot participant failed: %w", err)
	}
	return nil
}

func (r *mongoSessionRepo) AdmitSessionParticipant(ctx context.Context, sessionID string) error {
	ok, err := admit(ctx, r.sessions, sessionID)
	if err != nil {
		return fmt.Errorf("admit session participant failed: %w", err)
	}
	if ok {
		return nil
	}
	if _, err := r.GetByID(ctx, sessionID); err != nil {
		return err
	}
	return ErrCapacityReached
}

func (r *mongoSessionRepo) ReleaseSessionParticipant(ctx context.Context, sessionID string) error {
	if err := release(ctx, r.sessions, sessionID); err != nil {
		return fmt.Errorf("release session participant failed: %w", err)
	}
	return nil
}
