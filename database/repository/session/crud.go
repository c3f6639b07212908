package sessionRepo

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

func (r *mongoSessionRepo) SaveWithSlots(ctx context.Context, session *models.PhotoSession, slots []models.PhotoSessionSlot) error {
	client := r.sessions.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	txnFn := func(sc mongo.SessionContext) error {
		if err := r.upsertSession(sc, session); err != nil {
			return err
		}

		keep := make([]string, 0, len(slots))
		for _, s := range slots {
			keep = append(keep, s.ID)
		}
		removed := bson.M{"photo_session_id": session.ID, "id": bson.M{"$nin": keep}}

		booked, err := r.slots.CountDocuments(sc, bson.M{
			"photo_session_id":     session.ID,
			"id":                   bson.M{"$nin": keep},
			"current_participants": bson.M{"$gt": 0},
		})
		if err != nil {
			return fmt.Errorf("count booked slots failed: %w", err)
		}
		if booked > 0 {
			return ErrSlotHasBookings
		}
		if _, err := r.slots.DeleteMany(sc, removed); err != nil {
			return fmt.Errorf("delete removed slots failed: %w", err)
		}

		for i := range slots {
			slots[i].PhotoSessionID = session.ID
			if err := r.upsertSlot(sc, slots[i]); err != nil {
				return err
			}
		}
		return nil
	}

	if err := mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := txnFn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	}); err != nil {
		if errors.Is(err, ErrSlotHasBookings) {
			return err
		}
		return fmt.Errorf("session save transaction failed: %w", err)
	}
	return nil
}

func (r *mongoSessionRepo) upsertSession(ctx context.Context, s *models.PhotoSession) error {
	update := bson.M{
		"$set": bson.M{
			"title":                   s.Title,
			"description":             s.Description,
			"location":                s.Location,
			"address":                 s.Address,
			"start_time":              s.StartTime,
			"end_time":                s.EndTime,
			"max_participants":        s.MaxParticipants,
			"price_per_person":        s.PricePerPerson,
			"booking_type":            s.BookingType,
			"allow_multiple_bookings": s.AllowMultipleBookings,
			"image_urls":              s.ImageURLs,
			"has_slots":               s.HasSlots,
			"multi_slot_tiers":        s.MultiSlotTiers,
			"updated_at":              s.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"id":                   s.ID,
			"organizer_id":         s.OrganizerID,
			"current_participants": 0,
			"is_published":         false,
			"created_at":           s.CreatedAt,
		},
	}
	filter := bson.M{"id": s.ID, "organizer_id": s.OrganizerID}
	if _, err := r.sessions.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("upsert photo session failed: %w", err)
	}
	return nil
}

func (r *mongoSessionRepo) upsertSlot(ctx context.Context, s models.PhotoSessionSlot) error {
	update := bson.M{
		"$set": bson.M{
			"slot_number":            s.SlotNumber,
			"start_time":             s.StartTime,
			"end_time":               s.EndTime,
			"break_duration_minutes": s.BreakDurationMinutes,
			"max_participants":       s.MaxParticipants,
			"price_per_person":       s.PricePerPerson,
			"discount_type":          s.DiscountType,
			"discount_value":         s.DiscountValue,
			"discount_condition":     s.DiscountCondition,
			"costume_image_url":      s.CostumeImageURL,
			"costume_description":    s.CostumeDescription,
			"notes":                  s.Notes,
		},
		"$setOnInsert": bson.M{
			"id":                   s.ID,
			"photo_session_id":     s.PhotoSessionID,
			"current_participants": 0,
		},
	}
	filter := bson.M{"id": s.ID, "photo_session_id": s.PhotoSessionID}
	if _, err := r.slots.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("upsert slot %d failed: %w", s.SlotNumber, err)
	}
	return nil
}

func (r *mongoSessionRepo) GetByID(ctx context.Context, sessionID string) (*models.PhotoSession, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var s models.PhotoSession
	err := r.sessions.FindOne(ctx, bson.M{"id": sessionID}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *mongoSessionRepo) ListPublished(ctx context.Context, limit, offset int64) ([]models.PhotoSession, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "start_time", Value: 1}}).
		SetLimit(limit).
		SetSkip(offset)
	cursor, err := r.sessions.Find(ctx, bson.M{"is_published": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	sessions := []models.PhotoSession{}
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *mongoSessionRepo) SetPublished(ctx context.Context, sessionID string, published bool) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.sessions.UpdateOne(ctx, bson.M{"id": sessionID}, bson.M{
		"$set": bson.M{"is_published": published, "updated_at": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoSessionRepo) GetSlots(ctx context.Context, sessionID string) ([]models.PhotoSessionSlot, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "slot_number", Value: 1}, {Key: "start_time", Value: 1}})
	cursor, err := r.slots.Find(ctx, bson.M{"photo_session_id": sessionID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	slots := []models.PhotoSessionSlot{}
	if err := cursor.All(ctx, &slots); err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *mongoSessionRepo) GetSlot(ctx context.Context, slotID string) (*models.PhotoSessionSlot, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var s models.PhotoSessionSlot
	err := r.slots.FindOne(ctx, bson.M{"id": slotID}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
