// Package mongostore is the MongoDB backend: one availability document per
// doctor, one document per appointment, a profile projection and an inbox.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Savotageofficial/capsule/services/booking-service/internal/model"
	"github.com/Savotageofficial/capsule/services/booking-service/internal/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	availabilityCollection = "doctor_availability"
	appointmentCollection  = "appointments"
	profileCollection      = "profiles"
	inboxCollection        = "inbox_events"
)

type Store struct {
	availability *mongo.Collection
	appointments *mongo.Collection
	profiles     *mongo.Collection
	inbox        *mongo.Collection
	now          func() time.Time
}

func New(db *mongo.Database) *Store {
	return &Store{
		availability: db.Collection(availabilityCollection),
		appointments: db.Collection(appointmentCollection),
		profiles:     db.Collection(profileCollection),
		inbox:        db.Collection(inboxCollection),
		now:          time.Now,
	}
}

// EnsureIndexes creates the partial unique index that makes InsertIfAbsent atomic.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.appointments.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "doctor_id", Value: 1}, {Key: "date", Value: 1}, {Key: "slot_start", Value: 1}},
			Options: options.Index().
				SetName("active_slot_uq").
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "active", Value: true}}),
		},
		{
			Keys:    bson.D{{Key: "patient_id", Value: 1}, {Key: "date_time", Value: -1}},
			Options: options.Index().SetName("patient_date_time"),
		},
	})
	if err != nil {
		return fmt.Errorf("create appointment indexes: %w", err)
	}
	return nil
}

func (s *Store) GetAvailability(ctx context.Context, doctorID string) (model.WeeklyAvailability, error) {
	var doc availabilityDoc
	err := s.availability.FindOne(ctx, bson.D{{Key: "_id", Value: doctorID}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.WeeklyAvailability{}, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.model()
}

func (s *Store) SetAvailability(ctx context.Context, doctorID string, avail model.WeeklyAvailability) error {
	doc := toAvailabilityDoc(doctorID, avail, s.now().UTC())
	_, err := s.availability.ReplaceOne(ctx, bson.D{{Key: "_id", Value: doctorID}}, doc, options.Replace().SetUpsert(true))
	return err
}

func (s *Store) InsertIfAbsent(ctx context.Context, appt model.Appointment) (model.Appointment, error) {
	_, err := s.appointments.InsertOne(ctx, toAppointmentDoc(appt))
	if mongo.IsDuplicateKeyError(err) {
		return model.Appointment{}, storage.ErrSlotTaken
	}
	if err != nil {
		return model.Appointment{}, err
	}
	return appt, nil
}

func (s *Store) Get(ctx context.Context, id string) (model.Appointment, error) {
	var doc appointmentDoc
	err := s.appointments.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Appointment{}, storage.ErrNotFound
	}
	if err != nil {
		return model.Appointment{}, err
	}
	return doc.model()
}

func (s *Store) ListActive(ctx context.Context, doctorID string, date model.Date) ([]model.Appointment, error) {
	filter := bson.D{
		{Key: "doctor_id", Value: doctorID},
		{Key: "date", Value: date.String()},
		{Key: "active", Value: true},
	}
	return s.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "slot_start", Value: 1}}))
}

// ListByDoctor compares dates as strings; YYYY-MM-DD sorts chronologically.
func (s *Store) ListByDoctor(ctx context.Context, doctorID string, from, to model.Date) ([]model.Appointment, error) {
	filter := bson.D{
		{Key: "doctor_id", Value: doctorID},
		{Key: "date", Value: bson.D{{Key: "$gte", Value: from.String()}, {Key: "$lte", Value: to.String()}}},
	}
	return s.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "date_time", Value: 1}, {Key: "_id", Value: 1}}))
}

func (s *Store) ListByPatient(ctx context.Context, patientID string, limit int) ([]model.Appointment, error) {
	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "date_time", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	return s.find(ctx, bson.D{{Key: "patient_id", Value: patientID}}, opts)
}

func (s *Store) find(ctx context.Context, filter bson.D, opts *options.FindOptions) ([]model.Appointment, error) {
	cur, err := s.appointments.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []appointmentDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]model.Appointment, 0, len(docs))
	for _, d := range docs {
		appt, err := d.model()
		if err != nil {
			return nil, err
		}
		out = append(out, appt)
	}
	return out, nil
}

func (s *Store) Transition(ctx context.Context, id string, from model.Status, change model.StatusChange) (model.Appointment, error) {
	set := bson.D{
		{Key: "status", Value: string(change.To)},
		{Key: "active", Value: change.To != model.StatusCancelled},
		{Key: "updated_at", Value: change.At},
	}
	if change.To == model.StatusCancelled {
		set = append(set,
			bson.E{Key: "cancelled_at", Value: change.At},
			bson.E{Key: "cancelled_by", Value: change.By},
			bson.E{Key: "cancel_reason", Value: change.Reason},
		)
	}

	var doc appointmentDoc
	err := s.appointments.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}, {Key: "status", Value: string(from)}},
		bson.D{{Key: "$set", Value: set}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		n, cerr := s.appointments.CountDocuments(ctx, bson.D{{Key: "_id", Value: id}})
		if cerr != nil {
			return model.Appointment{}, cerr
		}
		if n == 0 {
			return model.Appointment{}, storage.ErrNotFound
		}
		return model.Appointment{}, storage.ErrStatusChanged
	}
	if err != nil {
		return model.Appointment{}, err
	}
	return doc.model()
}

func (s *Store) GetProfile(ctx context.Context, id string) (model.Profile, error) {
	var doc profileDoc
	err := s.profiles.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Profile{}, storage.ErrNotFound
	}
	if err != nil {
		return model.Profile{}, err
	}
	return model.Profile{
		ID:          doc.ID,
		Role:        model.Role(doc.Role),
		DisplayName: doc.DisplayName,
		Complete:    doc.Complete,
		UpdatedAt:   doc.UpdatedAt,
	}, nil
}

// UpsertProfile matches only an older or equal version. When a newer one is
// stored the upsert collides on _id and the stale update is dropped.
func (s *Store) UpsertProfile(ctx context.Context, p model.Profile) error {
	doc := profileDoc{ID: p.ID, Role: string(p.Role), DisplayName: p.DisplayName, Complete: p.Complete, UpdatedAt: p.UpdatedAt}
	filter := bson.D{{Key: "_id", Value: p.ID}, {Key: "updated_at", Value: bson.D{{Key: "$lte", Value: p.UpdatedAt}}}}
	_, err := s.profiles.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	return err
}

func (s *Store) Record(ctx context.Context, eventID, eventType string) (bool, error) {
	_, err := s.inbox.InsertOne(ctx, bson.D{
		{Key: "_id", Value: eventID},
		{Key: "event_type", Value: eventType},
		{Key: "received_at", Value: s.now().UTC()},
	})
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) Forget(ctx context.Context, eventID string) error {
	_, err := s.inbox.DeleteOne(ctx, bson.D{{Key: "_id", Value: eventID}})
	return err
}
