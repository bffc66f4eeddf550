package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/classpulse/classpulse/internal/models"
)

// SessionStore is the persistence boundary for session records. The
// pipeline components take this interface, never a raw collection handle.
type SessionStore interface {
	CreateSession(ctx context.Context, session *models.Session) (primitive.ObjectID, error)
	FindSession(ctx context.Context, sessionID string) (*models.Session, error)
	ListSessions(ctx context.Context, professorID primitive.ObjectID) ([]models.Session, error)
	// AppendEvent adds one event to the session's flat event log and the
	// owning student's bucket as a single atomic update. Safe under
	// concurrent writers targeting the same session.
	AppendEvent(ctx context.Context, sessionID string, event models.EmotionEvent) error
	// ListEvents returns the session's flat event log in append order.
	ListEvents(ctx context.Context, sessionID string) ([]models.EmotionEvent, error)
}

// MongoSessionStore implements SessionStore over a sessions collection.
type MongoSessionStore struct {
	collection *mongo.Collection
}

// NewMongoSessionStore creates a session store bound to the sessions
// collection of db.
func NewMongoSessionStore(db *mongo.Database) *MongoSessionStore {
	return &MongoSessionStore{collection: db.Collection("sessions")}
}

// CreateSession inserts a new session record and returns its id.
func (s *MongoSessionStore) CreateSession(ctx context.Context, session *models.Session) (primitive.ObjectID, error) {
	if session.Events == nil {
		session.Events = []models.EmotionEvent{}
	}
	if session.StudentEmotions == nil {
		session.StudentEmotions = map[string][]models.EmotionSample{}
	}

	result, err := s.collection.InsertOne(ctx, session)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("failed to create session: %w", err)
	}
	id, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("unexpected inserted id type %T", result.InsertedID)
	}
	return id, nil
}

// FindSession retrieves a session by id. Returns models.ErrSessionNotFound
// when the id is malformed or matches no record.
func (s *MongoSessionStore) FindSession(ctx context.Context, sessionID string) (*models.Session, error) {
	oid, err := primitive.ObjectIDFromHex(sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid id %q", models.ErrSessionNotFound, sessionID)
	}

	var session models.Session
	err = s.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&session)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	return &session, nil
}

// ListSessions returns all sessions owned by a professor, newest first.
func (s *MongoSessionStore) ListSessions(ctx context.Context, professorID primitive.ObjectID) ([]models.Session, error) {
	opts := options.Find().SetSort(bson.M{"created_at": -1})
	cursor, err := s.collection.Find(ctx, bson.M{"professor_id": professorID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer cursor.Close(ctx)

	sessions := []models.Session{}
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, fmt.Errorf("failed to decode sessions: %w", err)
	}
	return sessions, nil
}

// AppendEvent pushes the event onto both the flat log and the student's
// bucket in one update. $push is an in-place array append on the server,
// so concurrent recorders never overwrite each other's events the way a
// read-modify-write of the whole document would.
func (s *MongoSessionStore) AppendEvent(ctx context.Context, sessionID string, event models.EmotionEvent) error {
	oid, err := primitive.ObjectIDFromHex(sessionID)
	if err != nil {
		return fmt.Errorf("%w: invalid id %q", models.ErrSessionNotFound, sessionID)
	}

	update := bson.M{
		"$push": bson.M{
			"events": event,
			"student_emotions." + event.StudentID: models.EmotionSample{
				Emotion:   event.Emotion,
				Timestamp: event.Timestamp,
			},
		},
	}

	result, err := s.collection.UpdateByID(ctx, oid, update)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}
	if result.MatchedCount == 0 {
		return models.ErrSessionNotFound
	}
	return nil
}

// ListEvents loads only the flat event log of a session.
func (s *MongoSessionStore) ListEvents(ctx context.Context, sessionID string) ([]models.EmotionEvent, error) {
	oid, err := primitive.ObjectIDFromHex(sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid id %q", models.ErrSessionNotFound, sessionID)
	}

	opts := options.FindOne().SetProjection(bson.M{"events": 1})
	var session models.Session
	err = s.collection.FindOne(ctx, bson.M{"_id": oid}, opts).Decode(&session)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session events: %w", err)
	}
	return session.Events, nil
}
