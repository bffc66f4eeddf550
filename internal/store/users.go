package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/classpulse/classpulse/internal/models"
)

// UserStore is the persistence boundary for user accounts.
type UserStore interface {
	FindByID(ctx context.Context, userID string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	// FindByImagePath resolves the user owning a gallery reference image.
	// Recognition matches report the matched image's gallery path, which
	// this lookup turns back into an identity.
	FindByImagePath(ctx context.Context, imagePath string) (*models.User, error)
	Insert(ctx context.Context, user *models.User) (primitive.ObjectID, error)
}

// MongoUserStore implements UserStore over a users collection.
type MongoUserStore struct {
	collection *mongo.Collection
}

// NewMongoUserStore creates a user store bound to the users collection of db.
func NewMongoUserStore(db *mongo.Database) *MongoUserStore {
	return &MongoUserStore{collection: db.Collection("users")}
}

// FindByID retrieves a user by id. Returns models.ErrUserNotFound when the
// id is malformed or matches no record.
func (s *MongoUserStore) FindByID(ctx context.Context, userID string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid id %q", models.ErrUserNotFound, userID)
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

// FindByEmail retrieves a user by email.
func (s *MongoUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

// FindByImagePath retrieves the user whose reference images include the
// given gallery path.
func (s *MongoUserStore) FindByImagePath(ctx context.Context, imagePath string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"images": imagePath})
}

// Insert stores a new user and returns its id.
func (s *MongoUserStore) Insert(ctx context.Context, user *models.User) (primitive.ObjectID, error) {
	result, err := s.collection.InsertOne(ctx, user)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("failed to insert user: %w", err)
	}
	id, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("unexpected inserted id type %T", result.InsertedID)
	}
	return id, nil
}

func (s *MongoUserStore) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := s.collection.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}
