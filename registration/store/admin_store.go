// registration/store/admin_store.go
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"github.com/hackbits/registration-service/shared/models"
)

// AdminStore is the MongoDB data store for operator accounts.
type AdminStore struct {
	collection *mongo.Collection
}

// NewAdminStore creates a new AdminStore instance.
func NewAdminStore(collection *mongo.Collection) *AdminStore {
	return &AdminStore{collection: collection}
}

// EnsureIndexes creates the unique username index.
func (as *AdminStore) EnsureIndexes(ctx context.Context) error {
	_, err := as.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create admin indexes: %w", err)
	}
	return nil
}

// EnsureDefaultAdmin seeds the bootstrap account if no admin with that
// username exists yet. The password must be changed after first login.
func (as *AdminStore) EnsureDefaultAdmin(ctx context.Context, username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash default admin password: %w", err)
	}

	filter := bson.M{"username": username}
	update := bson.M{"$setOnInsert": bson.M{
		"_id":           uuid.NewString(),
		"username":      username,
		"password_hash": string(hash),
		"role":          "admin",
		"created_at":    time.Now(),
	}}
	opts := options.Update().SetUpsert(true)

	if _, err := as.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to ensure default admin %s: %w", username, err)
	}
	return nil
}

// GetByUsername retrieves an admin account by username.
func (as *AdminStore) GetByUsername(ctx context.Context, username string) (*models.Admin, error) {
	var admin models.Admin
	err := as.collection.FindOne(ctx, bson.M{"username": username}).Decode(&admin)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find admin %s: %w", username, err)
	}
	return &admin, nil
}

// GetByID retrieves an admin account by id.
func (as *AdminStore) GetByID(ctx context.Context, id string) (*models.Admin, error) {
	var admin models.Admin
	err := as.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&admin)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find admin %s: %w", id, err)
	}
	return &admin, nil
}

// UpdateLastLogin stamps a successful login.
func (as *AdminStore) UpdateLastLogin(ctx context.Context, id string) error {
	now := time.Now()
	res, err := as.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"last_login_at": &now}},
	)
	if err != nil {
		return fmt.Errorf("failed to update last login for admin %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePassword replaces the stored password hash.
func (as *AdminStore) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res, err := as.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"password_hash": passwordHash}},
	)
	if err != nil {
		return fmt.Errorf("failed to update password for admin %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
