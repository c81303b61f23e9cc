// internal/database/user_repository.go
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"paw-grove/internal/models"
)

// UserDocument represents the MongoDB schema for a user account.
type UserDocument struct {
	ID             string    `bson:"_id"`
	Username       string    `bson:"username"`
	Email          string    `bson:"email"`
	HashedPassword string    `bson:"hashedpassword"`
	Role           string    `bson:"role"`
	IsVerified     bool      `bson:"isverified"`
	Karma          int       `bson:"karma"`
	CreatedAt      time.Time `bson:"createdat"`
	LastActive     time.Time `bson:"lastactive"`
	Following      []string  `bson:"following,omitempty"`
}

func UserToDocument(user *models.User) *UserDocument {
	doc := &UserDocument{
		ID:             user.ID.String(),
		Username:       user.Username,
		Email:          user.Email,
		HashedPassword: user.HashedPassword,
		Role:           string(user.Role),
		IsVerified:     user.IsVerified,
		Karma:          user.Karma,
		CreatedAt:      user.CreatedAt,
		LastActive:     user.LastActive,
	}
	for _, id := range user.Following {
		doc.Following = append(doc.Following, id.String())
	}
	return doc
}

func DocumentToUser(doc *UserDocument) (*models.User, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID: %v", err)
	}
	user := &models.User{
		ID:             id,
		Username:       doc.Username,
		Email:          doc.Email,
		HashedPassword: doc.HashedPassword,
		Role:           models.Role(doc.Role),
		IsVerified:     doc.IsVerified,
		Karma:          doc.Karma,
		CreatedAt:      doc.CreatedAt,
		LastActive:     doc.LastActive,
	}
	for _, s := range doc.Following {
		if followed, err := uuid.Parse(s); err == nil {
			user.Following = append(user.Following, followed)
		}
	}
	return user, nil
}

// SaveUser inserts or replaces the user document.
func (m *MongoDB) SaveUser(ctx context.Context, user *models.User) error {
	opts := options.Replace().SetUpsert(true)
	doc := UserToDocument(user)
	_, err := m.Users.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts)
	return err
}

// GetUser fetches a user by ID; returns nil, nil when absent.
func (m *MongoDB) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var doc UserDocument
	err := m.Users.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return DocumentToUser(&doc)
}

// GetUserByEmail fetches a user by email; returns nil, nil when absent.
func (m *MongoDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var doc UserDocument
	err := m.Users.FindOne(ctx, bson.M{"email": email}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return DocumentToUser(&doc)
}
