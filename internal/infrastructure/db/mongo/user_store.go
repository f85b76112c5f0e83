package mongo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aurora-ai/aurora-api/internal/core/domain"
)

const userCollection = "users"

// MongoUserStore is the production CredentialStore backed by MongoDB.
type MongoUserStore struct {
	coll *mongo.Collection
}

func NewUserStore(db *mongo.Database) *MongoUserStore {
	return &MongoUserStore{coll: db.Collection(userCollection)}
}

// EnsureIndexes creates the unique indexes backing the email/username
// invariants. Call once at startup.
func (s *MongoUserStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_email"),
		},
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_username"),
		},
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

type mongoUser struct {
	ID           string         `bson:"_id"`
	Email        string         `bson:"email"`
	Username     string         `bson:"username"`
	PasswordHash string         `bson:"password_hash"`
	FirstName    string         `bson:"first_name,omitempty"`
	LastName     string         `bson:"last_name,omitempty"`
	Role         string         `bson:"role"`
	IsActive     bool           `bson:"is_active"`
	IsVerified   bool           `bson:"is_verified"`
	Preferences  map[string]any `bson:"preferences,omitempty"`
	CreatedAt    int64          `bson:"created_at"`
	LastLogin    int64          `bson:"last_login,omitempty"`
	LoginCount   int64          `bson:"login_count"`
}

func toMongoUser(u *domain.User) mongoUser {
	mu := mongoUser{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Role:         u.Role,
		IsActive:     u.IsActive,
		IsVerified:   u.IsVerified,
		Preferences:  u.Preferences,
		CreatedAt:    u.CreatedAt.Unix(),
		LoginCount:   u.LoginCount,
	}
	if u.LastLogin != nil {
		mu.LastLogin = u.LastLogin.Unix()
	}
	return mu
}

func (mu mongoUser) toDomain() *domain.User {
	u := &domain.User{
		ID:           mu.ID,
		Email:        mu.Email,
		Username:     mu.Username,
		PasswordHash: mu.PasswordHash,
		FirstName:    mu.FirstName,
		LastName:     mu.LastName,
		Role:         mu.Role,
		IsActive:     mu.IsActive,
		IsVerified:   mu.IsVerified,
		Preferences:  mu.Preferences,
		CreatedAt:    unixToTime(mu.CreatedAt),
		LoginCount:   mu.LoginCount,
	}
	if mu.LastLogin != 0 {
		last := unixToTime(mu.LastLogin)
		u.LastLogin = &last
	}
	return u
}

func (s *MongoUserStore) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if _, err := s.coll.InsertOne(ctx, toMongoUser(user)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// The violated index name tells us which uniqueness invariant
			// the write raced against.
			if strings.Contains(err.Error(), "uniq_username") {
				return nil, domain.ErrUsernameExists
			}
			return nil, domain.ErrEmailExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return s.FindByID(ctx, user.ID)
}

func (s *MongoUserStore) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *MongoUserStore) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *MongoUserStore) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.findOne(ctx, bson.M{"username": username})
}

func (s *MongoUserStore) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var mu mongoUser
	if err := s.coll.FindOne(ctx, filter).Decode(&mu); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return mu.toDomain(), nil
}

func (s *MongoUserStore) RecordLogin(ctx context.Context, id string, at time.Time) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$set": bson.M{"last_login": at.Unix()},
			"$inc": bson.M{"login_count": 1},
		},
	)
	if err != nil {
		return fmt.Errorf("record login: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
