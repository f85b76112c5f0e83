package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aurora-ai/aurora-api/internal/core/domain"
)

const auditCollection = "audit_events"

// MongoAuditStore persists authentication audit events.
type MongoAuditStore struct {
	coll *mongo.Collection
}

func NewAuditStore(db *mongo.Database) *MongoAuditStore {
	return &MongoAuditStore{coll: db.Collection(auditCollection)}
}

type mongoAuditEvent struct {
	UserID    string `bson:"user_id"`
	Email     string `bson:"email,omitempty"`
	Action    string `bson:"action"`
	Code      string `bson:"code,omitempty"`
	IP        string `bson:"ip,omitempty"`
	UserAgent string `bson:"user_agent,omitempty"`
	At        int64  `bson:"at"`
}

func (s *MongoAuditStore) Store(ctx context.Context, event domain.AuditEvent) error {
	doc := mongoAuditEvent{
		UserID:    event.UserID,
		Email:     event.Email,
		Action:    event.Action,
		Code:      event.Code,
		IP:        event.IP,
		UserAgent: event.UserAgent,
		At:        event.At.Unix(),
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *MongoAuditStore) Recent(ctx context.Context, limit int64) ([]domain.AuditEvent, error) {
	cursor, err := s.coll.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "at", Value: -1}}).SetLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("find audit events: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []mongoAuditEvent
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode audit events: %w", err)
	}

	events := make([]domain.AuditEvent, 0, len(docs))
	for _, d := range docs {
		events = append(events, domain.AuditEvent{
			UserID:    d.UserID,
			Email:     d.Email,
			Action:    d.Action,
			Code:      d.Code,
			IP:        d.IP,
			UserAgent: d.UserAgent,
			At:        unixToTime(d.At),
		})
	}
	return events, nil
}
