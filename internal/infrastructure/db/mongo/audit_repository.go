package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/gems-crm/backend/internal/core/domain"
)

const collectionAccountEvents = "account_events"

// AuditRepository implements ports.AuditRepository using MongoDB.
type AuditRepository struct {
	col *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{col: db.Collection(collectionAccountEvents)}
}

// InsertEvent appends an entry to the account_events collection.
func (r *AuditRepository) InsertEvent(ctx context.Context, e *domain.AccountEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := bson.M{
		"account_id":  e.AccountID,
		"kind":        string(e.Kind),
		"occurred_at": e.OccurredAt.UTC(),
		"recorded_at": time.Now().UTC(),
	}
	if e.ActorID != "" {
		doc["actor_id"] = e.ActorID
	}
	if e.Detail != "" {
		doc["detail"] = e.Detail
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert account event: %w", err)
	}
	return nil
}
