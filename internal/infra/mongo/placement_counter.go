package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/zaidAlkhathlan/ramdan/internal/domain"
)

// PlacementCounter assigns arrival-order slots from a per-day counter
// document. The find-and-modify increment is atomic, so simultaneous correct
// answers can never read the same slot.
type PlacementCounter struct {
	placements *mongo.Collection
}

func NewPlacementCounter(db *mongo.Database) *PlacementCounter {
	return &PlacementCounter{placements: db.Collection(placementsCollection)}
}

func (c *PlacementCounter) Next(ctx context.Context, day domain.Day) (int, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var doc struct {
		Slots int `bson:"slots"`
	}
	err := c.placements.FindOneAndUpdate(ctx,
		bson.M{"_id": string(day)},
		bson.M{"$inc": bson.M{"slots": 1}},
		opts,
	).Decode(&doc)
	if err != nil {
		// Concurrent upserts racing to create a fresh day's document can
		// both attempt the insert; the loser sees a duplicate key and
		// succeeds on retry.
		if mongo.IsDuplicateKeyError(err) {
			return 0, domain.ErrConflict
		}
		return 0, fmt.Errorf("placement next: %w", err)
	}
	return doc.Slots - 1, nil
}

// Release hands a slot back only while it is still the most recent one.
func (c *PlacementCounter) Release(ctx context.Context, day domain.Day, slot int) error {
	_, err := c.placements.UpdateOne(ctx,
		bson.M{"_id": string(day), "slots": slot + 1},
		bson.M{"$inc": bson.M{"slots": -1}},
	)
	if err != nil {
		return fmt.Errorf("placement release: %w", err)
	}
	return nil
}
