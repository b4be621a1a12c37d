package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/zaidAlkhathlan/ramdan/internal/domain"
)

type riddleDoc struct {
	Idx      int      `bson:"_id"`
	Question string   `bson:"question"`
	Options  []string `bson:"options"`
	Answer   string   `bson:"answer"`
}

// RiddleLoader loads the ordered riddle pool from a Mongo collection, one
// document per riddle ordered by index. It satisfies the cache layers'
// PoolLoader.
type RiddleLoader struct {
	riddles *mongo.Collection
}

func NewRiddleLoader(db *mongo.Database) *RiddleLoader {
	return &RiddleLoader{riddles: db.Collection(riddlesCollection)}
}

func (l *RiddleLoader) LoadPool(ctx context.Context) ([]domain.Riddle, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := l.riddles.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("load riddles: %w", err)
	}
	defer cur.Close(ctx)

	var out []domain.Riddle
	for cur.Next(ctx) {
		var doc riddleDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode riddle: %w", err)
		}
		out = append(out, domain.Riddle{
			Question: doc.Question,
			Options:  doc.Options,
			Answer:   doc.Answer,
		})
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, domain.ErrEmptyPool
	}
	return out, nil
}

// Seed installs pool as the riddle set, replacing documents with matching
// indexes.
func (l *RiddleLoader) Seed(ctx context.Context, pool []domain.Riddle) error {
	for i, r := range pool {
		doc := riddleDoc{Idx: i, Question: r.Question, Options: r.Options, Answer: r.Answer}
		_, err := l.riddles.ReplaceOne(ctx,
			bson.M{"_id": i},
			doc,
			options.Replace().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("seed riddle %d: %w", i, err)
		}
	}
	return nil
}
