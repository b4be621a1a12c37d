package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/zaidAlkhathlan/ramdan/internal/domain"
)

type participantDoc struct {
	ID            string `bson:"_id"`
	Email         string `bson:"email"`
	Points        int    `bson:"points"`
	LastAnswerDay string `bson:"last_answer_day"`
	CorrectToday  bool   `bson:"correct_today"`
	Seq           int64  `bson:"seq"`
}

func (d participantDoc) toDomain() domain.Participant {
	return domain.Participant{
		UserID:        d.ID,
		Email:         d.Email,
		Points:        d.Points,
		LastAnswerDay: domain.Day(d.LastAnswerDay),
		CorrectToday:  d.CorrectToday,
		Seq:           d.Seq,
	}
}

// UserStore persists participant records in a Mongo collection. The award
// write is a single filtered find-and-modify, so the points increment and
// the day transition commit together or not at all.
type UserStore struct {
	participants *mongo.Collection
	counters     *mongo.Collection
}

func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{
		participants: db.Collection(participantsCollection),
		counters:     db.Collection(countersCollection),
	}
}

func (s *UserStore) Get(ctx context.Context, userID string) (domain.Participant, error) {
	var doc participantDoc
	err := s.participants.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Participant{}, domain.ErrRecordNotFound
	}
	if err != nil {
		return domain.Participant{}, fmt.Errorf("get participant: %w", err)
	}
	return doc.toDomain(), nil
}

func (s *UserStore) Create(ctx context.Context, userID, email string) (domain.Participant, error) {
	if rec, err := s.Get(ctx, userID); err == nil {
		return rec, nil
	} else if !errors.Is(err, domain.ErrRecordNotFound) {
		return domain.Participant{}, err
	}

	seq, err := s.nextSeq(ctx)
	if err != nil {
		return domain.Participant{}, err
	}
	doc := participantDoc{ID: userID, Email: email, Seq: seq}
	if _, err := s.participants.InsertOne(ctx, doc); err != nil {
		// Lost a create race; the existing record wins.
		if mongo.IsDuplicateKeyError(err) {
			return s.Get(ctx, userID)
		}
		return domain.Participant{}, fmt.Errorf("create participant: %w", err)
	}
	return doc.toDomain(), nil
}

// MarkAnswered is conditional on the record not already carrying day; no
// matched document means either a lost double-submit race or a missing record.
func (s *UserStore) MarkAnswered(ctx context.Context, userID string, day domain.Day, correct bool, bonus int) (int, error) {
	filter := bson.M{"_id": userID, "last_answer_day": bson.M{"$ne": string(day)}}
	update := bson.M{
		"$set": bson.M{"last_answer_day": string(day), "correct_today": correct},
		"$inc": bson.M{"points": bonus},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc participantDoc
	err := s.participants.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, getErr := s.Get(ctx, userID); errors.Is(getErr, domain.ErrRecordNotFound) {
			return 0, domain.ErrRecordNotFound
		}
		return 0, domain.ErrAlreadyAnswered
	}
	if err != nil {
		return 0, fmt.Errorf("mark answered: %w", err)
	}
	return doc.Points, nil
}

func (s *UserStore) Leaderboard(ctx context.Context, limit int) ([]domain.Participant, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "points", Value: -1}, {Key: "seq", Value: 1}}).
		SetLimit(int64(limit))
	cur, err := s.participants.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("leaderboard query: %w", err)
	}
	defer cur.Close(ctx)

	var out []domain.Participant
	for cur.Next(ctx) {
		var doc participantDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("leaderboard decode: %w", err)
		}
		out = append(out, doc.toDomain())
	}
	return out, cur.Err()
}

// nextSeq allocates the creation-order tie-breaker from a counter document.
func (s *UserStore) nextSeq(ctx context.Context) (int64, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var doc struct {
		Value int64 `bson:"value"`
	}
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": "participant_seq"},
		bson.M{"$inc": bson.M{"value": int64(1)}},
		opts,
	).Decode(&doc)
	if err != nil {
		// Racing upserts on the counter's first use; transient.
		if mongo.IsDuplicateKeyError(err) {
			return 0, domain.ErrConflict
		}
		return 0, fmt.Errorf("next seq: %w", err)
	}
	return doc.Value, nil
}
