package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"fiado/internal/core"
	"fiado/internal/store"
)

// CollectionName is where records live.
const CollectionName = "records"

type recordDoc struct {
	ObjectID  primitive.ObjectID    `bson:"_id"`
	ID        string                `bson:"id"`
	Date      string                `bson:"date"`
	Kind      string                `bson:"kind"`
	Amount    *primitive.Decimal128 `bson:"amount"`
	Category  *string               `bson:"category"`
	Sender    string                `bson:"sender"`
	CreatedAt time.Time             `bson:"created_at"`
}

type Store struct {
	collection *mongo.Collection
	now        func() time.Time
}

func NewStore(db *mongo.Database) *Store {
	return &Store{collection: db.Collection(CollectionName), now: time.Now}
}

func (s *Store) Append(ctx context.Context, r core.Record) error {
	if err := r.Validate(); err != nil {
		return err
	}
	doc, err := toDoc(r, s.now())
	if err != nil {
		return err
	}
	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("%w: insert record: %v", store.ErrUnavailable, err)
	}
	return nil
}

func (s *Store) All(ctx context.Context) ([]core.Record, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "created_at", Value: 1},
		{Key: "_id", Value: 1},
	})
	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: query records: %v", store.ErrUnavailable, err)
	}
	defer cursor.Close(ctx)

	var docs []recordDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}

	records := make([]core.Record, 0, len(docs))
	for _, d := range docs {
		r, err := fromDoc(d)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", d.ID, err)
		}
		records = append(records, r)
	}
	return records, nil
}

// Ping checks the server behind the collection.
func (s *Store) Ping(ctx context.Context) error {
	return s.collection.Database().Client().Ping(ctx, nil)
}

// EnsureIndexes creates the unique id index and the ordering index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}},
		},
	}
	if _, err := s.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("create record indexes: %w", err)
	}
	return nil
}

func toDoc(r core.Record, now time.Time) (recordDoc, error) {
	doc := recordDoc{
		ObjectID:  primitive.NewObjectID(),
		ID:        r.ID,
		Date:      r.Date.String(),
		Kind:      string(r.Kind),
		Category:  r.Category,
		Sender:    r.Sender,
		CreatedAt: now.UTC(),
	}
	if r.Amount.Valid {
		d, err := primitive.ParseDecimal128(r.Amount.Decimal.String())
		if err != nil {
			return recordDoc{}, fmt.Errorf("encode amount %s: %w", r.Amount.Decimal, err)
		}
		doc.Amount = &d
	}
	return doc, nil
}

func fromDoc(d recordDoc) (core.Record, error) {
	date, err := core.ParseDate(d.Date)
	if err != nil {
		return core.Record{}, err
	}
	r := core.Record{
		ID:       d.ID,
		Date:     date,
		Kind:     core.ParseKind(d.Kind),
		Category: d.Category,
		Sender:   d.Sender,
	}
	if d.Amount != nil {
		amt, err := decimal.NewFromString(d.Amount.String())
		if err != nil {
			return core.Record{}, fmt.Errorf("decode amount %s: %w", d.Amount, err)
		}
		r.Amount = decimal.NewNullDecimal(amt)
	}
	return r, nil
}
