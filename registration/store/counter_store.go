// registration/store/counter_store.go
package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Sequence names in the counters collection.
const (
	SeqRegistration = "team_registration"
	SeqTicket       = "ticket"
)

// CounterStore allocates strictly increasing sequence values from a
// dedicated counters collection. One document per sequence; each allocation
// is a single atomic $inc, so concurrent callers can never draw the same
// value, even across multiple service instances.
type CounterStore struct {
	collection *mongo.Collection
}

// NewCounterStore creates a new CounterStore instance.
func NewCounterStore(collection *mongo.Collection) *CounterStore {
	return &CounterStore{collection: collection}
}

type counterDoc struct {
	Name  string `bson:"_id"`
	Value int64  `bson:"value"`
}

// next increments the named sequence and returns the post-increment value,
// creating the counter document on first use.
func (cs *CounterStore) next(ctx context.Context, name string) (int64, error) {
	filter := bson.M{"_id": name}
	update := bson.M{"$inc": bson.M{"value": int64(1)}}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc counterDoc
	if err := cs.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return 0, fmt.Errorf("failed to increment counter %s: %w", name, err)
	}
	return doc.Value, nil
}

// NextRegistrationNumber issues the next zero-padded registration number,
// e.g. "TEAM0001".
func (cs *CounterStore) NextRegistrationNumber(ctx context.Context) (string, error) {
	seq, err := cs.next(ctx, SeqRegistration)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("TEAM%04d", seq), nil
}

// NextTicketNumber issues the next ticket number, e.g. "HACK2025-001".
// The sequence counts issued tickets, not wall-clock time, so two
// verifications in the same instant still get distinct numbers.
func (cs *CounterStore) NextTicketNumber(ctx context.Context) (string, error) {
	seq, err := cs.next(ctx, SeqTicket)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("HACK%d-%03d", time.Now().Year(), seq), nil
}
