package ssobackend

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const mongoTTLIndexName = "created_ttl"

// Mongo stores one document per session with attribute ciphertexts as
// top-level fields. Expiry is driven by a TTL index on "created".
type Mongo struct {
	coll   *mongo.Collection
	client *mongo.Client
	owned  bool
	now    func() time.Time

	mu  sync.RWMutex
	ttl time.Duration
}

// NewMongo wraps an existing collection. The caller keeps ownership of the client.
func NewMongo(coll *mongo.Collection) *Mongo {
	return &Mongo{coll: coll, client: coll.Database().Client(), now: time.Now}
}

// CreateIndex ensures the TTL index exists. The TTL monitor runs lazily,
// so reads also filter on "created".
func (m *Mongo) CreateIndex(ctx context.Context, ttl time.Duration) error {
	m.mu.Lock()
	m.ttl = ttl
	m.mu.Unlock()

	if ttl <= 0 {
		return nil
	}

	model := mongo.IndexModel{
		Keys: bson.D{{Key: FieldCreated, Value: 1}},
		Options: options.Index().
			SetName(mongoTTLIndexName).
			SetExpireAfterSeconds(int32(ttl / time.Second)),
	}
	if _, err := m.coll.Indexes().CreateOne(ctx, model); err != nil {
		return unavailable(err)
	}
	return nil
}

// CreateSession inserts an empty document. A duplicate id means a concurrent
// request already created the record, which is treated as success.
func (m *Mongo) CreateSession(ctx context.Context, id string) error {
	doc := bson.D{
		{Key: FieldID, Value: id},
		{Key: FieldCreated, Value: m.now()},
	}
	if _, err := m.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return unavailable(err)
	}
	return nil
}

// GetSession loads the live document for id.
func (m *Mongo) GetSession(ctx context.Context, id string) (*Record, error) {
	var doc bson.M
	if err := m.coll.FindOne(ctx, m.liveFilter(id)).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, unavailable(err)
	}

	rec := &Record{ID: id, Fields: make(map[string]string, len(doc))}
	for k, v := range doc {
		switch k {
		case FieldID:
		case FieldCreated:
			if dt, ok := v.(bson.DateTime); ok {
				rec.Created = dt.Time()
			}
		default:
			if s, ok := v.(string); ok {
				rec.Fields[k] = s
			}
		}
	}
	return rec, nil
}

// UpdateSession sets one top-level field with a single $set.
func (m *Mongo) UpdateSession(ctx context.Context, id, field, ciphertext string) error {
	if err := ValidateField(field); err != nil {
		return err
	}

	update := bson.D{{Key: "$set", Value: bson.D{{Key: field, Value: ciphertext}}}}
	res, err := m.coll.UpdateOne(ctx, m.liveFilter(id), update)
	if err != nil {
		return unavailable(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSession removes the document.
func (m *Mongo) DeleteSession(ctx context.Context, id string) error {
	if _, err := m.coll.DeleteOne(ctx, bson.D{{Key: FieldID, Value: id}}); err != nil {
		return unavailable(err)
	}
	return nil
}

// Ping checks the client connection.
func (m *Mongo) Ping(ctx context.Context) error {
	if err := m.client.Ping(ctx, nil); err != nil {
		return errors.Join(ErrHealthcheckFailed, err)
	}
	return nil
}

// Close disconnects only when the backend created the client.
func (m *Mongo) Close() error {
	if !m.owned {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

func (m *Mongo) liveFilter(id string) bson.D {
	filter := bson.D{{Key: FieldID, Value: id}}

	m.mu.RLock()
	ttl := m.ttl
	m.mu.RUnlock()

	if ttl > 0 {
		filter = append(filter, bson.E{Key: FieldCreated, Value: bson.D{{Key: "$gt", Value: m.now().Add(-ttl)}}})
	}
	return filter
}

// ConnectMongo creates a client and retries until the server answers a ping.
func ConnectMongo(ctx context.Context, cfg MongoConfig) (*mongo.Client, error) {
	if cfg.URL == "" {
		return nil, errors.Join(ErrMissingConfig, errors.New("mongodb url is empty"))
	}

	attempts := max(cfg.RetryAttempts, 1)
	for range attempts {
		client, err := mongo.Connect(
			options.Client().
				ApplyURI(cfg.URL).
				SetConnectTimeout(cfg.ConnectTimeout).
				SetMaxPoolSize(cfg.MaxPoolSize).
				SetMinPoolSize(cfg.MinPoolSize).
				SetRetryWrites(true).
				SetRetryReads(true),
		)
		if err == nil {
			if err := client.Ping(ctx, nil); err == nil {
				return client, nil
			}
			_ = client.Disconnect(ctx)
		}

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrFailedToConnect, ctx.Err())
		case <-time.After(cfg.RetryInterval):
		}
	}

	return nil, ErrFailedToConnect
}
