package repo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/agidash/agidash/pkg/errors"
	"github.com/agidash/agidash/pkg/logger"
)

const (
	indicesCollection     = "daily_index"
	alertsCollection      = "alerts"
	subscribersCollection = "subscribers"
)

func New(ctx context.Context, cfg Config, log logger.Logger) (Client, error) {
	opts := options.Client().
		ApplyURI(cfg.URL).
		SetTimeout(cfg.Timeout)

	if cfg.Auth.Username != "" {
		opts = opts.SetAuth(options.Credential{
			Username: cfg.Auth.Username,
			Password: cfg.Auth.Password,
		})
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.WrapFail(err, "connect to mongo db")
	}

	db := client.Database(cfg.Database)

	m := &mongoClient{
		client:      client,
		indices:     db.Collection(indicesCollection),
		alerts:      db.Collection(alertsCollection),
		subscribers: db.Collection(subscribersCollection),
		log:         log.With("mongo_repo"),
	}

	err = m.createIndexes(ctx)
	if err != nil {
		return nil, errors.WrapFail(err, "create collection indexes")
	}

	return m, nil
}

type mongoClient struct {
	client      *mongo.Client
	indices     *mongo.Collection
	alerts      *mongo.Collection
	subscribers *mongo.Collection
	log         logger.Logger
}

func (m *mongoClient) createIndexes(ctx context.Context) error {
	byDate := mongo.IndexModel{
		Keys:    bson.D{{Key: "date", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("by_date"),
	}
	byChat := mongo.IndexModel{
		Keys:    bson.D{{Key: "chat_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("by_chat"),
	}

	var errs []error
	for coll, model := range map[*mongo.Collection]mongo.IndexModel{
		m.indices:     byDate,
		m.alerts:      byDate,
		m.subscribers: byChat,
	} {
		_, err := coll.Indexes().CreateOne(ctx, model)
		if err != nil {
			errs = append(errs, errors.WrapFailf(err, "create index on %q", coll.Name()))
		}
	}

	return errors.Collapse(errs)
}

func (m *mongoClient) Indices() Indices         { return &indicesRepo{m} }
func (m *mongoClient) Alerts() Alerts           { return &alertsRepo{m} }
func (m *mongoClient) Subscribers() Subscribers { return &subscribersRepo{m} }

func (m *mongoClient) Close(ctx context.Context) error {
	err := m.client.Disconnect(ctx)
	return errors.WrapFail(err, "close mongo db connection")
}

type indicesRepo struct {
	*mongoClient
}

func (r *indicesRepo) Upsert(ctx context.Context, p IndexPoint) error {
	_, err := r.indices.ReplaceOne(
		ctx,
		bson.M{"date": p.Date},
		p,
		options.Replace().SetUpsert(true),
	)
	return errors.WrapFail(err, "upsert index point")
}

func (r *indicesRepo) Window(ctx context.Context, n int) ([]IndexPoint, error) {
	points, err := findLimited[IndexPoint](ctx, r.indices, n, -1)
	if err != nil {
		return nil, errors.WrapFail(err, "select index window")
	}

	// fetched newest first, callers want ascending
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}

	return points, nil
}

type alertsRepo struct {
	*mongoClient
}

func (r *alertsRepo) Upsert(ctx context.Context, a Alert) error {
	_, err := r.alerts.ReplaceOne(
		ctx,
		bson.M{"date": a.Date},
		a,
		options.Replace().SetUpsert(true),
	)
	return errors.WrapFail(err, "upsert alert")
}

func (r *alertsRepo) Recent(ctx context.Context, n int) ([]Alert, error) {
	alerts, err := findLimited[Alert](ctx, r.alerts, n, -1)
	return alerts, errors.WrapFail(err, "select recent alerts")
}

type subscribersRepo struct {
	*mongoClient
}

func (r *subscribersRepo) Upsert(ctx context.Context, s Subscriber) error {
	_, err := r.subscribers.ReplaceOne(
		ctx,
		bson.M{"chat_id": s.ChatID},
		s,
		options.Replace().SetUpsert(true),
	)
	return errors.WrapFail(err, "upsert subscriber")
}

func (r *subscribersRepo) Delete(ctx context.Context, chatID int64) (bool, error) {
	result, err := r.subscribers.DeleteOne(ctx, bson.M{"chat_id": chatID})
	if err != nil {
		return false, errors.WrapFail(err, "delete subscriber")
	}

	return result.DeletedCount == 1, nil
}

func (r *subscribersRepo) All(ctx context.Context) ([]Subscriber, error) {
	cur, err := r.subscribers.Find(ctx, bson.M{})
	if err != nil {
		return nil, errors.WrapFail(err, "select subscribers")
	}

	var subs []Subscriber
	err = cur.All(ctx, &subs)
	return subs, errors.WrapFail(err, "decode subscribers")
}

func findLimited[T any](ctx context.Context, coll *mongo.Collection, n, order int) ([]T, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: order}})
	if n > 0 {
		opts = opts.SetLimit(int64(n))
	}

	cur, err := coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.WrapFail(err, "find documents")
	}

	var out []T
	err = cur.All(ctx, &out)
	return out, errors.WrapFail(err, "decode documents")
}
