package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/Beka01247/kwaaka-table/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	collectionMenus        = "menus"
	collectionPolicies     = "branch_policies"
	collectionSessions     = "guest_sessions"
	collectionParties      = "parties"
	collectionOrders       = "orders"
	collectionOrderItems   = "order_items"
	collectionBillRequests = "bill_requests"
)

type Storage struct {
	client   *mongo.Client
	database *mongo.Database
	config   Config
}

type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

func New(cfg Config) (*Storage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(100).
		SetMinPoolSize(10)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	database := client.Database(cfg.Database)

	return &Storage{
		client:   client,
		database: database,
		config:   cfg,
	}, nil
}

func (s *Storage) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Storage) Database() *mongo.Database {
	return s.database
}

func (s *Storage) StartSession() (mongo.Session, error) {
	return s.client.StartSession()
}

func (s *Storage) CreateIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		collectionMenus: {
			{Keys: bson.D{{Key: "branch_id", Value: 1}}},
			{Keys: bson.D{{Key: "items.id", Value: 1}}},
		},
		collectionSessions: {
			// sessions disappear a day after the visit ends
			{
				Keys:    bson.D{{Key: "expires_at", Value: 1}},
				Options: options.Index().SetExpireAfterSeconds(24 * 60 * 60),
			},
		},
		collectionParties: {
			// PIN uniqueness among open parties of a branch
			{
				Keys: bson.D{{Key: "branch_id", Value: 1}, {Key: "pin", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"status": domain.PartyOpen}),
			},
			{Keys: bson.D{{Key: "members", Value: 1}, {Key: "status", Value: 1}}},
		},
		collectionOrderItems: {
			{Keys: bson.D{{Key: "session_id", Value: 1}, {Key: "paid", Value: 1}}},
			{Keys: bson.D{{Key: "order_id", Value: 1}}},
		},
		collectionBillRequests: {
			// one outstanding bill request per session
			{
				Keys: bson.D{{Key: "session_id", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"status": domain.BillCreated}),
			},
		},
	}

	for name, models := range indexes {
		if _, err := s.database.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", name, err)
		}
	}

	return nil
}
