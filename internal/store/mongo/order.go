package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/Beka01247/kwaaka-table/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type OrderRepository struct {
	storage *Storage
	orders  *mongo.Collection
	items   *mongo.Collection
}

func NewOrderRepository(storage *Storage) *OrderRepository {
	db := storage.Database()

	return &OrderRepository{
		storage: storage,
		orders:  db.Collection(collectionOrders),
		items:   db.Collection(collectionOrderItems),
	}
}

// Create stores the order header and its items in one transaction.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}

	docs := make([]interface{}, 0, len(order.Items))
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
		order.Items[i].CreatedAt = order.CreatedAt
		docs = append(docs, order.Items[i])
	}

	session, err := r.storage.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if _, err := r.orders.InsertOne(sc, order); err != nil {
			return nil, fmt.Errorf("failed to create order: %w", err)
		}
		if len(docs) > 0 {
			if _, err := r.items.InsertMany(sc, docs); err != nil {
				return nil, fmt.Errorf("failed to create order items: %w", err)
			}
		}
		return nil, nil
	})
	if err != nil {
		return err
	}

	return nil
}

func (r *OrderRepository) UnpaidItems(ctx context.Context, sessionIDs []string) ([]domain.OrderItem, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"session_id": bson.M{"$in": sessionIDs},
		"paid":       false,
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := r.items.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get unpaid order items: %w", err)
	}
	defer cursor.Close(ctx)

	items := []domain.OrderItem{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("failed to decode order items: %w", err)
	}

	return items, nil
}

func (r *OrderRepository) MarkItemsPaid(ctx context.Context, itemIDs []string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.items.UpdateMany(ctx, bson.M{"_id": bson.M{"$in": itemIDs}}, bson.M{"$set": bson.M{"paid": true}})
	if err != nil {
		return fmt.Errorf("failed to mark order items paid: %w", err)
	}

	return nil
}
