package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Beka01247/kwaaka-table/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CatalogRepository reads menus maintained by the admin side. It never writes.
type CatalogRepository struct {
	collection *mongo.Collection
}

func NewCatalogRepository(db *mongo.Database) *CatalogRepository {
	return &CatalogRepository{
		collection: db.Collection(collectionMenus),
	}
}

func (r *CatalogRepository) GetMenu(ctx context.Context, branchID string) (*domain.Menu, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var menu domain.Menu
	err := r.collection.FindOne(ctx, bson.M{"branch_id": branchID}).Decode(&menu)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("menu: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get menu: %w", err)
	}

	return &menu, nil
}

func (r *CatalogRepository) GetItem(ctx context.Context, branchID, itemID string) (*domain.MenuItem, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"branch_id": branchID, "items.id": itemID}
	opts := options.FindOne().SetProjection(bson.M{"branch_id": 1, "items.$": 1})

	var menu domain.Menu
	err := r.collection.FindOne(ctx, filter, opts).Decode(&menu)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("menu item: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get menu item: %w", err)
	}

	item, ok := menu.Item(itemID)
	if !ok {
		return nil, fmt.Errorf("menu item: %w", domain.ErrNotFound)
	}

	return &item, nil
}
