package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Beka01247/kwaaka-table/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type PolicyRepository struct {
	collection *mongo.Collection
}

func NewPolicyRepository(db *mongo.Database) *PolicyRepository {
	return &PolicyRepository{
		collection: db.Collection(collectionPolicies),
	}
}

func (r *PolicyRepository) Get(ctx context.Context, branchID string) (*domain.BranchPolicy, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var policy domain.BranchPolicy
	err := r.collection.FindOne(ctx, bson.M{"_id": branchID}).Decode(&policy)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("branch policy: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get branch policy: %w", err)
	}

	return &policy, nil
}
