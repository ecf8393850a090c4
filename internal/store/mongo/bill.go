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

type BillRequestRepository struct {
	collection *mongo.Collection
}

func NewBillRequestRepository(db *mongo.Database) *BillRequestRepository {
	return &BillRequestRepository{
		collection: db.Collection(collectionBillRequests),
	}
}

func (r *BillRequestRepository) Create(ctx context.Context, req *domain.BillRequest) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}

	_, err := r.collection.InsertOne(ctx, req)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrBillOutstanding
		}
		return fmt.Errorf("failed to create bill request: %w", err)
	}

	return nil
}

func (r *BillRequestRepository) GetByID(ctx context.Context, id string) (*domain.BillRequest, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *BillRequestRepository) FindOutstanding(ctx context.Context, sessionID string) (*domain.BillRequest, error) {
	return r.findOne(ctx, bson.M{"session_id": sessionID, "status": domain.BillCreated})
}

func (r *BillRequestRepository) findOne(ctx context.Context, filter bson.M) (*domain.BillRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var req domain.BillRequest
	err := r.collection.FindOne(ctx, filter).Decode(&req)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("bill request: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get bill request: %w", err)
	}

	return &req, nil
}

// Transition moves the request from -> to only if it is still in from; whichever writer
// matches first wins.
func (r *BillRequestRepository) Transition(ctx context.Context, id string, from, to domain.BillStatus, at time.Time) (*domain.BillRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	set := bson.M{"status": to}
	switch to {
	case domain.BillPaid:
		set["paid_at"] = at
	case domain.BillCancelled:
		set["cancelled_at"] = at
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var req domain.BillRequest
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id, "status": from}, bson.M{"$set": set}, opts).Decode(&req)
	if err == nil {
		return &req, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to update bill request: %w", err)
	}

	// distinguish a missing request from a lost race
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, domain.ErrInvalidTransition
}
