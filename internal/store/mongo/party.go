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

type PartyRepository struct {
	collection *mongo.Collection
}

func NewPartyRepository(db *mongo.Database) *PartyRepository {
	return &PartyRepository{
		collection: db.Collection(collectionParties),
	}
}

// Create inserts party. Open parties of the branch that already expired are swept to
// EXPIRED first so their PIN becomes free; the partial unique index on (branch_id, pin)
// rejects collisions with parties that are still open.
func (r *PartyRepository) Create(ctx context.Context, party *domain.Party) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	sweep := bson.M{
		"branch_id":  party.BranchID,
		"pin":        party.PIN,
		"status":     domain.PartyOpen,
		"expires_at": bson.M{"$lte": party.CreatedAt},
	}
	if _, err := r.collection.UpdateMany(ctx, sweep, bson.M{"$set": bson.M{"status": domain.PartyExpired}}); err != nil {
		return fmt.Errorf("failed to expire stale parties: %w", err)
	}

	_, err := r.collection.InsertOne(ctx, party)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrPINTaken
		}
		return fmt.Errorf("failed to create party: %w", err)
	}

	return nil
}

func (r *PartyRepository) FindOpenByPIN(ctx context.Context, branchID, pin string, now time.Time) (*domain.Party, error) {
	filter := bson.M{
		"branch_id":  branchID,
		"pin":        pin,
		"status":     domain.PartyOpen,
		"expires_at": bson.M{"$gt": now},
	}
	return r.findOne(ctx, filter)
}

func (r *PartyRepository) FindActiveBySession(ctx context.Context, sessionID string, now time.Time) (*domain.Party, error) {
	filter := bson.M{
		"members":    sessionID,
		"status":     domain.PartyOpen,
		"expires_at": bson.M{"$gt": now},
	}
	return r.findOne(ctx, filter)
}

func (r *PartyRepository) findOne(ctx context.Context, filter bson.M) (*domain.Party, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var party domain.Party
	err := r.collection.FindOne(ctx, filter).Decode(&party)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("party: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find party: %w", err)
	}

	return &party, nil
}

// AddMember adds sessionID with set semantics, so concurrent joins commute. A session
// that ends up in a second active party is pulled back out and gets
// domain.ErrAlreadyInParty; of two racing joins at most one survives.
func (r *PartyRepository) AddMember(ctx context.Context, partyID, sessionID string, now time.Time) (*domain.Party, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"_id":        partyID,
		"status":     domain.PartyOpen,
		"expires_at": bson.M{"$gt": now},
	}
	update := bson.M{"$addToSet": bson.M{"members": sessionID}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)

	var party domain.Party
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&party)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("party: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to add party member: %w", err)
	}
	if party.HasMember(sessionID) {
		return &party, nil
	}

	active := bson.M{
		"members":    sessionID,
		"status":     domain.PartyOpen,
		"expires_at": bson.M{"$gt": now},
	}
	count, err := r.collection.CountDocuments(ctx, active)
	if err != nil {
		return nil, fmt.Errorf("failed to count parties of member: %w", err)
	}
	if count > 1 {
		if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": partyID}, bson.M{"$pull": bson.M{"members": sessionID}}); err != nil {
			return nil, fmt.Errorf("failed to remove party member: %w", err)
		}
		return nil, domain.ErrAlreadyInParty
	}

	party.Members = append(party.Members, sessionID)
	return &party, nil
}

func (r *PartyRepository) Close(ctx context.Context, partyID, sessionID string, now time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"_id":        partyID,
		"members":    sessionID,
		"status":     domain.PartyOpen,
		"expires_at": bson.M{"$gt": now},
	}
	update := bson.M{
		"$set": bson.M{
			"status":    domain.PartyClosed,
			"closed_at": now,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to close party: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("party: %w", domain.ErrNotFound)
	}

	return nil
}
