package mongodb

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"frrand-backend/internal/domain"
	"frrand-backend/internal/repository"
)

// Collection names.
const (
	colUsers         = "users"
	colAddresses     = "addresses"
	colLocations     = "locations"
	colRequests      = "requests"
	colInvites       = "requestInvites"
	colPublicInvites = "publicRequestInvites"
	colFeedback      = "feedback"
	colComments      = "comments"
	colVouchers      = "vouchers"
	colAPIKeys       = "apiKeys"
)

// Store bundles all mongo-backed repositories over one database.
type Store struct {
	db *mongo.Database
	repository.UserRepository
	repository.AddressRepository
	repository.LocationRepository
	repository.RequestRepository
	repository.InviteRepository
	repository.PublicInviteRepository
	repository.FeedbackRepository
	repository.CommentRepository
	repository.VoucherRepository
	repository.APIKeyRepository
}

func NewStore(db *mongo.Database) *Store {
	return &Store{
		db:                     db,
		UserRepository:         NewUserRepository(db),
		AddressRepository:      NewAddressRepository(db),
		LocationRepository:     NewLocationRepository(db),
		RequestRepository:      NewRequestRepository(db),
		InviteRepository:       NewInviteRepository(db),
		PublicInviteRepository: NewPublicInviteRepository(db),
		FeedbackRepository:     NewFeedbackRepository(db),
		CommentRepository:      NewCommentRepository(db),
		VoucherRepository:      NewVoucherRepository(db),
		APIKeyRepository:       NewAPIKeyRepository(db),
	}
}

// EnsureIndexes creates the geospatial and uniqueness indexes the
// queries depend on. Safe to call on every startup.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	sphere := func(field string) mongo.IndexModel {
		return mongo.IndexModel{Keys: bson.D{{Key: field, Value: "2dsphere"}}}
	}

	if _, err := s.db.Collection(colLocations).Indexes().CreateMany(ctx, []mongo.IndexModel{
		sphere("location"),
		sphere("region"),
		{Keys: bson.D{{Key: "createdBy", Value: 1}, {Key: "current", Value: 1}}},
		{Keys: bson.D{{Key: "createdBy", Value: 1}, {Key: "hour", Value: 1}, {Key: "dayOfWeek", Value: 1}}},
	}); err != nil {
		return err
	}
	if _, err := s.db.Collection(colAddresses).Indexes().CreateMany(ctx, []mongo.IndexModel{
		sphere("location"),
		{Keys: bson.D{{Key: "createdBy", Value: 1}, {Key: "temporary", Value: 1}}},
	}); err != nil {
		return err
	}
	if _, err := s.db.Collection(colPublicInvites).Indexes().CreateOne(ctx, sphere("location")); err != nil {
		return err
	}
	if _, err := s.db.Collection(colInvites).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "requestId", Value: 1}, {Key: "createdBy", Value: 1}},
	}); err != nil {
		return err
	}
	_, err := s.db.Collection(colUsers).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: uniqueIndex(),
	})
	return err
}

func uniqueIndex() *options.IndexOptions {
	return options.Index().SetUnique(true)
}

// mapErr converts driver not-found errors into the domain sentinel.
func mapErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.ErrNotFound
	}
	return err
}
