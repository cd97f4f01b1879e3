package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"frrand-backend/internal/domain"
	"frrand-backend/internal/geo"
	"frrand-backend/internal/repository"
)

type addressRepository struct {
	col *mongo.Collection
}

func NewAddressRepository(db *mongo.Database) repository.AddressRepository {
	return &addressRepository{col: db.Collection(colAddresses)}
}

func (r *addressRepository) Create(ctx context.Context, address *domain.Address) (primitive.ObjectID, error) {
	res, err := r.col.InsertOne(ctx, address)
	if err != nil {
		return primitive.NilObjectID, err
	}
	id := res.InsertedID.(primitive.ObjectID)
	address.ID = id
	return id, nil
}

func (r *addressRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Address, error) {
	var address domain.Address
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&address); err != nil {
		return nil, mapErr(err)
	}
	return &address, nil
}

func (r *addressRepository) UpdateText(ctx context.Context, id primitive.ObjectID, text string) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"address": text}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *addressRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *addressRepository) ListPermanentByOwner(ctx context.Context, owner primitive.ObjectID) ([]domain.Address, error) {
	cursor, err := r.col.Find(ctx, bson.M{"createdBy": owner, "temporary": false})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var addresses []domain.Address
	if err := cursor.All(ctx, &addresses); err != nil {
		return nil, err
	}
	return addresses, nil
}

func (r *addressRepository) FindNearestPermanent(ctx context.Context, owner primitive.ObjectID, near geo.Point) (*domain.Address, error) {
	var address domain.Address
	err := r.col.FindOne(ctx, bson.M{
		"createdBy": owner,
		"temporary": false,
		"location":  bson.M{"$near": bson.M{"$geometry": near}},
	}).Decode(&address)
	if err != nil {
		return nil, mapErr(err)
	}
	return &address, nil
}

func (r *addressRepository) ExistsNear(ctx context.Context, owner primitive.ObjectID, location geo.Point) (bool, error) {
	// 3-decimal grid equality: two addresses in the same cell count
	// as the same place (~111m).
	cell := geo.Approximate(location.Coordinates, domain.AddressPrecision)
	cursor, err := r.col.Find(ctx, bson.M{"createdBy": owner, "temporary": false})
	if err != nil {
		return false, err
	}
	defer cursor.Close(ctx)
	var addresses []domain.Address
	if err := cursor.All(ctx, &addresses); err != nil {
		return false, err
	}
	for _, a := range addresses {
		existing := geo.Approximate(a.Location.Coordinates, domain.AddressPrecision)
		if existing[0] == cell[0] && existing[1] == cell[1] {
			return true, nil
		}
	}
	return false, nil
}
