package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"frrand-backend/internal/domain"
	"frrand-backend/internal/repository"
)

type voucherRepository struct {
	col *mongo.Collection
}

func NewVoucherRepository(db *mongo.Database) repository.VoucherRepository {
	return &voucherRepository{col: db.Collection(colVouchers)}
}

func (r *voucherRepository) GetByCode(ctx context.Context, code string) (*domain.Voucher, error) {
	var v domain.Voucher
	if err := r.col.FindOne(ctx, bson.M{"code": code}).Decode(&v); err != nil {
		return nil, mapErr(err)
	}
	return &v, nil
}

func (r *voucherRepository) Redeem(ctx context.Context, id, userID primitive.ObjectID) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "redeemedBy": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"redeemedBy": userID}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrInvalidVoucher
	}
	return nil
}

type apiKeyRepository struct {
	col *mongo.Collection
}

func NewAPIKeyRepository(db *mongo.Database) repository.APIKeyRepository {
	return &apiKeyRepository{col: db.Collection(colAPIKeys)}
}

func (r *apiKeyRepository) Create(ctx context.Context, key *domain.APIKey) (primitive.ObjectID, error) {
	res, err := r.col.InsertOne(ctx, key)
	if err != nil {
		return primitive.NilObjectID, err
	}
	id := res.InsertedID.(primitive.ObjectID)
	key.ID = id
	return id, nil
}

func (r *apiKeyRepository) GetByKey(ctx context.Context, key string) (*domain.APIKey, error) {
	var k domain.APIKey
	if err := r.col.FindOne(ctx, bson.M{"apiKey": key}).Decode(&k); err != nil {
		return nil, mapErr(err)
	}
	return &k, nil
}

func (r *apiKeyRepository) DeleteByDevice(ctx context.Context, deviceID string) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"deviceId": deviceID})
	return err
}
