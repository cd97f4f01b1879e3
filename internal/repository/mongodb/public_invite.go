package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"frrand-backend/internal/domain"
	"frrand-backend/internal/geo"
	"frrand-backend/internal/repository"
)

type publicInviteRepository struct {
	col *mongo.Collection
}

func NewPublicInviteRepository(db *mongo.Database) repository.PublicInviteRepository {
	return &publicInviteRepository{col: db.Collection(colPublicInvites)}
}

func (r *publicInviteRepository) Create(ctx context.Context, pub *domain.PublicInvite) (primitive.ObjectID, error) {
	res, err := r.col.InsertOne(ctx, pub)
	if err != nil {
		return primitive.NilObjectID, err
	}
	id := res.InsertedID.(primitive.ObjectID)
	pub.ID = id
	return id, nil
}

func (r *publicInviteRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.PublicInvite, error) {
	var pub domain.PublicInvite
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&pub); err != nil {
		return nil, mapErr(err)
	}
	return &pub, nil
}

func (r *publicInviteRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *publicInviteRepository) DeleteByRequest(ctx context.Context, requestID primitive.ObjectID) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"requestId": requestID})
	return err
}

func (r *publicInviteRepository) ClaimAcceptedBy(ctx context.Context, id, userID primitive.ObjectID) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "acceptedBy": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"acceptedBy": userID}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrDuplicateCandidate
	}
	return nil
}

func (r *publicInviteRepository) ClearAcceptedBy(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$unset": bson.M{"acceptedBy": ""}})
	return err
}

func (r *publicInviteRepository) ListNear(ctx context.Context, near geo.Point, limit int) ([]domain.PublicInvite, error) {
	opts := options.Find().SetLimit(int64(limit))
	cursor, err := r.col.Find(ctx, bson.M{
		"location": bson.M{"$near": bson.M{"$geometry": near}},
	}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var pubs []domain.PublicInvite
	if err := cursor.All(ctx, &pubs); err != nil {
		return nil, err
	}
	return pubs, nil
}
