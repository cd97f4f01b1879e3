package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"frrand-backend/internal/domain"
	"frrand-backend/internal/repository"
)

type userRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) repository.UserRepository {
	return &userRepository{col: db.Collection(colUsers)}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	res, err := r.col.InsertOne(ctx, user)
	if err != nil {
		return primitive.NilObjectID, err
	}
	id := res.InsertedID.(primitive.ObjectID)
	user.ID = id
	return id, nil
}

func (r *userRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	var user domain.User
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, mapErr(err)
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	if err := r.col.FindOne(ctx, bson.M{"username": username}).Decode(&user); err != nil {
		return nil, mapErr(err)
	}
	return &user, nil
}

func (r *userRepository) SetSelfOwned(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"createdBy": id}})
	return err
}

func (r *userRepository) SetDeviceID(ctx context.Context, id primitive.ObjectID, deviceID string) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"deviceId": deviceID}})
	return err
}

func (r *userRepository) StashPoints(ctx context.Context, id primitive.ObjectID, n int) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "points": bson.M{"$gte": n}},
		bson.M{"$inc": bson.M{"points": -n, "pendingPoints": n}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrInsufficientPoints
	}
	return nil
}

func (r *userRepository) SpendPendingPoints(ctx context.Context, id primitive.ObjectID, n int) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "pendingPoints": bson.M{"$gte": n}},
		bson.M{"$inc": bson.M{"pendingPoints": -n}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrInsufficientPoints
	}
	return nil
}

func (r *userRepository) AwardPoints(ctx context.Context, id primitive.ObjectID, n int) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"points": n}})
	return err
}

func (r *userRepository) SetRating(ctx context.Context, id primitive.ObjectID, rating float64, count, prevCount int) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "numberOfRatings": prevCount},
		bson.M{"$set": bson.M{"rating": rating, "numberOfRatings": count}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *userRepository) IncrementDeliveryCounters(ctx context.Context, requesterID, delivererID primitive.ObjectID) error {
	if _, err := r.col.UpdateOne(ctx, bson.M{"_id": requesterID},
		bson.M{"$inc": bson.M{"requestsRecieved": 1}}); err != nil {
		return err
	}
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": delivererID},
		bson.M{"$inc": bson.M{"requestsDelivered": 1}})
	return err
}
