package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"frrand-backend/internal/domain"
	"frrand-backend/internal/repository"
)

type inviteRepository struct {
	col *mongo.Collection
}

func NewInviteRepository(db *mongo.Database) repository.InviteRepository {
	return &inviteRepository{col: db.Collection(colInvites)}
}

func (r *inviteRepository) Create(ctx context.Context, inv *domain.Invite) (primitive.ObjectID, error) {
	res, err := r.col.InsertOne(ctx, inv)
	if err != nil {
		return primitive.NilObjectID, err
	}
	id := res.InsertedID.(primitive.ObjectID)
	inv.ID = id
	return id, nil
}

func (r *inviteRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Invite, error) {
	var inv domain.Invite
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&inv); err != nil {
		return nil, mapErr(err)
	}
	return &inv, nil
}

func (r *inviteRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *inviteRepository) ListByRequest(ctx context.Context, requestID primitive.ObjectID) ([]domain.Invite, error) {
	cursor, err := r.col.Find(ctx, bson.M{"requestId": requestID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var invites []domain.Invite
	if err := cursor.All(ctx, &invites); err != nil {
		return nil, err
	}
	return invites, nil
}

func (r *inviteRepository) ExistsForUser(ctx context.Context, requestID, userID primitive.ObjectID) (bool, error) {
	count, err := r.col.CountDocuments(ctx, bson.M{
		"requestId": requestID,
		"createdBy": userID,
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *inviteRepository) SetAccepted(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "accepted": false},
		bson.M{"$set": bson.M{"accepted": true}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrImmutableAccepted
	}
	return nil
}

func (r *inviteRepository) SetAttached(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"attached": true}})
	return err
}

func (r *inviteRepository) SetComplete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"complete": true}})
	return err
}

func (r *inviteRepository) SetCancel(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"cancel": true}})
	return err
}

func (r *inviteRepository) SetFeedback(ctx context.Context, id primitive.ObjectID, rating int, comment string) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"rating": rating, "comment": comment}})
	return err
}

func (r *inviteRepository) ListExpired(ctx context.Context, now time.Time) ([]domain.Invite, error) {
	cursor, err := r.col.Find(ctx, bson.M{
		"accepted":      false,
		"attached":      false,
		"requestExpiry": bson.M{"$lt": now},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var invites []domain.Invite
	if err := cursor.All(ctx, &invites); err != nil {
		return nil, err
	}
	return invites, nil
}
