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

type requestRepository struct {
	col *mongo.Collection
}

func NewRequestRepository(db *mongo.Database) repository.RequestRepository {
	return &requestRepository{col: db.Collection(colRequests)}
}

func (r *requestRepository) Create(ctx context.Context, req *domain.Request) (primitive.ObjectID, error) {
	res, err := r.col.InsertOne(ctx, req)
	if err != nil {
		return primitive.NilObjectID, err
	}
	id := res.InsertedID.(primitive.ObjectID)
	req.ID = id
	return id, nil
}

func (r *requestRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Request, error) {
	var req domain.Request
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&req); err != nil {
		return nil, mapErr(err)
	}
	return &req, nil
}

func (r *requestRepository) PushCandidates(ctx context.Context, id primitive.ObjectID, userIDs []primitive.ObjectID) error {
	if len(userIDs) == 0 {
		return nil
	}
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$push": bson.M{"candidates": bson.M{"$each": userIDs}}})
	return err
}

// PopCandidate reads the head, then removes it with $pop. The read and
// pop are not one operation, but candidates is only consumed by the
// dispatch loop which runs one request at a time.
func (r *requestRepository) PopCandidate(ctx context.Context, id primitive.ObjectID) (primitive.ObjectID, error) {
	var req domain.Request
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&req); err != nil {
		return primitive.NilObjectID, mapErr(err)
	}
	if len(req.Candidates) == 0 {
		return primitive.NilObjectID, domain.ErrNotFound
	}
	head := req.Candidates[0]
	if _, err := r.col.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$pop": bson.M{"candidates": -1}}); err != nil {
		return primitive.NilObjectID, err
	}
	return head, nil
}

func (r *requestRepository) PullCandidate(ctx context.Context, id primitive.ObjectID, userID primitive.ObjectID) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$pull": bson.M{"candidates": userID}})
	return err
}

func (r *requestRepository) ClearCandidates(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"candidates": []primitive.ObjectID{}}})
	return err
}

func (r *requestRepository) AddInvite(ctx context.Context, id, inviteID primitive.ObjectID) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$push": bson.M{"inviteIds": inviteID}})
	return err
}

func (r *requestRepository) RemoveInvite(ctx context.Context, id, inviteID primitive.ObjectID) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$pull": bson.M{"inviteIds": inviteID}})
	return err
}

func (r *requestRepository) Attach(ctx context.Context, id, inviteID primitive.ObjectID) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{
			"_id":                 id,
			"attachedInviteId":    bson.M{"$exists": false},
			"complete":            false,
			"isMutuallyCancelled": false,
		},
		bson.M{
			"$set": bson.M{
				"attachedInviteId": inviteID,
				"candidates":       []primitive.ObjectID{},
				"inviteIds":        []primitive.ObjectID{inviteID},
			},
			"$unset": bson.M{"publicRequestInviteId": ""},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrAlreadyAttached
	}
	return nil
}

func (r *requestRepository) SetComplete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "complete": false, "isMutuallyCancelled": false},
		bson.M{"$set": bson.M{"complete": true}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrAlreadyComplete
	}
	return nil
}

func (r *requestRepository) SetCancel(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"cancel": true}})
	return err
}

func (r *requestRepository) SetMutuallyCancelled(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "complete": false, "isMutuallyCancelled": false},
		bson.M{"$set": bson.M{"isMutuallyCancelled": true}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrAlreadyComplete
	}
	return nil
}

func (r *requestRepository) SetFeedback(ctx context.Context, id primitive.ObjectID, rating int, comment string) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"rating": rating, "comment": comment}})
	return err
}

func (r *requestRepository) SetStaleWarned(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"staleWarned": true}})
	return err
}

func (r *requestRepository) SetPublicInviteIfUnset(ctx context.Context, id, publicInviteID primitive.ObjectID) (bool, error) {
	res, err := r.col.UpdateOne(ctx,
		bson.M{
			"_id":                   id,
			"publicRequestInviteId": bson.M{"$exists": false},
			"attachedInviteId":      bson.M{"$exists": false},
			"complete":              false,
			"isMutuallyCancelled":   false,
		},
		bson.M{"$set": bson.M{"publicRequestInviteId": publicInviteID}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (r *requestRepository) ClearPublicInvite(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$unset": bson.M{"publicRequestInviteId": ""}})
	return err
}

func (r *requestRepository) ListPastDue(ctx context.Context, now time.Time) ([]domain.Request, error) {
	cursor, err := r.col.Find(ctx, bson.M{
		"requestedTime":       bson.M{"$lt": now},
		"complete":            false,
		"isMutuallyCancelled": false,
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var reqs []domain.Request
	if err := cursor.All(ctx, &reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}
