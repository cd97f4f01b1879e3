package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"frrand-backend/internal/domain"
	"frrand-backend/internal/repository"
)

type feedbackRepository struct {
	col *mongo.Collection
}

func NewFeedbackRepository(db *mongo.Database) repository.FeedbackRepository {
	return &feedbackRepository{col: db.Collection(colFeedback)}
}

func (r *feedbackRepository) Create(ctx context.Context, fb *domain.Feedback) (primitive.ObjectID, error) {
	res, err := r.col.InsertOne(ctx, fb)
	if err != nil {
		return primitive.NilObjectID, err
	}
	id := res.InsertedID.(primitive.ObjectID)
	fb.ID = id
	return id, nil
}

func (r *feedbackRepository) GetByInviteFor(ctx context.Context, inviteID, forUser primitive.ObjectID) (*domain.Feedback, error) {
	var fb domain.Feedback
	err := r.col.FindOne(ctx, bson.M{
		"requestInviteId": inviteID,
		"for":             forUser,
	}).Decode(&fb)
	if err != nil {
		return nil, mapErr(err)
	}
	return &fb, nil
}

func (r *feedbackRepository) UpdateComment(ctx context.Context, id primitive.ObjectID, comment string) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"comment": comment}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type commentRepository struct {
	col *mongo.Collection
}

func NewCommentRepository(db *mongo.Database) repository.CommentRepository {
	return &commentRepository{col: db.Collection(colComments)}
}

func (r *commentRepository) Create(ctx context.Context, c *domain.Comment) (primitive.ObjectID, error) {
	res, err := r.col.InsertOne(ctx, c)
	if err != nil {
		return primitive.NilObjectID, err
	}
	id := res.InsertedID.(primitive.ObjectID)
	c.ID = id
	return id, nil
}

func (r *commentRepository) ListByTarget(ctx context.Context, target string, targetID primitive.ObjectID) ([]domain.Comment, error) {
	cursor, err := r.col.Find(ctx, bson.M{"target": target, "targetId": targetID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var comments []domain.Comment
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}
