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

type locationRepository struct {
	col *mongo.Collection
}

func NewLocationRepository(db *mongo.Database) repository.LocationRepository {
	return &locationRepository{col: db.Collection(colLocations)}
}

func (r *locationRepository) Create(ctx context.Context, loc *domain.Location) (primitive.ObjectID, error) {
	res, err := r.col.InsertOne(ctx, loc)
	if err != nil {
		return primitive.NilObjectID, err
	}
	id := res.InsertedID.(primitive.ObjectID)
	loc.ID = id
	return id, nil
}

func (r *locationRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Location, error) {
	var loc domain.Location
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&loc); err != nil {
		return nil, mapErr(err)
	}
	return &loc, nil
}

func (r *locationRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *locationRepository) ClearCurrent(ctx context.Context, owner primitive.ObjectID) error {
	_, err := r.col.UpdateMany(ctx,
		bson.M{"createdBy": owner, "current": true},
		bson.M{"$set": bson.M{"current": false}},
	)
	return err
}

func (r *locationRepository) SetCurrent(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"current": true}})
	return err
}

func (r *locationRepository) FindStationary(ctx context.Context, owner primitive.ObjectID, hour, dayOfWeek int, location geo.Point) (*domain.Location, error) {
	var loc domain.Location
	err := r.col.FindOne(ctx, bson.M{
		"createdBy":     owner,
		"hour":          hour,
		"dayOfWeek":     dayOfWeek,
		"location":      location,
		"timesReported": bson.M{"$gt": 1},
	}).Decode(&loc)
	if err != nil {
		return nil, mapErr(err)
	}
	return &loc, nil
}

func (r *locationRepository) ListRecent(ctx context.Context, owner primitive.ObjectID, limit int) ([]domain.Location, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := r.col.Find(ctx, bson.M{"createdBy": owner}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var locs []domain.Location
	if err := cursor.All(ctx, &locs); err != nil {
		return nil, err
	}
	return locs, nil
}

func (r *locationRepository) SetTimesReported(ctx context.Context, id primitive.ObjectID, n int) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"timesReported": n}})
	return err
}

func (r *locationRepository) SetRegion(ctx context.Context, id primitive.ObjectID, region geo.Geometry) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"region": region}})
	return err
}

func (r *locationRepository) ListFrequentInWindow(ctx context.Context, owner primitive.ObjectID, hours, days []int, limit int) ([]domain.Location, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timesReported", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := r.col.Find(ctx, bson.M{
		"createdBy": owner,
		"hour":      bson.M{"$in": hours},
		"dayOfWeek": bson.M{"$in": days},
	}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var locs []domain.Location
	if err := cursor.All(ctx, &locs); err != nil {
		return nil, err
	}
	return locs, nil
}

func (r *locationRepository) FindIntersectingRoute(ctx context.Context, route geo.LineString, near *geo.Point, dayOfWeek int) ([]domain.Location, error) {
	filter := bson.M{
		"current":   true,
		"dayOfWeek": dayOfWeek,
		"region":    bson.M{"$geoIntersects": bson.M{"$geometry": route}},
	}
	// $near both filters and sorts; only the primary route query
	// wants proximity ordering.
	if near != nil {
		filter["location"] = bson.M{"$near": bson.M{"$geometry": *near}}
	}
	cursor, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var locs []domain.Location
	if err := cursor.All(ctx, &locs); err != nil {
		return nil, err
	}
	return locs, nil
}
