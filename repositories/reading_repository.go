package repositories

import (
	"context"
	"time"

	"vitalwatch/models"
	"vitalwatch/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ReadingRepository struct {
	collection *mongo.Collection
}

func NewReadingRepository(db *mongo.Database) *ReadingRepository {
	return &ReadingRepository{
		collection: db.Collection("vital_readings"),
	}
}

func (rr *ReadingRepository) Create(ctx context.Context, reading *models.VitalReading) error {
	reading.CreatedAt = time.Now()
	if reading.RecordedAt.IsZero() {
		reading.RecordedAt = reading.CreatedAt
	}

	_, err := rr.collection.InsertOne(ctx, reading)
	if err != nil {
		return utils.NewDependencyError("reading store", err)
	}

	return nil
}

func (rr *ReadingRepository) ListBySubject(ctx context.Context, subjectID string, limit int) ([]models.VitalReading, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "recordedAt", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := rr.collection.Find(ctx, bson.M{"subjectId": subjectID}, findOptions)
	if err != nil {
		return nil, utils.NewDependencyError("reading store", err)
	}
	defer cursor.Close(ctx)

	var readings []models.VitalReading
	if err = cursor.All(ctx, &readings); err != nil {
		return nil, utils.NewDependencyError("reading store", err)
	}

	return readings, nil
}

func (rr *ReadingRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "subjectId", Value: 1}, {Key: "recordedAt", Value: -1}}},
	}

	_, err := rr.collection.Indexes().CreateMany(ctx, indexes)
	return err
}
