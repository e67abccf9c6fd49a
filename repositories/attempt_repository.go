package repositories

import (
	"context"

	"vitalwatch/models"
	"vitalwatch/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AttemptRepository struct {
	collection *mongo.Collection
}

func NewAttemptRepository(db *mongo.Database) *AttemptRepository {
	return &AttemptRepository{
		collection: db.Collection("notification_attempts"),
	}
}

// Record inserts one attempt. Each attempt has a unique ID, so retries
// append new records instead of mutating superseded ones.
func (ar *AttemptRepository) Record(ctx context.Context, attempt *models.NotificationAttempt) error {
	if attempt.ID == "" {
		attempt.ID = utils.GenerateUUID()
	}

	_, err := ar.collection.InsertOne(ctx, attempt)
	if err != nil {
		return utils.NewDependencyError("attempt store", err)
	}

	return nil
}

// ListByAlert returns every attempt for an alert, newest first, for
// delivery audits.
func (ar *AttemptRepository) ListByAlert(ctx context.Context, alertID string) ([]models.NotificationAttempt, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "sentAt", Value: -1}})

	cursor, err := ar.collection.Find(ctx, bson.M{"alertId": alertID}, findOptions)
	if err != nil {
		return nil, utils.NewDependencyError("attempt store", err)
	}
	defer cursor.Close(ctx)

	var attempts []models.NotificationAttempt
	if err = cursor.All(ctx, &attempts); err != nil {
		return nil, utils.NewDependencyError("attempt store", err)
	}

	return attempts, nil
}

func (ar *AttemptRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "alertId", Value: 1}, {Key: "recipientId", Value: 1}, {Key: "channel", Value: 1}}},
	}

	_, err := ar.collection.Indexes().CreateMany(ctx, indexes)
	return err
}
