package repositories

import (
	"context"
	"time"

	"vitalwatch/models"
	"vitalwatch/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AlertRepository struct {
	collection *mongo.Collection
}

func NewAlertRepository(db *mongo.Database) *AlertRepository {
	return &AlertRepository{
		collection: db.Collection("alerts"),
	}
}

func (ar *AlertRepository) Create(ctx context.Context, alert *models.Alert) (string, error) {
	alert.CreatedAt = time.Now()
	alert.UpdatedAt = alert.CreatedAt
	if alert.Timestamp.IsZero() {
		alert.Timestamp = alert.CreatedAt
	}

	result, err := ar.collection.InsertOne(ctx, alert)
	if err != nil {
		return "", utils.NewDependencyError("alert store", err)
	}

	id := result.InsertedID.(primitive.ObjectID)
	alert.ID = id
	return id.Hex(), nil
}

// Get looks an alert up by its composite id+timestamp key. A stale pair
// misses even when the id exists.
func (ar *AlertRepository) Get(ctx context.Context, id string, timestamp time.Time) (*models.Alert, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, utils.NewValidationError("invalid alert ID")
	}

	var alert models.Alert
	err = ar.collection.FindOne(ctx, bson.M{"_id": objectID, "timestamp": timestamp}).Decode(&alert)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, utils.NewNotFoundError("alert")
		}
		return nil, utils.NewDependencyError("alert store", err)
	}

	return &alert, nil
}

func (ar *AlertRepository) Acknowledge(ctx context.Context, id string, timestamp time.Time, actorID string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return utils.NewValidationError("invalid alert ID")
	}

	update := bson.M{"$set": bson.M{
		"acknowledged":   true,
		"acknowledgedBy": actorID,
		"acknowledgedAt": time.Now(),
		"updatedAt":      time.Now(),
	}}

	result, err := ar.collection.UpdateOne(ctx, bson.M{"_id": objectID, "timestamp": timestamp}, update)
	if err != nil {
		return utils.NewDependencyError("alert store", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewNotFoundError("alert")
	}

	return nil
}

func (ar *AlertRepository) Escalate(ctx context.Context, id string, timestamp time.Time, level models.EscalationLevel) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return utils.NewValidationError("invalid alert ID")
	}

	update := bson.M{"$set": bson.M{
		"escalated":       true,
		"escalationLevel": level,
		"escalatedAt":     time.Now(),
		"updatedAt":       time.Now(),
	}}

	result, err := ar.collection.UpdateOne(ctx, bson.M{"_id": objectID, "timestamp": timestamp}, update)
	if err != nil {
		return utils.NewDependencyError("alert store", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewNotFoundError("alert")
	}

	return nil
}

func (ar *AlertRepository) ListBySubject(ctx context.Context, subjectID string, limit int) ([]models.Alert, error) {
	return ar.list(ctx, bson.M{"subjectId": subjectID}, limit)
}

func (ar *AlertRepository) ListByStatus(ctx context.Context, subjectID string, acknowledged bool, limit int) ([]models.Alert, error) {
	return ar.list(ctx, bson.M{"subjectId": subjectID, "acknowledged": acknowledged}, limit)
}

func (ar *AlertRepository) list(ctx context.Context, filter bson.M, limit int) ([]models.Alert, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := ar.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, utils.NewDependencyError("alert store", err)
	}
	defer cursor.Close(ctx)

	var alerts []models.Alert
	if err = cursor.All(ctx, &alerts); err != nil {
		return nil, utils.NewDependencyError("alert store", err)
	}

	return alerts, nil
}

func (ar *AlertRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "subjectId", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "subjectId", Value: 1}, {Key: "acknowledged", Value: 1}}},
	}

	_, err := ar.collection.Indexes().CreateMany(ctx, indexes)
	return err
}
