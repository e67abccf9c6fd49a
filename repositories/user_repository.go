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

// UserRepository backs the profile store: users, per-subject baselines,
// recipient preferences and care-circle membership.
type UserRepository struct {
	userCollection        *mongo.Collection
	baselineCollection    *mongo.Collection
	preferencesCollection *mongo.Collection
	membersCollection     *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		userCollection:        db.Collection("users"),
		baselineCollection:    db.Collection("baselines"),
		preferencesCollection: db.Collection("recipient_preferences"),
		membersCollection:     db.Collection("circle_members"),
	}
}

func (ur *UserRepository) GetUser(ctx context.Context, userID string) (*models.User, error) {
	objectID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, utils.NewValidationError("invalid user ID")
	}

	var user models.User
	err = ur.userCollection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, utils.NewNotFoundError("user")
		}
		return nil, utils.NewDependencyError("user store", err)
	}

	return &user, nil
}

// GetBaseline returns nil without error when the subject has no
// personalized ranges; callers fall back to defaults.
func (ur *UserRepository) GetBaseline(ctx context.Context, subjectID string) (*models.Baseline, error) {
	var baseline models.Baseline
	err := ur.baselineCollection.FindOne(ctx, bson.M{"subjectId": subjectID}).Decode(&baseline)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, utils.NewDependencyError("baseline store", err)
	}

	return &baseline, nil
}

// GetPreferences returns nil without error when the recipient has no
// stored record; absence is a distinct case from "disabled".
func (ur *UserRepository) GetPreferences(ctx context.Context, recipientID string) (*models.RecipientPreferences, error) {
	var prefs models.RecipientPreferences
	err := ur.preferencesCollection.FindOne(ctx, bson.M{"recipientId": recipientID}).Decode(&prefs)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, utils.NewDependencyError("preference store", err)
	}

	return &prefs, nil
}

func (ur *UserRepository) UpdatePreferences(ctx context.Context, recipientID string, prefs *models.RecipientPreferences) error {
	prefs.RecipientID = recipientID
	prefs.UpdatedAt = time.Now()

	filter := bson.M{"recipientId": recipientID}
	update := bson.M{"$set": prefs}
	opts := options.Update().SetUpsert(true)

	_, err := ur.preferencesCollection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return utils.NewDependencyError("preference store", err)
	}

	return nil
}

// GetCircleMembers resolves the active members of a subject's care circle
// to full user records with contact points.
func (ur *UserRepository) GetCircleMembers(ctx context.Context, subjectID string) ([]models.User, error) {
	cursor, err := ur.membersCollection.Find(ctx, bson.M{"subjectId": subjectID, "status": "active"})
	if err != nil {
		return nil, utils.NewDependencyError("circle store", err)
	}
	defer cursor.Close(ctx)

	var members []models.CircleMember
	if err = cursor.All(ctx, &members); err != nil {
		return nil, utils.NewDependencyError("circle store", err)
	}

	if len(members) == 0 {
		return nil, nil
	}

	ids := make([]primitive.ObjectID, 0, len(members))
	for _, member := range members {
		objectID, err := primitive.ObjectIDFromHex(member.UserID)
		if err != nil {
			continue
		}
		ids = append(ids, objectID)
	}

	userCursor, err := ur.userCollection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, utils.NewDependencyError("user store", err)
	}
	defer userCursor.Close(ctx)

	var users []models.User
	if err = userCursor.All(ctx, &users); err != nil {
		return nil, utils.NewDependencyError("user store", err)
	}

	return users, nil
}

func (ur *UserRepository) CreateIndexes(ctx context.Context) error {
	_, err := ur.baselineCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "subjectId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = ur.preferencesCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "recipientId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = ur.membersCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "subjectId", Value: 1}, {Key: "status", Value: 1}},
	})
	return err
}
