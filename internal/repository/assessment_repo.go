package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"skillcheck/internal/model"
)

// AssessmentRepo handles MongoDB operations for assessment question sets
type AssessmentRepo interface {
	Create(ctx context.Context, assessment *model.Assessment) (string, error)
	GetByID(ctx context.Context, id string) (*model.Assessment, error)
	List(ctx context.Context) ([]*model.Assessment, error)
}

type assessmentRepo struct {
	collection *mongo.Collection
}

// NewAssessmentRepo creates a new assessment repository
func NewAssessmentRepo(db *mongo.Database) AssessmentRepo {
	return &assessmentRepo{
		collection: db.Collection("assessments"),
	}
}

func (r *assessmentRepo) Create(ctx context.Context, assessment *model.Assessment) (string, error) {
	if assessment.ID == "" {
		assessment.ID = primitive.NewObjectID().Hex()
	}
	_, err := r.collection.InsertOne(ctx, assessment)
	if err != nil {
		return "", err
	}
	return assessment.ID, nil
}

func (r *assessmentRepo) GetByID(ctx context.Context, id string) (*model.Assessment, error) {
	var assessment model.Assessment
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&assessment)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &assessment, nil
}

func (r *assessmentRepo) List(ctx context.Context) ([]*model.Assessment, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var assessments []*model.Assessment
	for cursor.Next(ctx) {
		var a model.Assessment
		if err := cursor.Decode(&a); err != nil {
			return nil, err
		}
		assessments = append(assessments, &a)
	}
	return assessments, cursor.Err()
}
