package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"skillcheck/internal/model"
)

// SubmissionRepo handles MongoDB operations for graded final submissions
type SubmissionRepo interface {
	Create(ctx context.Context, submission *model.Submission) error
	GetByAttempt(ctx context.Context, assessmentID, candidateID string) (*model.Submission, error)
}

type submissionRepo struct {
	collection *mongo.Collection
}

// NewSubmissionRepo creates a new submission repository
func NewSubmissionRepo(db *mongo.Database) SubmissionRepo {
	return &submissionRepo{
		collection: db.Collection("submissions"),
	}
}

func (r *submissionRepo) Create(ctx context.Context, submission *model.Submission) error {
	if submission.ID == "" {
		submission.ID = primitive.NewObjectID().Hex()
	}
	if submission.SubmittedAt.IsZero() {
		submission.SubmittedAt = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, submission)
	return err
}

func (r *submissionRepo) GetByAttempt(ctx context.Context, assessmentID, candidateID string) (*model.Submission, error) {
	filter := bson.M{"assessmentId": assessmentID, "candidateId": candidateID}
	var submission model.Submission
	err := r.collection.FindOne(ctx, filter).Decode(&submission)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &submission, nil
}
