package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"skillcheck/config"
	"skillcheck/internal/model"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	db := client.Database(cfg.MongoDB)
	assessmentColl := db.Collection("assessments")

	// Question ids are stable but deliberately not contiguous with position,
	// the way the question bank hands them out after edits and removals.
	assessment := model.Assessment{
		ID:              primitive.NewObjectID().Hex(),
		Title:           "Backend Engineering Placement Test",
		DurationMinutes: 30,
		Sections: []model.QuizSection{
			{
				ID:   101,
				Name: "Fundamentals",
				MCQs: []model.MCQ{
					{
						ID:              1,
						QuestionText:    "Which HTTP status code indicates a resource was created?",
						OptionA:         "200",
						OptionB:         "201",
						OptionC:         "301",
						OptionD:         "404",
						DifficultyLevel: "easy",
						CorrectOption:   "B",
					},
					{
						ID:              4,
						QuestionText:    "What does ACID stand for in database transactions?",
						OptionA:         "Atomicity, Consistency, Isolation, Durability",
						OptionB:         "Accuracy, Completeness, Integrity, Durability",
						OptionC:         "Atomicity, Concurrency, Isolation, Distribution",
						OptionD:         "Availability, Consistency, Isolation, Durability",
						DifficultyLevel: "easy",
						CorrectOption:   "A",
					},
					{
						ID:              2,
						QuestionText:    "Which data structure gives O(1) average lookup by key?",
						OptionA:         "Linked list",
						OptionB:         "Binary search tree",
						OptionC:         "Hash table",
						OptionD:         "Sorted array",
						DifficultyLevel: "easy",
						CorrectOption:   "C",
					},
				},
			},
			{
				ID:   102,
				Name: "Systems",
				MCQs: []model.MCQ{
					{
						ID:              7,
						QuestionText:    "What is the primary purpose of a message queue between services?",
						OptionA:         "Synchronous request routing",
						OptionB:         "Decoupling producers from consumers",
						OptionC:         "Schema validation",
						OptionD:         "Load-time configuration",
						DifficultyLevel: "medium",
						CorrectOption:   "B",
					},
					{
						ID:              5,
						QuestionText:    "Which consistency model do most DNS caches provide?",
						OptionA:         "Strong consistency",
						OptionB:         "Linearizability",
						OptionC:         "Eventual consistency",
						OptionD:         "Serializability",
						DifficultyLevel: "medium",
						CorrectOption:   "C",
					},
					{
						ID:              9,
						QuestionText:    "In a leader-follower replication setup, where do writes go?",
						OptionA:         "Any replica",
						OptionB:         "The leader",
						OptionC:         "The oldest follower",
						OptionD:         "A randomly chosen follower",
						DifficultyLevel: "hard",
						CorrectOption:   "B",
					},
				},
			},
		},
	}

	if _, err := assessmentColl.InsertOne(ctx, assessment); err != nil {
		log.Fatalf("Failed to insert assessment: %v", err)
	}

	fmt.Printf("Seeded assessment %s (%d questions, %d minutes)\n",
		assessment.ID, assessment.QuestionCount(), assessment.DurationMinutes)
}
