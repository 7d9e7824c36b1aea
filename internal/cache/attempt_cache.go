package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"skillcheck/internal/model"
)

// attemptTTL keeps an abandoned attempt around long enough for late
// reloads; a finalized attempt is deleted explicitly.
const attemptTTL = 24 * time.Hour

// AttemptCache stores live in-progress attempts: the current response sheet
// and the authoritative deadline.
type AttemptCache interface {
	Set(ctx context.Context, attempt *model.Attempt) error
	Get(ctx context.Context, assessmentID, candidateID string) (*model.Attempt, error)
	Delete(ctx context.Context, assessmentID, candidateID string) error
}

type attemptCache struct {
	client *redis.Client
}

// NewAttemptCache creates a new attempt cache
func NewAttemptCache(client *redis.Client) AttemptCache {
	return &attemptCache{
		client: client,
	}
}

func attemptKey(assessmentID, candidateID string) string {
	return "attempt:" + assessmentID + ":" + candidateID
}

func (c *attemptCache) Set(ctx context.Context, attempt *model.Attempt) error {
	data, err := json.Marshal(attempt)
	if err != nil {
		return err
	}
	key := attemptKey(attempt.AssessmentID, attempt.CandidateID)
	return c.client.Set(ctx, key, data, attemptTTL).Err()
}

func (c *attemptCache) Get(ctx context.Context, assessmentID, candidateID string) (*model.Attempt, error) {
	data, err := c.client.Get(ctx, attemptKey(assessmentID, candidateID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var attempt model.Attempt
	err = json.Unmarshal([]byte(data), &attempt)
	return &attempt, err
}

func (c *attemptCache) Delete(ctx context.Context, assessmentID, candidateID string) error {
	return c.client.Del(ctx, attemptKey(assessmentID, candidateID)).Err()
}
