package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"skillcheck/internal/cache"
	"skillcheck/internal/model"
	"skillcheck/internal/repository"
)

var (
	ErrAssessmentNotFound = errors.New("assessment not found")
	ErrAttemptNotStarted  = errors.New("attempt not started")
	ErrAlreadySubmitted   = errors.New("assessment already submitted")
)

// scholarshipBands maps minimum score percentage to the offered scholarship
// percentage, highest band first.
var scholarshipBands = []struct {
	minPct      int
	scholarship int
}{
	{90, 50},
	{75, 30},
	{60, 20},
	{40, 10},
}

// AssessmentService implements the assessment API: session load with honest
// remaining time, best-effort answer sync, and idempotent final grading.
type AssessmentService struct {
	assessmentRepo repository.AssessmentRepo
	submissionRepo repository.SubmissionRepo
	attempts       cache.AttemptCache
	broadcaster    Broadcaster
	now            func() time.Time

	// per-attempt locks so concurrent finals grade exactly once
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewAssessmentService creates a new assessment service
func NewAssessmentService(
	assessmentRepo repository.AssessmentRepo,
	submissionRepo repository.SubmissionRepo,
	attempts cache.AttemptCache,
) *AssessmentService {
	return &AssessmentService{
		assessmentRepo: assessmentRepo,
		submissionRepo: submissionRepo,
		attempts:       attempts,
		now:            time.Now,
		locks:          make(map[string]*sync.Mutex),
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (s *AssessmentService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

func (s *AssessmentService) lockFor(assessmentID, candidateID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := assessmentID + ":" + candidateID
	if l, ok := s.locks[key]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.locks[key] = l
	return l
}

// Start loads the question set and the candidate's attempt state. A first
// visit opens an attempt with a deadline; a reload reports remaining time
// from that stored deadline; a finished attempt comes back submitted with
// its stored score and no questions re-gradeable.
func (s *AssessmentService) Start(ctx context.Context, assessmentID, candidateID string) (*model.StartAssessmentResponse, error) {
	assessment, err := s.assessmentRepo.GetByID(ctx, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load assessment: %w", err)
	}
	if assessment == nil {
		return nil, ErrAssessmentNotFound
	}

	submission, err := s.submissionRepo.GetByAttempt(ctx, assessmentID, candidateID)
	if err != nil {
		return nil, fmt.Errorf("failed to check submission: %w", err)
	}
	if submission != nil {
		score := submission.Score
		scholarship := submission.Scholarship
		return &model.StartAssessmentResponse{
			QuizSections:  assessment.Sections,
			RemainingTime: 0,
			ResponseSheet: submission.Sheet,
			Status:        model.StatusSubmitted,
			Score:         &score,
			Scholarship:   &scholarship,
		}, nil
	}

	attempt, err := s.attempts.Get(ctx, assessmentID, candidateID)
	if err != nil {
		return nil, fmt.Errorf("failed to load attempt: %w", err)
	}

	if attempt == nil {
		now := s.now()
		attempt = &model.Attempt{
			AssessmentID: assessmentID,
			CandidateID:  candidateID,
			Sheet:        model.NewResponseSheet(),
			StartedAt:    now,
			Deadline:     now.Add(time.Duration(assessment.DurationMinutes) * time.Minute),
		}
		if err := s.attempts.Set(ctx, attempt); err != nil {
			return nil, fmt.Errorf("failed to open attempt: %w", err)
		}
		log.Printf("[Assessment] Attempt opened: assessment=%s candidate=%s deadline=%s",
			assessmentID, candidateID, attempt.Deadline.Format(time.RFC3339))
		return &model.StartAssessmentResponse{
			QuizSections:  assessment.Sections,
			RemainingTime: assessment.DurationMinutes,
			ResponseSheet: attempt.Sheet,
			Status:        model.StatusNotStarted,
		}, nil
	}

	return &model.StartAssessmentResponse{
		QuizSections:  assessment.Sections,
		RemainingTime: attempt.RemainingMinutes(s.now()),
		ResponseSheet: attempt.Sheet,
		Status:        model.StatusInProgress,
	}, nil
}

// Sync merges a sheet snapshot into the live attempt, last writer wins per
// question. The client treats this as fire-and-forget; failures here only
// cost server-side resume fidelity, never the candidate's local state.
func (s *AssessmentService) Sync(ctx context.Context, assessmentID, candidateID string, sheet *model.ResponseSheet) error {
	submission, err := s.submissionRepo.GetByAttempt(ctx, assessmentID, candidateID)
	if err != nil {
		return fmt.Errorf("failed to check submission: %w", err)
	}
	if submission != nil {
		return ErrAlreadySubmitted
	}

	attempt, err := s.attempts.Get(ctx, assessmentID, candidateID)
	if err != nil {
		return fmt.Errorf("failed to load attempt: %w", err)
	}
	if attempt == nil {
		return ErrAttemptNotStarted
	}

	attempt.Sheet.Merge(sheet)
	if err := s.attempts.Set(ctx, attempt); err != nil {
		return fmt.Errorf("failed to store attempt: %w", err)
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastToWatchers(assessmentID, "progress_update", map[string]interface{}{
			"candidateId":   candidateID,
			"answeredCount": attempt.Sheet.AnsweredCount(),
		})
	}
	return nil
}

// SubmitFinal grades the sheet exactly once per attempt. The first call
// persists the submission and drops the live attempt; every later call,
// concurrent or not, returns the stored result unchanged.
func (s *AssessmentService) SubmitFinal(ctx context.Context, assessmentID, candidateID string, sheet *model.ResponseSheet) (*model.FinalResult, error) {
	lock := s.lockFor(assessmentID, candidateID)
	lock.Lock()
	defer lock.Unlock()

	existing, err := s.submissionRepo.GetByAttempt(ctx, assessmentID, candidateID)
	if err != nil {
		return nil, fmt.Errorf("failed to check submission: %w", err)
	}
	if existing != nil {
		return &model.FinalResult{Score: existing.Score, Scholarship: existing.Scholarship}, nil
	}

	assessment, err := s.assessmentRepo.GetByID(ctx, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load assessment: %w", err)
	}
	if assessment == nil {
		return nil, ErrAssessmentNotFound
	}

	if sheet == nil {
		sheet = model.NewResponseSheet()
	}
	score := gradeSheet(assessment, sheet)
	scholarship := scholarshipFor(score, assessment.QuestionCount())

	submission := &model.Submission{
		AssessmentID: assessmentID,
		CandidateID:  candidateID,
		Sheet:        sheet,
		Score:        score,
		Scholarship:  scholarship,
		SubmittedAt:  s.now(),
	}
	if err := s.submissionRepo.Create(ctx, submission); err != nil {
		return nil, fmt.Errorf("failed to store submission: %w", err)
	}

	if err := s.attempts.Delete(ctx, assessmentID, candidateID); err != nil {
		log.Printf("[Assessment] Warning: failed to drop attempt %s/%s: %v", assessmentID, candidateID, err)
	}

	log.Printf("[Assessment] Final submission graded: assessment=%s candidate=%s score=%d scholarship=%d%%",
		assessmentID, candidateID, score, scholarship)

	if s.broadcaster != nil {
		s.broadcaster.BroadcastToWatchers(assessmentID, "submission_finalized", map[string]interface{}{
			"candidateId": candidateID,
			"score":       score,
			"scholarship": scholarship,
		})
	}

	return &model.FinalResult{Score: score, Scholarship: scholarship}, nil
}

// gradeSheet counts one point per question whose recorded letter matches
// the answer key. Letters for unknown questions are ignored.
func gradeSheet(assessment *model.Assessment, sheet *model.ResponseSheet) int {
	score := 0
	for _, sec := range assessment.Sections {
		for _, q := range sec.MCQs {
			if letter := sheet.Get(sec.ID, q.ID); letter != "" && letter == q.CorrectOption {
				score++
			}
		}
	}
	return score
}

// scholarshipFor maps a score to the offered scholarship percentage.
func scholarshipFor(score, total int) int {
	if total == 0 {
		return 0
	}
	pct := score * 100 / total
	for _, band := range scholarshipBands {
		if pct >= band.minPct {
			return band.scholarship
		}
	}
	return 0
}
