package session

import (
	"sync"

	"skillcheck/internal/model"
)

type answerKey struct {
	sectionID  int
	questionID int
}

// AnswerStore holds the local answers for one session, keyed by
// (sectionID, questionID). It is seeded once from server state before any
// Set is allowed through the controller, and is the single source the sync
// client snapshots from.
type AnswerStore struct {
	mu      sync.RWMutex
	answers map[answerKey]string
	// section order as seeded, so sheets serialize deterministically
	order []int
}

// NewAnswerStore creates an empty store.
func NewAnswerStore() *AnswerStore {
	return &AnswerStore{answers: make(map[answerKey]string)}
}

// Seed bulk-initializes the store: one record per question across all
// sections, empty unless the server sheet carries a letter for it. Seeding
// again replaces everything, so it is idempotent.
func (s *AnswerStore) Seed(sections []model.QuizSection, sheet *model.ResponseSheet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers = make(map[answerKey]string)
	s.order = s.order[:0]
	for _, sec := range sections {
		s.order = append(s.order, sec.ID)
		for _, q := range sec.MCQs {
			letter := ""
			if sheet != nil {
				letter = sheet.Get(sec.ID, q.ID)
			}
			s.answers[answerKey{sectionID: sec.ID, questionID: q.ID}] = letter
		}
	}
}

// Get returns the recorded letter for a question, or "".
func (s *AnswerStore) Get(sectionID, questionID int) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.answers[answerKey{sectionID: sectionID, questionID: questionID}]
}

// Set overwrites the letter for a question. Re-selecting replaces the prior
// value, never appends.
func (s *AnswerStore) Set(sectionID, questionID int, letter string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers[answerKey{sectionID: sectionID, questionID: questionID}] = letter
}

// Sheet snapshots the store as a response sheet, every seeded question
// present, unanswered ones as "". The snapshot is detached: later Sets do
// not mutate it.
func (s *AnswerStore) Sheet() *model.ResponseSheet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sheet := model.NewResponseSheet()
	for _, secID := range s.order {
		for key, letter := range s.answers {
			if key.sectionID == secID {
				sheet.Set(key.sectionID, key.questionID, letter)
			}
		}
	}
	return sheet
}

// AnsweredCount reports how many questions carry a non-empty letter.
func (s *AnswerStore) AnsweredCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, letter := range s.answers {
		if letter != "" {
			n++
		}
	}
	return n
}

// Len is the number of seeded questions.
func (s *AnswerStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.answers)
}
