package model

import "time"

// AssessmentStatus is the lifecycle of one candidate's attempt as the
// server reports it on load.
type AssessmentStatus string

const (
	StatusNotStarted AssessmentStatus = "not_started"
	StatusInProgress AssessmentStatus = "in_progress"
	StatusSubmitted  AssessmentStatus = "submitted"
)

// MCQ is a multiple-choice question. The id is server-assigned, 1-based and
// stable, but not necessarily contiguous with the question's position in its
// section. CorrectOption never leaves the server.
type MCQ struct {
	ID              int    `json:"id" bson:"id"`
	QuestionText    string `json:"question_text" bson:"questionText"`
	OptionA         string `json:"option_a" bson:"optionA"`
	OptionB         string `json:"option_b" bson:"optionB"`
	OptionC         string `json:"option_c" bson:"optionC"`
	OptionD         string `json:"option_d" bson:"optionD"`
	DifficultyLevel string `json:"difficulty_level,omitempty" bson:"difficultyLevel,omitempty"`
	CorrectOption   string `json:"-" bson:"correctOption"`
}

// Option returns the option text for a letter A-D, or "" for anything else.
func (q *MCQ) Option(letter string) string {
	switch letter {
	case "A":
		return q.OptionA
	case "B":
		return q.OptionB
	case "C":
		return q.OptionC
	case "D":
		return q.OptionD
	}
	return ""
}

// QuizSection groups the MCQs presented together.
type QuizSection struct {
	ID   int    `json:"id" bson:"id"`
	Name string `json:"name,omitempty" bson:"name,omitempty"`
	MCQs []MCQ  `json:"mcqs" bson:"mcqs"`
}

// Assessment is the stored question set for one timed assessment.
type Assessment struct {
	ID              string        `json:"id" bson:"_id,omitempty"`
	Title           string        `json:"title" bson:"title"`
	DurationMinutes int           `json:"durationMinutes" bson:"durationMinutes"`
	Sections        []QuizSection `json:"quizSection" bson:"sections"`
}

// QuestionCount is the total number of MCQs across all sections.
func (a *Assessment) QuestionCount() int {
	n := 0
	for _, s := range a.Sections {
		n += len(s.MCQs)
	}
	return n
}

// StartAssessmentResponse is the payload of GET /v1/start-assessment/{id}.
// remaining_time is in minutes.
type StartAssessmentResponse struct {
	QuizSections  []QuizSection    `json:"quizSection"`
	RemainingTime int              `json:"remaining_time"`
	ResponseSheet *ResponseSheet   `json:"responseSheet,omitempty"`
	Status        AssessmentStatus `json:"status"`
	Score         *int             `json:"score,omitempty"`
	Scholarship   *int             `json:"offered_scholarship_percentage,omitempty"`
}

// SubmissionRequest is the body of both the per-answer sync POST and the
// final PUT.
type SubmissionRequest struct {
	ResponseSheet *ResponseSheet `json:"response_sheet"`
}

// FinalResult is what final submission yields. Placeholder marks a result
// fabricated locally because the network call failed; the session still
// completes, the score is just not authoritative.
type FinalResult struct {
	Score       int  `json:"score"`
	Scholarship int  `json:"offered_scholarship_percentage"`
	Placeholder bool `json:"-"`
}

// Attempt is the live, not-yet-submitted state of one candidate's session.
// The deadline is authoritative: remaining time reported to the client is
// derived from it, so reloads cannot stretch the budget.
type Attempt struct {
	AssessmentID string         `json:"assessmentId"`
	CandidateID  string         `json:"candidateId"`
	Sheet        *ResponseSheet `json:"responseSheet"`
	StartedAt    time.Time      `json:"startedAt"`
	Deadline     time.Time      `json:"deadline"`
}

// RemainingMinutes reports whole minutes left until the deadline, rounding
// partial minutes up so a freshly started attempt sees its full budget.
// Floor is 0.
func (a *Attempt) RemainingMinutes(now time.Time) int {
	left := a.Deadline.Sub(now)
	if left <= 0 {
		return 0
	}
	mins := int(left / time.Minute)
	if left%time.Minute > 0 {
		mins++
	}
	return mins
}

// Submission is the terminal, graded record of an attempt.
type Submission struct {
	ID           string         `json:"id" bson:"_id,omitempty"`
	AssessmentID string         `json:"assessmentId" bson:"assessmentId"`
	CandidateID  string         `json:"candidateId" bson:"candidateId"`
	Sheet        *ResponseSheet `json:"responseSheet" bson:"sheet"`
	Score        int            `json:"score" bson:"score"`
	Scholarship  int            `json:"offered_scholarship_percentage" bson:"scholarship"`
	SubmittedAt  time.Time      `json:"submittedAt" bson:"submittedAt"`
}
