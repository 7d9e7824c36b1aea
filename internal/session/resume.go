package session

import "skillcheck/internal/model"

// QuestionRef is one question in presentation order, tagged with the section
// it belongs to. The flat list is what the controller navigates over.
type QuestionRef struct {
	SectionID int
	MCQ       model.MCQ
}

// Flatten lays out all sections' questions in presentation order.
func Flatten(sections []model.QuizSection) []QuestionRef {
	var refs []QuestionRef
	for _, sec := range sections {
		for _, q := range sec.MCQs {
			refs = append(refs, QuestionRef{SectionID: sec.ID, MCQ: q})
		}
	}
	return refs
}

// ComputeStartIndex decides where the candidate lands when (re)entering a
// session. Among answered questions it picks the one with the highest
// question id — not the highest position — and resumes just after it, or on
// it when it is the last question. Question ids are stable but not
// guaranteed to ascend with position, so "first empty slot" or "count of
// answered" would both land wrong after an out-of-order answering run.
// Nothing answered, or no questions at all, lands on 0.
func ComputeStartIndex(questions []QuestionRef, sheet *model.ResponseSheet) int {
	if len(questions) == 0 {
		return 0
	}
	bestID := -1
	bestIdx := -1
	for i, q := range questions {
		if sheet == nil {
			break
		}
		if sheet.Get(q.SectionID, q.MCQ.ID) == "" {
			continue
		}
		if q.MCQ.ID > bestID {
			bestID = q.MCQ.ID
			bestIdx = i
		}
	}
	if bestIdx == -1 {
		return 0
	}
	if bestIdx < len(questions)-1 {
		return bestIdx + 1
	}
	return bestIdx
}
