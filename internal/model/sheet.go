package model

import "strconv"

// SectionAnswers maps a question id (as a decimal string, the way JSON object
// keys force it) to the selected letter "A"-"D", or "" for unanswered.
type SectionAnswers map[string]string

// ResponseSheet is the canonical snapshot of every answer in a session,
// shaped sectionId -> questionId -> letter. The wire shape is an array of
// single-section objects under the quizSectionId key; it must round-trip
// losslessly through the server and back.
type ResponseSheet struct {
	QuizSections []map[string]SectionAnswers `json:"quizSectionId" bson:"quizSectionId"`
}

// NewResponseSheet returns an empty sheet.
func NewResponseSheet() *ResponseSheet {
	return &ResponseSheet{QuizSections: []map[string]SectionAnswers{}}
}

// Section returns the answers for a section id, or nil when the sheet has no
// entry for it.
func (s *ResponseSheet) Section(sectionID int) SectionAnswers {
	key := strconv.Itoa(sectionID)
	for _, m := range s.QuizSections {
		if sa, ok := m[key]; ok {
			return sa
		}
	}
	return nil
}

// Get returns the recorded letter for (sectionID, questionID), or "".
func (s *ResponseSheet) Get(sectionID, questionID int) string {
	sa := s.Section(sectionID)
	if sa == nil {
		return ""
	}
	return sa[strconv.Itoa(questionID)]
}

// Set records a letter for (sectionID, questionID), overwriting any prior
// value. Setting creates the section entry on demand; it never duplicates one.
func (s *ResponseSheet) Set(sectionID, questionID int, letter string) {
	key := strconv.Itoa(sectionID)
	qkey := strconv.Itoa(questionID)
	for _, m := range s.QuizSections {
		if sa, ok := m[key]; ok {
			sa[qkey] = letter
			return
		}
	}
	s.QuizSections = append(s.QuizSections, map[string]SectionAnswers{
		key: {qkey: letter},
	})
}

// Merge folds other into s, last writer wins per question. Empty letters in
// other still overwrite: a sheet snapshot carries the full local state, so an
// entry present but empty means "unanswered as of this snapshot".
func (s *ResponseSheet) Merge(other *ResponseSheet) {
	if other == nil {
		return
	}
	for _, m := range other.QuizSections {
		for secKey, sa := range m {
			secID, err := strconv.Atoi(secKey)
			if err != nil {
				continue
			}
			for qKey, letter := range sa {
				qID, err := strconv.Atoi(qKey)
				if err != nil {
					continue
				}
				s.Set(secID, qID, letter)
			}
		}
	}
}

// Clone returns a deep copy, safe to hand to another goroutine.
func (s *ResponseSheet) Clone() *ResponseSheet {
	out := NewResponseSheet()
	for _, m := range s.QuizSections {
		for secKey, sa := range m {
			copied := make(SectionAnswers, len(sa))
			for k, v := range sa {
				copied[k] = v
			}
			out.QuizSections = append(out.QuizSections, map[string]SectionAnswers{secKey: copied})
		}
	}
	return out
}

// AnsweredCount reports how many questions carry a non-empty letter.
func (s *ResponseSheet) AnsweredCount() int {
	n := 0
	for _, m := range s.QuizSections {
		for _, sa := range m {
			for _, letter := range sa {
				if letter != "" {
					n++
				}
			}
		}
	}
	return n
}
