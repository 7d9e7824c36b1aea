package session

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"skillcheck/internal/model"
)

// State is the session lifecycle tag. The Active -> Submitting edge is a
// test-and-set on this tag, which is what makes the final submission
// exactly-once: there is no separate "already submitted" flag to forget to
// check.
type State string

const (
	StateLoading    State = "loading"
	StateActive     State = "active"
	StateSubmitting State = "submitting"
	StateCompleted  State = "completed"
	StateErrored    State = "errored"
)

var (
	ErrNotActive     = errors.New("session is not active")
	ErrInvalidOption = errors.New("option must be one of A, B, C, D")
	ErrIndexRange    = errors.New("question index out of range")
)

// API is the slice of the assessment backend the session consumes.
type API interface {
	Start(ctx context.Context, assessmentID string) (*model.StartAssessmentResponse, error)
	SyncAnswers(ctx context.Context, assessmentID string, sheet *model.ResponseSheet) error
	SubmitFinal(ctx context.Context, assessmentID string, sheet *model.ResponseSheet) (*model.FinalResult, error)
}

// Snapshot is the read-only view handed to the rendering layer.
type Snapshot struct {
	State            State
	CurrentIndex     int
	RemainingSeconds int
	Question         *model.MCQ
	SelectedOption   string
	AnsweredCount    int
	RemainingCount   int
	Result           *model.FinalResult
	Err              error
}

// Listener receives a snapshot after every observable change. It is called
// from the goroutine that caused the change; keep it cheap.
type Listener func(Snapshot)

// Controller owns one session: the countdown, the answer store, the resume
// index, and the exactly-once final submission. The answer store and
// remaining time are written only here; everyone else reads snapshots.
type Controller struct {
	api          API
	assessmentID string
	clock        *Clock
	listener     Listener
	ctx          context.Context

	mu        sync.Mutex
	state     State
	questions []QuestionRef
	store     *AnswerStore
	current   int
	remaining int // seconds
	result    *model.FinalResult
	loadErr   error
	closed    bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithTickerFactory substitutes the time source, used by tests for
// deterministic ticks.
func WithTickerFactory(f TickerFactory) Option {
	return func(c *Controller) { c.clock = NewClock(f) }
}

// WithListener registers the rendering-layer callback.
func WithListener(l Listener) Option {
	return func(c *Controller) { c.listener = l }
}

// NewController creates a session controller for one assessment attempt.
func NewController(api API, assessmentID string, opts ...Option) *Controller {
	c := &Controller{
		api:          api,
		assessmentID: assessmentID,
		clock:        NewClock(nil),
		store:        NewAnswerStore(),
		state:        StateLoading,
		ctx:          context.Background(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start fetches the assessment and brings the session to Active (or straight
// to Completed for an already-submitted attempt, or Errored on fetch
// failure). Seeding finishes before Start returns, so no Set can observe an
// unseeded store.
func (c *Controller) Start(ctx context.Context) error {
	c.ctx = ctx

	resp, err := c.api.Start(ctx, c.assessmentID)
	if err != nil {
		log.Printf("[Session] ERROR: failed to load assessment %s: %v", c.assessmentID, err)
		c.mu.Lock()
		c.state = StateErrored
		c.loadErr = err
		c.mu.Unlock()
		c.notify()
		return err
	}

	if resp.Status == model.StatusSubmitted {
		// Previously finished session is read-only; skip Active entirely.
		result := &model.FinalResult{}
		if resp.Score != nil {
			result.Score = *resp.Score
		}
		if resp.Scholarship != nil {
			result.Scholarship = *resp.Scholarship
		}
		c.mu.Lock()
		c.state = StateCompleted
		c.result = result
		c.mu.Unlock()
		c.notify()
		return nil
	}

	questions := Flatten(resp.QuizSections)
	if len(questions) == 0 {
		err := errors.New("assessment has no questions")
		c.mu.Lock()
		c.state = StateErrored
		c.loadErr = err
		c.mu.Unlock()
		c.notify()
		return err
	}

	c.mu.Lock()
	c.questions = questions
	c.store.Seed(resp.QuizSections, resp.ResponseSheet)
	c.current = ComputeStartIndex(questions, resp.ResponseSheet)
	c.remaining = resp.RemainingTime * 60
	c.state = StateActive
	expired := c.remaining <= 0
	c.mu.Unlock()
	c.notify()

	if expired {
		// Time was already up on load; no answering window opens.
		c.requestSubmit()
		return nil
	}

	c.clock.Start(c.tick)
	return nil
}

// applyTick is the pure countdown policy: a tick in Active decrements the
// remaining seconds, clamping at zero; zero demands submission. Any other
// state leaves everything untouched.
func applyTick(st State, remaining int) (State, int) {
	if st != StateActive {
		return st, remaining
	}
	remaining--
	if remaining <= 0 {
		return StateSubmitting, 0
	}
	return StateActive, remaining
}

func (c *Controller) tick() bool {
	c.mu.Lock()
	if c.state != StateActive {
		c.mu.Unlock()
		return false
	}
	st, rem := applyTick(c.state, c.remaining)
	c.remaining = rem
	c.mu.Unlock()
	c.notify()

	if st == StateSubmitting {
		c.requestSubmit()
		return false
	}
	return true
}

// SelectOption records the letter for the current question and fires a
// best-effort sync. Navigation and further answering never wait on the sync.
func (c *Controller) SelectOption(letter string) error {
	letter = strings.ToUpper(strings.TrimSpace(letter))
	switch letter {
	case "A", "B", "C", "D":
	default:
		return ErrInvalidOption
	}

	c.mu.Lock()
	if c.state != StateActive {
		c.mu.Unlock()
		return ErrNotActive
	}
	q := c.questions[c.current]
	c.store.Set(q.SectionID, q.MCQ.ID, letter)
	sheet := c.store.Sheet()
	c.mu.Unlock()
	c.notify()

	// Fire-and-forget: no retry, no coalescing. Multiple in-flight syncs may
	// finish out of order; the server merges last-writer-wins.
	go func() {
		if err := c.api.SyncAnswers(c.ctx, c.assessmentID, sheet); err != nil {
			log.Printf("[Session] Warning: answer sync failed: %v", err)
		}
	}()
	return nil
}

// Next advances to the following question.
func (c *Controller) Next() error {
	return c.jump(func(cur int) int { return cur + 1 })
}

// Back returns to the previous question.
func (c *Controller) Back() error {
	return c.jump(func(cur int) int { return cur - 1 })
}

// JumpTo moves to an absolute question index.
func (c *Controller) JumpTo(index int) error {
	return c.jump(func(int) int { return index })
}

func (c *Controller) jump(next func(int) int) error {
	c.mu.Lock()
	if c.state != StateActive {
		c.mu.Unlock()
		return ErrNotActive
	}
	idx := next(c.current)
	if idx < 0 || idx >= len(c.questions) {
		c.mu.Unlock()
		return ErrIndexRange
	}
	c.current = idx
	c.mu.Unlock()
	c.notify()
	return nil
}

// Finish is the explicit user-confirmed submission. It reports whether this
// call performed the transition; false means the timer (or an earlier
// Finish) got there first and this call was a no-op.
func (c *Controller) Finish() bool {
	return c.requestSubmit()
}

// requestSubmit is the single Active -> Submitting edge. The first caller to
// flip the tag carries out the final submission; everyone else bounces off.
func (c *Controller) requestSubmit() bool {
	c.mu.Lock()
	if c.state != StateActive {
		c.mu.Unlock()
		return false
	}
	c.state = StateSubmitting
	sheet := c.store.Sheet()
	c.mu.Unlock()
	c.clock.Stop()
	c.notify()

	result, err := c.api.SubmitFinal(c.ctx, c.assessmentID, sheet)
	if err != nil {
		// No safe retry target once the interactive phase is over; record a
		// placeholder so the candidate is not stuck.
		log.Printf("[Session] Warning: final submission failed: %v", err)
		result = &model.FinalResult{Placeholder: true}
	}

	c.mu.Lock()
	c.state = StateCompleted
	c.result = result
	c.mu.Unlock()
	c.notify()
	return true
}

// Close tears the session down: the clock stops and no listener callback
// fires afterwards. Pending syncs resolve on their own without touching the
// discarded store.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.clock.Stop()
}

// Snapshot returns the current read-only view.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:            c.state,
		CurrentIndex:     c.current,
		RemainingSeconds: c.remaining,
		AnsweredCount:    c.store.AnsweredCount(),
		Result:           c.result,
		Err:              c.loadErr,
	}
	snap.RemainingCount = c.store.Len() - snap.AnsweredCount
	if c.current >= 0 && c.current < len(c.questions) {
		q := c.questions[c.current]
		mcq := q.MCQ
		snap.Question = &mcq
		snap.SelectedOption = c.store.Get(q.SectionID, q.MCQ.ID)
	}
	return snap
}

func (c *Controller) notify() {
	c.mu.Lock()
	if c.closed || c.listener == nil {
		c.mu.Unlock()
		return
	}
	listener := c.listener
	snap := c.snapshotLocked()
	c.mu.Unlock()
	listener(snap)
}
