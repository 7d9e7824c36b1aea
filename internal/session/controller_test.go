package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"skillcheck/internal/model"
)

type fakeTicker struct {
	ch chan time.Time
}

func (f *fakeTicker) C() <-chan time.Time { return f.ch }
func (f *fakeTicker) Stop()               {}

// newFakeTicks returns a ticker factory handing out one shared buffered
// channel, so tests push ticks by hand.
func newFakeTicks() (TickerFactory, chan time.Time) {
	ch := make(chan time.Time, 256)
	factory := func(time.Duration) Ticker { return &fakeTicker{ch: ch} }
	return factory, ch
}

type fakeAPI struct {
	mu          sync.Mutex
	startResp   *model.StartAssessmentResponse
	startErr    error
	syncErr     error
	syncCalls   int
	syncSheets  []*model.ResponseSheet
	finalErr    error
	finalCalls  int
	finalSheet  *model.ResponseSheet
	finalResult *model.FinalResult
}

func (f *fakeAPI) Start(ctx context.Context, assessmentID string) (*model.StartAssessmentResponse, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	return f.startResp, nil
}

func (f *fakeAPI) SyncAnswers(ctx context.Context, assessmentID string, sheet *model.ResponseSheet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.syncCalls++
	f.syncSheets = append(f.syncSheets, sheet)
	return f.syncErr
}

func (f *fakeAPI) SubmitFinal(ctx context.Context, assessmentID string, sheet *model.ResponseSheet) (*model.FinalResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finalCalls++
	f.finalSheet = sheet
	if f.finalErr != nil {
		return nil, f.finalErr
	}
	if f.finalResult != nil {
		return f.finalResult, nil
	}
	return &model.FinalResult{Score: 3, Scholarship: 20}, nil
}

func (f *fakeAPI) finals() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.finalCalls
}

func (f *fakeAPI) syncs() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.syncCalls
}

func activeStart(minutes int) *model.StartAssessmentResponse {
	return &model.StartAssessmentResponse{
		QuizSections: []model.QuizSection{
			sectionWithIDs(101, 1, 4, 2),
			sectionWithIDs(102, 7, 5),
		},
		RemainingTime: minutes,
		Status:        model.StatusNotStarted,
		ResponseSheet: model.NewResponseSheet(),
	}
}

func TestController_StartBecomesActive(t *testing.T) {
	factory, _ := newFakeTicks()
	api := &fakeAPI{startResp: activeStart(30)}
	ctrl := NewController(api, "a1", WithTickerFactory(factory))
	defer ctrl.Close()

	require.NoError(t, ctrl.Start(context.Background()))

	snap := ctrl.Snapshot()
	require.Equal(t, StateActive, snap.State)
	require.Equal(t, 0, snap.CurrentIndex)
	require.Equal(t, 30*60, snap.RemainingSeconds)
	require.Equal(t, 0, snap.AnsweredCount)
	require.Equal(t, 5, snap.RemainingCount)
	require.NotNil(t, snap.Question)
	require.Equal(t, 1, snap.Question.ID)
}

func TestController_StartResumesFromServerSheet(t *testing.T) {
	factory, _ := newFakeTicks()
	resp := activeStart(10)
	resp.Status = model.StatusInProgress
	resp.ResponseSheet.Set(101, 4, "B")
	api := &fakeAPI{startResp: resp}
	ctrl := NewController(api, "a1", WithTickerFactory(factory))
	defer ctrl.Close()

	require.NoError(t, ctrl.Start(context.Background()))

	snap := ctrl.Snapshot()
	require.Equal(t, StateActive, snap.State)
	// id 4 is the highest answered; it sits at index 1, so resume at 2
	require.Equal(t, 2, snap.CurrentIndex)
	require.Equal(t, 1, snap.AnsweredCount)
}

func TestController_FetchFailureGoesErrored(t *testing.T) {
	factory, _ := newFakeTicks()
	api := &fakeAPI{startErr: errors.New("connection refused")}
	ctrl := NewController(api, "a1", WithTickerFactory(factory))
	defer ctrl.Close()

	require.Error(t, ctrl.Start(context.Background()))

	snap := ctrl.Snapshot()
	require.Equal(t, StateErrored, snap.State)
	require.Error(t, snap.Err)
	require.ErrorIs(t, ctrl.SelectOption("A"), ErrNotActive)
	require.False(t, ctrl.Finish())
	require.Equal(t, 0, api.finals())
}

func TestController_SubmittedOnLoadSkipsActive(t *testing.T) {
	factory, ticks := newFakeTicks()
	score := 4
	scholarship := 20
	api := &fakeAPI{startResp: &model.StartAssessmentResponse{
		QuizSections: []model.QuizSection{sectionWithIDs(101, 1, 2)},
		Status:       model.StatusSubmitted,
		Score:        &score,
		Scholarship:  &scholarship,
	}}
	ctrl := NewController(api, "a1", WithTickerFactory(factory))
	defer ctrl.Close()

	require.NoError(t, ctrl.Start(context.Background()))

	snap := ctrl.Snapshot()
	require.Equal(t, StateCompleted, snap.State)
	require.NotNil(t, snap.Result)
	require.Equal(t, 4, snap.Result.Score)
	require.Equal(t, 20, snap.Result.Scholarship)

	// Read-only: no mutation, no sync, no final, no ticking
	require.ErrorIs(t, ctrl.SelectOption("A"), ErrNotActive)
	require.False(t, ctrl.Finish())
	ticks <- time.Now()
	require.Equal(t, 0, api.finals())
	require.Equal(t, 0, api.syncs())
}

func TestController_ZeroRemainingOnLoadSubmitsImmediately(t *testing.T) {
	factory, _ := newFakeTicks()
	resp := activeStart(0)
	api := &fakeAPI{startResp: resp}
	ctrl := NewController(api, "a1", WithTickerFactory(factory))
	defer ctrl.Close()

	require.NoError(t, ctrl.Start(context.Background()))

	snap := ctrl.Snapshot()
	require.Equal(t, StateCompleted, snap.State)
	require.Equal(t, 1, api.finals())
	require.ErrorIs(t, ctrl.SelectOption("A"), ErrNotActive)
}

func TestController_SelectOptionRecordsAndSyncs(t *testing.T) {
	factory, _ := newFakeTicks()
	api := &fakeAPI{startResp: activeStart(30)}
	ctrl := NewController(api, "a1", WithTickerFactory(factory))
	defer ctrl.Close()
	require.NoError(t, ctrl.Start(context.Background()))

	require.NoError(t, ctrl.SelectOption("b"))

	snap := ctrl.Snapshot()
	require.Equal(t, "B", snap.SelectedOption)
	require.Equal(t, 1, snap.AnsweredCount)

	require.Eventually(t, func() bool { return api.syncs() == 1 }, time.Second, 5*time.Millisecond)
	api.mu.Lock()
	synced := api.syncSheets[0]
	api.mu.Unlock()
	require.Equal(t, "B", synced.Get(101, 1))
}

func TestController_SelectOptionValidatesLetter(t *testing.T) {
	factory, _ := newFakeTicks()
	api := &fakeAPI{startResp: activeStart(30)}
	ctrl := NewController(api, "a1", WithTickerFactory(factory))
	defer ctrl.Close()
	require.NoError(t, ctrl.Start(context.Background()))

	require.ErrorIs(t, ctrl.SelectOption("E"), ErrInvalidOption)
	require.ErrorIs(t, ctrl.SelectOption(""), ErrInvalidOption)
	require.Equal(t, 0, ctrl.Snapshot().AnsweredCount)
}

func TestController_SyncFailureNeverBlocksAnswering(t *testing.T) {
	factory, _ := newFakeTicks()
	api := &fakeAPI{startResp: activeStart(30), syncErr: errors.New("network down")}
	ctrl := NewController(api, "a1", WithTickerFactory(factory))
	defer ctrl.Close()
	require.NoError(t, ctrl.Start(context.Background()))

	require.NoError(t, ctrl.SelectOption("A"))
	require.NoError(t, ctrl.Next())
	require.NoError(t, ctrl.SelectOption("C"))

	snap := ctrl.Snapshot()
	require.Equal(t, 2, snap.AnsweredCount)
	require.Equal(t, "C", snap.SelectedOption)
}

func TestController_Navigation(t *testing.T) {
	factory, _ := newFakeTicks()
	api := &fakeAPI{startResp: activeStart(30)}
	ctrl := NewController(api, "a1", WithTickerFactory(factory))
	defer ctrl.Close()
	require.NoError(t, ctrl.Start(context.Background()))

	require.ErrorIs(t, ctrl.Back(), ErrIndexRange)
	require.NoError(t, ctrl.Next())
	require.Equal(t, 1, ctrl.Snapshot().CurrentIndex)
	require.NoError(t, ctrl.JumpTo(4))
	require.Equal(t, 4, ctrl.Snapshot().CurrentIndex)
	require.ErrorIs(t, ctrl.Next(), ErrIndexRange)
	require.ErrorIs(t, ctrl.JumpTo(5), ErrIndexRange)
	require.ErrorIs(t, ctrl.JumpTo(-1), ErrIndexRange)
	require.NoError(t, ctrl.Back())
	require.Equal(t, 3, ctrl.Snapshot().CurrentIndex)
}

func TestController_TimerExpiryAutoSubmits(t *testing.T) {
	factory, ticks := newFakeTicks()
	api := &fakeAPI{startResp: activeStart(1)}

	var mu sync.Mutex
	var remainings []int
	ctrl := NewController(api, "a1",
		WithTickerFactory(factory),
		WithListener(func(snap Snapshot) {
			mu.Lock()
			remainings = append(remainings, snap.RemainingSeconds)
			mu.Unlock()
		}),
	)
	defer ctrl.Close()
	require.NoError(t, ctrl.Start(context.Background()))

	for i := 0; i < 60; i++ {
		ticks <- time.Now()
	}

	require.Eventually(t, func() bool {
		return ctrl.Snapshot().State == StateCompleted
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, 1, api.finals())
	require.Equal(t, 0, ctrl.Snapshot().RemainingSeconds)

	// Remaining time never increases and clamps at zero
	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(remainings); i++ {
		require.LessOrEqual(t, remainings[i], remainings[i-1])
		require.GreaterOrEqual(t, remainings[i], 0)
	}
}

func TestController_LateTicksAfterCompletionAreNoOps(t *testing.T) {
	factory, ticks := newFakeTicks()
	api := &fakeAPI{startResp: activeStart(30)}
	ctrl := NewController(api, "a1", WithTickerFactory(factory))
	defer ctrl.Close()
	require.NoError(t, ctrl.Start(context.Background()))

	require.True(t, ctrl.Finish())
	require.Equal(t, StateCompleted, ctrl.Snapshot().State)
	before := ctrl.Snapshot().RemainingSeconds

	ticks <- time.Now()
	ticks <- time.Now()
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, before, ctrl.Snapshot().RemainingSeconds)
	require.Equal(t, StateCompleted, ctrl.Snapshot().State)
}

func TestController_FinishIsExactlyOnce(t *testing.T) {
	factory, _ := newFakeTicks()
	api := &fakeAPI{startResp: activeStart(30)}
	ctrl := NewController(api, "a1", WithTickerFactory(factory))
	defer ctrl.Close()
	require.NoError(t, ctrl.Start(context.Background()))

	require.True(t, ctrl.Finish())
	require.False(t, ctrl.Finish())
	require.Equal(t, 1, api.finals())
}

// Storm the terminal transition: the timer runs down to zero while many
// goroutines click finish. Exactly one trigger may reach SubmitFinal.
func TestController_SubmitRaceStorm(t *testing.T) {
	factory, ticks := newFakeTicks()
	api := &fakeAPI{startResp: activeStart(1)}
	ctrl := NewController(api, "a1", WithTickerFactory(factory))
	defer ctrl.Close()
	require.NoError(t, ctrl.Start(context.Background()))

	gate := make(chan struct{})
	var wg sync.WaitGroup
	wins := make([]bool, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			<-gate
			wins[idx] = ctrl.Finish()
		}(i)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-gate
		for i := 0; i < 60; i++ {
			ticks <- time.Now()
		}
	}()

	close(gate)
	wg.Wait()

	require.Eventually(t, func() bool {
		return ctrl.Snapshot().State == StateCompleted
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, 1, api.finals())

	winners := 0
	for _, won := range wins {
		if won {
			winners++
		}
	}
	// Either one Finish won, or the timer got there first and all lost
	require.LessOrEqual(t, winners, 1)
}

func TestController_FinalFailureStillCompletes(t *testing.T) {
	factory, _ := newFakeTicks()
	api := &fakeAPI{startResp: activeStart(30), finalErr: errors.New("gateway timeout")}
	ctrl := NewController(api, "a1", WithTickerFactory(factory))
	defer ctrl.Close()
	require.NoError(t, ctrl.Start(context.Background()))

	require.True(t, ctrl.Finish())

	snap := ctrl.Snapshot()
	require.Equal(t, StateCompleted, snap.State)
	require.NotNil(t, snap.Result)
	require.True(t, snap.Result.Placeholder)
	require.Equal(t, 1, api.finals())
}

func TestController_FinalCarriesFullSheet(t *testing.T) {
	factory, _ := newFakeTicks()
	api := &fakeAPI{startResp: activeStart(30)}
	ctrl := NewController(api, "a1", WithTickerFactory(factory))
	defer ctrl.Close()
	require.NoError(t, ctrl.Start(context.Background()))

	require.NoError(t, ctrl.SelectOption("A"))
	require.NoError(t, ctrl.JumpTo(3))
	require.NoError(t, ctrl.SelectOption("D"))
	require.True(t, ctrl.Finish())

	api.mu.Lock()
	sheet := api.finalSheet
	api.mu.Unlock()
	require.Equal(t, "A", sheet.Get(101, 1))
	require.Equal(t, "D", sheet.Get(102, 7))
	require.Equal(t, "", sheet.Get(101, 4))
	require.Equal(t, 2, sheet.AnsweredCount())
}

func TestController_NoListenerCallbackAfterClose(t *testing.T) {
	factory, ticks := newFakeTicks()
	api := &fakeAPI{startResp: activeStart(30)}

	var mu sync.Mutex
	calls := 0
	ctrl := NewController(api, "a1",
		WithTickerFactory(factory),
		WithListener(func(Snapshot) {
			mu.Lock()
			calls++
			mu.Unlock()
		}),
	)
	require.NoError(t, ctrl.Start(context.Background()))

	ctrl.Close()
	mu.Lock()
	before := calls
	mu.Unlock()

	ticks <- time.Now()
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, before, calls)
}

func TestApplyTick(t *testing.T) {
	tests := []struct {
		name          string
		state         State
		remaining     int
		wantState     State
		wantRemaining int
	}{
		{"active decrements", StateActive, 10, StateActive, 9},
		{"active hits zero", StateActive, 1, StateSubmitting, 0},
		{"active already zero clamps", StateActive, 0, StateSubmitting, 0},
		{"submitting untouched", StateSubmitting, 5, StateSubmitting, 5},
		{"completed untouched", StateCompleted, 0, StateCompleted, 0},
		{"errored untouched", StateErrored, 7, StateErrored, 7},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			st, rem := applyTick(tc.state, tc.remaining)
			require.Equal(t, tc.wantState, st)
			require.Equal(t, tc.wantRemaining, rem)
		})
	}
}
