package fsrs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func TestReview_NewCard(t *testing.T) {
	s := Default()
	tests := []struct {
		rating     Rating
		stability  float64
		difficulty float64
		days       int
		state      State
	}{
		{Again, 0.4, 6.81, 1, StateLearning},
		{Hard, 0.6, 5.87, 1, StateReview},
		{Good, 2.4, 4.93, 2, StateReview},
		{Easy, 5.8, 3.99, 6, StateReview},
	}
	for _, tt := range tests {
		t.Run(tt.rating.String(), func(t *testing.T) {
			card, log, err := s.Review(NewCard(t0), tt.rating, t0)
			require.NoError(t, err)
			assert.InDelta(t, tt.stability, card.Stability, 1e-9)
			assert.InDelta(t, tt.difficulty, card.Difficulty, 1e-9)
			assert.Equal(t, tt.days, card.ScheduledDays)
			assert.Equal(t, tt.state, card.State)
			assert.Equal(t, t0.AddDate(0, 0, tt.days), card.Due)
			assert.Equal(t, 1, card.Reps)
			assert.Equal(t, StateNew, log.State)
			require.NotNil(t, card.LastReview)
			assert.Equal(t, t0, *card.LastReview)
		})
	}
}

func TestReview_LapseCounting(t *testing.T) {
	s := Default()
	card, _, err := s.Review(NewCard(t0), Again, t0)
	require.NoError(t, err)
	assert.Equal(t, 1, card.Lapses)

	card, _, err = s.Review(card, Good, t0.Add(day))
	require.NoError(t, err)
	assert.Equal(t, 1, card.Lapses)
	assert.Equal(t, 2, card.Reps)
	assert.Equal(t, StateReview, card.State)
}

func TestReview_ReviewStateTransitions(t *testing.T) {
	s := Default()
	base, _, err := s.Review(NewCard(t0), Good, t0)
	require.NoError(t, err)
	at := t0.AddDate(0, 0, 2)

	tests := []struct {
		rating     Rating
		stability  float64
		difficulty float64
		days       int
		state      State
	}{
		{Again, 1.1547, 6.6328, 1, StateRelearning},
		{Hard, 3.7634, 5.7814, 4, StateReview},
		{Good, 7.1015, 4.93, 7, StateReview},
		{Easy, 14.6710, 4.0786, 15, StateReview},
	}
	for _, tt := range tests {
		t.Run(tt.rating.String(), func(t *testing.T) {
			card, log, err := s.Review(base, tt.rating, at)
			require.NoError(t, err)
			assert.Equal(t, 2, card.ElapsedDays)
			assert.InDelta(t, tt.stability, card.Stability, 1e-3)
			assert.InDelta(t, tt.difficulty, card.Difficulty, 1e-3)
			assert.Equal(t, tt.days, card.ScheduledDays)
			assert.Equal(t, tt.state, card.State)
			assert.Equal(t, 2, log.ScheduledDays)
		})
	}
}

func TestReview_DoesNotMutateInput(t *testing.T) {
	s := Default()
	card := NewCard(t0)
	before := card
	_, _, err := s.Review(card, Easy, t0)
	require.NoError(t, err)
	assert.Equal(t, before, card)
}

func TestReview_SameDayReviewKeepsStability(t *testing.T) {
	s := Default()
	card, _, _ := s.Review(NewCard(t0), Good, t0)
	again, _, err := s.Review(card, Good, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.InDelta(t, card.Stability, again.Stability, 1e-9)
}

func TestReview_InvalidRating(t *testing.T) {
	_, _, err := Default().Review(NewCard(t0), Rating(7), t0)
	assert.Error(t, err)
}

func TestReview_BoundsHoldOverManyReviews(t *testing.T) {
	s := Default()
	card := NewCard(t0)
	now := t0
	ratings := []Rating{Easy, Easy, Again, Hard, Easy, Again, Again, Good, Easy, Easy, Easy}
	for _, r := range ratings {
		var err error
		card, _, err = s.Review(card, r, now)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, card.Difficulty, 1.0)
		assert.LessOrEqual(t, card.Difficulty, 10.0)
		assert.GreaterOrEqual(t, card.ScheduledDays, 1)
		assert.LessOrEqual(t, card.ScheduledDays, 36500)
		now = card.Due
	}
}

func TestPreview(t *testing.T) {
	s := Default()
	p := s.Preview(NewCard(t0), t0)
	require.Len(t, p, 4)
	assert.Less(t, p[Again].ScheduledDays, p[Easy].ScheduledDays+1)
	assert.Equal(t, 6, p[Easy].ScheduledDays)
}

func TestRetrievability(t *testing.T) {
	assert.InDelta(t, 0.9, Retrievability(Card{Stability: 10}, 10), 1e-9)
	assert.Equal(t, 1.0, Retrievability(Card{}, 5))
}

func TestIsDueAndOverdue(t *testing.T) {
	c := Card{Due: t0, State: StateReview, Stability: 5}
	assert.True(t, IsDue(c, t0))
	assert.False(t, IsDue(c, t0.Add(-time.Second)))
	assert.Equal(t, 0, OverdueDays(c, t0.Add(-day)))
	assert.Equal(t, 3, OverdueDays(c, t0.Add(3*day+time.Hour)))
}

func TestMaturity(t *testing.T) {
	assert.Equal(t, 0.0, Maturity(Card{State: StateNew, Stability: 30}))
	assert.InDelta(t, 0.5, Maturity(Card{State: StateLearning, Stability: 10.5}), 1e-9)
	assert.Equal(t, 1.0, Maturity(Card{State: StateRelearning, Stability: 40}))
	assert.Equal(t, 1.0, Maturity(Card{State: StateReview, Stability: 1}))
}

func TestPriority(t *testing.T) {
	now := t0.AddDate(0, 0, 10)
	assert.Equal(t, 1000.0, Priority(Card{State: StateNew}, now))

	fresh := Card{State: StateReview, Stability: 5, Due: now}
	stale := Card{State: StateReview, Stability: 5, Due: t0}
	assert.Equal(t, 0.0, Priority(fresh, now))
	assert.Greater(t, Priority(stale, now), Priority(fresh, now))
	// overdue component is capped at 50.
	ancient := Card{State: StateReview, Stability: 5, Due: now.AddDate(-1, 0, 0)}
	assert.LessOrEqual(t, Priority(ancient, now), 150.0)
}

func TestOptimalBatchSize(t *testing.T) {
	cards := []Card{
		{Due: t0.Add(-day)},
		{Due: t0},
		{Due: t0.Add(day)},
	}
	assert.Equal(t, 7, OptimalBatchSize(cards, 20, t0))
	assert.Equal(t, 4, OptimalBatchSize(cards, 2, t0))
	assert.Equal(t, 0, OptimalBatchSize(nil, 0, t0))
}

func TestComputeStats(t *testing.T) {
	assert.Equal(t, Stats{}, ComputeStats(nil))

	st := ComputeStats([]Card{
		{State: StateNew},
		{State: StateLearning, Stability: 2, Difficulty: 6},
		{State: StateRelearning, Stability: 21, Difficulty: 8},
		{State: StateReview, Stability: 10, Difficulty: 4},
	})
	assert.Equal(t, 4, st.Total)
	assert.Equal(t, 1, st.New)
	assert.Equal(t, 2, st.Learning)
	assert.Equal(t, 1, st.Review)
	assert.InDelta(t, 11.0, st.AverageStability, 1e-9)
	assert.InDelta(t, 6.0, st.AverageDifficulty, 1e-9)
	assert.InDelta(t, 0.5, st.MaturityRate, 1e-9)
}

func TestNew_ValidatesParameters(t *testing.T) {
	_, err := New(Parameters{RequestRetention: 1.5})
	assert.Error(t, err)

	_, err = New(Parameters{W: []float64{1, 2, 3}})
	assert.Error(t, err)

	s, err := New(Parameters{RequestRetention: 0.8})
	require.NoError(t, err)
	p := s.Parameters()
	assert.Equal(t, 0.8, p.RequestRetention)
	assert.Equal(t, 36500, p.MaximumInterval)
	assert.Len(t, p.W, WeightCount)
}

func TestHigherRetentionShortensIntervals(t *testing.T) {
	strict, err := New(Parameters{RequestRetention: 0.95})
	require.NoError(t, err)
	c, _, err := strict.Review(NewCard(t0), Easy, t0)
	require.NoError(t, err)
	assert.Less(t, c.ScheduledDays, 6)
}
