// Package fsrs implements the Free Spaced Repetition Scheduler used for
// vocabulary reviews.
package fsrs

import (
	"fmt"
	"math"
	"time"
)

// State is the learning state of a card.
type State int

const (
	StateNew        State = 0
	StateLearning   State = 1
	StateReview     State = 2
	StateRelearning State = 3
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateLearning:
		return "LEARNING"
	case StateReview:
		return "REVIEW"
	case StateRelearning:
		return "RELEARNING"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Rating is the learner's answer grade.
type Rating int

const (
	Again Rating = 1
	Hard  Rating = 2
	Good  Rating = 3
	Easy  Rating = 4
)

// Ratings lists every valid rating in ascending order.
var Ratings = [4]Rating{Again, Hard, Good, Easy}

// Valid reports whether r is one of Again..Easy.
func (r Rating) Valid() bool {
	return r >= Again && r <= Easy
}

func (r Rating) String() string {
	switch r {
	case Again:
		return "AGAIN"
	case Hard:
		return "HARD"
	case Good:
		return "GOOD"
	case Easy:
		return "EASY"
	default:
		return fmt.Sprintf("Rating(%d)", int(r))
	}
}

const day = 24 * time.Hour

// Card is the scheduling state of one card for one learner.
type Card struct {
	Due           time.Time  `json:"due"`
	Stability     float64    `json:"stability"`
	Difficulty    float64    `json:"difficulty"`
	ElapsedDays   int        `json:"elapsed_days"`
	ScheduledDays int        `json:"scheduled_days"`
	Reps          int        `json:"reps"`
	Lapses        int        `json:"lapses"`
	State         State      `json:"state"`
	LastReview    *time.Time `json:"last_review"`
}

// ReviewLog records a single review for later analysis.
type ReviewLog struct {
	Rating        Rating    `json:"rating"`
	ElapsedDays   int       `json:"elapsed_days"`
	ScheduledDays int       `json:"scheduled_days"`
	ReviewTime    time.Time `json:"review_time"`
	State         State     `json:"state"`
}

// Scheduler applies Parameters to cards. It holds no mutable state and is
// safe for concurrent use.
type Scheduler struct {
	p Parameters
}

// New returns a Scheduler for p. Zero-valued fields fall back to defaults.
func New(p Parameters) (*Scheduler, error) {
	p = p.withDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Scheduler{p: p}, nil
}

// Default returns a Scheduler with DefaultParameters.
func Default() *Scheduler {
	return &Scheduler{p: DefaultParameters()}
}

// Parameters returns a copy of the scheduler's parameters.
func (s *Scheduler) Parameters() Parameters {
	out := s.p
	out.W = append([]float64(nil), s.p.W...)
	return out
}

// NewCard returns an unseen card that is due immediately.
func NewCard(now time.Time) Card {
	return Card{Due: now, State: StateNew}
}

// Review applies rating to card at now and returns the updated card and
// its log entry. card is not modified.
func (s *Scheduler) Review(card Card, rating Rating, now time.Time) (Card, ReviewLog, error) {
	if !rating.Valid() {
		return card, ReviewLog{}, fmt.Errorf("fsrs: invalid rating %d", rating)
	}

	next := card
	if card.LastReview != nil {
		next.ElapsedDays = max(0, int(math.Floor(now.Sub(*card.LastReview).Hours()/24)))
	}
	next.Reps++
	reviewed := now
	next.LastReview = &reviewed
	if rating == Again {
		next.Lapses++
	}

	switch card.State {
	case StateNew:
		next.Stability = s.initStability(rating)
		next.Difficulty = s.initDifficulty(rating)
		if rating == Again {
			next.State = StateLearning
		} else {
			next.State = StateReview
		}
	case StateLearning, StateRelearning:
		next.Stability = s.nextStability(next, rating)
		next.Difficulty = s.nextDifficulty(next.Difficulty, rating)
		if rating == Again {
			next.State = StateLearning
		} else {
			next.State = StateReview
		}
	default:
		next.Stability = s.nextStability(next, rating)
		next.Difficulty = s.nextDifficulty(next.Difficulty, rating)
		if rating == Again {
			next.State = StateRelearning
		} else {
			next.State = StateReview
		}
	}

	next.ScheduledDays = s.interval(next.Stability)
	next.Due = now.Add(time.Duration(next.ScheduledDays) * day)

	log := ReviewLog{
		Rating:        rating,
		ElapsedDays:   next.ElapsedDays,
		ScheduledDays: card.ScheduledDays,
		ReviewTime:    now,
		State:         card.State,
	}
	return next, log, nil
}

// Preview returns the outcome of each rating for card at now.
func (s *Scheduler) Preview(card Card, now time.Time) map[Rating]Card {
	out := make(map[Rating]Card, len(Ratings))
	for _, r := range Ratings {
		next, _, _ := s.Review(card, r, now)
		out[r] = next
	}
	return out
}

func (s *Scheduler) initStability(r Rating) float64 {
	return math.Max(s.p.W[int(r)-1], 0.1)
}

func (s *Scheduler) initDifficulty(r Rating) float64 {
	return clamp(s.p.W[4]-float64(r-3)*s.p.W[5], 1, 10)
}

// nextStability expects card.ElapsedDays to be already updated for this review.
func (s *Scheduler) nextStability(card Card, r Rating) float64 {
	w := s.p.W
	st, d := card.Stability, card.Difficulty
	ret := Retrievability(card, float64(card.ElapsedDays))
	if r == Again {
		forgot := w[11] * math.Pow(d, -w[12]) * (math.Pow(st+1, w[13]) - 1) * math.Exp(w[14]*(1-ret))
		return math.Max(math.Min(forgot, st), 0.1)
	}
	hardPenalty, easyBonus := 1.0, 1.0
	if r == Hard {
		hardPenalty = w[15]
	}
	if r == Easy {
		easyBonus = w[16]
	}
	return st * (1 + math.Exp(w[8])*(11-d)*math.Pow(st, -w[9])*(math.Exp((1-ret)*w[10])-1)*hardPenalty*easyBonus)
}

// nextDifficulty moves d by the rating and reverts it slightly toward the
// initial difficulty of a Good answer.
func (s *Scheduler) nextDifficulty(d float64, r Rating) float64 {
	next := d - s.p.W[6]*float64(r-3)
	next = s.p.W[7]*s.initDifficulty(Good) + (1-s.p.W[7])*next
	return clamp(next, 1, 10)
}

func (s *Scheduler) interval(stability float64) int {
	iv := stability * (math.Log(s.p.RequestRetention) / math.Log(0.9))
	return int(clamp(math.Round(iv), 1, float64(s.p.MaximumInterval)))
}

// Retrievability is the probability of recall after days at the card's
// stability.
func Retrievability(card Card, days float64) float64 {
	if card.Stability <= 0 {
		return 1
	}
	return math.Pow(0.9, days/card.Stability)
}

// IsDue reports whether card is due at now.
func IsDue(card Card, now time.Time) bool {
	return !card.Due.After(now)
}

// OverdueDays returns whole days past due, 0 when not yet due.
func OverdueDays(card Card, now time.Time) int {
	if !IsDue(card, now) {
		return 0
	}
	return int(math.Floor(now.Sub(card.Due).Hours() / 24))
}

// Maturity is 0 for new cards, stability/21 capped at 1 while learning and 1
// for cards in review.
func Maturity(card Card) float64 {
	switch card.State {
	case StateNew:
		return 0
	case StateLearning, StateRelearning:
		return math.Min(card.Stability/21, 1)
	default:
		return 1
	}
}

// Priority scores how urgently a reviewed card needs study; higher is more
// urgent. New cards get a flat 1000 and are queued separately from reviews.
func Priority(card Card, now time.Time) float64 {
	if card.State == StateNew {
		return 1000
	}
	overdue := OverdueDays(card, now)
	sinceDue := math.Max(0, now.Sub(card.Due).Hours()/24)
	r := Retrievability(card, sinceDue)
	return (1-r)*100 + math.Min(float64(overdue)*2, 50)
}

// averageReviewSeconds is the assumed time spent per card.
const averageReviewSeconds = 30

// OptimalBatchSize returns how many cards fit in targetMinutes, capped at the
// number of due cards plus five new ones.
func OptimalBatchSize(cards []Card, targetMinutes int, now time.Time) int {
	maxCards := targetMinutes * 60 / averageReviewSeconds
	due := 0
	for _, c := range cards {
		if IsDue(c, now) {
			due++
		}
	}
	return min(maxCards, due+5)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
