// Package sse implements a Server-Sent Events broker for learner notifications.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/starford/hunlearn/internal/auth"
	"github.com/starford/hunlearn/internal/models"
)

// Event types.
const (
	EventPointsAwarded      = "points.awarded"
	EventLevelUp            = "level.up"
	EventBadgeEarned        = "badge.earned"
	EventLeaderboardUpdated = "leaderboard.updated"
)

// Event represents an SSE event. An empty UserID broadcasts to every client.
type Event struct {
	Type   string `json:"type"`
	UserID string `json:"-"`
	Data   any    `json:"data"`
}

type client struct {
	ch     chan []byte
	userID string
}

type awardReq struct {
	userID string
	award  models.Award
}

// Broker manages SSE client connections and routes events to learners.
//
// Concurrency model: a single internal event loop (goroutine) owns mutable state
// (clients + leaderboard throttle timestamp). Public methods communicate with this
// loop through channels, so no mutexes are required.
type Broker struct {
	leaderboardMin time.Duration

	subscribeCh   chan client
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	awardCh       chan awardReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker that emits leaderboard.updated at most once per
// leaderboardThrottle.
func NewBroker(leaderboardThrottle time.Duration) *Broker {
	if leaderboardThrottle <= 0 {
		leaderboardThrottle = 5 * time.Second
	}

	b := &Broker{
		leaderboardMin: leaderboardThrottle,
		subscribeCh:    make(chan client),
		unsubscribeCh:  make(chan chan []byte),
		publishCh:      make(chan Event, 256),
		awardCh:        make(chan awardReq, 256),
		countReqCh:     make(chan chan int),
		stopCh:         make(chan struct{}),
		stopped:        make(chan struct{}),
	}

	go b.run()
	return b
}

func encode(event Event) []byte {
	payload, err := json.Marshal(event.Data)
	if err != nil {
		return nil
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload))
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]string)
	var lastLeaderboard time.Time

	send := func(event Event) {
		raw := encode(event)
		if raw == nil {
			return
		}
		for ch, userID := range clients {
			if event.UserID != "" && event.UserID != userID {
				continue
			}
			select {
			case ch <- raw:
			default:
				// Client buffer full; skip to avoid blocking broker loop.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case c := <-b.subscribeCh:
			clients[c.ch] = c.userID

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			send(event)

		case req := <-b.awardCh:
			a := req.award
			send(Event{Type: EventPointsAwarded, UserID: req.userID, Data: map[string]any{
				"points":      a.Points,
				"multiplier":  a.Multiplier,
				"totalPoints": a.TotalPoints,
				"level":       a.Level,
			}})
			if a.LeveledUp {
				send(Event{Type: EventLevelUp, UserID: req.userID, Data: map[string]any{
					"level": a.Level,
					"bonus": a.LevelUpBonus,
				}})
			}
			for _, ub := range a.NewBadges {
				send(Event{Type: EventBadgeEarned, UserID: req.userID, Data: ub})
			}

			now := time.Now()
			if now.Sub(lastLeaderboard) >= b.leaderboardMin {
				lastLeaderboard = now
				send(Event{Type: EventLeaderboardUpdated, Data: map[string]string{}})
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a client for userID and returns its channel.
func (b *Broker) Subscribe(userID string) chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- client{ch: ch, userID: userID}:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to its user, or to everyone when UserID is empty.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishAward notifies userID of points, level ups and badges, followed by a
// throttled leaderboard.updated broadcast.
func (b *Broker) PublishAward(userID string, award models.Award) {
	if b.closed.Load() {
		return
	}
	select {
	case b.awardCh <- awardReq{userID: userID, award: award}:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events). It must run behind
// the auth middleware.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	userID, err := auth.RequireUser(r.Context())
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe(userID)
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
