package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/starford/hunlearn/internal/auth"
	"github.com/starford/hunlearn/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func drain(ch chan []byte) []string {
	var out []string
	for {
		select {
		case msg := <-ch:
			out = append(out, string(msg))
		default:
			return out
		}
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe("u1")
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishRoutesByUser(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	alice := b.Subscribe("alice")
	defer b.Unsubscribe(alice)
	bob := b.Subscribe("bob")
	defer b.Unsubscribe(bob)

	b.Publish(Event{Type: EventBadgeEarned, UserID: "alice", Data: map[string]string{"id": "streak_3"}})
	b.Publish(Event{Type: "announcement", Data: map[string]string{"text": "hi"}})

	select {
	case msg := <-alice:
		if !strings.Contains(string(msg), "event: badge.earned") {
			t.Errorf("alice got %q", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}

	time.Sleep(50 * time.Millisecond)
	got := drain(bob)
	if len(got) != 1 || !strings.Contains(got[0], "announcement") {
		t.Errorf("bob got %q, want only the broadcast", got)
	}
}

func TestPublishAwardThrottlesLeaderboard(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe("u1")
	defer b.Unsubscribe(ch)

	b.PublishAward("u1", models.Award{
		Points: 150, Multiplier: 1.5, TotalPoints: 150, Level: 2, LeveledUp: true, LevelUpBonus: 100,
		NewBadges: []models.UserBadge{{Badge: models.Badge{ID: "streak_3"}}},
	})
	b.PublishAward("u1", models.Award{Points: 10, TotalPoints: 160, Level: 2})

	time.Sleep(50 * time.Millisecond)
	counts := map[string]int{}
	for _, msg := range drain(ch) {
		typ := strings.TrimPrefix(strings.SplitN(msg, "\n", 2)[0], "event: ")
		counts[typ]++
	}

	if counts[EventPointsAwarded] != 2 {
		t.Errorf("points events = %d, want 2", counts[EventPointsAwarded])
	}
	if counts[EventLevelUp] != 1 {
		t.Errorf("level events = %d, want 1", counts[EventLevelUp])
	}
	if counts[EventBadgeEarned] != 1 {
		t.Errorf("badge events = %d, want 1", counts[EventBadgeEarned])
	}
	if counts[EventLeaderboardUpdated] != 1 {
		t.Errorf("leaderboard events = %d, want 1 (throttled)", counts[EventLeaderboardUpdated])
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	ctx, cancel := context.WithCancel(auth.WithUserID(context.Background(), "u1"))
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.Publish(Event{Type: EventPointsAwarded, UserID: "u1", Data: map[string]int{"points": 10}})
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: points.awarded") {
		t.Errorf("handler output missing event: %q", body)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestSSEHandlerRejectsAnonymous(t *testing.T) {
	b := NewBroker(0)
	defer b.Close()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	w := httptest.NewRecorder()
	b.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if b.ClientCount() != 0 {
		t.Errorf("anonymous request subscribed a client")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe("u1")
	defer b.Unsubscribe(ch)

	for i := 0; i < 70; i++ {
		b.Publish(Event{Type: "test", Data: map[string]string{"i": "x"}})
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe("u1")
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// Should be safe no-op after close.
	b.Publish(Event{Type: EventPointsAwarded, Data: map[string]string{}})
	b.PublishAward("u1", models.Award{})
	if ch := b.Subscribe("u2"); ch == nil {
		t.Fatal("nil channel")
	}
}
