package notify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/symptrack/internal/contracts"
	"github.com/wonny/symptrack/pkg/redis"
)

func event(user string, kind contracts.EventKind) contracts.ProgressEvent {
	return contracts.ProgressEvent{
		ID:     "evt-1",
		Kind:   kind,
		UserID: user,
		Progress: contracts.Progress{
			UserID:        user,
			CompletedDays: 3,
			TotalDays:     20,
			Percentage:    15,
		},
		At: time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC),
	}
}

func TestHub_DeliverOnlyToUser(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	alice := hub.Subscribe("alice")
	bob := hub.Subscribe("bob")

	hub.Deliver(event("alice", contracts.EventIngested))

	select {
	case got := <-alice.Outbound:
		assert.Equal(t, "alice", got.UserID)
	default:
		t.Fatal("alice did not receive event")
	}
	assert.Len(t, bob.Outbound, 0)
}

func TestHub_FullBufferDoesNotBlock(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	sub := hub.Subscribe("alice")

	for i := 0; i < outboundBuffer+5; i++ {
		require.NoError(t, hub.Notify(context.Background(), event("alice", contracts.EventIngested)))
	}
	assert.Len(t, sub.Outbound, outboundBuffer)
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	sub := hub.Subscribe("alice")
	assert.Equal(t, 1, hub.Count("alice"))

	hub.Unsubscribe(sub)
	hub.Unsubscribe(sub) // second call is a no-op
	assert.Equal(t, 0, hub.Count("alice"))

	_, ok := <-sub.Outbound
	assert.False(t, ok)
}

func TestHub_ServeWS(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, "alice")
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Count("alice") == 1 }, time.Second, 10*time.Millisecond)

	hub.Deliver(event("alice", contracts.EventCleared))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got contracts.ProgressEvent
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, contracts.EventCleared, got.Kind)
	assert.Equal(t, 3, got.Progress.CompletedDays)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Count("alice") == 0 }, 2*time.Second, 10*time.Millisecond)
}

type failingNotifier struct{ err error }

func (f failingNotifier) Notify(context.Context, contracts.ProgressEvent) error { return f.err }

type countingNotifier struct{ n int }

func (c *countingNotifier) Notify(context.Context, contracts.ProgressEvent) error {
	c.n++
	return nil
}

func TestMulti_DeliversToAllAndJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	counter := &countingNotifier{}
	m := Multi{failingNotifier{err: boom}, nil, counter, NewLogNotifier(zerolog.Nop())}

	err := m.Notify(context.Background(), event("alice", contracts.EventIngested))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, counter.n)
}

func TestMulti_Empty(t *testing.T) {
	assert.NoError(t, Multi{}.Notify(context.Background(), event("alice", contracts.EventIngested)))
}

func TestNewRedisBus_RequiresEnabledClient(t *testing.T) {
	_, err := NewRedisBus(nil, "", zerolog.Nop())
	assert.Error(t, err)

	_, err = NewRedisBus(redis.NewFromRedis(nil), "", zerolog.Nop())
	assert.Error(t, err)
}
