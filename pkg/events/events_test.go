package events

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishSubscribe(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe(4)
	defer cancel()
	assert.Equal(t, 1, h.Subscribers())

	h.Publish(TypeThrottlingChanged, map[string]string{"name": "slow"})

	select {
	case ev := <-ch:
		assert.Equal(t, TypeThrottlingChanged, ev.Type)
		assert.NotEmpty(t, ev.ID)
		assert.False(t, ev.Time.IsZero())
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}

	cancel()
	cancel()
	assert.Zero(t, h.Subscribers())
	_, open := <-ch
	assert.False(t, open)
}

func TestHub_SlowSubscriberDrops(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe(1)
	defer cancel()

	h.Publish(TypeOverrideSelected, 1)
	h.Publish(TypeOverrideSelected, 2)

	ev := <-ch
	assert.Equal(t, 1, ev.Data)
	select {
	case <-ch:
		t.Fatal("second event should have been dropped")
	default:
	}
}

func TestHub_NilPublish(t *testing.T) {
	var h *Hub
	assert.NotPanics(t, func() { h.Publish(TypeOverrideSelected, nil) })
}

func TestHub_ServeHTTPOutlivesServerTimeouts(t *testing.T) {
	h := NewHub()
	srv := httptest.NewUnstartedServer(h)
	srv.Config.ReadTimeout = 100 * time.Millisecond
	srv.Config.WriteTimeout = 100 * time.Millisecond
	srv.Start()
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer func() { _ = conn.CloseNow() }()
	require.Eventually(t, func() bool { return h.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)

	time.Sleep(300 * time.Millisecond)
	h.Publish(TypeThrottlingChanged, nil)

	var ev Event
	require.NoError(t, wsjson.Read(ctx, conn, &ev))
	assert.Equal(t, TypeThrottlingChanged, ev.Type)
	assert.Equal(t, 1, h.Subscribers())
}

func TestHub_ServeHTTP(t *testing.T) {
	h := NewHub()
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer func() { _ = conn.CloseNow() }()

	require.Eventually(t, func() bool { return h.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)

	h.Publish(TypeOverrideSelected, map[string]string{"routePath": "/users", "name": "Inactive User"})

	var ev Event
	require.NoError(t, wsjson.Read(ctx, conn, &ev))
	assert.Equal(t, TypeOverrideSelected, ev.Type)
	assert.Equal(t, map[string]any{"routePath": "/users", "name": "Inactive User"}, ev.Data)

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, ""))
	assert.Eventually(t, func() bool { return h.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)
}
