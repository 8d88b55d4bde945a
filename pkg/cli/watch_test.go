package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/routemock/pkg/config"
	"github.com/getmockd/routemock/pkg/events"
	"github.com/getmockd/routemock/pkg/server"
)

func TestWatch(t *testing.T) {
	cfg := config.Default()
	cfg.Dir = t.TempDir()
	cfg.Port = 0
	cfg.Persistence.Enabled = false

	srv, err := server.New(cfg)
	require.NoError(t, err)
	require.NoError(t, srv.Start(context.Background()))
	defer func() { _ = srv.Shutdown(context.Background()) }()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"watch", "--count", "1", "--json", "--admin-url", srv.URL()})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		jsonOutput, watchCount = false, 0
	})

	done := make(chan error, 1)
	go func() { done <- rootCmd.ExecuteContext(context.Background()) }()

	require.Eventually(t, func() bool { return srv.Events().Subscribers() == 1 }, 5*time.Second, 10*time.Millisecond)
	srv.Events().Publish(events.TypeThrottlingChanged, map[string]string{"name": "Slow"})

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not return")
	}

	var ev events.Event
	require.NoError(t, json.Unmarshal(out.Bytes(), &ev))
	assert.Equal(t, events.TypeThrottlingChanged, ev.Type)
	assert.Equal(t, map[string]any{"name": "Slow"}, ev.Data)
}
