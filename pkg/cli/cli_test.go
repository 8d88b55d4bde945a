package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/routemock/pkg/config"
	"github.com/getmockd/routemock/pkg/server"
	"github.com/getmockd/routemock/pkg/throttle"
)

// TestMain lets testscript run the routemock command in-process.
func TestMain(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"routemock": Main,
	}))
}

const scriptRoutes = `
routes:
  - path: /users
    methods:
      - type: get
        data: ["First user"]
        overrides:
          - name: Inactive User
            data: {active: false}
  - path: /dogs
    methods:
      - type: get
        data: ["Rex"]
`

// startScriptServer runs a server for the scripts that talk to one.
func startScriptServer(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "routes"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "routes", "users.yaml"), []byte(scriptRoutes), 0o644))

	cfg := config.Default()
	cfg.Dir = dir
	cfg.Port = 0
	cfg.Persistence.Enabled = false
	cfg.Throttlings = []throttle.Band{{Name: "Fast", Values: [2]int{0, 0}}, {Name: "Slow", Values: [2]int{20, 30}}}
	cfg.Proxies = []config.Proxy{{Name: "sandbox", Host: "https://sandbox.com"}}

	srv, err := server.New(cfg, server.WithVersion("script"))
	require.NoError(t, err)
	require.NoError(t, srv.Start(context.Background()))
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv.URL()
}

func TestScripts(t *testing.T) {
	url := startScriptServer(t)

	testscript.Run(t, testscript.Params{
		Dir: filepath.Join("testdata", "script"),
		Setup: func(env *testscript.Env) error {
			env.Setenv("ROUTEMOCK_ADMIN_URL", url)
			return nil
		},
	})
}
