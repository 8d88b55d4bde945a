package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/spf13/cobra"

	"github.com/getmockd/routemock/pkg/cli/internal/output"
	"github.com/getmockd/routemock/pkg/events"
)

var watchCount int

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream override and throttling changes from a running server",
	Example: `  routemock watch
  routemock watch --count 1 --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		url := newClient().EventsURL()
		dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		conn, _, err := websocket.Dial(dialCtx, url, nil)
		cancel()
		if err != nil {
			return FormatConnectionError(fmt.Errorf("%w at %s: %w", ErrConnection, url, err))
		}
		defer func() { _ = conn.CloseNow() }()

		w := cmd.OutOrStdout()
		for n := 0; watchCount <= 0 || n < watchCount; n++ {
			var ev events.Event
			if err := wsjson.Read(ctx, conn, &ev); err != nil {
				if ctx.Err() != nil || websocket.CloseStatus(err) == websocket.StatusNormalClosure || errors.Is(err, context.Canceled) {
					return nil
				}
				return fmt.Errorf("event stream closed: %w", err)
			}

			if jsonOutput {
				if err := output.JSON(w, ev); err != nil {
					return err
				}
				continue
			}
			data, _ := json.Marshal(ev.Data)
			fmt.Fprintf(w, "%s  %-20s %s\n", ev.Time.Local().Format(time.TimeOnly), ev.Type, data)
		}
		return conn.Close(websocket.StatusNormalClosure, "")
	},
}

func init() {
	watchCmd.Flags().IntVar(&watchCount, "count", 0, "Exit after this many events (0 streams until interrupted)")
	rootCmd.AddCommand(watchCmd)
}
