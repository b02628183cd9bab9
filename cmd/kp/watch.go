package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/alfredjeanlab/kplan/internal/events"
	"github.com/alfredjeanlab/kplan/internal/model"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:     "watch <project-id>",
	Short:   "Print a project's health whenever it changes",
	GroupID: "reports",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, _ := cmd.Flags().GetDuration("interval")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		w := &healthWatcher{projectID: args[0], out: cmd.OutOrStdout()}
		if err := w.refresh(ctx); err != nil {
			return err
		}

		sub, topic, err := newWatchSubscriber(ctx)
		if err != nil {
			return err
		}
		if sub == nil {
			return w.poll(ctx, interval)
		}
		defer sub.Close()
		return w.follow(ctx, sub, topic)
	},
}

// newWatchSubscriber connects to the event bus named by the environment or
// the active remote. It returns a nil Subscriber when none is configured.
func newWatchSubscriber(ctx context.Context) (events.Subscriber, string, error) {
	natsURL := os.Getenv("KPLAN_NATS_URL")
	if natsURL == "" {
		natsURL = activeRemote().NATSURL
	}
	if natsURL != "" {
		sub, err := events.NewNATSSubscriber(natsURL,
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				slog.Warn("nats disconnected", "err", err)
			}),
		)
		if err != nil {
			return nil, "", fmt.Errorf("connecting to NATS: %w", err)
		}
		return sub, "kplan.>", nil
	}

	redisURL := os.Getenv("KPLAN_REDIS_URL")
	if redisURL == "" {
		redisURL = activeRemote().RedisURL
	}
	if redisURL != "" {
		sub, err := events.NewRedisSubscriber(ctx, redisURL)
		if err != nil {
			return nil, "", fmt.Errorf("connecting to Redis: %w", err)
		}
		return sub, "kplan.*", nil
	}
	return nil, "", nil
}

// healthWatcher prints a summary line each time the project's health summary
// differs from the last one printed.
type healthWatcher struct {
	projectID string
	out       io.Writer
	last      string
}

func (w *healthWatcher) refresh(ctx context.Context) error {
	snap, err := planClient.HealthSnapshot(ctx, w.projectID)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("computing health: %w", err)
	}
	w.observe(snap, time.Now())
	return nil
}

// observe prints snap if its summary changed and reports whether it did.
func (w *healthWatcher) observe(snap *model.HealthSnapshot, at time.Time) bool {
	line := healthSummary(snap)
	if line == w.last {
		return false
	}
	w.last = line
	if jsonOutput {
		_ = printJSON(w.out, snap)
	} else {
		fmt.Fprintf(w.out, "%s  %s\n", at.Format("15:04:05"), line)
	}
	return true
}

// concerns reports whether msg may change the watched project's health.
// Events that name no project, such as dependency and capacity changes,
// always count.
func (w *healthWatcher) concerns(msg events.Message) bool {
	pid := msg.ProjectID()
	return pid == "" || pid == w.projectID
}

func (w *healthWatcher) follow(ctx context.Context, sub events.Subscriber, topic string) error {
	ch, cancel, err := sub.Subscribe(topic)
	if err != nil {
		return fmt.Errorf("subscribing to events: %w", err)
	}
	defer cancel()

	debounce := time.NewTimer(time.Hour)
	debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if w.concerns(msg) {
				debounce.Reset(200 * time.Millisecond)
			}
		case <-debounce.C:
			if err := w.refresh(ctx); err != nil {
				return err
			}
		}
	}
}

func (w *healthWatcher) poll(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := w.refresh(ctx); err != nil {
				return err
			}
		}
	}
}

func healthSummary(snap *model.HealthSnapshot) string {
	line := fmt.Sprintf("%s %s", snap.ProjectID, snap.Status)
	if snap.Progress != nil {
		line += fmt.Sprintf("  progress %.1f%%", snap.Progress.Progress)
	}
	line += fmt.Sprintf("  deadlocks %d", len(snap.Deadlocks))
	if snap.Overloads != nil {
		line += fmt.Sprintf("  overloaded %d (sustained %d)", len(snap.Overloads.OverloadedUsers), snap.Overloads.SustainedOverloads)
	}
	return line
}

func init() {
	watchCmd.Flags().Duration("interval", 30*time.Second, "polling interval when no event bus is configured")
}
