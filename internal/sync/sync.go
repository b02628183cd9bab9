package sync

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alfredjeanlab/kplan/internal/store"
)

// Destination is the interface for a sync target (S3, git, etc.).
type Destination interface {
	// Name identifies the destination in logs.
	Name() string
	// Write sends the JSONL payload to the destination.
	Write(ctx context.Context, data []byte) error
}

// Scheduler periodically exports the plan and ships it to each destination.
// A destination is only rewritten when the plan changed since the last
// export it accepted, so idle projects do not produce a new S3 object or
// git commit every tick.
type Scheduler struct {
	store        store.Store
	destinations []Destination
	interval     time.Duration
	logger       *slog.Logger

	mu      sync.Mutex
	shipped map[string][sha256.Size]byte // destination name -> body digest

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler that exports from the store to the given
// destinations at the specified interval.
func NewScheduler(s store.Store, destinations []Destination, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		store:        s,
		destinations: destinations,
		interval:     interval,
		logger:       logger,
		shipped:      make(map[string][sha256.Size]byte),
	}
}

// Start begins periodic sync. It runs an initial sync immediately, then
// on each tick.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
}

// Stop cancels the scheduler and waits for the current sync (if any) to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	_ = s.SyncOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.SyncOnce(ctx)
		}
	}
}

// bodyDigest hashes everything after the header line. The header carries
// the export timestamp, which differs on every run.
func bodyDigest(data []byte) [sha256.Size]byte {
	_, body, _ := bytes.Cut(data, []byte("\n"))
	return sha256.Sum256(body)
}

// SyncOnce exports the store and writes the snapshot to every destination
// whose last accepted export differs. A failing destination does not stop
// the others and is retried on the next run; all failures are joined.
func (s *Scheduler) SyncOnce(ctx context.Context) error {
	var buf bytes.Buffer
	if err := ExportJSONL(ctx, s.store, &buf); err != nil {
		s.logger.Error("sync export failed", "err", err)
		return err
	}
	data := buf.Bytes()
	digest := bodyDigest(data)

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		errs    []error
		written int
	)
	for _, dest := range s.destinations {
		name := dest.Name()
		if s.shipped[name] == digest {
			continue
		}
		if err := dest.Write(ctx, data); err != nil {
			s.logger.Error("sync destination write failed", "destination", name, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		s.shipped[name] = digest
		written++
	}

	s.logger.Info("sync completed",
		"destinations", len(s.destinations),
		"written", written,
		"failed", len(errs),
		"bytes", len(data),
	)
	return errors.Join(errs...)
}
