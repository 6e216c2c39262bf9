// AngelaMos | 2026
// notifier_test.go

package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type delivery struct {
	to   string
	code string
}

type fakeSender struct {
	mu        sync.Mutex
	failFirst int
	calls     int
	delivered []delivery
	block     bool
}

func (f *fakeSender) Send(ctx context.Context, to, code string) error {
	f.mu.Lock()
	f.calls++
	call := f.calls
	block := f.block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return ctx.Err()
	}

	if call <= f.failFirst {
		return errors.New("mail api unavailable")
	}

	f.mu.Lock()
	f.delivered = append(f.delivered, delivery{to: to, code: code})
	f.mu.Unlock()
	return nil
}

func (f *fakeSender) snapshot() (int, []delivery) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls, append([]delivery(nil), f.delivered...)
}

func testConfig() Config {
	return Config{
		Workers:         2,
		QueueSize:       16,
		MaxAttempts:     3,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		AttemptTimeout:  time.Second,
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func shutdown(t *testing.T, n *Notifier) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, n.Shutdown(ctx))
}

func TestNotifier_Delivers(t *testing.T) {
	sender := &fakeSender{}
	n := New(sender, testConfig(), quietLogger())
	n.Start(context.Background())

	n.Enqueue("alice@example.com", "0042")
	n.Enqueue("bob@example.com", "1234")
	shutdown(t, n)

	calls, delivered := sender.snapshot()
	assert.Equal(t, 2, calls)
	assert.ElementsMatch(t, []delivery{
		{to: "alice@example.com", code: "0042"},
		{to: "bob@example.com", code: "1234"},
	}, delivered)
}

func TestNotifier_RetriesUntilSuccess(t *testing.T) {
	sender := &fakeSender{failFirst: 2}
	cfg := testConfig()
	cfg.Workers = 1
	n := New(sender, cfg, quietLogger())
	n.Start(context.Background())

	n.Enqueue("alice@example.com", "0042")
	shutdown(t, n)

	calls, delivered := sender.snapshot()
	assert.Equal(t, 3, calls)
	assert.Len(t, delivered, 1)
}

func TestNotifier_GivesUpAfterMaxAttempts(t *testing.T) {
	sender := &fakeSender{failFirst: 100}
	cfg := testConfig()
	cfg.Workers = 1
	n := New(sender, cfg, quietLogger())
	n.Start(context.Background())

	n.Enqueue("alice@example.com", "0042")
	shutdown(t, n)

	calls, delivered := sender.snapshot()
	assert.Equal(t, 3, calls)
	assert.Empty(t, delivered)
}

func TestNotifier_AttemptTimeout(t *testing.T) {
	sender := &fakeSender{block: true}
	cfg := testConfig()
	cfg.Workers = 1
	cfg.MaxAttempts = 2
	cfg.AttemptTimeout = 20 * time.Millisecond
	n := New(sender, cfg, quietLogger())
	n.Start(context.Background())

	start := time.Now()
	n.Enqueue("alice@example.com", "0042")
	shutdown(t, n)

	calls, _ := sender.snapshot()
	assert.Equal(t, 2, calls)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestNotifier_EnqueueNeverBlocks(t *testing.T) {
	cfg := testConfig()
	cfg.QueueSize = 1
	n := New(&fakeSender{}, cfg, quietLogger())

	done := make(chan struct{})
	go func() {
		for range 10 {
			n.Enqueue("alice@example.com", "0042")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}
}

func TestNotifier_EnqueueAfterShutdown(t *testing.T) {
	sender := &fakeSender{}
	n := New(sender, testConfig(), quietLogger())
	n.Start(context.Background())
	shutdown(t, n)

	assert.NotPanics(t, func() {
		n.Enqueue("alice@example.com", "0042")
	})
	assert.NoError(t, n.Shutdown(context.Background()))

	calls, _ := sender.snapshot()
	assert.Zero(t, calls)
}

func TestNotifier_ShutdownDeadlineCancelsInFlight(t *testing.T) {
	sender := &fakeSender{block: true}
	cfg := testConfig()
	cfg.Workers = 1
	cfg.MaxAttempts = 1
	cfg.AttemptTimeout = time.Minute
	n := New(sender, cfg, quietLogger())
	n.Start(context.Background())

	n.Enqueue("alice@example.com", "0042")
	require.Eventually(t, func() bool {
		calls, _ := sender.snapshot()
		return calls == 1
	}, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := n.Shutdown(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestConfig_Defaults(t *testing.T) {
	cfg := Config{}.withDefaults()

	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 1024, cfg.QueueSize)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.InitialInterval)
	assert.Equal(t, 5*time.Second, cfg.MaxInterval)
	assert.Equal(t, 3*time.Second, cfg.AttemptTimeout)
}
