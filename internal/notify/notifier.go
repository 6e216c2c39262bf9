// AngelaMos | 2026
// notifier.go

package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/carterperez-dev/templates/registration-api/internal/mailer"
)

type Config struct {
	Workers         int
	QueueSize       int
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	AttemptTimeout  time.Duration
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 1024
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.InitialInterval <= 0 {
		c.InitialInterval = 500 * time.Millisecond
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = 5 * time.Second
	}
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = 3 * time.Second
	}
	return c
}

type job struct {
	to   string
	code string
}

// Notifier delivers activation codes off the request path. Delivery
// failures are logged and never reach the caller.
type Notifier struct {
	sender mailer.Sender
	cfg    Config
	logger *slog.Logger

	jobs chan job

	mu     sync.RWMutex
	closed bool

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func New(sender mailer.Sender, cfg Config, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()

	return &Notifier{
		sender: sender,
		cfg:    cfg,
		logger: logger,
		jobs:   make(chan job, cfg.QueueSize),
		cancel: func() {},
	}
}

func (n *Notifier) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	n.cancel = cancel

	for range n.cfg.Workers {
		n.wg.Add(1)
		go n.worker(ctx)
	}

	n.logger.Info("notifier started",
		"workers", n.cfg.Workers,
		"queue_size", n.cfg.QueueSize,
	)
}

// Enqueue never blocks. A full queue or a stopped notifier drops the
// delivery with a log line.
func (n *Notifier) Enqueue(to, code string) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.closed {
		n.logger.Warn("notifier stopped, activation mail dropped", "to", to)
		return
	}

	select {
	case n.jobs <- job{to: to, code: code}:
	default:
		n.logger.Warn("notification queue full, activation mail dropped",
			"to", to,
			"queue_size", n.cfg.QueueSize,
		)
	}
}

// Shutdown stops intake and waits for queued deliveries. If ctx expires
// first, in-flight attempts are cancelled.
func (n *Notifier) Shutdown(ctx context.Context) error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	close(n.jobs)
	n.mu.Unlock()

	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		n.cancel()
		return nil
	case <-ctx.Done():
		n.cancel()
		<-done
		return ctx.Err()
	}
}

func (n *Notifier) worker(ctx context.Context) {
	defer n.wg.Done()

	for j := range n.jobs {
		n.deliver(ctx, j)
	}
}

func (n *Notifier) deliver(ctx context.Context, j job) {
	attempts := 0

	op := func() error {
		attempts++
		attemptCtx, cancel := context.WithTimeout(ctx, n.cfg.AttemptTimeout)
		defer cancel()
		return n.sender.Send(attemptCtx, j.to, j.code)
	}

	err := backoff.RetryNotify(op, n.policy(ctx), func(err error, wait time.Duration) {
		n.logger.Warn("activation mail attempt failed",
			"to", j.to,
			"attempt", attempts,
			"retry_in", wait,
			"error", err,
		)
	})
	if err != nil {
		n.logger.Error("activation mail not delivered",
			"to", j.to,
			"attempts", attempts,
			"error", err,
		)
		return
	}

	n.logger.Debug("activation mail delivered",
		"to", j.to,
		"attempts", attempts,
	)
}

func (n *Notifier) policy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = n.cfg.InitialInterval
	b.MaxInterval = n.cfg.MaxInterval
	b.MaxElapsedTime = 0

	retries := uint64(n.cfg.MaxAttempts - 1) //nolint:gosec // MaxAttempts >= 1
	return backoff.WithContext(backoff.WithMaxRetries(b, retries), ctx)
}
