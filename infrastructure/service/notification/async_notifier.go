package notification

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/refferq/refferq/application/port/outbound"
	"github.com/refferq/refferq/infrastructure/service/logger"
)

var (
	ErrQueueFull = errors.New("notification queue is full")
	ErrClosed    = errors.New("notifier is closed")
)

type AsyncConfig struct {
	Workers   int
	QueueSize int
	Retries   int
	Backoff   time.Duration
}

type job struct {
	ctx  context.Context
	kind string
	send func(ctx context.Context) error
}

// AsyncNotifier queues deliveries for a worker pool so callers never wait
// on SMTP. Failed sends are retried with linear backoff and then logged.
type AsyncNotifier struct {
	next outbound.Notifier
	log  logger.Logger
	cfg  AsyncConfig

	mu     sync.RWMutex
	closed bool
	queue  chan job
	wg     sync.WaitGroup
}

var _ outbound.Notifier = (*AsyncNotifier)(nil)

func NewAsyncNotifier(next outbound.Notifier, cfg AsyncConfig, log logger.Logger) *AsyncNotifier {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Second
	}

	n := &AsyncNotifier{
		next:  next,
		log:   log.WithFields(map[string]interface{}{"component": "async_notifier"}),
		cfg:   cfg,
		queue: make(chan job, cfg.QueueSize),
	}
	n.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go n.worker()
	}
	return n
}

func (n *AsyncNotifier) SendWelcome(ctx context.Context, msg outbound.WelcomeMessage) error {
	return n.enqueue(ctx, "welcome", func(ctx context.Context) error {
		return n.next.SendWelcome(ctx, msg)
	})
}

func (n *AsyncNotifier) SendLoginCode(ctx context.Context, msg outbound.LoginCodeMessage) error {
	return n.enqueue(ctx, "login_code", func(ctx context.Context) error {
		return n.next.SendLoginCode(ctx, msg)
	})
}

// enqueue detaches the job from request cancellation but keeps its values.
func (n *AsyncNotifier) enqueue(ctx context.Context, kind string, send func(ctx context.Context) error) error {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return ErrClosed
	}
	select {
	case n.queue <- job{ctx: context.WithoutCancel(ctx), kind: kind, send: send}:
		return nil
	default:
		return ErrQueueFull
	}
}

func (n *AsyncNotifier) worker() {
	defer n.wg.Done()
	for j := range n.queue {
		n.deliver(j)
	}
}

func (n *AsyncNotifier) deliver(j job) {
	var err error
	for attempt := 0; attempt <= n.cfg.Retries; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * n.cfg.Backoff)
		}
		if err = j.send(j.ctx); err == nil {
			return
		}
		n.log.Warn(j.ctx, "Notification attempt failed", map[string]interface{}{
			"kind":    j.kind,
			"attempt": attempt + 1,
			"error":   err.Error(),
		})
	}
	n.log.Error(j.ctx, "Notification dropped after retries", err, map[string]interface{}{"kind": j.kind})
}

// Close stops accepting work and waits for queued jobs until ctx is done.
func (n *AsyncNotifier) Close(ctx context.Context) error {
	n.mu.Lock()
	if !n.closed {
		n.closed = true
		close(n.queue)
	}
	n.mu.Unlock()

	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
