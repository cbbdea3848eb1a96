package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/xavierca1/leadgate/internal/entity"
)

const (
	ResultSent    = "sent"
	ResultFailed  = "failed"
	ResultDropped = "dropped"
)

type Transport interface {
	Send(ctx context.Context, n entity.LeadNotification) error
}

// Dispatcher delivers lead notifications in detached goroutines. Failures are logged and
// counted, never retried, never returned to the caller.
type Dispatcher struct {
	transport Transport
	timeout   time.Duration
	sem       *semaphore.Weighted
	logger    *zap.Logger

	// OnResult, when set, is called once per notification with one of the Result constants.
	OnResult func(result string)
	Now      func() time.Time

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(transport Transport, timeout time.Duration, maxInFlight int64, logger *zap.Logger) *Dispatcher {
	if maxInFlight <= 0 {
		maxInFlight = 1
	}
	return &Dispatcher{
		transport: transport,
		timeout:   timeout,
		sem:       semaphore.NewWeighted(maxInFlight),
		logger:    logger.Named("notify"),
		Now:       time.Now,
	}
}

// Notify returns immediately.
func (d *Dispatcher) Notify(name, email string) {
	n := entity.LeadNotification{Name: name, Email: email, CapturedAt: d.Now()}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.logger.Warn("notification dropped: dispatcher closed", zap.String("email", email))
		d.record(ResultDropped)
		return
	}
	if !d.sem.TryAcquire(1) {
		d.mu.Unlock()
		d.logger.Warn("notification dropped: too many in flight", zap.String("email", email))
		d.record(ResultDropped)
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go d.deliver(n)
}

func (d *Dispatcher) deliver(n entity.LeadNotification) {
	defer d.wg.Done()
	defer d.sem.Release(1)

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.send(ctx, n); err != nil {
		d.logger.Warn("lead notification failed", zap.String("email", n.Email), zap.Error(err))
		d.record(ResultFailed)
		return
	}
	d.logger.Debug("lead notification sent", zap.String("email", n.Email))
	d.record(ResultSent)
}

func (d *Dispatcher) send(ctx context.Context, n entity.LeadNotification) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("transport panic: %v", r)
		}
	}()
	return d.transport.Send(ctx, n)
}

func (d *Dispatcher) record(result string) {
	if d.OnResult != nil {
		d.OnResult(result)
	}
}

// Close stops accepting notifications and waits for the ones in flight.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.wg.Wait()
}

// LogTransport only logs. Used when no mail relay is configured.
type LogTransport struct {
	Logger *zap.Logger
}

func (t LogTransport) Send(_ context.Context, n entity.LeadNotification) error {
	t.Logger.Info("new lead", zap.String("name", n.Name), zap.String("email", n.Email))
	return nil
}
