package notify

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/Zhima-Mochi/minimarket/internal/domain/notification"
	"go.uber.org/zap"
)

// Sender delivers one notification to its channel (email, push, ...).
type Sender interface {
	Send(ctx context.Context, n notification.Notification) error
}

// Dispatcher is an in-memory fire-and-forget notification queue. It is
// not durable; a dropped or failed notification is logged and forgotten.
type Dispatcher struct {
	sender    Sender
	queue     chan notification.Notification
	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
	log       *zap.Logger
}

const sendTimeout = 10 * time.Second

func NewDispatcher(sender Sender, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		sender: sender,
		queue:  make(chan notification.Notification, 256),
		done:   make(chan struct{}),
		log:    log.With(zap.String("component", "notify")),
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	d.startOnce.Do(func() {
		bg, cancel := context.WithCancel(context.WithoutCancel(ctx))
		d.cancel = cancel
		go d.dispatchLoop(bg)
		d.log.Info("notify_dispatcher_started")
	})
}

func (d *Dispatcher) Stop(ctx context.Context) {
	d.stopOnce.Do(func() {
		close(d.queue)
		select {
		case <-d.done:
		case <-ctx.Done():
		}
		if d.cancel != nil {
			d.cancel()
		}
		d.log.Info("notify_dispatcher_stopped")
	})
}

// Notify enqueues without blocking. A full queue drops the notification.
func (d *Dispatcher) Notify(ctx context.Context, n notification.Notification) error {
	select {
	case d.queue <- n:
		return nil
	default:
		d.log.Warn("notification_dropped_queue_full",
			zap.String("user_id", n.UserID),
			zap.String("type", string(n.Type)),
		)
		return nil
	}
}

func (d *Dispatcher) dispatchLoop(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-d.queue:
			if !ok {
				return
			}
			d.deliver(ctx, n)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, n notification.Notification) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("notification_sender_panic",
				zap.Any("panic", r),
				zap.String("stack", string(debug.Stack())),
			)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	if err := d.sender.Send(ctx, n); err != nil {
		d.log.Warn("notification_send_failed",
			zap.String("user_id", n.UserID),
			zap.String("type", string(n.Type)),
			zap.Error(err),
		)
	}
}
