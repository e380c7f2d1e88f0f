package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Zhima-Mochi/minimarket/internal/domain/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []notification.Notification
	err  error
}

func (s *recordingSender) Send(_ context.Context, n notification.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, n)
	return nil
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestDispatcherDelivers(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender, zap.NewNop())
	d.Start(context.Background())
	defer d.Stop(context.Background())

	n := notification.Notification{
		UserID:  "u1",
		Message: "Your order o1 is confirmed and being processed.",
		Type:    notification.TypeOrderConfirmed,
	}
	require.NoError(t, d.Notify(context.Background(), n))

	waitFor(t, func() bool { return sender.count() == 1 })
	assert.Equal(t, "u1", sender.sent[0].UserID)
}

func TestDispatcherSwallowsSenderErrors(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp down")}
	d := NewDispatcher(sender, zap.NewNop())
	d.Start(context.Background())
	defer d.Stop(context.Background())

	assert.NoError(t, d.Notify(context.Background(), notification.Notification{UserID: "u1"}),
		"fire and forget even when the channel is down")
}

func TestDispatcherStopDrainsQueue(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender, zap.NewNop())
	d.Start(context.Background())

	for i := 0; i < 10; i++ {
		require.NoError(t, d.Notify(context.Background(), notification.Notification{UserID: "u1"}))
	}
	d.Stop(context.Background())

	assert.Equal(t, 10, sender.count())
}

func TestDispatcherStartStopIdempotent(t *testing.T) {
	d := NewDispatcher(&recordingSender{}, zap.NewNop())
	d.Start(context.Background())
	d.Start(context.Background())
	d.Stop(context.Background())
	d.Stop(context.Background())
}
