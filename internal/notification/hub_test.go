package notification

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeConn struct {
	mu       sync.Mutex
	events   []Event
	writeErr error
	closed   bool
}

func (f *fakeConn) WriteJSON(v interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.events = append(f.events, v.(Event))
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) received() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func TestHubPushFansOutToAllConnections(t *testing.T) {
	hub := NewHub(zap.NewNop())
	a := &fakeConn{}
	b := &fakeConn{}
	hub.Register(7, a)
	hub.Register(7, b)

	delivered := hub.Push(7, Event{Type: "new_notification"})

	assert.Equal(t, 2, delivered)
	assert.Equal(t, 1, a.received())
	assert.Equal(t, 1, b.received())
}

func TestHubPushWithoutConnectionsDropsSilently(t *testing.T) {
	hub := NewHub(zap.NewNop())

	delivered := hub.Push(42, Event{Type: "new_notification"})

	assert.Zero(t, delivered)
}

func TestHubPushSkipsOtherUsers(t *testing.T) {
	hub := NewHub(zap.NewNop())
	mine := &fakeConn{}
	theirs := &fakeConn{}
	hub.Register(1, mine)
	hub.Register(2, theirs)

	hub.Push(1, Event{Type: "new_notification"})

	assert.Equal(t, 1, mine.received())
	assert.Zero(t, theirs.received())
}

func TestHubUnregisterClosesAndRemoves(t *testing.T) {
	hub := NewHub(zap.NewNop())
	conn := &fakeConn{}
	connID := hub.Register(9, conn)

	hub.Unregister(9, connID)

	assert.True(t, conn.closed)
	assert.Zero(t, hub.Connections(9))

	// unknown ids are a no-op
	hub.Unregister(9, connID)
	hub.Unregister(9, "no-such-conn")
}

func TestHubDropsConnectionOnWriteFailure(t *testing.T) {
	hub := NewHub(zap.NewNop())
	healthy := &fakeConn{}
	broken := &fakeConn{writeErr: errors.New("write: broken pipe")}
	hub.Register(3, healthy)
	hub.Register(3, broken)

	delivered := hub.Push(3, Event{Type: "new_notification"})

	assert.Equal(t, 1, delivered)
	assert.Equal(t, 1, hub.Connections(3))
	assert.True(t, broken.closed)
}

func TestHubConcurrentRegisterAndPush(t *testing.T) {
	hub := NewHub(zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(userID uint) {
			defer wg.Done()
			connID := hub.Register(userID, &fakeConn{})
			hub.Unregister(userID, connID)
		}(uint(i % 5))
		go func(userID uint) {
			defer wg.Done()
			hub.Push(userID, Event{Type: "new_notification"})
		}(uint(i % 5))
	}
	wg.Wait()

	for userID := uint(0); userID < 5; userID++ {
		assert.Zero(t, hub.Connections(userID))
	}
}
