package realtime_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.trai.ch/mirror/internal/adapters/realtime"
	"go.trai.ch/mirror/internal/core/backoff"
	"go.trai.ch/mirror/internal/core/domain"
	"go.trai.ch/mirror/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

var (
	errClosed   = errors.New("use of closed connection")
	errDeadline = errors.New("i/o timeout")
	errRefused  = errors.New("connection refused")
)

type fakeConn struct {
	mu       sync.Mutex
	written  [][]byte
	deadline time.Time
	onPong   func(string) error
	pings    int
	autoPong bool

	inbound   chan []byte
	pongs     chan struct{}
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeConn(autoPong bool) *fakeConn {
	return &fakeConn{
		autoPong: autoPong,
		inbound:  make(chan []byte),
		pongs:    make(chan struct{}, 1),
		closed:   make(chan struct{}),
	}
}

// ReadMessage behaves like gorilla's: pong frames are consumed by the pong
// handler and never returned.
func (c *fakeConn) ReadMessage() (int, []byte, error) {
	for {
		c.mu.Lock()
		deadline := c.deadline
		c.mu.Unlock()

		var expired <-chan time.Time
		timer := time.NewTimer(time.Hour)
		timer.Stop()
		if !deadline.IsZero() {
			timer.Reset(time.Until(deadline))
			expired = timer.C
		}

		select {
		case msg := <-c.inbound:
			timer.Stop()
			return websocket.TextMessage, msg, nil
		case <-c.pongs:
			timer.Stop()
			c.mu.Lock()
			h := c.onPong
			c.mu.Unlock()
			if h != nil {
				if err := h(""); err != nil {
					return 0, nil, err
				}
			}
		case <-c.closed:
			timer.Stop()
			return 0, nil, errClosed
		case <-expired:
			return 0, nil, errDeadline
		}
	}
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	select {
	case <-c.closed:
		return errClosed
	default:
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if messageType == websocket.PingMessage {
		c.pings++
		if c.autoPong {
			select {
			case c.pongs <- struct{}{}:
			default:
			}
		}
		return nil
	}
	c.written = append(c.written, append([]byte(nil), data...))
	return nil
}

func (c *fakeConn) SetPongHandler(h func(string) error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onPong = h
}

func (c *fakeConn) pingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pings
}

func (c *fakeConn) SetReadDeadline(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deadline = t
	return nil
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// push delivers an inbound frame; it blocks until the read loop takes it.
func (c *fakeConn) push(t *testing.T, v any) {
	t.Helper()
	data, ok := v.([]byte)
	if !ok {
		var err error
		data, err = json.Marshal(v)
		require.NoError(t, err)
	}
	c.inbound <- data
}

// messages decodes every written frame, skipping pings unless withPings is set.
func (c *fakeConn) messages(withPings bool) []domain.ControlMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []domain.ControlMessage
	for _, data := range c.written {
		var msg domain.ControlMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type == domain.ControlPing && !withPings {
			continue
		}
		out = append(out, msg)
	}
	return out
}

func (c *fakeConn) raw() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.written...)
}

type fakeDialer struct {
	mu       sync.Mutex
	conns    []*fakeConn
	dials    int
	urls     []string
	fail     func(n int) error
	autoPong bool
}

func (d *fakeDialer) Dial(ctx context.Context, url string) (realtime.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	d.urls = append(d.urls, url)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.fail != nil {
		if err := d.fail(d.dials); err != nil {
			return nil, err
		}
	}
	conn := newFakeConn(d.autoPong)
	d.conns = append(d.conns, conn)
	return conn, nil
}

func (d *fakeDialer) setFail(fn func(n int) error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fail = fn
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func (d *fakeDialer) conn(t *testing.T, i int) *fakeConn {
	t.Helper()
	d.mu.Lock()
	defer d.mu.Unlock()
	require.Greater(t, len(d.conns), i, "connection %d was never dialed", i)
	return d.conns[i]
}

type fixture struct {
	dialer *fakeDialer
	logger *mocks.MockLogger
	ch     *realtime.Channel
}

func testOptions(d realtime.Dialer) realtime.Options {
	return realtime.Options{
		Dialer:               d,
		HeartbeatInterval:    time.Hour,
		QueueSize:            8,
		Reconnect:            backoff.New(time.Second, 10*time.Second),
		MaxReconnectAttempts: 3,
	}
}

// setup builds a channel over a fake dialer. Debug, Info and Warn are
// accepted freely; tests set Error expectations explicitly.
func setup(t *testing.T, customize ...func(*realtime.Options)) *fixture {
	t.Helper()
	d := &fakeDialer{}
	log := mocks.NewMockLogger(gomock.NewController(t))
	log.EXPECT().Debug(gomock.Any()).AnyTimes()
	log.EXPECT().Info(gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any()).AnyTimes()

	opts := testOptions(d)
	for _, fn := range customize {
		fn(&opts)
	}
	return &fixture{dialer: d, logger: log, ch: realtime.New(opts, log)}
}

func subscribe(channel string) domain.ControlMessage {
	return domain.ControlMessage{Type: domain.ControlSubscribe, Channel: channel}
}

func unsubscribe(channel string) domain.ControlMessage {
	return domain.ControlMessage{Type: domain.ControlUnsubscribe, Channel: channel}
}

func ignore(domain.ChangeNotification) error { return nil }

type collector struct {
	mu  sync.Mutex
	got []domain.ChangeNotification
}

func (c *collector) handle(n domain.ChangeNotification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, n)
	return nil
}

func (c *collector) all() []domain.ChangeNotification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.ChangeNotification(nil), c.got...)
}
