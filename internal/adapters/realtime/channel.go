// Package realtime maintains the push connection that feeds hot repositories.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"
	"go.trai.ch/mirror/internal/core/backoff"
	"go.trai.ch/mirror/internal/core/domain"
	"go.trai.ch/mirror/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	// DefaultHeartbeatInterval is the ping period while connected.
	DefaultHeartbeatInterval = 30 * time.Second
	// DefaultLivenessTimeout is how long the connection may stay silent before it is considered lost.
	DefaultLivenessTimeout = 60 * time.Second
	// DefaultQueueSize bounds the outbound queue kept while disconnected.
	DefaultQueueSize = 256
	// DefaultMaxReconnectAttempts is the number of consecutive failed reconnections before giving up.
	DefaultMaxReconnectAttempts = 5
)

// Options configure a Channel.
type Options struct {
	Dialer            Dialer
	HeartbeatInterval time.Duration
	// LivenessTimeout bounds the silence between inbound frames. Pong control
	// frames answering the heartbeat count as traffic. Zero disables it.
	LivenessTimeout      time.Duration
	QueueSize            int
	Reconnect            backoff.Policy
	MaxReconnectAttempts int
}

// DefaultOptions returns the default options using the gorilla dialer.
func DefaultOptions() Options {
	return Options{
		Dialer:               WebsocketDialer{HandshakeTimeout: 10 * time.Second},
		HeartbeatInterval:    DefaultHeartbeatInterval,
		LivenessTimeout:      DefaultLivenessTimeout,
		QueueSize:            DefaultQueueSize,
		Reconnect:            backoff.New(time.Second, 30*time.Second),
		MaxReconnectAttempts: DefaultMaxReconnectAttempts,
	}
}

type subscription struct {
	id      ports.SubscriptionID
	handler ports.ChangeHandler
}

// Channel implements ports.RealtimeChannel.
//
// All state is guarded by mu. Socket writes are additionally serialized by
// writeMu because the heartbeat writes without holding mu.
type Channel struct {
	opts   Options
	logger ports.Logger

	mu         sync.Mutex
	state      ports.ChannelState
	url        string
	conn       Conn
	stop       chan struct{}
	epoch      uint64
	attempts   int
	timer      *time.Timer
	dialCtx    context.Context
	cancelDial context.CancelFunc
	subs       map[string][]subscription
	queue      [][]byte

	listeners    map[uint64]func(ports.ChannelState)
	nextListener uint64
	transitions  []ports.ChannelState

	writeMu sync.Mutex
}

var _ ports.RealtimeChannel = (*Channel)(nil)

// New creates a disconnected Channel.
func New(opts Options, logger ports.Logger) *Channel {
	if opts.Dialer == nil {
		opts.Dialer = WebsocketDialer{}
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.Reconnect.Base <= 0 {
		opts.Reconnect = backoff.New(time.Second, 30*time.Second)
	}
	return &Channel{
		opts:      opts,
		logger:    logger,
		subs:      make(map[string][]subscription),
		listeners: make(map[uint64]func(ports.ChannelState)),
	}
}

// Connect dials url. On success every registered channel is subscribed again
// and queued messages are flushed. A failed dial leaves the channel
// disconnected without scheduling a reconnection. Connect also re-arms
// automatic reconnection after the attempt ceiling was reached.
func (c *Channel) Connect(ctx context.Context, url string) error {
	c.mu.Lock()
	c.epoch++
	epoch := c.epoch
	c.stopTimerLocked()
	_ = c.teardownLocked()
	if c.cancelDial != nil {
		c.cancelDial()
	}
	c.dialCtx, c.cancelDial = context.WithCancel(context.Background())
	c.url = url
	c.attempts = 0
	c.setStateLocked(ports.StateConnecting)
	c.unlock()

	conn, err := c.opts.Dialer.Dial(ctx, url)

	c.mu.Lock()
	if c.epoch != epoch {
		c.unlock()
		if conn != nil {
			_ = conn.Close()
		}
		return zerr.With(zerr.Wrap(domain.ErrNotConnected, "connect superseded"), "url", url)
	}
	if err != nil {
		c.setStateLocked(ports.StateDisconnected)
		c.unlock()
		return zerr.With(zerr.Wrap(err, "dial realtime"), "url", url)
	}
	c.establishLocked(conn)
	c.unlock()

	c.logger.Info("realtime connected to " + url)
	return nil
}

// Disconnect closes the connection, cancels any pending reconnection and
// clears the outbound queue. It is valid in every state.
func (c *Channel) Disconnect() error {
	c.mu.Lock()
	defer c.unlock()

	c.epoch++
	c.stopTimerLocked()
	if c.cancelDial != nil {
		c.cancelDial()
		c.cancelDial = nil
	}
	err := c.teardownLocked()
	c.queue = nil
	c.attempts = 0
	c.setStateLocked(ports.StateDisconnected)
	return err
}

// State returns the current connection state.
func (c *Channel) State() ports.ChannelState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// OnStateChange registers fn to observe every state transition. Listeners run
// outside the channel lock, in transition order per caller.
func (c *Channel) OnStateChange(fn func(ports.ChannelState)) (cancel func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextListener++
	id := c.nextListener
	c.listeners[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// Subscribe registers handler for channel. The first handler of a channel
// sends a subscribe message when connected; otherwise it is sent on the
// next successful connection.
func (c *Channel) Subscribe(channel string, handler ports.ChangeHandler) (ports.SubscriptionID, error) {
	if strings.TrimSpace(channel) == "" || handler == nil {
		return "", zerr.With(zerr.Wrap(domain.ErrValidation, "subscribe requires a channel and a handler"), "channel", channel)
	}
	id := ports.SubscriptionID(ulid.Make().String())

	c.mu.Lock()
	defer c.unlock()

	first := len(c.subs[channel]) == 0
	c.subs[channel] = append(c.subs[channel], subscription{id: id, handler: handler})
	if first && c.state == ports.StateConnected {
		c.sendControlLocked(domain.ControlMessage{Type: domain.ControlSubscribe, Channel: channel})
	}
	return id, nil
}

// Unsubscribe removes a handler. The last handler of a channel sends an
// unsubscribe message when connected. Unknown channels and ids are ignored.
func (c *Channel) Unsubscribe(channel string, id ports.SubscriptionID) error {
	c.mu.Lock()
	defer c.unlock()

	subs := c.subs[channel]
	idx := slices.IndexFunc(subs, func(s subscription) bool { return s.id == id })
	if idx < 0 {
		return nil
	}
	subs = slices.Delete(subs, idx, idx+1)
	if len(subs) > 0 {
		c.subs[channel] = subs
		return nil
	}
	delete(c.subs, channel)
	if c.state == ports.StateConnected {
		c.sendControlLocked(domain.ControlMessage{Type: domain.ControlUnsubscribe, Channel: channel})
	}
	return nil
}

// IsSubscribed reports whether channel has at least one handler.
func (c *Channel) IsSubscribed(channel string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs[channel]) > 0
}

// Send writes msg when connected, or queues it until the next connection.
// A full queue drops its oldest message.
func (c *Channel) Send(msg domain.ControlMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return zerr.Wrap(err, "encode realtime message")
	}

	c.mu.Lock()
	defer c.unlock()

	if c.state == ports.StateConnected && c.conn != nil {
		return c.writeLocked(data)
	}
	if len(c.queue) >= c.opts.QueueSize {
		c.queue = c.queue[1:]
		c.logger.Warn("realtime outbound queue full, dropping oldest message")
	}
	c.queue = append(c.queue, data)
	return nil
}

// establishLocked adopts conn, resubscribes every channel, flushes the queue
// and starts the read and heartbeat loops.
func (c *Channel) establishLocked(conn Conn) {
	c.conn = conn
	c.stop = make(chan struct{})
	c.attempts = 0
	c.setStateLocked(ports.StateConnected)

	for _, channel := range slices.Sorted(maps.Keys(c.subs)) {
		c.sendControlLocked(domain.ControlMessage{Type: domain.ControlSubscribe, Channel: channel})
	}
	queued := c.queue
	c.queue = nil
	for _, data := range queued {
		if err := c.writeLocked(data); err != nil {
			break
		}
	}

	if c.opts.LivenessTimeout > 0 {
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(c.opts.LivenessTimeout))
		})
	}
	go c.readLoop(conn)
	if c.opts.HeartbeatInterval > 0 {
		go c.heartbeat(conn, c.stop)
	}
}

// teardownLocked stops the loops of the current connection and closes it.
func (c *Channel) teardownLocked() error {
	if c.conn == nil {
		return nil
	}
	close(c.stop)
	err := c.conn.Close()
	c.conn = nil
	c.stop = nil
	return err
}

func (c *Channel) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Channel) readLoop(conn Conn) {
	for {
		if c.opts.LivenessTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(c.opts.LivenessTimeout))
		}
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.handleClosure(conn, err)
			return
		}
		c.dispatch(data)
	}
}

func (c *Channel) heartbeat(conn Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(c.opts.HeartbeatInterval)
	defer ticker.Stop()

	ping, _ := json.Marshal(domain.ControlMessage{Type: domain.ControlPing})
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			err := conn.WriteMessage(websocket.TextMessage, ping)
			if err == nil {
				// Servers that ignore the JSON ping still answer the control frame.
				err = conn.WriteMessage(websocket.PingMessage, nil)
			}
			c.writeMu.Unlock()
			if err != nil {
				// The read loop observes the closure and drives reconnection.
				_ = conn.Close()
				return
			}
		}
	}
}

// handleClosure reacts to a read failure on conn. Closures caused by
// Disconnect or a newer Connect are ignored.
func (c *Channel) handleClosure(conn Conn, cause error) {
	c.mu.Lock()
	defer c.unlock()

	if c.conn != conn {
		return
	}
	_ = c.teardownLocked()
	c.setStateLocked(ports.StateDisconnected)
	c.logger.Warn(fmt.Sprintf("realtime connection lost: %v", cause))
	c.scheduleLocked()
}

// scheduleLocked arms the next reconnection attempt, or gives up once the
// attempt ceiling is reached.
func (c *Channel) scheduleLocked() {
	limit := c.opts.MaxReconnectAttempts
	if c.attempts >= limit {
		if limit > 0 {
			err := zerr.With(zerr.Wrap(domain.ErrReconnectExhausted, "realtime reconnection stopped"), "attempts", c.attempts)
			c.logger.Error(zerr.With(err, "url", c.url))
		}
		return
	}

	c.setStateLocked(ports.StateReconnecting)
	epoch := c.epoch
	delay := c.opts.Reconnect.Delay(c.attempts)
	c.logger.Debug(fmt.Sprintf("realtime reconnect attempt %d/%d in %s", c.attempts+1, limit, delay.Round(time.Millisecond)))
	c.timer = time.AfterFunc(delay, func() { c.reconnect(epoch) })
}

func (c *Channel) reconnect(epoch uint64) {
	c.mu.Lock()
	if c.epoch != epoch || c.state != ports.StateReconnecting {
		c.unlock()
		return
	}
	c.timer = nil
	url, ctx := c.url, c.dialCtx
	c.unlock()

	conn, err := c.opts.Dialer.Dial(ctx, url)

	c.mu.Lock()
	defer c.unlock()

	if c.epoch != epoch || c.state != ports.StateReconnecting {
		if conn != nil {
			_ = conn.Close()
		}
		return
	}
	if err != nil {
		c.attempts++
		c.logger.Warn(fmt.Sprintf("realtime reconnect attempt %d/%d failed: %v", c.attempts, c.opts.MaxReconnectAttempts, err))
		c.setStateLocked(ports.StateDisconnected)
		c.scheduleLocked()
		return
	}
	c.logger.Info("realtime reconnected to " + url)
	c.establishLocked(conn)
}

func (c *Channel) sendControlLocked(msg domain.ControlMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error(zerr.Wrap(err, "encode realtime control message"))
		return
	}
	_ = c.writeLocked(data)
}

// writeLocked writes data to the current connection. A failed write closes
// the connection so the read loop can start reconnection.
func (c *Channel) writeLocked(data []byte) error {
	conn := c.conn
	if conn == nil {
		return zerr.Wrap(domain.ErrNotConnected, "write realtime message")
	}
	c.writeMu.Lock()
	err := conn.WriteMessage(websocket.TextMessage, data)
	c.writeMu.Unlock()
	if err != nil {
		c.logger.Warn(fmt.Sprintf("realtime write failed: %v", err))
		_ = conn.Close()
		return zerr.Wrap(err, "write realtime message")
	}
	return nil
}

// envelope distinguishes server control frames from change notifications.
type envelope struct {
	Type string `json:"type"`
	domain.ChangeNotification
}

func (c *Channel) dispatch(data []byte) {
	var msg envelope
	if err := json.Unmarshal(data, &msg); err != nil {
		c.logger.Warn(fmt.Sprintf("realtime: discarding malformed message: %v", err))
		return
	}
	if msg.Op == "" && msg.Type != "" {
		c.logger.Debug("realtime: received " + msg.Type)
		return
	}
	if msg.Table == "" {
		c.logger.Warn("realtime: discarding message without table")
		return
	}

	c.mu.Lock()
	subs := slices.Clone(c.subs[msg.Table])
	c.mu.Unlock()

	for _, s := range subs {
		c.invoke(msg.Table, s.handler, msg.ChangeNotification)
	}
}

// invoke runs one handler, isolating its error or panic from its siblings.
func (c *Channel) invoke(channel string, handler ports.ChangeHandler, n domain.ChangeNotification) {
	defer zerr.Defer(func(err error) {
		c.logger.Error(zerr.With(zerr.Wrap(err, "realtime handler panicked"), "channel", channel))
	})
	if err := handler(n); err != nil {
		c.logger.Error(zerr.With(zerr.Wrap(err, "realtime handler failed"), "channel", channel))
	}
}

func (c *Channel) setStateLocked(s ports.ChannelState) {
	if c.state == s {
		return
	}
	c.state = s
	c.transitions = append(c.transitions, s)
}

// unlock releases mu and notifies listeners of the transitions recorded while it was held.
func (c *Channel) unlock() {
	transitions := c.transitions
	c.transitions = nil
	var listeners []func(ports.ChannelState)
	if len(transitions) > 0 {
		for _, id := range slices.Sorted(maps.Keys(c.listeners)) {
			listeners = append(listeners, c.listeners[id])
		}
	}
	c.mu.Unlock()

	for _, s := range transitions {
		for _, fn := range listeners {
			fn(s)
		}
	}
}
