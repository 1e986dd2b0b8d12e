package realtime_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/mirror/internal/adapters/realtime"
	"go.trai.ch/mirror/internal/core/domain"
	"go.trai.ch/mirror/internal/core/ports"
	"go.uber.org/mock/gomock"
)

const testURL = "ws://backend.test/realtime"

func TestChannel_ConnectAndSubscribe(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := setup(t)
		_, err := f.ch.Subscribe("jobs", ignore)
		require.NoError(t, err)

		require.NoError(t, f.ch.Connect(context.Background(), testURL))
		defer func() { _ = f.ch.Disconnect() }()

		assert.Equal(t, ports.StateConnected, f.ch.State())
		conn := f.dialer.conn(t, 0)
		assert.Equal(t, []domain.ControlMessage{subscribe("jobs")}, conn.messages(false),
			"channels registered before connecting are subscribed on connect")

		_, err = f.ch.Subscribe("results", ignore)
		require.NoError(t, err)
		_, err = f.ch.Subscribe("results", ignore)
		require.NoError(t, err)
		assert.Equal(t, []domain.ControlMessage{subscribe("jobs"), subscribe("results")}, conn.messages(false),
			"only the first handler of a channel sends a subscribe")
		assert.True(t, f.ch.IsSubscribed("results"))
		assert.False(t, f.ch.IsSubscribed("workflows"))
	})
}

func TestChannel_SubscribeValidation(t *testing.T) {
	f := setup(t)
	_, err := f.ch.Subscribe(" ", ignore)
	require.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.ch.Subscribe("jobs", nil)
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestChannel_ConnectFailure(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := setup(t)
		f.dialer.setFail(func(int) error { return errRefused })

		err := f.ch.Connect(context.Background(), testURL)
		require.ErrorIs(t, err, errRefused)
		assert.Equal(t, ports.StateDisconnected, f.ch.State())

		time.Sleep(time.Hour)
		synctest.Wait()
		assert.Equal(t, 1, f.dialer.dialCount(), "a failed connect does not schedule reconnection")
	})
}

func TestChannel_UnsubscribeIsIdempotent(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := setup(t)
		require.NoError(t, f.ch.Connect(context.Background(), testURL))
		defer func() { _ = f.ch.Disconnect() }()
		conn := f.dialer.conn(t, 0)

		first, err := f.ch.Subscribe("jobs", ignore)
		require.NoError(t, err)
		second, err := f.ch.Subscribe("jobs", ignore)
		require.NoError(t, err)
		assert.NotEqual(t, first, second)

		require.NoError(t, f.ch.Unsubscribe("jobs", first))
		assert.True(t, f.ch.IsSubscribed("jobs"))
		assert.Equal(t, []domain.ControlMessage{subscribe("jobs")}, conn.messages(false))

		require.NoError(t, f.ch.Unsubscribe("jobs", second))
		assert.False(t, f.ch.IsSubscribed("jobs"))
		require.NoError(t, f.ch.Unsubscribe("jobs", second))
		require.NoError(t, f.ch.Unsubscribe("workflows", "unknown"))

		assert.Equal(t, []domain.ControlMessage{subscribe("jobs"), unsubscribe("jobs")}, conn.messages(false),
			"repeated and unknown unsubscribes send nothing")
	})
}

func TestChannel_ResubscribesAfterReconnect(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := setup(t)
		require.NoError(t, f.ch.Connect(context.Background(), testURL))
		defer func() { _ = f.ch.Disconnect() }()

		_, err := f.ch.Subscribe("jobs", ignore)
		require.NoError(t, err)
		_, err = f.ch.Subscribe("results", ignore)
		require.NoError(t, err)

		f.dialer.conn(t, 0).Close()
		synctest.Wait()
		assert.Equal(t, ports.StateReconnecting, f.ch.State())

		time.Sleep(2 * time.Second)
		synctest.Wait()

		assert.Equal(t, ports.StateConnected, f.ch.State())
		assert.Equal(t, 2, f.dialer.dialCount())
		assert.Equal(t, []domain.ControlMessage{subscribe("jobs"), subscribe("results")},
			f.dialer.conn(t, 1).messages(false))
	})
}

func TestChannel_ReconnectionBound(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := setup(t)
		f.logger.EXPECT().Error(gomock.Any()).Do(func(err error) {
			assert.ErrorIs(t, err, domain.ErrReconnectExhausted)
		}).Times(1)

		require.NoError(t, f.ch.Connect(context.Background(), testURL))
		defer func() { _ = f.ch.Disconnect() }()
		f.dialer.setFail(func(int) error { return errRefused })

		f.dialer.conn(t, 0).Close()
		time.Sleep(time.Minute)
		synctest.Wait()

		assert.Equal(t, 1+3, f.dialer.dialCount(), "exactly the configured number of reconnection attempts")
		assert.Equal(t, ports.StateDisconnected, f.ch.State())

		time.Sleep(24 * time.Hour)
		synctest.Wait()
		assert.Equal(t, 4, f.dialer.dialCount(), "no attempts after the ceiling")

		f.dialer.setFail(nil)
		require.NoError(t, f.ch.Connect(context.Background(), testURL))
		assert.Equal(t, ports.StateConnected, f.ch.State())
	})
}

func TestChannel_ReconnectBackoff(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := setup(t)
		require.NoError(t, f.ch.Connect(context.Background(), testURL))
		defer func() { _ = f.ch.Disconnect() }()
		f.dialer.setFail(func(n int) error {
			if n < 4 {
				return errRefused
			}
			return nil
		})

		f.dialer.conn(t, 0).Close()
		synctest.Wait()

		// Delays are 1s, 2s and 4s, each within 10% jitter.
		time.Sleep(800 * time.Millisecond)
		synctest.Wait()
		assert.Equal(t, 1, f.dialer.dialCount())

		time.Sleep(400 * time.Millisecond)
		synctest.Wait()
		assert.Equal(t, 2, f.dialer.dialCount())

		time.Sleep(2400 * time.Millisecond)
		synctest.Wait()
		assert.Equal(t, 3, f.dialer.dialCount())

		time.Sleep(4800 * time.Millisecond)
		synctest.Wait()
		assert.Equal(t, 4, f.dialer.dialCount())
		assert.Equal(t, ports.StateConnected, f.ch.State())
	})
}

func TestChannel_DisconnectCancelsReconnection(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := setup(t)
		require.NoError(t, f.ch.Connect(context.Background(), testURL))

		f.dialer.conn(t, 0).Close()
		synctest.Wait()
		require.Equal(t, ports.StateReconnecting, f.ch.State())

		require.NoError(t, f.ch.Disconnect())
		time.Sleep(time.Hour)
		synctest.Wait()

		assert.Equal(t, 1, f.dialer.dialCount())
		assert.Equal(t, ports.StateDisconnected, f.ch.State())
	})
}

func TestChannel_DisconnectIsNotAnUnexpectedClosure(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := setup(t)
		require.NoError(t, f.ch.Connect(context.Background(), testURL))
		conn := f.dialer.conn(t, 0)

		require.NoError(t, f.ch.Disconnect())
		time.Sleep(time.Hour)
		synctest.Wait()

		assert.True(t, conn.isClosed())
		assert.Equal(t, 1, f.dialer.dialCount())
		assert.Equal(t, ports.StateDisconnected, f.ch.State())
	})
}

func TestChannel_StateTransitions(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := setup(t)
		var (
			mu     sync.Mutex
			states []ports.ChannelState
		)
		cancel := f.ch.OnStateChange(func(s ports.ChannelState) {
			mu.Lock()
			defer mu.Unlock()
			states = append(states, s)
		})

		require.NoError(t, f.ch.Connect(context.Background(), testURL))
		f.dialer.conn(t, 0).Close()
		time.Sleep(2 * time.Second)
		synctest.Wait()
		require.NoError(t, f.ch.Disconnect())
		cancel()
		require.NoError(t, f.ch.Connect(context.Background(), testURL))
		defer func() { _ = f.ch.Disconnect() }()

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, []ports.ChannelState{
			ports.StateConnecting,
			ports.StateConnected,
			ports.StateDisconnected,
			ports.StateReconnecting,
			ports.StateConnected,
			ports.StateDisconnected,
		}, states)
	})
}

func TestChannel_RoutesByTable(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := setup(t)
		jobs, results := &collector{}, &collector{}
		_, err := f.ch.Subscribe("jobs", jobs.handle)
		require.NoError(t, err)
		_, err = f.ch.Subscribe("results", results.handle)
		require.NoError(t, err)

		require.NoError(t, f.ch.Connect(context.Background(), testURL))
		defer func() { _ = f.ch.Disconnect() }()
		conn := f.dialer.conn(t, 0)

		conn.push(t, domain.ChangeNotification{Op: domain.OpInsert, Table: "jobs", New: json.RawMessage(`{"id":"j1"}`)})
		conn.push(t, domain.ChangeNotification{Op: domain.OpDelete, Table: "results", Old: json.RawMessage(`{"id":"r1"}`)})
		conn.push(t, domain.ChangeNotification{Op: domain.OpUpdate, Table: "workflows", New: json.RawMessage(`{"id":"w1"}`)})
		synctest.Wait()

		gotJobs := jobs.all()
		require.Len(t, gotJobs, 1)
		assert.Equal(t, domain.OpInsert, gotJobs[0].Op)
		assert.JSONEq(t, `{"id":"j1"}`, string(gotJobs[0].New))
		gotResults := results.all()
		require.Len(t, gotResults, 1)
		assert.Equal(t, domain.OpDelete, gotResults[0].Op)
	})
}

func TestChannel_DiscardsMalformedMessages(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := setup(t)
		jobs := &collector{}
		_, err := f.ch.Subscribe("jobs", jobs.handle)
		require.NoError(t, err)
		require.NoError(t, f.ch.Connect(context.Background(), testURL))
		defer func() { _ = f.ch.Disconnect() }()
		conn := f.dialer.conn(t, 0)

		conn.push(t, []byte("not json"))
		conn.push(t, map[string]string{"type": "pong"})
		conn.push(t, map[string]string{"op": "INSERT"})
		conn.push(t, domain.ChangeNotification{Op: domain.OpUpdate, Table: "jobs", New: json.RawMessage(`{"id":"j1"}`)})
		synctest.Wait()

		assert.Len(t, jobs.all(), 1)
		assert.Equal(t, ports.StateConnected, f.ch.State())
	})
}

func TestChannel_HandlerFailuresAreIsolated(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := setup(t)
		var (
			mu     sync.Mutex
			logged []error
		)
		f.logger.EXPECT().Error(gomock.Any()).Do(func(err error) {
			mu.Lock()
			defer mu.Unlock()
			logged = append(logged, err)
		}).Times(4)

		delivered := &collector{}
		_, err := f.ch.Subscribe("jobs", func(domain.ChangeNotification) error { panic("handler bug") })
		require.NoError(t, err)
		_, err = f.ch.Subscribe("jobs", func(domain.ChangeNotification) error { return errors.New("rejected") })
		require.NoError(t, err)
		_, err = f.ch.Subscribe("jobs", delivered.handle)
		require.NoError(t, err)

		require.NoError(t, f.ch.Connect(context.Background(), testURL))
		defer func() { _ = f.ch.Disconnect() }()
		conn := f.dialer.conn(t, 0)

		for range 2 {
			conn.push(t, domain.ChangeNotification{Op: domain.OpInsert, Table: "jobs", New: json.RawMessage(`{"id":"j1"}`)})
		}
		synctest.Wait()

		assert.Len(t, delivered.all(), 2, "siblings keep receiving after a failing handler")
		assert.Equal(t, ports.StateConnected, f.ch.State())
		mu.Lock()
		defer mu.Unlock()
		require.Len(t, logged, 4)
		assert.Contains(t, logged[0].Error(), "realtime handler panicked")
		assert.Contains(t, logged[1].Error(), "rejected")
	})
}

func TestChannel_Heartbeat(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := setup(t, func(o *realtime.Options) { o.HeartbeatInterval = 30 * time.Second })
		require.NoError(t, f.ch.Connect(context.Background(), testURL))
		defer func() { _ = f.ch.Disconnect() }()

		time.Sleep(95 * time.Second)
		synctest.Wait()

		ping := domain.ControlMessage{Type: domain.ControlPing}
		assert.Equal(t, []domain.ControlMessage{ping, ping, ping}, f.dialer.conn(t, 0).messages(true))
	})
}

func TestChannel_LivenessTimeout(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := setup(t, func(o *realtime.Options) { o.LivenessTimeout = time.Minute })
		require.NoError(t, f.ch.Connect(context.Background(), testURL))
		defer func() { _ = f.ch.Disconnect() }()
		conn := f.dialer.conn(t, 0)

		time.Sleep(50 * time.Second)
		conn.push(t, map[string]string{"type": "pong"})
		time.Sleep(50 * time.Second)
		synctest.Wait()
		assert.Equal(t, 1, f.dialer.dialCount(), "inbound traffic extends the deadline")

		time.Sleep(12 * time.Second)
		synctest.Wait()
		assert.True(t, conn.isClosed())
		assert.Equal(t, 2, f.dialer.dialCount(), "a silent connection is replaced")
		assert.Equal(t, ports.StateConnected, f.ch.State())
	})
}

func TestChannel_PongsKeepQuietConnectionAlive(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := setup(t, func(o *realtime.Options) {
			o.HeartbeatInterval = 30 * time.Second
			o.LivenessTimeout = time.Minute
		})
		f.dialer.autoPong = true
		require.NoError(t, f.ch.Connect(context.Background(), testURL))
		defer func() { _ = f.ch.Disconnect() }()
		conn := f.dialer.conn(t, 0)

		time.Sleep(5 * time.Minute)
		synctest.Wait()

		assert.Equal(t, 1, f.dialer.dialCount(), "pongs count as inbound traffic")
		assert.False(t, conn.isClosed())
		assert.GreaterOrEqual(t, conn.pingCount(), 10)
		assert.Equal(t, ports.StateConnected, f.ch.State())
	})
}

func TestChannel_NoLivenessTimeoutWhenDisabled(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := setup(t)
		require.NoError(t, f.ch.Connect(context.Background(), testURL))
		defer func() { _ = f.ch.Disconnect() }()

		time.Sleep(10 * time.Minute)
		synctest.Wait()
		assert.Equal(t, 1, f.dialer.dialCount())
	})
}

func TestChannel_OutboundQueue(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := setup(t, func(o *realtime.Options) { o.QueueSize = 2 })
		_, err := f.ch.Subscribe("jobs", ignore)
		require.NoError(t, err)

		for _, channel := range []string{"a", "b", "c"} {
			require.NoError(t, f.ch.Send(domain.ControlMessage{Type: "custom", Channel: channel}))
		}
		require.NoError(t, f.ch.Connect(context.Background(), testURL))
		defer func() { _ = f.ch.Disconnect() }()

		assert.Equal(t, []domain.ControlMessage{
			subscribe("jobs"),
			{Type: "custom", Channel: "b"},
			{Type: "custom", Channel: "c"},
		}, f.dialer.conn(t, 0).messages(false), "oldest message dropped, queue flushed after resubscribe")

		require.NoError(t, f.ch.Send(domain.ControlMessage{Type: "custom", Channel: "d"}))
		assert.Len(t, f.dialer.conn(t, 0).messages(false), 4, "sent immediately while connected")
	})
}

func TestChannel_DisconnectClearsQueue(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := setup(t)
		require.NoError(t, f.ch.Send(domain.ControlMessage{Type: "custom", Channel: "a"}))
		require.NoError(t, f.ch.Disconnect())

		require.NoError(t, f.ch.Connect(context.Background(), testURL))
		defer func() { _ = f.ch.Disconnect() }()
		assert.Empty(t, f.dialer.conn(t, 0).messages(false))
	})
}

func TestChannel_ControlMessageEncoding(t *testing.T) {
	f := setup(t, func(o *realtime.Options) { o.HeartbeatInterval = 0 })
	require.NoError(t, f.ch.Connect(context.Background(), testURL))
	defer func() { _ = f.ch.Disconnect() }()

	id, err := f.ch.Subscribe("jobs", ignore)
	require.NoError(t, err)
	require.NoError(t, f.ch.Unsubscribe("jobs", id))
	require.NoError(t, f.ch.Send(domain.ControlMessage{Type: domain.ControlPing}))

	raw := f.dialer.conn(t, 0).raw()
	require.Len(t, raw, 3)

	g := goldie.New(t)
	g.Assert(t, "control_subscribe", raw[0])
	g.Assert(t, "control_unsubscribe", raw[1])
	g.Assert(t, "control_ping", raw[2])
}
