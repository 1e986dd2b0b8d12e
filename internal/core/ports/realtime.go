package ports

import (
	"context"

	"go.trai.ch/mirror/internal/core/domain"
)

// ChannelState is the connection state of the realtime channel.
type ChannelState uint8

const (
	// StateDisconnected means no connection and no pending reconnection.
	StateDisconnected ChannelState = iota
	// StateConnecting means an explicit Connect is dialing.
	StateConnecting
	// StateConnected means the connection is open.
	StateConnected
	// StateReconnecting means a reconnection attempt is scheduled or dialing.
	StateReconnecting
)

func (s ChannelState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "disconnected"
	}
}

// ChangeHandler consumes change notifications for one channel.
type ChangeHandler func(n domain.ChangeNotification) error

// SubscriptionID identifies one registered handler.
type SubscriptionID string

// RealtimeChannel maintains the push connection and its subscription registry.
//
//go:generate mockgen -source=realtime.go -destination=mocks/mock_realtime.go -package=mocks
type RealtimeChannel interface {
	// Connect dials url and, on success, re-issues every registered subscription.
	Connect(ctx context.Context, url string) error
	// Disconnect closes the connection and cancels pending reconnection.
	Disconnect() error
	// State returns the current connection state.
	State() ChannelState
	// Subscribe registers handler for channel.
	Subscribe(channel string, handler ChangeHandler) (SubscriptionID, error)
	// Unsubscribe removes a handler. Unknown ids are ignored.
	Unsubscribe(channel string, id SubscriptionID) error
	// IsSubscribed reports whether channel has at least one handler.
	IsSubscribed(channel string) bool
}
