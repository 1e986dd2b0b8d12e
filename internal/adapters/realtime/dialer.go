package realtime

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.trai.ch/mirror/internal/core/ports"
)

// Conn is the part of a websocket connection the channel relies on.
// *websocket.Conn satisfies it.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Dialer opens a connection to url.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context, url string) (Conn, error)

// Dial implements Dialer.
func (f DialerFunc) Dial(ctx context.Context, url string) (Conn, error) {
	return f(ctx, url)
}

// WebsocketDialer dials with gorilla/websocket. When Credentials is set the
// current bearer token is sent with every handshake, reconnections included.
type WebsocketDialer struct {
	HandshakeTimeout time.Duration
	Credentials      ports.CredentialResolver
}

// Dial implements Dialer.
func (d WebsocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	header := http.Header{}
	if d.Credentials != nil {
		token, err := d.Credentials.Token(ctx)
		if err != nil {
			return nil, err
		}
		if token != "" {
			header.Set("Authorization", "Bearer "+token)
		}
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: d.HandshakeTimeout,
	}
	conn, _, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
