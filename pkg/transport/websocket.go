// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package transport

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketConnection wraps a WebSocket bridge for byte-level reading.
// By default each message is one line and a message that does not end in a
// newline gets one, so consecutive messages never run together. Bridges that
// forward raw serial chunks need SetStreamFrames so line ends are left to
// the framer.
type WebSocketConnection struct {
	conn        *websocket.Conn
	messageType int
	stream      bool

	buf       []byte
	bufOffset int
	closed    bool // Track if connection has failed/closed

	writeMu sync.Mutex
}

// NewWebSocketConnection wraps an established WebSocket. Outbound commands
// are sent as binary frames when binary is set, text frames otherwise.
func NewWebSocketConnection(conn *websocket.Conn, binary bool) *WebSocketConnection {
	mt := websocket.TextMessage
	if binary {
		mt = websocket.BinaryMessage
	}
	return &WebSocketConnection{conn: conn, messageType: mt}
}

// SetStreamFrames passes messages through unchanged when on. Call it before
// the first Read.
func (w *WebSocketConnection) SetStreamFrames(on bool) {
	w.stream = on
}

func (w *WebSocketConnection) Read(p []byte) (int, error) {
	if w.closed {
		return 0, ErrConnectionClosed
	}

	if w.bufOffset < len(w.buf) {
		n := copy(p, w.buf[w.bufOffset:])
		w.bufOffset += n
		return n, nil
	}

	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			w.closed = true
			return 0, err
		}

		if messageType != websocket.TextMessage && messageType != websocket.BinaryMessage {
			continue
		}
		if len(data) == 0 {
			continue
		}
		if !w.stream && data[len(data)-1] != '\n' {
			data = append(data, '\n')
		}

		w.buf = data
		n := copy(p, w.buf)
		w.bufOffset = n
		return n, nil
	}
}

func (w *WebSocketConnection) Write(p []byte) (int, error) {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	if err := w.conn.WriteMessage(w.messageType, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Ping sends a ping control frame.
func (w *WebSocketConnection) Ping(timeout time.Duration) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	return w.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(timeout))
}

// SetPongHandler forwards to the underlying connection.
func (w *WebSocketConnection) SetPongHandler(h func(string) error) {
	w.conn.SetPongHandler(h)
}

// Close sends a close frame and closes the socket
func (w *WebSocketConnection) Close() error {
	w.writeMu.Lock()
	_ = w.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	w.writeMu.Unlock()
	return w.conn.Close()
}

// OpenWebSocket opens a WebSocket connection with optional HTTP Basic auth
func OpenWebSocket(wsURL, username, password string, skipSSLVerify, binary bool) (*WebSocketConnection, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: skipSSLVerify,
		}
	}

	headers := http.Header{}
	if username != "" && password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	logger := transportLogger("websocket")
	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		logger.Warn().Err(err).Str("url", wsURL).Msg("dial failed")
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %w", err)
	}
	logger.Info().Str("url", wsURL).Bool("binary", binary).Msg("connected")

	return NewWebSocketConnection(conn, binary), nil
}
