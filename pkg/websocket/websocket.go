package websocketPkg

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

// Directive is a server instruction as received by a client. Payload is left
// encoded; callers decode it according to Type.
type Directive struct {
	Type    string              `json:"type"`
	Payload jsoniter.RawMessage `json:"payload,omitempty"`
}

type outgoingEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// IClient is a connection to the assistant WebSocket endpoint.
type IClient interface {
	SendEvent(eventType string, payload interface{}) error
	Directives() <-chan Directive
	Close() error
}

type Config struct {
	URL          string
	Token        string
	PingInterval time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type webSocketClient struct {
	conn         *websocket.Conn
	log          *logrus.Logger
	mu           sync.Mutex
	directives   chan Directive
	done         chan struct{}
	closeOnce    sync.Once
	pingInterval time.Duration
	readTimeout  time.Duration
	writeTimeout time.Duration
}

// Dial connects to cfg.URL, authenticating with the session ticket. The
// returned client's Directives channel is closed when the connection ends.
func Dial(ctx context.Context, cfg Config, log *logrus.Logger) (IClient, error) {
	if cfg.PingInterval == 0 {
		cfg.PingInterval = 30 * time.Second
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 60 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 5 * time.Second
	}

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	header := http.Header{}
	if cfg.Token != "" {
		header.Set("Authorization", "Bearer "+cfg.Token)
	}

	conn, res, err := dialer.DialContext(ctx, cfg.URL, header)
	if err != nil {
		if res != nil {
			return nil, fmt.Errorf("failed to connect to %s: %w (status %d)", cfg.URL, err, res.StatusCode)
		}
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.URL, err)
	}

	c := &webSocketClient{
		conn:         conn,
		log:          log,
		directives:   make(chan Directive, 64),
		done:         make(chan struct{}),
		pingInterval: cfg.PingInterval,
		readTimeout:  cfg.ReadTimeout,
		writeTimeout: cfg.WriteTimeout,
	}

	conn.SetPingHandler(func(appData string) error {
		c.mu.Lock()
		defer c.mu.Unlock()
		if err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(c.writeTimeout)); err != nil {
			c.log.WithField("error", err.Error()).Debug("Error sending pong")
		}
		return conn.SetReadDeadline(time.Now().Add(c.readTimeout))
	})
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.readTimeout))
	})

	go c.readLoop()
	go c.keepAlive()

	return c, nil
}

func (c *webSocketClient) Directives() <-chan Directive {
	return c.directives
}

func (c *webSocketClient) SendEvent(eventType string, payload interface{}) error {
	data, err := jsoniter.Marshal(outgoingEvent{Type: eventType, Payload: payload})
	if err != nil {
		return fmt.Errorf("encode %s event: %w", eventType, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return err
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("send %s event: %w", eventType, err)
	}

	return nil
}

func (c *webSocketClient) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)

		c.mu.Lock()
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.writeTimeout))
		c.mu.Unlock()

		err = c.conn.Close()
	})
	return err
}

func (c *webSocketClient) readLoop() {
	defer close(c.directives)

	for {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
			return
		}

		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.WithField("error", err.Error()).Warn("Assistant connection lost")
			}
			return
		}

		var d Directive
		if err := jsoniter.Unmarshal(message, &d); err != nil {
			c.log.WithField("error", err.Error()).Warn("Ignoring malformed directive")
			continue
		}

		select {
		case c.directives <- d:
		case <-c.done:
			return
		}
	}
}

func (c *webSocketClient) keepAlive() {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			err := c.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(c.writeTimeout))
			c.mu.Unlock()

			if err != nil {
				c.log.WithField("error", err.Error()).Debug("Ping failed, closing connection")
				_ = c.conn.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}
