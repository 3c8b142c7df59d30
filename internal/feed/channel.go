package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"lv-tradecore/internal/metrics"
	"lv-tradecore/internal/types"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var ErrNotConnected = errors.New("feed channel not connected")

type ChannelState string

const (
	StateIdle         ChannelState = "idle"
	StateConnecting   ChannelState = "connecting"
	StateConnected    ChannelState = "connected"
	StateReconnecting ChannelState = "reconnecting"
	StateStopped      ChannelState = "stopped"
)

type ChannelConfig struct {
	Business            types.Business
	URL                 string
	Codes               []string
	ReconnectDelay      time.Duration
	HeartbeatInterval   time.Duration
	DepthSubscribeDelay time.Duration
}

type ChannelStatus struct {
	Business      types.Business `json:"business"`
	State         ChannelState   `json:"state"`
	Codes         int            `json:"codes"`
	LastMessageAt *time.Time     `json:"last_message_at,omitempty"`
}

// Channel keeps one streaming connection to the venue alive. Each session
// subscribes from scratch; on any transport error the channel waits
// ReconnectDelay and dials again.
type Channel struct {
	cfg     ChannelConfig
	writer  *QuoteWriter
	log     *zap.Logger
	metrics *metrics.Metrics
	dialer  websocket.Dialer

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	state   ChannelState
	lastMsg time.Time

	writeMu sync.Mutex
}

func NewChannel(cfg ChannelConfig, writer *QuoteWriter, logger *zap.Logger, m *metrics.Metrics) *Channel {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 5 * time.Second
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = 30 * time.Second
	}
	if cfg.DepthSubscribeDelay < 0 {
		cfg.DepthSubscribeDelay = 0
	}
	return &Channel{
		cfg:     cfg,
		writer:  writer,
		log:     logger.Named("feed").With(zap.String("business", string(cfg.Business))),
		metrics: m,
		dialer:  websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		state:   StateIdle,
	}
}

// StreamURL builds the venue streaming endpoint for one business line.
func StreamURL(base string, business types.Business, apiKey string) string {
	q := url.Values{}
	q.Set("business", string(business))
	q.Set("apikey", apiKey)
	return base + "?" + q.Encode()
}

// Start connects in the background. Calling it on a running channel is a
// no-op.
func (c *Channel) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}
	if len(c.cfg.Codes) == 0 {
		c.log.Warn("no instruments assigned, channel not started")
		return
	}
	ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})
	c.running = true
	go c.run(ctx, c.done)
}

// Stop tears the connection down and waits for the loop to exit.
func (c *Channel) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	cancel, done := c.cancel, c.done
	c.mu.Unlock()
	cancel()
	<-done
}

func (c *Channel) Status() ChannelStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := ChannelStatus{Business: c.cfg.Business, State: c.state, Codes: len(c.cfg.Codes)}
	if !c.lastMsg.IsZero() {
		t := c.lastMsg
		st.LastMessageAt = &t
	}
	return st
}

func (c *Channel) setState(s ChannelState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Channel) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	label := string(c.cfg.Business)
	for {
		c.setState(StateConnecting)
		err := c.session(ctx)
		if ctx.Err() != nil {
			c.setState(StateStopped)
			c.log.Info("feed channel stopped")
			return
		}
		c.setState(StateReconnecting)
		c.metrics.FeedReconnects.WithLabelValues(label).Inc()
		c.log.Warn("feed channel disconnected", zap.Error(err), zap.Duration("retry_in", c.cfg.ReconnectDelay))
		select {
		case <-ctx.Done():
			c.setState(StateStopped)
			return
		case <-time.After(c.cfg.ReconnectDelay):
		}
	}
}

func (c *Channel) session(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	sessCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-sessCtx.Done()
		conn.Close()
	}()

	trade, err := subscribeMessage(CodeSubscribeTrade, c.cfg.Codes)
	if err != nil {
		return err
	}
	if err := c.write(conn, trade); err != nil {
		return fmt.Errorf("subscribe trade: %w", err)
	}
	c.setState(StateConnected)
	c.log.Info("feed channel connected", zap.Int("codes", len(c.cfg.Codes)))

	go c.keepalive(sessCtx, conn)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		c.handle(data)
	}
}

// keepalive sends the depth subscription after a short delay, then the
// heartbeat on a fixed interval, until the session ends.
func (c *Channel) keepalive(ctx context.Context, conn *websocket.Conn) {
	depth := time.NewTimer(c.cfg.DepthSubscribeDelay)
	defer depth.Stop()
	heartbeat := time.NewTicker(c.cfg.HeartbeatInterval)
	defer heartbeat.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-depth.C:
			msg, err := subscribeMessage(CodeSubscribeDepth, c.cfg.Codes)
			if err == nil {
				err = c.write(conn, msg)
			}
			if err != nil {
				c.log.Warn("depth subscribe failed", zap.Error(err))
				conn.Close()
				return
			}
		case <-heartbeat.C:
			msg, _ := heartbeatMessage()
			if err := c.write(conn, msg); err != nil {
				c.log.Warn("heartbeat failed", zap.Error(err))
				conn.Close()
				return
			}
		}
	}
}

func (c *Channel) write(conn *websocket.Conn, msg []byte) error {
	if conn == nil {
		return ErrNotConnected
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, msg)
}

func (c *Channel) handle(data []byte) {
	label := string(c.cfg.Business)
	c.mu.Lock()
	c.lastMsg = time.Now()
	c.mu.Unlock()

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.metrics.FeedParseErrors.WithLabelValues(label).Inc()
		c.log.Debug("unparseable message", zap.Error(err))
		return
	}
	switch env.Code {
	case CodeTradePush:
		var d tradeData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			c.metrics.FeedParseErrors.WithLabelValues(label).Inc()
			c.log.Debug("bad trade payload", zap.Error(err))
			return
		}
		c.metrics.FeedMessages.WithLabelValues(label, "trade").Inc()
		c.writer.Trade(d)
	case CodeDepthPush:
		var d depthData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			c.metrics.FeedParseErrors.WithLabelValues(label).Inc()
			c.log.Debug("bad depth payload", zap.Error(err))
			return
		}
		c.metrics.FeedMessages.WithLabelValues(label, "depth").Inc()
		c.writer.Depth(d)
	case CodeSubscribeAck:
		c.metrics.FeedMessages.WithLabelValues(label, "ack").Inc()
		if env.Msg == "ok" {
			c.log.Info("subscription acknowledged", zap.String("trace", env.Trace))
		} else {
			c.log.Warn("subscription rejected", zap.String("trace", env.Trace), zap.String("msg", env.Msg))
		}
	default:
		c.metrics.FeedMessages.WithLabelValues(label, "other").Inc()
	}
}
