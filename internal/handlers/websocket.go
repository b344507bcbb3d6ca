package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mossy-p/callrelay/config"
	"github.com/mossy-p/callrelay/internal/auth"
	"github.com/mossy-p/callrelay/internal/metrics"
	"github.com/mossy-p/callrelay/internal/models"
	"github.com/mossy-p/callrelay/internal/signaling"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

var (
	ErrBackpressure     = errors.New("send buffer full")
	ErrConnectionClosed = errors.New("connection closed")
)

// Client is one authenticated WebSocket connection. It implements
// models.Endpoint.
type Client struct {
	id        string
	principal models.Principal
	conn      *websocket.Conn
	send      chan []byte
	limiter   *rate.Limiter

	mu     sync.RWMutex
	closed bool
}

func (c *Client) ID() string                  { return c.id }
func (c *Client) Principal() models.Principal { return c.principal }

// Send queues msg for the write pump. It never blocks: a full buffer or a
// closed connection drops the message.
func (c *Client) Send(msg models.OutboundMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnectionClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrBackpressure
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// SignalingHandler upgrades authenticated requests to signaling connections.
type SignalingHandler struct {
	hub      *signaling.Hub
	auth     *auth.Authenticator
	cfg      config.WSConfig
	metrics  *metrics.Metrics
	upgrader websocket.Upgrader
}

func NewSignalingHandler(hub *signaling.Hub, a *auth.Authenticator, cfg config.WSConfig, m *metrics.Metrics) *SignalingHandler {
	return &SignalingHandler{
		hub:     hub,
		auth:    a,
		cfg:     cfg,
		metrics: m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Origin checking is handled by middleware
				return true
			},
		},
	}
}

// credential reads the token from ?token= or the Authorization header.
func credential(c *gin.Context) string {
	if tok := c.Query("token"); tok != "" {
		return tok
	}
	if tok, ok := auth.BearerToken(c.GetHeader("Authorization")); ok {
		return tok
	}
	return ""
}

// Handle authenticates before upgrading, so a rejected client never reaches
// the hub.
func (h *SignalingHandler) Handle(c *gin.Context) {
	principal, err := h.auth.Authenticate(credential(c))
	if err != nil {
		reason, label := auth.ErrInvalidToken, "invalid"
		if errors.Is(err, auth.ErrTokenRequired) {
			reason, label = auth.ErrTokenRequired, "required"
		}
		h.metrics.AuthFailure(label)
		log.Warn().Err(err).Str("module", "handlers").Str("client_ip", c.ClientIP()).Msg("connection refused")
		c.JSON(http.StatusUnauthorized, gin.H{"error": reason.Error()})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "handlers").Msg("failed to upgrade connection")
		return
	}

	client := &Client{
		id:        uuid.New().String(),
		principal: principal,
		conn:      conn,
		send:      make(chan []byte, h.cfg.SendBuffer),
	}
	if h.cfg.RateLimit > 0 {
		client.limiter = rate.NewLimiter(rate.Limit(h.cfg.RateLimit), max(h.cfg.RateBurst, 1))
	}

	h.hub.Connect(client)

	go h.writePump(client)
	go h.readPump(client)
}

func (h *SignalingHandler) readPump(c *Client) {
	defer func() {
		h.hub.Disconnect(c)
		c.closeSend()
		c.conn.Close()
	}()

	if h.cfg.ReadLimit > 0 {
		c.conn.SetReadLimit(h.cfg.ReadLimit)
	}
	c.conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
		return nil
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("module", "handlers").Str("conn_id", c.id).Msg("websocket closed unexpectedly")
			}
			return
		}

		if c.limiter != nil && !c.limiter.Allow() {
			h.metrics.Event("rate_limit", metrics.Dropped)
			log.Warn().Str("module", "handlers").Str("conn_id", c.id).
				Str("identity", c.principal.ID.String()).Msg("event rate exceeded, frame dropped")
			continue
		}

		ev, err := models.DecodeInbound(frame)
		if err != nil {
			log.Warn().Err(err).Str("module", "handlers").Str("conn_id", c.id).Msg("failed to parse message")
			continue
		}
		h.hub.Dispatch(c, ev)
	}
}

func (h *SignalingHandler) writePump(c *Client) {
	ticker := time.NewTicker(h.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Warn().Err(err).Str("module", "handlers").Str("conn_id", c.id).Msg("failed to write message")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
