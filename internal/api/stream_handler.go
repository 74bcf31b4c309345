package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fluentwork/coach/internal/domain"
	"github.com/fluentwork/coach/internal/platform/logger"
	"github.com/fluentwork/coach/internal/reconcile"
	"github.com/gorilla/websocket"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = 30 * time.Second
	streamReadLimit  = 512
	streamSendBuffer = 64
	streamTypeSeeded = "seeded"
)

// Streamer starts reconciled progress sessions.
type Streamer interface {
	Start(ctx context.Context, userID string, listener reconcile.Listener) (*reconcile.Session, error)
}

var _ Streamer = (*reconcile.Reconciler)(nil)

// StreamMessage is one frame on the progress stream. The first frame is
// always "seeded" with the full view; later frames carry one change.
type StreamMessage struct {
	Type             string                `json:"type"`
	Views            []domain.ProgressView `json:"views,omitempty"`
	VocabularyItemID string                `json:"vocabularyItemId,omitempty"`
	View             *domain.ProgressView  `json:"view,omitempty"`
}

// StreamHandler serves the live progress view over a websocket.
type StreamHandler struct {
	streamer Streamer
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewStreamHandler creates a new StreamHandler with the given dependencies.
func NewStreamHandler(streamer Streamer, log *slog.Logger) *StreamHandler {
	if streamer == nil {
		panic("streamer cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &StreamHandler{
		streamer: streamer,
		upgrader: websocket.Upgrader{
			// Access is gated by the bearer token, not the origin.
			CheckOrigin:     func(*http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: log.With(slog.String("component", "stream_handler")),
	}
}

// Stream handles GET /api/progress/stream.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	log := logger.FromContextOrDefault(r.Context(), h.logger).With(slog.String("user_id", userID))

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		log.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	client := newStreamClient(conn, log)
	go client.writePump()
	defer client.close()

	session, err := h.streamer.Start(ctx, userID, reconcile.ListenerFuncs{
		OnSeeded: func(views []domain.ProgressView) {
			client.enqueue(StreamMessage{Type: streamTypeSeeded, Views: views})
		},
		OnChanged: func(ev reconcile.Event) {
			client.enqueue(StreamMessage{
				Type:             strings.ToLower(string(ev.Type)),
				VocabularyItemID: ev.Key.VocabularyItemID,
				View:             ev.View,
			})
		},
		OnEnded: func(err error) {
			log.Error("progress stream lost its change feed", slog.String("error", err.Error()))
			client.closeWith(websocket.CloseInternalServerErr, "progress unavailable")
		},
	})
	if err != nil {
		log.Error("failed to start progress stream", slog.String("error", err.Error()))
		client.closeWith(websocket.CloseInternalServerErr, "progress unavailable")
		return
	}
	defer func() { _ = session.Stop() }()

	log.Info("progress stream opened")
	client.readPump()
	log.Info("progress stream closed")
}

// streamClient owns one websocket. Only writePump writes to conn.
type streamClient struct {
	conn   *websocket.Conn
	send   chan StreamMessage
	done   chan struct{}
	logger *slog.Logger

	mu        sync.Mutex
	closeCode int
	closeText string
	closed    bool
}

func newStreamClient(conn *websocket.Conn, log *slog.Logger) *streamClient {
	return &streamClient{
		conn:      conn,
		send:      make(chan StreamMessage, streamSendBuffer),
		done:      make(chan struct{}),
		logger:    log,
		closeCode: websocket.CloseNormalClosure,
	}
}

// enqueue queues msg without blocking. A client that falls a full buffer
// behind is disconnected and must reconnect for a fresh seed.
func (c *streamClient) enqueue(msg StreamMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- msg:
	default:
		c.logger.Warn("progress stream client too slow, disconnecting")
		c.closeLocked(websocket.ClosePolicyViolation, "client too slow")
	}
}

func (c *streamClient) close() {
	c.closeWith(websocket.CloseNormalClosure, "")
}

func (c *streamClient) closeWith(code int, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked(code, text)
}

func (c *streamClient) closeLocked(code int, text string) {
	if c.closed {
		return
	}
	c.closed = true
	c.closeCode = code
	c.closeText = text
	close(c.done)
}

func (c *streamClient) writePump() {
	ticker := time.NewTicker(streamPingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.mu.Lock()
			frame := websocket.FormatCloseMessage(c.closeCode, c.closeText)
			c.mu.Unlock()
			_ = c.conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, frame)
			return

		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Debug("progress stream write failed", slog.String("error", err.Error()))
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards client frames and returns when the connection ends.
func (c *streamClient) readPump() {
	c.conn.SetReadLimit(streamReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(streamPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("progress stream read failed", slog.String("error", err.Error()))
			}
			return
		}
	}
}
