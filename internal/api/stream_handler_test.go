package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fluentwork/coach/internal/api/shared"
	"github.com/fluentwork/coach/internal/platform/localstore"
	"github.com/fluentwork/coach/internal/reconcile"
	"github.com/fluentwork/coach/internal/store"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialStream(t *testing.T, baseURL, token string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(baseURL, "http") + "/api/progress/stream?access_token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readStreamMessage(t *testing.T, conn *websocket.Conn) StreamMessage {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg StreamMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestProgressStream(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	srv.onboard(t, testToken)
	require.Equal(t, http.StatusOK,
		srv.do(t, http.MethodPost, "/api/vocabulary/v1/review", testToken, ReviewRequest{Input: "deadline"}, nil))

	conn := dialStream(t, srv.URL, testToken)

	seeded := readStreamMessage(t, conn)
	assert.Equal(t, "seeded", seeded.Type)
	require.Len(t, seeded.Views, 1)
	assert.Equal(t, "v1", seeded.Views[0].VocabularyItemID)
	require.NotNil(t, seeded.Views[0].Item)
	assert.Equal(t, "deadline", seeded.Views[0].Item.Word)

	require.Equal(t, http.StatusOK,
		srv.do(t, http.MethodPost, "/api/vocabulary/v2/review", testToken, ReviewRequest{Input: "feedback"}, nil))

	inserted := readStreamMessage(t, conn)
	assert.Equal(t, "insert", inserted.Type)
	assert.Equal(t, "v2", inserted.VocabularyItemID)
	require.NotNil(t, inserted.View)
	assert.Equal(t, 1, inserted.View.MasteryLevel)

	require.Equal(t, http.StatusOK,
		srv.do(t, http.MethodPost, "/api/vocabulary/v2/learned", testToken, nil, nil))

	updated := readStreamMessage(t, conn)
	assert.Equal(t, "update", updated.Type)
	assert.Equal(t, "v2", updated.VocabularyItemID)
	require.NotNil(t, updated.View)
	assert.True(t, updated.View.Learned)
}

func TestProgressStreamIgnoresOtherUsers(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	srv.onboard(t, testToken)
	srv.onboard(t, "user-2")

	conn := dialStream(t, srv.URL, testToken)
	assert.Equal(t, "seeded", readStreamMessage(t, conn).Type)

	require.Equal(t, http.StatusOK,
		srv.do(t, http.MethodPost, "/api/vocabulary/v3/review", "user-2", ReviewRequest{Input: "stakeholder"}, nil))
	require.Equal(t, http.StatusOK,
		srv.do(t, http.MethodPost, "/api/vocabulary/v4/review", testToken, ReviewRequest{Input: "milestone"}, nil))

	msg := readStreamMessage(t, conn)
	assert.Equal(t, "v4", msg.VocabularyItemID)
}

func TestProgressStreamRequiresToken(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/progress/stream"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func withUser(userID string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(shared.WithUserID(r.Context(), userID)))
	})
}

type failingStreamer struct{}

func (failingStreamer) Start(context.Context, string, reconcile.Listener) (*reconcile.Session, error) {
	return nil, errors.New("feed offline")
}

func TestProgressStreamStartFailure(t *testing.T) {
	t.Parallel()

	h := NewStreamHandler(failingStreamer{}, nil)
	srv := httptest.NewServer(withUser(testToken, http.HandlerFunc(h.Stream)))
	t.Cleanup(srv.Close)

	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	defer func() { _ = conn.Close() }()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseInternalServerErr), "got %v", err)
}

func TestStreamClientDisconnectsSlowReader(t *testing.T) {
	t.Parallel()

	c := &streamClient{
		send:   make(chan StreamMessage, 1),
		done:   make(chan struct{}),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	c.enqueue(StreamMessage{Type: string(store.ChangeInsert)})
	c.enqueue(StreamMessage{Type: string(store.ChangeUpdate)})

	select {
	case <-c.done:
	default:
		t.Fatal("slow client was not closed")
	}
	assert.Equal(t, websocket.ClosePolicyViolation, c.closeCode)

	// Further messages are dropped once closed.
	c.enqueue(StreamMessage{Type: "late"})
	assert.Len(t, c.send, 1)
}

// droppingFeed hands out subscriptions the test can fail.
type droppingFeed struct {
	subs chan *droppingSub
}

func (f *droppingFeed) Subscribe(context.Context, string, func(store.ProgressChange)) (store.Subscription, error) {
	sub := &droppingSub{done: make(chan struct{})}
	f.subs <- sub
	return sub, nil
}

type droppingSub struct {
	once sync.Once
	done chan struct{}
	mu   sync.Mutex
	err  error
}

func (s *droppingSub) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}

func (s *droppingSub) Done() <-chan struct{} { return s.done }

func (s *droppingSub) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *droppingSub) drop(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	s.once.Do(func() { close(s.done) })
}

func TestProgressStreamClosesWhenFeedFails(t *testing.T) {
	t.Parallel()

	backend := localstore.New(localstore.NewMemoryMedium(), nil)
	feed := &droppingFeed{subs: make(chan *droppingSub, 1)}
	h := NewStreamHandler(reconcile.NewReconciler(feed, backend, backend, nil), nil)
	srv := httptest.NewServer(withUser(testToken, http.HandlerFunc(h.Stream)))
	t.Cleanup(srv.Close)

	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	defer func() { _ = conn.Close() }()

	seeded := readStreamMessage(t, conn)
	assert.Equal(t, "seeded", seeded.Type)
	assert.Empty(t, seeded.Views)

	sub := <-feed.subs
	sub.drop(store.Unavailable("progress_feed", "listen", errors.New("conn closed")))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseInternalServerErr), "got %v", err)
}
