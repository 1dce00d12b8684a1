package transport

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"chatview/internal/pkg/errs"
)

type chanSink chan []byte

func (s chanSink) Publish(frame []byte) bool {
	s <- frame
	return true
}

// chatServer accepts one connection, hands every frame it reads to received,
// and writes every frame pushed to outgoing.
func chatServer(t *testing.T, received chan<- string, outgoing <-chan string) *httptest.Server {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer ws.Close()

		go func() {
			for frame := range outgoing {
				if err := ws.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
					return
				}
			}
		}()

		for {
			_, frame, err := ws.ReadMessage()
			if err != nil {
				return
			}
			received <- string(frame)
		}
	}))
	t.Cleanup(srv.Close)

	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestConnDeliversFramesInOrder(t *testing.T) {
	received := make(chan string, 4)
	outgoing := make(chan string, 4)
	srv := chatServer(t, received, outgoing)

	sink := make(chanSink, 4)
	c, err := Dial(context.Background(), wsURL(srv), sink, Options{HandshakeTimeout: time.Second})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()

	outgoing <- `{"messageType":"users","dataArray":["alice"]}`
	outgoing <- `{"messageType":"users","dataArray":["bob"]}`

	for _, want := range []string{`["alice"]`, `["bob"]`} {
		select {
		case frame := <-sink:
			if !strings.Contains(string(frame), want) {
				t.Fatalf("frame = %s, want %s", frame, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}

func TestConnTrySendReachesServer(t *testing.T) {
	received := make(chan string, 4)
	srv := chatServer(t, received, make(chan string))

	c, err := Dial(context.Background(), wsURL(srv), make(chanSink, 1), Options{})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()

	frame := `{"messageType":"register","data":"alice"}`
	if err := c.TrySend([]byte(frame)); err != nil {
		t.Fatalf("TrySend: %v", err)
	}

	select {
	case got := <-received:
		if got != frame {
			t.Fatalf("server got %s", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for frame")
	}
}

func TestConnTrySendAfterClose(t *testing.T) {
	srv := chatServer(t, make(chan string, 1), make(chan string))

	c, err := Dial(context.Background(), wsURL(srv), make(chanSink, 1), Options{})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	select {
	case <-c.Done():
	default:
		t.Fatalf("Done must be closed after Close")
	}

	if err := c.TrySend([]byte("x")); !errs.HasCode(err, errs.ErrNotConnected) {
		t.Fatalf("err = %v, want ErrNotConnected", err)
	}

	// A second Close is harmless.
	if err := c.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestConnTrySendQueueFull(t *testing.T) {
	// Pumps are not started so nothing drains the queue.
	c := NewConn(nil, make(chanSink, 1), 1)

	if err := c.TrySend([]byte("a")); err != nil {
		t.Fatalf("first TrySend: %v", err)
	}
	if err := c.TrySend([]byte("b")); !errs.HasCode(err, errs.ErrSendQueueFull) {
		t.Fatalf("err = %v, want ErrSendQueueFull", err)
	}
}

func TestServerCloseEndsConn(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := (&websocket.Upgrader{}).Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_ = ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
		_ = ws.Close()
	}))
	defer srv.Close()

	c, err := Dial(context.Background(), wsURL(srv), make(chanSink, 1), Options{})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("conn did not shut down after server close")
	}
	_ = c.Close()
}

func rosterFrame(members int) string {
	names := make([]string, members)
	for i := range names {
		names[i] = fmt.Sprintf("%q", fmt.Sprintf("member_%06d", i))
	}
	return `{"messageType":"users","dataArray":[` + strings.Join(names, ",") + `]}`
}

func TestConnAcceptsLargeRoster(t *testing.T) {
	outgoing := make(chan string, 1)
	srv := chatServer(t, make(chan string, 1), outgoing)

	sink := make(chanSink, 1)
	c, err := Dial(context.Background(), wsURL(srv), sink, Options{})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()

	// Roughly 100 KiB, well past the old 64 KiB read limit.
	frame := rosterFrame(6000)
	outgoing <- frame

	select {
	case got := <-sink:
		if len(got) != len(frame) {
			t.Fatalf("frame length = %d, want %d", len(got), len(frame))
		}
	case <-c.Done():
		t.Fatalf("connection closed on a %d byte frame", len(frame))
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for roster frame")
	}
}

func TestConnOversizedFrameClosesConnection(t *testing.T) {
	outgoing := make(chan string, 1)
	srv := chatServer(t, make(chan string, 1), outgoing)

	sink := make(chanSink, 1)
	c, err := Dial(context.Background(), wsURL(srv), sink, Options{MaxFrameSize: 1024})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()

	outgoing <- rosterFrame(200)

	select {
	case <-c.Done():
	case got := <-sink:
		t.Fatalf("oversized frame of %d bytes was delivered", len(got))
	case <-time.After(2 * time.Second):
		t.Fatalf("connection stayed open after an oversized frame")
	}
}

func TestDialFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	if _, err := Dial(context.Background(), wsURL(srv), make(chanSink, 1), Options{}); err == nil {
		t.Fatalf("expected handshake error")
	}
}
