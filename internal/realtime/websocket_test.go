package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/spec-kit/support-console/internal/config"
	"github.com/spec-kit/support-console/internal/domain"
	"github.com/spec-kit/support-console/internal/events"
)

func TestChannel_WebSocketRoundTrip(t *testing.T) {
	received := make(chan string, 1)
	authHeader := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/agent/ws/a1" {
			http.NotFound(w, r)
			return
		}
		authHeader <- r.Header.Get("X-Supabase-Auth")
		ws, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer ws.CloseNow()

		ctx := r.Context()
		if err := ws.Write(ctx, websocket.MessageText, []byte(`{"type":"ticket_assigned","data":{"ticket_id":"T9"}}`)); err != nil {
			return
		}
		_, data, err := ws.Read(ctx)
		if err != nil {
			return
		}
		received <- string(data)
		_, _, _ = ws.Read(ctx)
	}))
	defer srv.Close()

	assigned := make(chan string, 1)
	dispatcher := events.NewInMemoryDispatcher()
	dispatcher.Subscribe(events.EventTicketAssigned, func(_ context.Context, ev events.Event) error {
		var p events.TicketAssignedPayload
		if err := ev.Decode(&p); err != nil {
			return err
		}
		assigned <- p.TicketID
		return nil
	})

	ch := NewChannel(srv.URL, config.RealtimeConfig{ReconnectDelay: time.Hour}, ChannelDependencies{
		Dispatcher: dispatcher,
		Logger:     zap.NewNop(),
		Headers: func(context.Context) http.Header {
			return http.Header{"X-Supabase-Auth": []string{"tok"}}
		},
	})
	defer ch.Close()

	if err := ch.Open(context.Background(), "a1"); err != nil {
		t.Fatalf("open: %v", err)
	}
	if ch.State() != domain.StateOpen {
		t.Fatalf("Expected OPEN, got %s", ch.State())
	}
	if got := <-authHeader; got != "tok" {
		t.Errorf("Expected auth header tok, got %q", got)
	}

	select {
	case id := <-assigned:
		if id != "T9" {
			t.Errorf("Expected T9, got %s", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ticket_assigned was not dispatched")
	}

	if !ch.Send(context.Background(), events.AgentMessage("c1", "on it")) {
		t.Fatal("Expected send to succeed")
	}
	select {
	case frame := <-received:
		if frame != `{"type":"agent_message","conversation_id":"c1","message":"on it"}` {
			t.Errorf("Unexpected frame %s", frame)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not receive frame")
	}
}
