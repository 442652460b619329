package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/spec-kit/support-console/internal/config"
	"github.com/spec-kit/support-console/internal/domain"
	"github.com/spec-kit/support-console/internal/events"
)

type consoleFixture struct {
	console    *AgentConsole
	dispatcher events.Dispatcher
	sink       *recordingSink
	queue      *QueueBoard
	roster     *AgentRoster
	sender     *recordingSender
}

func newConsoleFixture(t *testing.T) consoleFixture {
	t.Helper()
	sink := &recordingSink{}
	sender := &recordingSender{state: domain.StateOpen}
	center := NewNotificationCenter(config.NotificationConfig{Display: 5 * time.Second, ExitGrace: 300 * time.Millisecond}, NotificationDependencies{
		Sink:     sink,
		Schedule: (&manualScheduler{}).schedule,
	})
	queue := NewQueueBoard(QueueBoardDependencies{Assigner: &fakeAssigner{}, AgentID: fixedIdentity("a1")})
	roster := NewAgentRoster(nil)
	console := NewAgentConsole(AgentConsoleDependencies{
		Channel:       sender,
		Notifications: center,
		Queue:         queue,
		Roster:        roster,
		Identity:      fixedIdentity("a1"),
		NewTransport:  func() Transport { return AgentRealtimeTransport{Channel: sender} },
	})
	dispatcher := events.NewInMemoryDispatcher()
	console.RegisterHandlers(dispatcher)
	return consoleFixture{console: console, dispatcher: dispatcher, sink: sink, queue: queue, roster: roster, sender: sender}
}

func (f consoleFixture) publish(t *testing.T, raw string) {
	t.Helper()
	ev, err := events.ParseFrame([]byte(raw), time.Now())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := f.dispatcher.Publish(context.Background(), ev); err != nil {
		t.Fatalf("publish: %v", err)
	}
}

func TestAgentConsole_NewTicket(t *testing.T) {
	f := newConsoleFixture(t)
	f.publish(t, `{"type":"new_ticket","data":{"id":"T-9","subject":"Printer","priority":"high"}}`)

	if len(f.sink.shown) != 1 {
		t.Fatalf("Expected one notification, got %d", len(f.sink.shown))
	}
	n := f.sink.shown[0]
	if n.Title != "New Ticket Available" || n.Body != "Printer (Priority: high)" || n.Link != "/agent/queue" {
		t.Errorf("Unexpected notification %+v", n)
	}
	views := f.queue.Render()
	if len(views) != 1 || views[0].ID != "T-9" || views[0].Control != ControlReady {
		t.Errorf("Expected ticket queued, got %+v", views)
	}
}

func TestAgentConsole_CustomerMessageInactiveNotifies(t *testing.T) {
	f := newConsoleFixture(t)
	long := strings.Repeat("x", 60)
	f.publish(t, `{"type":"customer_message","data":{"conversation_id":"c7","message":"`+long+`"}}`)

	if len(f.sink.shown) != 1 {
		t.Fatalf("Expected one notification, got %d", len(f.sink.shown))
	}
	n := f.sink.shown[0]
	want := "Customer: " + strings.Repeat("x", 50) + "..."
	if n.Title != "New Message" || n.Body != want || n.Link != "/agent/chat/c7" {
		t.Errorf("Unexpected notification %+v", n)
	}
}

func TestAgentConsole_CustomerMessageActiveAppends(t *testing.T) {
	f := newConsoleFixture(t)
	session, err := f.console.SetActiveConversation("c7")
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	f.publish(t, `{"type":"customer_message","data":{"conversation_id":"c7","message":"hello","customer_name":"Ann"}}`)

	if len(f.sink.shown) != 0 {
		t.Errorf("Expected no notification for active conversation, got %d", len(f.sink.shown))
	}
	msgs := session.Transcript().Messages()
	if len(msgs) != 1 || msgs[0].Sender != domain.SenderCustomer || msgs[0].Text != "hello" {
		t.Errorf("Unexpected transcript %+v", msgs)
	}

	session.SubmitUserMessage(context.Background(), "on it")
	if len(f.sender.sent) != 1 || f.sender.sent[0] != events.AgentMessage("c7", "on it") {
		t.Errorf("Expected agent reply over channel, got %+v", f.sender.sent)
	}
}

func TestAgentConsole_TicketAssigned(t *testing.T) {
	f := newConsoleFixture(t)
	f.publish(t, `{"type":"new_ticket","data":{"ticket_id":"T-2","subject":"VPN","priority":"low"}}`)
	f.publish(t, `{"type":"ticket_assigned","data":{"ticket_id":"T-2","agent_id":"a1"}}`)

	n := f.sink.shown[len(f.sink.shown)-1]
	if n.Title != "Ticket Assigned" || n.Body != "Ticket #T-2 assigned to you" || n.Link != "/agent/ticket/T-2" {
		t.Errorf("Unexpected notification %+v", n)
	}
	if views := f.queue.Render(); views[0].Control != ControlAssigned {
		t.Errorf("Expected assigned control, got %+v", views[0])
	}
}

func TestAgentConsole_TicketAssignedToAnotherAgent(t *testing.T) {
	f := newConsoleFixture(t)
	f.publish(t, `{"type":"new_ticket","data":{"ticket_id":"T-3","subject":"Mail","priority":"low"}}`)
	f.publish(t, `{"type":"ticket_assigned","data":{"ticket_id":"T-3","agent_id":"a2"}}`)

	n := f.sink.shown[len(f.sink.shown)-1]
	if n.Body != "Ticket #T-3 assigned to a2" {
		t.Errorf("Expected body naming a2, got %q", n.Body)
	}

	f.publish(t, `{"type":"ticket_assigned","data":{"ticket_id":"T-4"}}`)
	n = f.sink.shown[len(f.sink.shown)-1]
	if n.Body != "Ticket #T-4 assigned to you" {
		t.Errorf("Expected blank assignee to mean self, got %q", n.Body)
	}
}

func TestAgentConsole_StatusUpdates(t *testing.T) {
	f := newConsoleFixture(t)
	f.publish(t, `{"type":"status_update","agent_id":"a2","status":"busy"}`)
	f.publish(t, `{"type":"status_update","agent_id":"a3","status":"sleeping"}`)

	if status, ok := f.roster.Status("a2"); !ok || status != domain.AgentBusy {
		t.Errorf("Expected a2 busy, got %s %v", status, ok)
	}
	if _, ok := f.roster.Status("a3"); ok {
		t.Error("Expected invalid status ignored")
	}

	res := f.console.UpdateStatus(context.Background(), domain.AgentAway)
	if !res.OK || !res.Value {
		t.Errorf("Expected transmitted status, got %+v", res)
	}
	if len(f.sender.sent) != 1 || f.sender.sent[0] != events.StatusUpdate(domain.AgentAway) {
		t.Errorf("Unexpected frames %+v", f.sender.sent)
	}
	if res := f.console.UpdateStatus(context.Background(), "sleeping"); res.OK {
		t.Error("Expected invalid status rejected")
	}
}

func TestAgentRoster_List(t *testing.T) {
	roster := NewAgentRoster(func() time.Time { return time.Unix(0, 0) })
	roster.Update("b", domain.AgentBusy)
	roster.Update("a", domain.AgentAvailable)
	roster.Update("", domain.AgentAway)

	list := roster.List()
	if len(list) != 2 || list[0].AgentID != "a" || list[1].AgentID != "b" {
		t.Errorf("Unexpected roster %+v", list)
	}
}
