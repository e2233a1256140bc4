package sse

import (
	"testing"

	"github.com/debemdeboas/inkpad/internal/model"
)

func TestBroadcast(t *testing.T) {
	clients := NewSSEClients()
	one := NewClient("1")
	two := NewClient("2")
	all := NewClient("")
	for _, c := range []*Client{one, two, all} {
		clients.Add(c)
	}

	clients.Broadcast("1", EventUpdated)

	select {
	case ev := <-one.Msg:
		if ev != (Event{Name: EventUpdated, PostID: "1"}) {
			t.Errorf("Unexpected event %+v", ev)
		}
	default:
		t.Error("Expected subscriber of post 1 to get the event")
	}

	select {
	case ev := <-all.Msg:
		if ev.PostID != "1" {
			t.Errorf("Unexpected event %+v", ev)
		}
	default:
		t.Error("Expected the all-posts subscriber to get the event")
	}

	select {
	case ev := <-two.Msg:
		t.Errorf("Subscriber of post 2 got %+v", ev)
	default:
	}
}

func TestBroadcastDropsWhenFull(t *testing.T) {
	clients := NewSSEClients()
	c := NewClient("1")
	clients.Add(c)

	for i := 0; i < clientBuffer+3; i++ {
		clients.Broadcast("1", EventUpdated)
	}
	if got := len(c.Msg); got != clientBuffer {
		t.Errorf("Expected %d buffered events, got %d", clientBuffer, got)
	}
}

func TestDelete(t *testing.T) {
	clients := NewSSEClients()
	c := NewClient(model.PostID("1"))
	clients.Add(c)

	clients.Delete(c)
	clients.Delete(c)

	if clients.Len() != 0 {
		t.Errorf("Expected no clients, got %d", clients.Len())
	}
	if _, open := <-c.Msg; open {
		t.Error("Expected the channel to be closed")
	}
	clients.Broadcast("1", EventDeleted)
}
