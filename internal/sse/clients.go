// Package sse fans post change notifications out to Server-Sent Events subscribers.
package sse

import (
	"sync"

	"github.com/debemdeboas/inkpad/internal/model"
)

const clientBuffer = 8

// Client is one open event stream. An empty PostID receives events for every post.
type Client struct {
	Msg    chan Event
	PostID model.PostID
}

type Event struct {
	Name   string
	PostID model.PostID
}

const (
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

func NewClient(postID model.PostID) *Client {
	return &Client{
		Msg:    make(chan Event, clientBuffer),
		PostID: postID,
	}
}

type SSEClients struct {
	clients map[*Client]bool
	mu      sync.RWMutex
}

func NewSSEClients() *SSEClients {
	return &SSEClients{
		clients: make(map[*Client]bool),
	}
}

func (s *SSEClients) Add(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[client] = true
}

func (s *SSEClients) Delete(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clients[client] {
		delete(s.clients, client)
		close(client.Msg)
	}
}

func (s *SSEClients) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Broadcast delivers an event to the subscribers of postID and to those following all posts.
// Slow clients whose buffer is full miss the event.
func (s *SSEClients) Broadcast(postID model.PostID, name string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ev := Event{Name: name, PostID: postID}
	for client := range s.clients {
		if client.PostID == postID || client.PostID == "" {
			select {
			case client.Msg <- ev:
			default:
			}
		}
	}
}
