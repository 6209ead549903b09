// Package stream pushes issue lifecycle events to websocket subscribers.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/iliyamo/civic-issue-reporter/internal/model"
	"github.com/iliyamo/civic-issue-reporter/internal/queue"
)

// ErrClosed is returned once the hub has stopped running.
var ErrClosed = errors.New("stream hub closed")

// Message is the frame written to subscribers.
type Message struct {
	Type    string       `json:"type"`
	IssueID string       `json:"issue_id"`
	Issue   *model.Issue `json:"issue,omitempty"`
}

type envelope struct {
	ownerID string
	payload []byte
}

// Hub maintains the set of active clients and broadcasts events to the
// ones whose list scope covers the issue owner.
type Hub struct {
	// Registered clients.  Owned by Run.
	clients map[*Client]struct{}

	broadcast  chan envelope
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	active atomic.Int64
}

// NewHub creates a Hub; Run must be started before clients connect.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan envelope, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until ctx is done, then
// closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.active.Store(int64(len(h.clients)))
			log.Debug().Str("caller_id", c.callerID).Int("total_clients", len(h.clients)).Msg("stream client connected")
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
				log.Debug().Str("caller_id", c.callerID).Int("total_clients", len(h.clients)).Msg("stream client disconnected")
			}
		case env := <-h.broadcast:
			for c := range h.clients {
				if !c.scope.Visible(env.ownerID) {
					continue
				}
				select {
				case c.send <- env.payload:
				default:
					// slow consumer
					h.drop(c)
				}
			}
		}
	}
}

func (h *Hub) drop(c *Client) {
	delete(h.clients, c)
	close(c.send)
	h.active.Store(int64(len(h.clients)))
}

// Clients reports the number of registered clients.
func (h *Hub) Clients() int { return int(h.active.Load()) }

// Publish queues ev for delivery.  It satisfies queue.Publisher and blocks
// only while the broadcast buffer is full.
func (h *Hub) Publish(ctx context.Context, ev queue.IssueEvent) error {
	payload, err := json.Marshal(Message{Type: ev.Type, IssueID: ev.IssueID, Issue: ev.Issue})
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- envelope{ownerID: ev.OwnerID, payload: payload}:
		return nil
	case <-h.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ queue.Publisher = (*Hub)(nil)

func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
