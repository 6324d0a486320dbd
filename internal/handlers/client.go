// internal/handlers/client.go
package handlers

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/mildmongrel/thicket/internal/protocol"
	"github.com/mildmongrel/thicket/internal/room"
	"github.com/sirupsen/logrus"
)

// Client is one websocket connection to the draft server.
type Client struct {
	ID      uuid.UUID
	OutChan chan protocol.Message
	cancel  context.CancelFunc
	logger  *logrus.Entry

	mu   sync.Mutex
	name string
	room *room.Room
}

func newClient(cancel context.CancelFunc, logger *logrus.Entry) *Client {
	id := uuid.New()
	return &Client{
		ID:      id,
		OutChan: make(chan protocol.Message, 64),
		cancel:  cancel,
		logger:  logger.WithField("client", id),
	}
}

// Send queues msg non-blockingly. Messages are dropped while the channel is
// full.
func (c *Client) Send(msg protocol.Message) {
	select {
	case c.OutChan <- msg:
	default:
		c.logger.Warnf("OutChan full, dropped message type '%s'", msg.Type)
	}
}

func (c *Client) sendError(text string) {
	c.Send(protocol.New(protocol.TypeError, protocol.Error{Message: text}))
}

func (c *Client) Name() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.name
}

func (c *Client) setName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.name = name
}

func (c *Client) currentRoom() *room.Room {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room
}

func (c *Client) setRoom(r *room.Room) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.room = r
}

// takeRoom clears and returns the client's room.
func (c *Client) takeRoom() *room.Room {
	c.mu.Lock()
	defer c.mu.Unlock()
	r := c.room
	c.room = nil
	return r
}
