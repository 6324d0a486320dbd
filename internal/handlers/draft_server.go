// internal/handlers/draft_server.go
package handlers

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/mildmongrel/thicket/internal/auth"
	"github.com/mildmongrel/thicket/internal/catalog"
	"github.com/mildmongrel/thicket/internal/protocol"
	"github.com/mildmongrel/thicket/internal/room"
	"github.com/mildmongrel/thicket/internal/roomconfig"
	"github.com/sirupsen/logrus"
)

var (
	ErrNameInUse   = errors.New("name already in use")
	ErrInvalidName = errors.New("invalid player name")
)

const maxNameLength = 32

// DraftServer binds logged-in clients to names and routes their requests to
// rooms.
type DraftServer struct {
	catalog     *catalog.Catalog
	tokens      *auth.TokenIssuer
	rooms       *RoomStore
	roomOptions room.Options
	logger      *logrus.Logger

	mu      sync.Mutex
	clients map[*Client]struct{}
	names   map[string]*Client
}

// NewDraftServer creates a server. Every room gets a copy of opts with its
// own random source and expiration hook.
func NewDraftServer(cat *catalog.Catalog, tokens *auth.TokenIssuer, opts room.Options, logger *logrus.Logger) *DraftServer {
	return &DraftServer{
		catalog:     cat,
		tokens:      tokens,
		rooms:       NewRoomStore(),
		roomOptions: opts,
		logger:      logger,
		clients:     make(map[*Client]struct{}),
		names:       make(map[string]*Client),
	}
}

func (s *DraftServer) Rooms() *RoomStore { return s.rooms }

// Connect registers a new client. cancel stops the client's connection.
func (s *DraftServer) Connect(cancel context.CancelFunc) *Client {
	c := newClient(cancel, logrus.NewEntry(s.logger))
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	return c
}

// Disconnect releases the client's name and leaves its room.
func (s *DraftServer) Disconnect(c *Client) {
	if r := c.takeRoom(); r != nil {
		if err := r.Leave(c); err != nil && !errors.Is(err, room.ErrRoomClosed) {
			c.logger.Warnf("leave on disconnect: %v", err)
		}
		s.broadcastRoomsInfo()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, c)
	if name := c.Name(); name != "" && s.names[name] == c {
		delete(s.names, name)
	}
}

// Handle dispatches one inbound message.
func (s *DraftServer) Handle(c *Client, env protocol.Envelope) {
	if env.Type == protocol.TypeLogin {
		var req protocol.LoginRequest
		if err := env.Into(&req); err != nil {
			c.sendError(err.Error())
			return
		}
		s.login(c, req)
		return
	}
	if c.Name() == "" {
		c.sendError(protocol.ReasonNotLoggedIn)
		return
	}

	switch env.Type {
	case protocol.TypeCreateRoom:
		var req protocol.CreateRoomRequest
		if err := env.Into(&req); err != nil {
			c.sendError(err.Error())
			return
		}
		s.createRoom(c, req)
	case protocol.TypeJoinRoom:
		var req protocol.JoinRoomRequest
		if err := env.Into(&req); err != nil {
			c.sendError(err.Error())
			return
		}
		s.joinRoom(c, req)
	case protocol.TypeDepartRoom:
		s.departRoom(c)
	default:
		r := c.currentRoom()
		if r == nil {
			c.sendError(protocol.ReasonNotInRoom)
			return
		}
		if err := r.HandleMessage(c, env); err != nil {
			if errors.Is(err, room.ErrRoomClosed) {
				c.setRoom(nil)
			}
			c.logger.Debugf("room message %s failed: %v", env.Type, err)
			c.sendError(err.Error())
		}
	}
}

func validName(name string) error {
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		return ErrInvalidName
	}
	for _, r := range name {
		if !unicode.IsPrint(r) {
			return ErrInvalidName
		}
	}
	return nil
}

// claimName binds name to c. A valid token for the name takes it over from
// a stale connection, which is returned for eviction.
func (s *DraftServer) claimName(c *Client, name string, reclaim bool) (*Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	holder := s.names[name]
	if holder != nil && holder != c && !reclaim {
		return nil, ErrNameInUse
	}
	s.names[name] = c
	c.setName(name)
	if holder == c {
		return nil, nil
	}
	return holder, nil
}

func (s *DraftServer) login(c *Client, req protocol.LoginRequest) {
	fail := func(reason string) {
		c.Send(protocol.New(protocol.TypeLoginFailure, protocol.LoginFailure{Reason: reason}))
	}
	if c.Name() != "" {
		fail(protocol.ReasonAlreadyLoggedIn)
		return
	}

	name := strings.TrimSpace(req.Name)
	reclaim := false
	if req.Token != "" {
		tokenName, err := s.tokens.Verify(req.Token)
		if err != nil || (name != "" && name != tokenName) {
			c.logger.Debugf("login token rejected: %v", err)
			fail(protocol.ReasonInvalidName)
			return
		}
		name, reclaim = tokenName, true
	}
	if err := validName(name); err != nil {
		fail(protocol.ReasonInvalidName)
		return
	}

	stale, err := s.claimName(c, name, reclaim)
	if err != nil {
		fail(protocol.ReasonNameInUse)
		return
	}
	if stale != nil {
		s.evict(stale)
	}

	token, err := s.tokens.Issue(name)
	if err != nil {
		c.logger.Errorf("failed to issue login token: %v", err)
	}
	c.logger.Infof("logged in as %q", name)
	c.Send(protocol.New(protocol.TypeLoginSuccess, protocol.LoginSuccess{Name: name, Token: token}))
	c.Send(protocol.New(protocol.TypeRoomCapabilities, s.Capabilities()))
	c.Send(protocol.New(protocol.TypeRoomsInfo, s.RoomsInfo()))
}

// evict detaches a connection whose name was reclaimed. It leaves its room
// first so the new connection can rejoin the chair.
func (s *DraftServer) evict(old *Client) {
	old.logger.Info("name reclaimed by a new connection")
	if r := old.takeRoom(); r != nil {
		_ = r.Leave(old)
	}
	old.setName("")
	if old.cancel != nil {
		old.cancel()
	}
}

func (s *DraftServer) createRoom(c *Client, req protocol.CreateRoomRequest) {
	fail := func(reason string) {
		c.Send(protocol.New(protocol.TypeCreateRoomFailure, protocol.CreateRoomFailure{Reason: reason}))
	}

	id := uuid.New()
	logger := s.logger.WithField("room", id)
	proto, err := roomconfig.NewPrototype(s.catalog, req.Config, logger)
	if err != nil {
		c.logger.Errorf("failed to create room prototype: %v", err)
		fail(err.Error())
		return
	}
	if proto.Status() != roomconfig.StatusOK {
		fail(proto.Status().String())
		return
	}

	opts := s.roomOptions
	opts.Rand = nil
	opts.Logger = logrus.NewEntry(s.logger)
	opts.OnExpired = s.removeRoom
	r, err := room.New(id, proto, opts)
	if err != nil {
		c.logger.Errorf("failed to create room: %v", err)
		fail(err.Error())
		return
	}
	s.rooms.Add(r)
	c.logger.Infof("created room %v", id)
	c.Send(protocol.New(protocol.TypeCreateRoomSuccess, protocol.CreateRoomSuccess{RoomID: id.String()}))
	s.broadcastRoomsInfo()
}

func joinFailureReason(err error) string {
	switch {
	case errors.Is(err, room.ErrInvalidPassword):
		return protocol.ReasonInvalidPassword
	case errors.Is(err, room.ErrRoomFull):
		return protocol.ReasonRoomFull
	case errors.Is(err, room.ErrNotDeparted):
		return protocol.ReasonNameInUse
	case errors.Is(err, room.ErrAlreadyJoined):
		return protocol.ReasonAlreadyInRoom
	default:
		return protocol.ReasonInvalidRoom
	}
}

func (s *DraftServer) joinRoom(c *Client, req protocol.JoinRoomRequest) {
	fail := func(reason string) {
		c.Send(protocol.New(protocol.TypeJoinRoomFailure, protocol.JoinRoomFailure{RoomID: req.RoomID, Reason: reason}))
	}
	if c.currentRoom() != nil {
		fail(protocol.ReasonAlreadyInRoom)
		return
	}
	id, err := uuid.Parse(req.RoomID)
	if err != nil {
		fail(protocol.ReasonInvalidRoom)
		return
	}
	r, ok := s.rooms.Get(id)
	if !ok {
		fail(protocol.ReasonInvalidRoom)
		return
	}

	if _, err := r.Join(c, c.Name(), req.Password); err != nil {
		c.logger.Debugf("join room %v failed: %v", id, err)
		fail(joinFailureReason(err))
		return
	}
	c.setRoom(r)
	s.broadcastRoomsInfo()
}

func (s *DraftServer) departRoom(c *Client) {
	r := c.takeRoom()
	if r == nil {
		c.sendError(protocol.ReasonNotInRoom)
		return
	}
	if err := r.Leave(c); err != nil && !errors.Is(err, room.ErrRoomClosed) {
		c.logger.Warnf("depart room: %v", err)
	}
	s.broadcastRoomsInfo()
}

func (s *DraftServer) removeRoom(id uuid.UUID) {
	s.rooms.Delete(id)
	s.logger.WithField("room", id).Info("room removed")
	s.broadcastRoomsInfo()
}

// Capabilities lists the catalog sets rooms may draft from.
func (s *DraftServer) Capabilities() protocol.RoomCapabilities {
	caps := protocol.RoomCapabilities{Sets: []protocol.SetCapability{}}
	for _, code := range s.catalog.SetCodes() {
		set, err := s.catalog.Set(code)
		if err != nil {
			continue
		}
		caps.Sets = append(caps.Sets, protocol.SetCapability{
			Code:     set.Code,
			Name:     set.Name,
			Boosters: len(set.BoosterSlots) > 0,
		})
	}
	return caps
}

// RoomsInfo summarizes the live rooms, ordered by name then id.
func (s *DraftServer) RoomsInfo() protocol.RoomsInfo {
	info := protocol.RoomsInfo{Rooms: []protocol.RoomInfo{}}
	for _, r := range s.rooms.List() {
		ri, err := r.Info()
		if err != nil {
			continue
		}
		info.Rooms = append(info.Rooms, ri)
	}
	sort.Slice(info.Rooms, func(i, j int) bool {
		a, b := info.Rooms[i], info.Rooms[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.RoomID < b.RoomID
	})
	return info
}

func (s *DraftServer) broadcastRoomsInfo() {
	msg := protocol.New(protocol.TypeRoomsInfo, s.RoomsInfo())

	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		if c.Name() != "" {
			c.Send(msg)
		}
	}
}
