// internal/protocol/messages.go
package protocol

import (
	"github.com/mildmongrel/thicket/internal/catalog"
	"github.com/mildmongrel/thicket/internal/roomconfig"
)

// Inbound message types.
const (
	TypeLogin                 = "login"
	TypeCreateRoom            = "create_room"
	TypeJoinRoom              = "join_room"
	TypeDepartRoom            = "depart_room"
	TypeNamedCardSelection    = "named_card_selection"
	TypeIndexedCardSelection  = "indexed_card_selection"
	TypeReady                 = "ready"
	TypeNamedCardPreselection = "named_card_preselection"
	TypeInventoryUpdate       = "inventory_update"
	TypeChat                  = "chat"
)

// Outbound message types.
const (
	TypeLoginSuccess               = "login_success"
	TypeLoginFailure               = "login_failure"
	TypeRoomCapabilities           = "room_capabilities"
	TypeRoomsInfo                  = "rooms_info"
	TypeCreateRoomSuccess          = "create_room_success"
	TypeCreateRoomFailure          = "create_room_failure"
	TypeJoinRoomSuccess            = "join_room_success"
	TypeJoinRoomFailure            = "join_room_failure"
	TypeRoomOccupantsInfo          = "room_occupants_info"
	TypeRoomChairsInfo             = "room_chairs_info"
	TypeRoomStage                  = "room_stage"
	TypeCurrentPack                = "current_pack"
	TypePublicState                = "public_state"
	TypeNamedCardSelectionResult   = "named_card_selection_result"
	TypeIndexedCardSelectionResult = "indexed_card_selection_result"
	TypeAutoSelection              = "auto_selection"
	TypePlayerInventory            = "player_inventory"
	TypeRoomChairsDeckInfo         = "room_chairs_deck_info"
	TypeRoomChat                   = "room_chat"
	TypeError                      = "error"
)

// Failure reasons reported to clients.
const (
	ReasonInvalidPassword = "invalid_password"
	ReasonRoomFull        = "room_full"
	ReasonInvalidRoom     = "invalid_room"
	ReasonNameInUse       = "name_in_use"
	ReasonInvalidName     = "invalid_name"
	ReasonNotLoggedIn     = "not_logged_in"
	ReasonAlreadyInRoom   = "already_in_room"
	ReasonAlreadyLoggedIn = "already_logged_in"
	ReasonNotInRoom       = "not_in_room"
)

// Room stages.
const (
	StageNew      = "NEW"
	StageRunning  = "RUNNING"
	StageComplete = "COMPLETE"
)

// Auto selection kinds.
const (
	AutoSelectionLastCard = "LAST_CARD"
	AutoSelectionTimedOut = "TIMED_OUT"
)

// ---- inbound ----

type LoginRequest struct {
	Name string `json:"name"`
	// Token, when present, reclaims a name issued by an earlier login.
	Token string `json:"token,omitempty"`
}

type CreateRoomRequest struct {
	Config roomconfig.RoomConfig `json:"config"`
}

type JoinRoomRequest struct {
	RoomID   string `json:"roomId"`
	Password string `json:"password,omitempty"`
}

type NamedCardSelection struct {
	PackID uint32       `json:"packId"`
	Card   catalog.Card `json:"card"`
	// Zone the card lands in, MAIN when empty.
	Zone string `json:"zone,omitempty"`
}

type IndexedCardSelection struct {
	PackID  uint32 `json:"packId"`
	Indices []int  `json:"indices"`
	Zone    string `json:"zone,omitempty"`
}

type ReadyRequest struct {
	Ready bool `json:"ready"`
}

type NamedCardPreselection struct {
	PackID uint32       `json:"packId"`
	Card   catalog.Card `json:"card"`
}

type ZoneMove struct {
	Card catalog.Card `json:"card"`
	From string       `json:"from"`
	To   string       `json:"to"`
}

type BasicLandAdjustment struct {
	Land  string `json:"land"`
	Zone  string `json:"zone"`
	Delta int    `json:"delta"`
}

type InventoryUpdate struct {
	Moves      []ZoneMove            `json:"moves,omitempty"`
	BasicLands []BasicLandAdjustment `json:"basicLands,omitempty"`
}

type ChatRequest struct {
	Text string `json:"text"`
}

// ---- outbound ----

type LoginSuccess struct {
	Name  string `json:"name"`
	Token string `json:"token"`
}

type LoginFailure struct {
	Reason string `json:"reason"`
}

type SetCapability struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Boosters bool   `json:"boosters"`
}

type RoomCapabilities struct {
	Sets []SetCapability `json:"sets"`
}

type RoomInfo struct {
	RoomID            string `json:"roomId"`
	Name              string `json:"name"`
	ChairCount        int    `json:"chairCount"`
	BotCount          int    `json:"botCount"`
	Occupied          int    `json:"occupied"`
	PasswordProtected bool   `json:"passwordProtected"`
	Stage             string `json:"stage"`
}

type RoomsInfo struct {
	Rooms []RoomInfo `json:"rooms"`
}

type CreateRoomSuccess struct {
	RoomID string `json:"roomId"`
}

type CreateRoomFailure struct {
	Reason string `json:"reason"`
}

type JoinRoomSuccess struct {
	RoomID string                `json:"roomId"`
	Rejoin bool                  `json:"rejoin"`
	Chair  int                   `json:"chair"`
	Config roomconfig.RoomConfig `json:"roomConfig"`
}

type JoinRoomFailure struct {
	RoomID string `json:"roomId"`
	Reason string `json:"reason"`
}

type Occupant struct {
	Chair int    `json:"chair"`
	Name  string `json:"name"`
	IsBot bool   `json:"isBot"`
	State string `json:"state"`
}

type RoomOccupantsInfo struct {
	RoomID    string     `json:"roomId"`
	Occupants []Occupant `json:"occupants"`
}

type ChairInfo struct {
	Chair          int `json:"chair"`
	QueuedPacks    int `json:"queuedPacks"`
	TicksRemaining int `json:"ticksRemaining"`
}

type RoomChairsInfo struct {
	Chairs []ChairInfo `json:"chairs"`
}

type RoomStage struct {
	Stage string `json:"stage"`
	Round int    `json:"round"`
}

type CurrentPack struct {
	PackID uint32         `json:"packId"`
	Cards  []catalog.Card `json:"cards"`
}

type PublicCell struct {
	Card          catalog.Card `json:"card"`
	SelectedChair int          `json:"selectedChair"`
	SelectedOrder int          `json:"selectedOrder"`
}

type PublicState struct {
	PackID      uint32       `json:"packId"`
	Cells       []PublicCell `json:"cells"`
	ActiveChair int          `json:"activeChair"`
}

type NamedCardSelectionResult struct {
	PackID  uint32       `json:"packId"`
	Success bool         `json:"success"`
	Card    catalog.Card `json:"card"`
}

type IndexedCardSelectionResult struct {
	PackID  uint32         `json:"packId"`
	Success bool           `json:"success"`
	Indices []int          `json:"indices"`
	Cards   []catalog.Card `json:"cards,omitempty"`
}

type AutoSelection struct {
	PackID uint32       `json:"packId"`
	Card   catalog.Card `json:"card"`
	Type   string       `json:"type"`
}

type PlayerInventory struct {
	Zones      map[string][]catalog.Card `json:"zones"`
	BasicLands map[string]map[string]int `json:"basicLands"`
}

type ChairDeckInfo struct {
	Chair int    `json:"chair"`
	Name  string `json:"name"`
	Hash  string `json:"hash"`
}

type RoomChairsDeckInfo struct {
	Chairs []ChairDeckInfo `json:"chairs"`
}

type RoomChat struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

type Error struct {
	Message string `json:"message"`
}
