// internal/room/inventory.go
package room

import (
	"strings"

	"github.com/mildmongrel/thicket/internal/catalog"
	"github.com/mildmongrel/thicket/internal/protocol"
)

// Zone is a player inventory zone.
type Zone string

const (
	ZoneAuto      Zone = "AUTO"
	ZoneMain      Zone = "MAIN"
	ZoneSideboard Zone = "SIDEBOARD"
	ZoneJunk      Zone = "JUNK"
)

// Zones lists every zone in display order.
var Zones = []Zone{ZoneAuto, ZoneMain, ZoneSideboard, ZoneJunk}

// ParseZone accepts a zone name in any case.
func ParseZone(s string) (Zone, bool) {
	z := Zone(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Zones {
		if z == known {
			return z, true
		}
	}
	return "", false
}

// BasicLand is one of the five basic lands a player may add freely.
type BasicLand string

const (
	Plains   BasicLand = "Plains"
	Island   BasicLand = "Island"
	Swamp    BasicLand = "Swamp"
	Mountain BasicLand = "Mountain"
	Forest   BasicLand = "Forest"
)

var BasicLands = []BasicLand{Plains, Island, Swamp, Mountain, Forest}

// ParseBasicLand accepts a basic land name in any case.
func ParseBasicLand(s string) (BasicLand, bool) {
	for _, l := range BasicLands {
		if strings.EqualFold(string(l), strings.TrimSpace(s)) {
			return l, true
		}
	}
	return "", false
}

// Inventory holds a player's drafted cards by zone, plus the basic lands
// they have added to each zone.
type Inventory struct {
	cards map[Zone][]catalog.Card
	lands map[Zone]map[BasicLand]int
}

func NewInventory() *Inventory {
	inv := &Inventory{
		cards: make(map[Zone][]catalog.Card),
		lands: make(map[Zone]map[BasicLand]int),
	}
	for _, z := range Zones {
		inv.lands[z] = make(map[BasicLand]int)
	}
	return inv
}

func (inv *Inventory) Add(card catalog.Card, zone Zone) {
	inv.cards[zone] = append(inv.cards[zone], card)
}

// Move moves one copy of card between zones. It fails when from holds no
// such card.
func (inv *Inventory) Move(card catalog.Card, from, to Zone) bool {
	cards := inv.cards[from]
	for i, c := range cards {
		if c != card {
			continue
		}
		inv.cards[from] = append(cards[:i:i], cards[i+1:]...)
		inv.cards[to] = append(inv.cards[to], card)
		return true
	}
	return false
}

// AdjustBasicLand changes the quantity of a basic land in a zone. The
// quantity never goes negative.
func (inv *Inventory) AdjustBasicLand(land BasicLand, zone Zone, delta int) bool {
	qty := inv.lands[zone][land] + delta
	if qty < 0 {
		return false
	}
	if qty == 0 {
		delete(inv.lands[zone], land)
	} else {
		inv.lands[zone][land] = qty
	}
	return true
}

func (inv *Inventory) Cards(zone Zone) []catalog.Card {
	return append([]catalog.Card(nil), inv.cards[zone]...)
}

func (inv *Inventory) BasicLandCount(land BasicLand, zone Zone) int {
	return inv.lands[zone][land]
}

// Count is the number of drafted cards over every zone.
func (inv *Inventory) Count() int {
	n := 0
	for _, cards := range inv.cards {
		n += len(cards)
	}
	return n
}

// Snapshot renders the inventory for the wire.
func (inv *Inventory) Snapshot() protocol.PlayerInventory {
	out := protocol.PlayerInventory{
		Zones:      make(map[string][]catalog.Card, len(Zones)),
		BasicLands: make(map[string]map[string]int, len(Zones)),
	}
	for _, z := range Zones {
		out.Zones[string(z)] = inv.Cards(z)
		lands := make(map[string]int, len(inv.lands[z]))
		for l, n := range inv.lands[z] {
			lands[string(l)] = n
		}
		out.BasicLands[string(z)] = lands
	}
	return out
}
