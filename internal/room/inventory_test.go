package room

import (
	"testing"

	"github.com/mildmongrel/thicket/internal/catalog"
	"github.com/stretchr/testify/assert"
)

func card(name string) catalog.Card { return catalog.Card{Name: name, SetCode: "TST"} }

func TestParseZone(t *testing.T) {
	z, ok := ParseZone("sideboard")
	assert.True(t, ok)
	assert.Equal(t, ZoneSideboard, z)
	_, ok = ParseZone("graveyard")
	assert.False(t, ok)

	l, ok := ParseBasicLand("ISLAND")
	assert.True(t, ok)
	assert.Equal(t, Island, l)
}

func TestInventoryMoves(t *testing.T) {
	inv := NewInventory()
	inv.Add(card("Shock"), ZoneMain)
	inv.Add(card("Shock"), ZoneMain)
	inv.Add(card("Opt"), ZoneAuto)

	assert.True(t, inv.Move(card("Shock"), ZoneMain, ZoneSideboard))
	assert.False(t, inv.Move(card("Opt"), ZoneMain, ZoneSideboard))
	assert.Equal(t, []catalog.Card{card("Shock")}, inv.Cards(ZoneMain))
	assert.Equal(t, []catalog.Card{card("Shock")}, inv.Cards(ZoneSideboard))
	assert.Equal(t, 3, inv.Count())
}

func TestInventoryBasicLands(t *testing.T) {
	inv := NewInventory()
	assert.True(t, inv.AdjustBasicLand(Forest, ZoneMain, 3))
	assert.True(t, inv.AdjustBasicLand(Forest, ZoneMain, -1))
	assert.False(t, inv.AdjustBasicLand(Forest, ZoneMain, -5))
	assert.Equal(t, 2, inv.BasicLandCount(Forest, ZoneMain))

	snap := inv.Snapshot()
	assert.Equal(t, map[string]int{"Forest": 2}, snap.BasicLands["MAIN"])
	assert.Empty(t, snap.BasicLands["SIDEBOARD"])
	assert.Len(t, snap.Zones, 4)
}

func TestDeckHash(t *testing.T) {
	assert.Equal(t, "r8sq7riu", DeckHash(NewInventory()))

	inv := NewInventory()
	inv.Add(card("Shock"), ZoneMain)
	inv.Add(card("Fire/Ice"), ZoneMain)
	inv.Add(card("Æther Vial"), ZoneMain)
	inv.Add(card("Counterspell"), ZoneAuto)
	inv.Add(card("Duress"), ZoneJunk)
	inv.AdjustBasicLand(Forest, ZoneMain, 2)
	inv.AdjustBasicLand(Plains, ZoneSideboard, 1)
	assert.Equal(t, "atccj8ng", DeckHash(inv))

	inv.Move(card("Shock"), ZoneMain, ZoneSideboard)
	assert.NotEqual(t, "atccj8ng", DeckHash(inv))
}

func TestNormalizeCardName(t *testing.T) {
	assert.Equal(t, "fire // ice", normalizeCardName("Fire / Ice"))
	assert.Equal(t, "fire // ice", normalizeCardName("Fire//Ice"))
	assert.Equal(t, "aether vial", normalizeCardName("Æther Vial"))
	assert.Equal(t, "gaea's cradle", normalizeCardName("Gaea’s Cradle"))
}
