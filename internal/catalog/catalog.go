// internal/catalog/catalog.go
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// ErrUnknownSet is returned when a set code is not in the catalog.
var ErrUnknownSet = errors.New("unknown set code")

// Card identifies one printed card. It is the descriptor drafted by rooms.
type Card struct {
	Name    string `json:"name"`
	SetCode string `json:"setCode"`
}

func (c Card) String() string {
	return c.SetCode + ":" + c.Name
}

// Rarity of a card within its set.
type Rarity string

const (
	RarityBasicLand Rarity = "basic_land"
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityMythic    Rarity = "mythic"
	RaritySpecial   Rarity = "special"
)

// Slot is one position of a booster layout.
type Slot string

const (
	SlotCommon       Slot = "common"
	SlotUncommon     Slot = "uncommon"
	SlotRare         Slot = "rare"
	SlotRareOrMythic Slot = "rare_or_mythic"
)

// SetCard is a card entry of a set file.
type SetCard struct {
	Name   string `json:"name"`
	Rarity Rarity `json:"rarity"`
}

// Set is one card set: its booster layout and card list.
type Set struct {
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	ReleaseDate  string    `json:"releaseDate,omitempty"`
	BoosterSlots []Slot    `json:"boosterSlots,omitempty"`
	Cards        []SetCard `json:"cards"`
}

type catalogFile struct {
	Sets []Set `json:"sets"`
}

// Catalog holds every known set keyed by upper-cased set code. It is read-only
// after construction and safe for concurrent use.
type Catalog struct {
	sets  map[string]*Set
	codes []string
}

// New builds a catalog from sets. Later sets with the same code replace
// earlier ones.
func New(sets ...Set) *Catalog {
	c := &Catalog{sets: make(map[string]*Set, len(sets))}
	for i := range sets {
		s := sets[i]
		key := strings.ToUpper(s.Code)
		if _, dup := c.sets[key]; !dup {
			c.codes = append(c.codes, key)
		}
		c.sets[key] = &s
	}
	sort.Strings(c.codes)
	return c
}

// Parse decodes a catalog document from r.
func Parse(r io.Reader) (*Catalog, error) {
	var f catalogFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	for i, s := range f.Sets {
		if s.Code == "" {
			return nil, fmt.Errorf("catalog set %d has no code", i)
		}
	}
	return New(f.Sets...), nil
}

// Load reads the catalog file at path.
func Load(path string) (*Catalog, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer fh.Close()
	return Parse(fh)
}

// SetCodes returns every set code, sorted.
func (c *Catalog) SetCodes() []string {
	return append([]string(nil), c.codes...)
}

// HasSet reports whether code names a known set.
func (c *Catalog) HasSet(code string) bool {
	_, ok := c.sets[strings.ToUpper(code)]
	return ok
}

// Set returns the set named by code.
func (c *Catalog) Set(code string) (*Set, error) {
	s, ok := c.sets[strings.ToUpper(code)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSet, code)
	}
	return s, nil
}

// BoosterSlots returns the booster layout of a set; empty when the set has no
// boosters.
func (c *Catalog) BoosterSlots(code string) ([]Slot, error) {
	s, err := c.Set(code)
	if err != nil {
		return nil, err
	}
	return append([]Slot(nil), s.BoosterSlots...), nil
}

// CardPool groups a set's card names by rarity.
func (c *Catalog) CardPool(code string) (map[Rarity][]string, error) {
	s, err := c.Set(code)
	if err != nil {
		return nil, err
	}
	pool := make(map[Rarity][]string)
	for _, card := range s.Cards {
		pool[card.Rarity] = append(pool[card.Rarity], card.Name)
	}
	return pool, nil
}

// Cards returns every card of a set as drafting descriptors.
func (c *Catalog) Cards(code string) ([]Card, error) {
	s, err := c.Set(code)
	if err != nil {
		return nil, err
	}
	out := make([]Card, 0, len(s.Cards))
	for _, card := range s.Cards {
		out = append(out, Card{Name: card.Name, SetCode: s.Code})
	}
	return out, nil
}
