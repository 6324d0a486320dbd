package room

import (
	"crypto/sha1"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	nameReplacer = strings.NewReplacer("Æ", "AE", "’", "'")
	splitCard    = regexp.MustCompile(`\s*/+\s*`)
)

func normalizeCardName(name string) string {
	name = nameReplacer.Replace(name)
	name = splitCard.ReplaceAllString(name, " // ")
	return strings.ToLower(name)
}

// DeckHash computes the Cockatrice deck hash of the main deck and sideboard
// in inv. Cards in AUTO and JUNK are not part of the deck.
func DeckHash(inv *Inventory) string {
	var entries []string
	add := func(zone Zone, prefix string) {
		for _, c := range inv.cards[zone] {
			entries = append(entries, prefix+normalizeCardName(c.Name))
		}
		for _, land := range BasicLands {
			name := prefix + strings.ToLower(string(land))
			for i := 0; i < inv.lands[zone][land]; i++ {
				entries = append(entries, name)
			}
		}
	}
	add(ZoneMain, "")
	add(ZoneSideboard, "SB:")
	sort.Strings(entries)

	sum := sha1.Sum([]byte(strings.Join(entries, ";")))
	var n uint64
	for _, b := range sum[:5] {
		n = n<<8 | uint64(b)
	}
	hash := strconv.FormatUint(n, 32)
	if len(hash) < 8 {
		hash = strings.Repeat("0", 8-len(hash)) + hash
	}
	return hash
}
