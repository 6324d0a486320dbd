package room

// ChairState is the session state of one chair.
//
// Empty, Standby and Ready only occur before the draft runs; Active and
// Departed only once it has started. Bot chairs are Ready from seating and
// become Active with everyone else.
type ChairState int

const (
	ChairEmpty ChairState = iota
	ChairStandby
	ChairReady
	ChairActive
	ChairDeparted
)

func (s ChairState) String() string {
	switch s {
	case ChairEmpty:
		return "EMPTY"
	case ChairStandby:
		return "STANDBY"
	case ChairReady:
		return "READY"
	case ChairActive:
		return "ACTIVE"
	case ChairDeparted:
		return "DEPARTED"
	default:
		return "UNKNOWN"
	}
}

// botChairs returns the chairs bots are seated in: even chairs first, then
// the odd ones, so bots spread around the table.
func botChairs(chairCount, botCount int) []int {
	out := make([]int, 0, botCount)
	for start := 0; start < 2; start++ {
		for c := start; c < chairCount && len(out) < botCount; c += 2 {
			out = append(out, c)
		}
	}
	return out
}
