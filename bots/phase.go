package bots

// GamePhase buckets a position by how far the game has progressed.
type GamePhase int

const (
	Opening GamePhase = iota
	Midgame
	Endgame
)

const (
	openingMaxPly = 10
	midgameMaxPly = 20
)

// PhaseOf classifies by ply count alone.
func PhaseOf(ply int) GamePhase {
	switch {
	case ply <= openingMaxPly:
		return Opening
	case ply <= midgameMaxPly:
		return Midgame
	default:
		return Endgame
	}
}

func (p GamePhase) String() string {
	switch p {
	case Opening:
		return "opening"
	case Midgame:
		return "midgame"
	case Endgame:
		return "endgame"
	}
	return "unknown"
}
