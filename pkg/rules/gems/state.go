package gems

// Gem colors. Gold is the joker: it is never taken directly and never
// appears in a card cost, only as change for missing tokens.
const (
	Diamond  = "diamond"
	Sapphire = "sapphire"
	Emerald  = "emerald"
	Ruby     = "ruby"
	Onyx     = "onyx"
	Gold     = "gold"
)

// BasicColors are the takeable, cost-bearing colors.
var BasicColors = []string{Diamond, Sapphire, Emerald, Ruby, Onyx}

const (
	MinPlayers = 2
	MaxPlayers = 4
	// NumTiers is the number of card tiers in the market.
	NumTiers = 3
	// MarketSize is the number of face-up cards per tier.
	MarketSize = 4
	// ReserveLimit is the maximum number of cards a player may hold reserved.
	ReserveLimit = 3
)

// Card is one development card. Cards are immutable once built, so the
// cost map is shared freely between state copies.
type Card struct {
	ID     int            `json:"id"`
	Tier   int            `json:"tier"`
	Points int            `json:"points"`
	Bonus  string         `json:"bonus"`
	Cost   map[string]int `json:"cost"`
}

// Player is one seat's holdings.
type Player struct {
	Name     string         `json:"name"`
	Tokens   map[string]int `json:"tokens"`
	Bonuses  map[string]int `json:"bonuses"`
	Reserved []Card         `json:"reserved"`
	Points   int            `json:"points"`
	// Acted is set once the player takes their mutating action for the
	// turn and cleared by end_turn.
	Acted bool `json:"acted"`
}

// State is a full game state. Decks are server-only: they are part of
// the state value but never serialized to clients.
type State struct {
	Players           []*Player        `json:"players"`
	ActivePlayerIndex int              `json:"activePlayerIndex"`
	Bank              map[string]int   `json:"bank"`
	Market            [NumTiers][]Card `json:"market"`
	Decks             [NumTiers][]Card `json:"-"`
}

func (s *State) ActivePlayer() int {
	return s.ActivePlayerIndex
}

func (s *State) PlayerCount() int {
	return len(s.Players)
}

func (s *State) SetPlayerName(seat int, name string) {
	if seat < 0 || seat >= len(s.Players) {
		return
	}
	s.Players[seat].Name = name
}

// active returns the player whose turn it is.
func (s *State) active() *Player {
	return s.Players[s.ActivePlayerIndex]
}

// clone returns a deep copy of the state. Card values are copied but
// their cost maps are shared; see Card.
func (s *State) clone() *State {
	next := &State{
		Players:           make([]*Player, len(s.Players)),
		ActivePlayerIndex: s.ActivePlayerIndex,
		Bank:              copyTokens(s.Bank),
	}
	for i, p := range s.Players {
		next.Players[i] = &Player{
			Name:     p.Name,
			Tokens:   copyTokens(p.Tokens),
			Bonuses:  copyTokens(p.Bonuses),
			Reserved: append([]Card(nil), p.Reserved...),
			Points:   p.Points,
			Acted:    p.Acted,
		}
	}
	for tier := 0; tier < NumTiers; tier++ {
		next.Market[tier] = append([]Card(nil), s.Market[tier]...)
		next.Decks[tier] = append([]Card(nil), s.Decks[tier]...)
	}
	return next
}

func copyTokens(tokens map[string]int) map[string]int {
	out := make(map[string]int, len(tokens))
	for color, n := range tokens {
		out[color] = n
	}
	return out
}

func emptyTokens() map[string]int {
	out := make(map[string]int, len(BasicColors)+1)
	for _, color := range BasicColors {
		out[color] = 0
	}
	out[Gold] = 0
	return out
}
