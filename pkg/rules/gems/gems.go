package gems

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/cbodonnell/tabletop/pkg/rules"
)

// Engine implements the rules contract for the gems tableau game.
// The rng is not safe for concurrent use; NewGame is only called from
// the game loop goroutine.
type Engine struct {
	rng *rand.Rand
}

type NewEngineOptions struct {
	// Seed fixes the deck order of every game the engine creates.
	// Zero seeds from the current time.
	Seed int64
}

func NewEngine(opts NewEngineOptions) *Engine {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Engine{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// NewGame creates the initial state for the given number of players.
func (e *Engine) NewGame(playerCount int) (rules.State, error) {
	if playerCount < MinPlayers || playerCount > MaxPlayers {
		return nil, fmt.Errorf("player count must be between %d and %d, got %d", MinPlayers, MaxPlayers, playerCount)
	}

	decks := buildDecks(rand.New(rand.NewSource(e.rng.Int63())))

	s := &State{
		Players: make([]*Player, playerCount),
		Bank:    bankFor(playerCount),
	}
	for i := range s.Players {
		s.Players[i] = &Player{
			Name:     fmt.Sprintf("player %d", i+1),
			Tokens:   emptyTokens(),
			Bonuses:  emptyTokens(),
			Reserved: []Card{},
		}
	}
	for tier := 0; tier < NumTiers; tier++ {
		n := MarketSize
		if n > len(decks[tier]) {
			n = len(decks[tier])
		}
		s.Market[tier] = append([]Card(nil), decks[tier][:n]...)
		s.Decks[tier] = append([]Card(nil), decks[tier][n:]...)
	}
	return s, nil
}

// Validate reports whether the action is legal against the state.
func (e *Engine) Validate(state rules.State, action rules.Action) bool {
	s, ok := state.(*State)
	if !ok {
		return false
	}
	switch action.Type {
	case ActionTakeTokens:
		a, err := parseTakeTokens(action.Raw)
		if err != nil {
			return false
		}
		return validateTakeTokens(s, a) == nil
	case ActionBuyCard:
		a, err := parseBuyCard(action.Raw)
		if err != nil {
			return false
		}
		return validateBuyCard(s, a) == nil
	case ActionReserveCard:
		a, err := parseReserveCard(action.Raw)
		if err != nil {
			return false
		}
		return validateReserveCard(s, a) == nil
	case ActionEndTurn:
		return true
	default:
		return false
	}
}

// Apply returns the state after the action. Rejections return the
// input state unchanged with a non-nil error.
func (e *Engine) Apply(state rules.State, action rules.Action) (rules.State, error) {
	s, ok := state.(*State)
	if !ok {
		return state, fmt.Errorf("unexpected state type %T", state)
	}
	switch action.Type {
	case ActionTakeTokens:
		a, err := parseTakeTokens(action.Raw)
		if err != nil {
			return state, err
		}
		if err := validateTakeTokens(s, a); err != nil {
			return state, err
		}
		next := s.clone()
		applyTakeTokens(next, a)
		return next, nil
	case ActionBuyCard:
		a, err := parseBuyCard(action.Raw)
		if err != nil {
			return state, err
		}
		if err := validateBuyCard(s, a); err != nil {
			return state, err
		}
		next := s.clone()
		applyBuyCard(next, a)
		return next, nil
	case ActionReserveCard:
		a, err := parseReserveCard(action.Raw)
		if err != nil {
			return state, err
		}
		if err := validateReserveCard(s, a); err != nil {
			return state, err
		}
		next := s.clone()
		applyReserveCard(next, a)
		return next, nil
	case ActionEndTurn:
		next := s.clone()
		applyEndTurn(next)
		return next, nil
	default:
		return state, fmt.Errorf("unknown action type: %q", action.Type)
	}
}

// bankFor returns the starting bank: fewer tokens for smaller games,
// five gold always.
func bankFor(playerCount int) map[string]int {
	perColor := 7
	switch playerCount {
	case 2:
		perColor = 4
	case 3:
		perColor = 5
	}
	bank := make(map[string]int, len(BasicColors)+1)
	for _, color := range BasicColors {
		bank[color] = perColor
	}
	bank[Gold] = 5
	return bank
}

// cardsPerBonus is how many cards each bonus color contributes per tier.
var cardsPerBonus = [NumTiers]int{4, 3, 2}

// buildDecks generates and shuffles the three tier decks. Card identity
// is assigned before shuffling, so a given seed always produces the
// same cards in the same order.
func buildDecks(rng *rand.Rand) [NumTiers][]Card {
	var decks [NumTiers][]Card
	id := 1
	for tier := 0; tier < NumTiers; tier++ {
		var cards []Card
		for _, bonus := range BasicColors {
			for i := 0; i < cardsPerBonus[tier]; i++ {
				cards = append(cards, buildCard(rng, id, tier+1, bonus))
				id++
			}
		}
		rng.Shuffle(len(cards), func(i, j int) {
			cards[i], cards[j] = cards[j], cards[i]
		})
		decks[tier] = cards
	}
	return decks
}

func buildCard(rng *rand.Rand, id, tier int, bonus string) Card {
	var total, points int
	switch tier {
	case 1:
		total = 3 + rng.Intn(2)
		if total == 4 && rng.Intn(3) == 0 {
			points = 1
		}
	case 2:
		total = 5 + rng.Intn(3)
		points = 1 + rng.Intn(2)
	default:
		total = 8 + rng.Intn(4)
		points = 3 + rng.Intn(3)
	}

	numColors := 1 + rng.Intn(3)
	if numColors > total {
		numColors = total
	}
	perm := rng.Perm(len(BasicColors))
	chosen := make([]string, 0, numColors)
	cost := make(map[string]int, numColors)
	for i := 0; i < numColors; i++ {
		color := BasicColors[perm[i]]
		chosen = append(chosen, color)
		cost[color] = 1
	}
	for i := numColors; i < total; i++ {
		cost[chosen[rng.Intn(numColors)]]++
	}

	return Card{
		ID:     id,
		Tier:   tier,
		Points: points,
		Bonus:  bonus,
		Cost:   cost,
	}
}
